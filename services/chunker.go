package services

import "strings"

// Chunker splits text into overlapping bounded-size windows, preferring to
// break at sentence terminators or newlines over hard character cuts.
// Size and overlap are measured in runes, so windows never split a
// multi-byte character.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given window size and overlap.
// Non-positive sizes fall back to 1000 characters; the overlap is clamped
// into [0, size) so that start offsets are strictly increasing and the chunk
// loop always terminates.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits text into trimmed, non-empty windows. Empty input yields an
// empty result.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []string
	start := 0

	for start < n {
		end := start + c.size
		if end > n {
			end = n
		}

		// Prefer to end at a sentence boundary when it lies past the
		// window's midpoint
		if end < n {
			boundary := lastSentenceBoundary(runes[start:end])
			if boundary > c.size/2 {
				end = start + boundary + 1
			}
		}

		if trimmed := strings.TrimSpace(string(runes[start:end])); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		next := end - c.overlap
		if next <= start {
			// A boundary cut can land inside the overlap region; keep
			// the start offset strictly increasing
			next = end
		}
		start = next
	}

	return chunks
}

// lastSentenceBoundary returns the index of the last sentence terminator or
// newline in the window, or -1.
func lastSentenceBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}

// Size returns the configured window size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the effective overlap after clamping.
func (c *Chunker) Overlap() int { return c.overlap }
