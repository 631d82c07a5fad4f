package services

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkEmptyInput(t *testing.T) {
	c := NewChunker(1000, 200)
	if got := c.Chunk(""); len(got) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(got))
	}
}

func TestChunkTermination(t *testing.T) {
	text := strings.Repeat("All work and no play makes Jack a dull boy. ", 50)

	cases := []struct {
		size    int
		overlap int
	}{
		{1000, 200},
		{100, 99},
		{50, 25},
		{20, 5},
		{10, 9},
		{10, 1},
	}

	for _, tc := range cases {
		c := NewChunker(tc.size, tc.overlap)
		chunks := c.Chunk(text)
		if len(chunks) == 0 {
			t.Fatalf("size=%d overlap=%d: no chunks produced", tc.size, tc.overlap)
		}
		for i, chunk := range chunks {
			if strings.TrimSpace(chunk) == "" {
				t.Fatalf("size=%d overlap=%d: chunk %d is empty", tc.size, tc.overlap, i)
			}
		}
	}
}

func TestChunkOverlapClamped(t *testing.T) {
	c := NewChunker(10, 50)
	if c.Overlap() >= c.Size() {
		t.Fatalf("overlap %d not clamped below size %d", c.Overlap(), c.Size())
	}

	chunks := c.Chunk(strings.Repeat("x", 100))
	if len(chunks) == 0 {
		t.Fatal("no chunks produced after clamping")
	}
}

func TestChunkCoverage(t *testing.T) {
	// Non-repeating text without whitespace so chunk positions in the source
	// are unambiguous
	var b strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "%03d", i)
	}
	text := b.String()

	c := NewChunker(50, 10)
	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	pos := 0
	covered := 0
	for i, chunk := range chunks {
		idx := strings.Index(text[pos:], chunk)
		if idx == -1 {
			t.Fatalf("chunk %d not found in source text", i)
		}
		start := pos + idx
		if start > covered {
			t.Fatalf("gap before chunk %d: starts at %d, coverage ends at %d", i, start, covered)
		}
		if start+len(chunk) > covered {
			covered = start + len(chunk)
		}
		pos = start
	}
	if covered != len(text) {
		t.Fatalf("coverage ends at %d, text length is %d", covered, len(text))
	}
}

func TestChunkMultiByteText(t *testing.T) {
	// Window boundaries must land on rune boundaries: a window that cuts
	// through a multi-byte character would yield invalid UTF-8
	text := strings.Repeat("日本語のノートです", 20)

	cases := []struct {
		size    int
		overlap int
	}{
		{20, 5},
		{10, 9},
		{50, 25},
	}

	for _, tc := range cases {
		c := NewChunker(tc.size, tc.overlap)
		chunks := c.Chunk(text)
		if len(chunks) == 0 {
			t.Fatalf("size=%d overlap=%d: no chunks produced", tc.size, tc.overlap)
		}
		for i, chunk := range chunks {
			if !utf8.ValidString(chunk) {
				t.Fatalf("size=%d overlap=%d: chunk %d is not valid UTF-8: %q", tc.size, tc.overlap, i, chunk)
			}
			if n := utf8.RuneCountInString(chunk); n > tc.size {
				t.Fatalf("size=%d overlap=%d: chunk %d has %d runes", tc.size, tc.overlap, i, n)
			}
			if !strings.Contains(text, chunk) {
				t.Fatalf("size=%d overlap=%d: chunk %d not a substring of the source: %q", tc.size, tc.overlap, i, chunk)
			}
		}
	}
}

func TestChunkSentenceBoundary(t *testing.T) {
	text := "The sky is blue. Grass is green."
	c := NewChunker(20, 5)

	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	// First window covers "The sky is blue. Gra"; the period past the
	// midpoint truncates it to the full first sentence
	if chunks[0] != "The sky is blue." {
		t.Fatalf("expected first chunk to end at sentence boundary, got %q", chunks[0])
	}

	for i, chunk := range chunks {
		if len(chunk) > 20 {
			t.Fatalf("chunk %d exceeds window size: %q", i, chunk)
		}
	}
}
