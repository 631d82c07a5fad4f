package services

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch is returned when a vector's length does not match the
// index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is one similarity search result. Position indexes the aligned chunk
// list.
type Match struct {
	Score    float32
	Position int
}

// VectorIndex is a flat inner-product index. Vectors are stored in insertion
// order and never moved, so the vector at position i always corresponds to
// the chunk at position i in the owning catalog. The index supports append
// and search only; removal is handled by the owner rebuilding the index.
type VectorIndex struct {
	dim     int
	vectors [][]float32
}

func NewVectorIndex(dim int) *VectorIndex {
	return &VectorIndex{dim: dim}
}

// Add appends vectors to the end of the index, preserving order. All vectors
// are validated before any of them is stored.
func (idx *VectorIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != idx.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				ErrDimensionMismatch, i, len(v), idx.dim)
		}
	}
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// Search returns up to k matches ordered by descending inner-product score.
func (idx *VectorIndex) Search(query []float32, k int) ([]Match, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			ErrDimensionMismatch, len(query), idx.dim)
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return nil, nil
	}

	matches := make([]Match, len(idx.vectors))
	for i, v := range idx.vectors {
		matches[i] = Match{Score: dot(v, query), Position: i}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Size returns the number of stored vectors.
func (idx *VectorIndex) Size() int { return len(idx.vectors) }

// Dimension returns the fixed vector dimension.
func (idx *VectorIndex) Dimension() int { return idx.dim }

// Vectors exposes the stored vectors in insertion order, for persistence.
func (idx *VectorIndex) Vectors() [][]float32 { return idx.vectors }

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
