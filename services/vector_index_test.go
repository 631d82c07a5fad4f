package services

import (
	"errors"
	"testing"
)

func TestVectorIndexAddAndSearch(t *testing.T) {
	idx := NewVectorIndex(3)
	err := idx.Add([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if idx.Size() != 3 {
		t.Fatalf("expected size 3, got %d", idx.Size())
	}

	matches, err := idx.Search([]float32{0.9, 0.3, 0.1}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Position != 0 || matches[1].Position != 1 {
		t.Fatalf("unexpected match order: %+v", matches)
	}
	if matches[0].Score < matches[1].Score {
		t.Fatalf("scores not descending: %+v", matches)
	}
}

func TestVectorIndexSearchKLargerThanSize(t *testing.T) {
	idx := NewVectorIndex(2)
	if err := idx.Add([][]float32{{1, 0}}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	matches, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestVectorIndexSearchEmpty(t *testing.T) {
	idx := NewVectorIndex(2)
	matches, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches on empty index, got %d", len(matches))
	}
}

func TestVectorIndexAddDimensionMismatch(t *testing.T) {
	idx := NewVectorIndex(3)

	// One valid vector, one with the wrong dimension: nothing may be stored
	err := idx.Add([][]float32{
		{1, 0, 0},
		{1, 0},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Size() != 0 {
		t.Fatalf("index mutated by failed add: size %d", idx.Size())
	}
}

func TestVectorIndexQueryDimensionMismatch(t *testing.T) {
	idx := NewVectorIndex(3)
	if err := idx.Add([][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err := idx.Search([]float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
