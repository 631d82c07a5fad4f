package services

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"notes-qa-platform/models"
)

func testSnapshot() *Snapshot {
	uploaded := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return &Snapshot{
		Documents: []models.Document{
			{ID: 0, Filename: "a.txt", UploadedAt: uploaded, ChunkCount: 2},
			{ID: 1, Filename: "b.txt", UploadedAt: uploaded, ChunkCount: 1},
		},
		Chunks: []models.Chunk{
			{DocID: 0, ChunkID: 0, Text: "first", Filename: "a.txt", ChunkIndex: 0},
			{DocID: 0, ChunkID: 1, Text: "second", Filename: "a.txt", ChunkIndex: 1},
			{DocID: 1, ChunkID: 2, Text: "日本語のノートです", Filename: "b.txt", ChunkIndex: 0},
		},
		NextDocID:   2,
		NextChunkID: 3,
		Vectors: [][]float32{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0.5},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewSnapshotStore(t.TempDir(), 4)
	snap := testSnapshot()

	if err := store.Save(snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot, got none")
	}

	if !reflect.DeepEqual(loaded.Documents, snap.Documents) {
		t.Fatalf("documents differ:\n got %+v\nwant %+v", loaded.Documents, snap.Documents)
	}
	if !reflect.DeepEqual(loaded.Chunks, snap.Chunks) {
		t.Fatalf("chunks differ:\n got %+v\nwant %+v", loaded.Chunks, snap.Chunks)
	}
	if !reflect.DeepEqual(loaded.Vectors, snap.Vectors) {
		t.Fatalf("vectors differ:\n got %v\nwant %v", loaded.Vectors, snap.Vectors)
	}
	if loaded.NextDocID != snap.NextDocID || loaded.NextChunkID != snap.NextChunkID {
		t.Fatalf("counters differ: got (%d, %d), want (%d, %d)",
			loaded.NextDocID, loaded.NextChunkID, snap.NextDocID, snap.NextChunkID)
	}
}

func TestSnapshotPreservesMultiByteChunks(t *testing.T) {
	store := NewSnapshotStore(t.TempDir(), 4)

	parts := NewChunker(20, 5).Chunk(strings.Repeat("日本語のノートです", 20))
	if len(parts) == 0 {
		t.Fatal("no chunks produced")
	}

	snap := &Snapshot{NextDocID: 1, NextChunkID: int64(len(parts))}
	for i, part := range parts {
		snap.Chunks = append(snap.Chunks, models.Chunk{
			DocID: 0, ChunkID: int64(i), Text: part, Filename: "notes.txt", ChunkIndex: i,
		})
		snap.Vectors = append(snap.Vectors, []float32{1, 0, 0, 0})
	}

	if err := store.Save(snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot, got none")
	}

	for i, chunk := range loaded.Chunks {
		if chunk.Text != parts[i] {
			t.Fatalf("chunk %d text changed across save/load: got %q, want %q", i, chunk.Text, parts[i])
		}
	}
}

func TestSnapshotLoadMissing(t *testing.T) {
	store := NewSnapshotStore(t.TempDir(), 4)

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot from empty dir, got %+v", snap)
	}
}

func TestSnapshotLoadTornPair(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(dir, 4)

	if err := store.Save(testSnapshot()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, catalogFileName)); err != nil {
		t.Fatalf("failed to remove catalog artifact: %v", err)
	}

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap != nil {
		t.Fatal("expected torn pair to be discarded")
	}
}

func TestSnapshotLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(dir, 4)

	if err := os.WriteFile(filepath.Join(dir, indexFileName), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, catalogFileName), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap != nil {
		t.Fatal("expected corrupt snapshot to be discarded")
	}
}

func TestSnapshotDimensionMismatchIsFatal(t *testing.T) {
	dir := t.TempDir()

	if err := NewSnapshotStore(dir, 4).Save(testSnapshot()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, err := NewSnapshotStore(dir, 8).Load()
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
