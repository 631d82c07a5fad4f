package services

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"notes-qa-platform/internal/logger"
	"notes-qa-platform/models"
	"notes-qa-platform/utils"
)

const (
	indexFileName    = "vector_index.bin"
	catalogFileName  = "documents.json.gz"
	indexMagic       = "NQVI"
	indexFormatVer   = uint32(1)
	indexHeaderBytes = 4 + 4 + 4 + 4 // magic, version, dimension, count
)

// Snapshot is the durable form of the index/catalog pair. The two artifacts
// are only meaningful together: vector i in the index artifact belongs to
// chunk i in the catalog artifact.
type Snapshot struct {
	Documents   []models.Document `json:"documents"`
	Chunks      []models.Chunk    `json:"chunks"`
	NextDocID   int64             `json:"next_doc_id"`
	NextChunkID int64             `json:"next_chunk_id"`
	Vectors     [][]float32       `json:"-"`
}

// SnapshotStore persists the index/catalog pair under a data directory as two
// paired artifacts: a binary vector file and a gzip-compressed JSON catalog.
type SnapshotStore struct {
	dir string
	dim int
}

func NewSnapshotStore(dir string, dim int) *SnapshotStore {
	return &SnapshotStore{dir: dir, dim: dim}
}

// Save writes both artifacts. Each file is written to a temp path and
// renamed, but there is no atomic two-file commit; a torn save is detected at
// the next Load and treated as no snapshot.
func (s *SnapshotStore) Save(snap *Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := s.writeIndex(snap.Vectors); err != nil {
		return fmt.Errorf("failed to write index artifact: %w", err)
	}
	if err := s.writeCatalog(snap); err != nil {
		return fmt.Errorf("failed to write catalog artifact: %w", err)
	}
	return nil
}

// Load restores the snapshot pair. A missing or unreadable pair yields
// (nil, nil): the caller starts empty rather than crashing. A stored
// embedding dimension that disagrees with the configured one is the only
// fatal case, returned as ErrDimensionMismatch.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	indexPath := filepath.Join(s.dir, indexFileName)
	catalogPath := filepath.Join(s.dir, catalogFileName)

	if _, err := os.Stat(indexPath); err != nil {
		return nil, nil
	}
	if _, err := os.Stat(catalogPath); err != nil {
		return nil, nil
	}

	vectors, err := s.readIndex(indexPath)
	if err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			return nil, err
		}
		logger.Warn("discarding unreadable index artifact", "path", indexPath, "error", err)
		return nil, nil
	}

	snap, err := s.readCatalog(catalogPath)
	if err != nil {
		logger.Warn("discarding unreadable catalog artifact", "path", catalogPath, "error", err)
		return nil, nil
	}

	if len(snap.Chunks) != len(vectors) {
		logger.Warn("discarding inconsistent snapshot",
			"chunks", len(snap.Chunks), "vectors", len(vectors))
		return nil, nil
	}

	snap.Vectors = vectors
	return snap, nil
}

func (s *SnapshotStore) writeIndex(vectors [][]float32) error {
	buf := new(bytes.Buffer)
	buf.Grow(indexHeaderBytes + len(vectors)*s.dim*4)

	buf.WriteString(indexMagic)
	binary.Write(buf, binary.LittleEndian, indexFormatVer)
	binary.Write(buf, binary.LittleEndian, uint32(s.dim))
	binary.Write(buf, binary.LittleEndian, uint32(len(vectors)))
	for _, vec := range vectors {
		for _, v := range vec {
			binary.Write(buf, binary.LittleEndian, math.Float32bits(v))
		}
	}

	return writeFileAtomic(filepath.Join(s.dir, indexFileName), buf.Bytes())
}

func (s *SnapshotStore) readIndex(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < indexHeaderBytes || string(data[:4]) != indexMagic {
		return nil, fmt.Errorf("bad index artifact header")
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != indexFormatVer {
		return nil, fmt.Errorf("unsupported index artifact version %d", version)
	}

	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	if dim != s.dim {
		return nil, ErrDimensionMismatch
	}

	count := int(binary.LittleEndian.Uint32(data[12:16]))
	want := indexHeaderBytes + count*dim*4
	if len(data) != want {
		return nil, fmt.Errorf("index artifact truncated: have %d bytes, want %d", len(data), want)
	}

	vectors := make([][]float32, count)
	offset := indexHeaderBytes
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (s *SnapshotStore) writeCatalog(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	compressed, err := utils.GzipCompress(data)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, catalogFileName), compressed)
}

func (s *SnapshotStore) readCatalog(path string) (*Snapshot, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := utils.GzipDecompress(compressed)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
