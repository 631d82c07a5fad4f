package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStorage keeps a copy of every uploaded blob on disk so documents can be
// re-ingested or audited later. Stored names are uuid-prefixed to avoid
// collisions and path traversal through user-supplied filenames.
type FileStorage struct {
	baseDir string
}

func NewFileStorage(baseDir string) (*FileStorage, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileStorage{baseDir: baseDir}, nil
}

// Save writes blob under a sanitized, uuid-prefixed name and returns the
// stored path.
func (fs *FileStorage) Save(blob []byte, filename string) (string, error) {
	name := uuid.NewString() + "_" + sanitizeFilename(filename)
	path := filepath.Join(fs.baseDir, name)

	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return path, nil
}

func sanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
