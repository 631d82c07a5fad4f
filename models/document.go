package models

import "time"

// Document represents one ingested source file. IDs are assigned from a
// monotonically increasing counter and are never reused, even after removal.
type Document struct {
	ID         int64     `json:"id" bson:"doc_id"`
	Filename   string    `json:"filename" bson:"filename"`
	FilePath   string    `json:"file_path" bson:"file_path"`
	Department string    `json:"department,omitempty" bson:"department,omitempty"`
	Subject    string    `json:"subject,omitempty" bson:"subject,omitempty"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
	ChunkCount int       `json:"chunk_count" bson:"chunk_count"`
}

// Chunk is the unit of retrieval: a bounded substring of a document.
// The position of a chunk in the catalog's chunk list always matches the
// position of its vector in the index.
type Chunk struct {
	DocID      int64  `json:"doc_id" bson:"doc_id"`
	ChunkID    int64  `json:"chunk_id" bson:"chunk_id"`
	Text       string `json:"text" bson:"text"`
	Filename   string `json:"filename" bson:"filename"`
	ChunkIndex int    `json:"chunk_index" bson:"chunk_index"`
}

// DocumentInfo is the listing view returned to callers.
type DocumentInfo struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
}

// IngestResult reports the outcome of ingesting a single uploaded file.
type IngestResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
}
