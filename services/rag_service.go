package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"notes-qa-platform/internal/ai"
	"notes-qa-platform/internal/config"
	"notes-qa-platform/internal/logger"
	"notes-qa-platform/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrEmptyDocument is returned when extraction succeeds but yields no text.
var ErrEmptyDocument = errors.New("no text could be extracted from document")

// ErrNoChunks is returned when chunking produces no usable chunks.
var ErrNoChunks = errors.New("no chunks produced from document text")

const (
	responsePromptForQuestion = "Please provide a valid question."
	responseNoInformation     = "I don't have any relevant information to answer your question. Please make sure notes have been uploaded and try rephrasing your question."
	responseApology           = "I apologize, but I encountered an error while processing your question. Please try again."

	generationSystemInstruction = "You are a helpful AI assistant that answers questions based on provided academic notes and documents. " +
		"Answer only from the provided context; if the context does not contain the answer, say so clearly. " +
		"Be accurate and cite sources when possible."
)

// IngestOptions carries optional metadata for one ingested document.
type IngestOptions struct {
	Department string
	Subject    string
	StoredPath string
}

// RAGService owns the vector index and the document catalog as one unit and
// keeps them positionally aligned: the chunk at position i in the chunk list
// always corresponds to the vector at position i in the index. All mutation
// goes through the write lock; queries take the read lock so search positions
// stay valid against the catalog for the duration of the call.
type RAGService struct {
	mu        sync.RWMutex
	cfg       *config.Config
	extractor *Extractor
	chunker   *Chunker
	embedder  ai.Embedder
	generator ai.Generator
	store     *SnapshotStore
	mirror    Mirror

	index       *VectorIndex
	documents   []models.Document
	chunks      []models.Chunk
	nextDocID   int64
	nextChunkID int64
}

// NewRAGService builds the service and restores the persisted snapshot if one
// exists. A snapshot written with a different embedding dimension is a fatal
// configuration mismatch, not something to silently discard.
func NewRAGService(cfg *config.Config, embedder ai.Embedder, generator ai.Generator, store *SnapshotStore, mirror Mirror) (*RAGService, error) {
	s := &RAGService{
		cfg:       cfg,
		extractor: NewExtractor(),
		chunker:   NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
		embedder:  embedder,
		generator: generator,
		store:     store,
		mirror:    mirror,
		index:     NewVectorIndex(embedder.Dimension()),
	}

	if store != nil {
		snap, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("cannot load snapshot: %w", err)
		}
		if snap != nil {
			if err := s.index.Add(snap.Vectors); err != nil {
				return nil, fmt.Errorf("cannot restore index: %w", err)
			}
			s.documents = snap.Documents
			s.chunks = snap.Chunks
			s.nextDocID = snap.NextDocID
			s.nextChunkID = snap.NextChunkID
			logger.Info("restored snapshot", "documents", len(s.documents), "chunks", len(s.chunks))
		} else {
			logger.Info("no usable snapshot, starting with empty index")
		}
	}

	return s, nil
}

// IngestDocument runs the full pipeline for one document: extract, chunk,
// embed, append to index and catalog, persist, mirror. The in-memory index
// and catalog are updated together or not at all.
func (s *RAGService) IngestDocument(ctx context.Context, blob []byte, filename, kind string, opts IngestOptions) error {
	tracer := otel.Tracer("rag-service")
	ctx, span := tracer.Start(ctx, "rag.ingest_document")
	defer span.End()
	span.SetAttributes(attribute.String("rag.filename", filename), attribute.String("rag.kind", kind))

	text, err := s.extractor.Extract(ctx, blob, kind)
	if err != nil {
		return err
	}
	if text == "" {
		return ErrEmptyDocument
	}

	parts := s.chunker.Chunk(text)
	if len(parts) == 0 {
		return ErrNoChunks
	}
	span.SetAttributes(attribute.Int("rag.chunks", len(parts)))

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout())
	vectors, err := s.embedder.EmbedBatch(embedCtx, parts)
	cancel()
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	s.mu.Lock()
	if err := s.index.Add(vectors); err != nil {
		s.mu.Unlock()
		return err
	}

	doc := models.Document{
		ID:         s.nextDocID,
		Filename:   filename,
		FilePath:   opts.StoredPath,
		Department: opts.Department,
		Subject:    opts.Subject,
		UploadedAt: time.Now().UTC(),
		ChunkCount: len(parts),
	}
	s.nextDocID++

	for i, part := range parts {
		s.chunks = append(s.chunks, models.Chunk{
			DocID:      doc.ID,
			ChunkID:    s.nextChunkID,
			Text:       part,
			Filename:   filename,
			ChunkIndex: i,
		})
		s.nextChunkID++
	}
	s.documents = append(s.documents, doc)
	s.persistLocked()
	s.mu.Unlock()

	s.mirrorUpsert(doc)
	logger.Info("document ingested", "filename", filename, "doc_id", doc.ID, "chunks", len(parts))
	return nil
}

type retrievedChunk struct {
	Filename string
	Text     string
	Score    float32
}

// AnswerQuery answers a natural-language question from the indexed documents.
// It always returns some text: blank input, an empty index and every internal
// failure each map to a fixed response instead of an error.
func (s *RAGService) AnswerQuery(ctx context.Context, question string) string {
	tracer := otel.Tracer("rag-service")
	ctx, span := tracer.Start(ctx, "rag.answer_query")
	defer span.End()

	q := strings.TrimSpace(question)
	if q == "" {
		return responsePromptForQuestion
	}

	s.mu.RLock()
	empty := len(s.chunks) == 0
	s.mu.RUnlock()
	if empty {
		return responseNoInformation
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout())
	vectors, err := s.embedder.EmbedBatch(embedCtx, []string{q})
	cancel()
	if err != nil || len(vectors) != 1 {
		logger.Error("query embedding failed", "error", err)
		return responseApology
	}

	s.mu.RLock()
	matches, err := s.index.Search(vectors[0], s.topK())
	hits := make([]retrievedChunk, 0, len(matches))
	for _, m := range matches {
		if m.Position < 0 || m.Position >= len(s.chunks) {
			continue
		}
		chunk := s.chunks[m.Position]
		hits = append(hits, retrievedChunk{Filename: chunk.Filename, Text: chunk.Text, Score: m.Score})
	}
	s.mu.RUnlock()

	if err != nil {
		logger.Error("vector search failed", "error", err)
		return responseApology
	}
	if len(hits) == 0 {
		return responseNoInformation
	}
	span.SetAttributes(attribute.Int("rag.retrieved_chunks", len(hits)))

	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout())
	answer, err := s.generator.Generate(genCtx, generationSystemInstruction, buildPrompt(q, hits))
	cancel()
	if err != nil {
		logger.Error("answer generation failed", "error", err)
		return responseApology
	}

	s.logQuery(q, len(hits))
	return answer
}

// ListDocuments returns the catalog in ingestion order.
func (s *RAGService) ListDocuments() []models.DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]models.DocumentInfo, len(s.documents))
	for i, doc := range s.documents {
		infos[i] = models.DocumentInfo{
			ID:         doc.ID,
			Filename:   doc.Filename,
			UploadedAt: doc.UploadedAt,
			ChunkCount: doc.ChunkCount,
		}
	}
	return infos
}

// RemoveDocument removes a document and its chunks, then rebuilds the index
// from the surviving chunks. The index abstraction has no point deletion, so
// the rebuild re-embeds every remaining chunk; on any rebuild failure the
// catalog and index are left untouched.
func (s *RAGService) RemoveDocument(ctx context.Context, docID int64) bool {
	tracer := otel.Tracer("rag-service")
	ctx, span := tracer.Start(ctx, "rag.remove_document")
	defer span.End()
	span.SetAttributes(attribute.Int64("rag.doc_id", docID))

	s.mu.Lock()

	docIdx := -1
	for i, doc := range s.documents {
		if doc.ID == docID {
			docIdx = i
			break
		}
	}
	if docIdx == -1 {
		s.mu.Unlock()
		return false
	}

	remaining := make([]models.Chunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if chunk.DocID != docID {
			remaining = append(remaining, chunk)
		}
	}

	newIndex := NewVectorIndex(s.index.Dimension())
	if len(remaining) > 0 {
		texts := make([]string, len(remaining))
		for i, chunk := range remaining {
			texts[i] = chunk.Text
		}

		embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout())
		vectors, err := s.embedder.EmbedBatch(embedCtx, texts)
		cancel()
		if err != nil {
			s.mu.Unlock()
			logger.Error("index rebuild failed, removal aborted", "doc_id", docID, "error", err)
			return false
		}
		if err := newIndex.Add(vectors); err != nil {
			s.mu.Unlock()
			logger.Error("index rebuild failed, removal aborted", "doc_id", docID, "error", err)
			return false
		}
	}

	removed := s.documents[docIdx]
	s.documents = append(s.documents[:docIdx:docIdx], s.documents[docIdx+1:]...)
	s.chunks = remaining
	s.index = newIndex
	s.persistLocked()
	s.mu.Unlock()

	s.mirrorDelete(docID)
	logger.Info("document removed", "doc_id", docID, "filename", removed.Filename, "remaining_chunks", len(remaining))
	return true
}

func buildPrompt(question string, hits []retrievedChunk) string {
	var contextBlock strings.Builder
	for i, hit := range hits {
		if i > 0 {
			contextBlock.WriteString("\n\n")
		}
		contextBlock.WriteString("From ")
		contextBlock.WriteString(hit.Filename)
		contextBlock.WriteString(":\n")
		contextBlock.WriteString(hit.Text)
	}

	return fmt.Sprintf("Based on the following context from uploaded notes and documents, "+
		"please answer the question. If the answer cannot be found in the context, say so clearly.\n\n"+
		"Context:\n%s\n\nQuestion: %s\n\nAnswer:", contextBlock.String(), question)
}

// persistLocked saves the current snapshot; callers must hold the write lock.
// Save failures are logged only: the in-memory state stays authoritative.
func (s *RAGService) persistLocked() {
	if s.store == nil {
		return
	}
	snap := &Snapshot{
		Documents:   s.documents,
		Chunks:      s.chunks,
		NextDocID:   s.nextDocID,
		NextChunkID: s.nextChunkID,
		Vectors:     s.index.Vectors(),
	}
	if err := s.store.Save(snap); err != nil {
		logger.Error("failed to persist snapshot", "error", err)
	}
}

func (s *RAGService) mirrorUpsert(doc models.Document) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.UpsertDocument(context.Background(), doc); err != nil {
		logger.Error("failed to mirror document metadata", "doc_id", doc.ID, "error", err)
	}
}

func (s *RAGService) mirrorDelete(docID int64) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.DeleteDocument(context.Background(), docID); err != nil {
		logger.Error("failed to delete mirrored document metadata", "doc_id", docID, "error", err)
	}
}

func (s *RAGService) logQuery(query string, usedChunks int) {
	if s.mirror == nil {
		return
	}

	s.mu.RLock()
	total := len(s.documents)
	s.mu.RUnlock()

	entry := models.QueryLog{
		Query:          query,
		Timestamp:      time.Now().UTC(),
		RelevantChunks: usedChunks,
		TotalDocuments: total,
	}
	if err := s.mirror.LogQuery(context.Background(), entry); err != nil {
		logger.Error("failed to log query analytics", "error", err)
	}
}

func (s *RAGService) topK() int {
	if s.cfg != nil && s.cfg.TopK > 0 {
		return s.cfg.TopK
	}
	return 5
}

func (s *RAGService) embedTimeout() time.Duration {
	if s.cfg != nil && s.cfg.EmbedTimeoutSecs > 0 {
		return time.Duration(s.cfg.EmbedTimeoutSecs) * time.Second
	}
	return 30 * time.Second
}

func (s *RAGService) generateTimeout() time.Duration {
	if s.cfg != nil && s.cfg.GenerateTimeoutSecs > 0 {
		return time.Duration(s.cfg.GenerateTimeoutSecs) * time.Second
	}
	return 60 * time.Second
}
