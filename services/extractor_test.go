package services

import (
	"context"
	"errors"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	text, err := e.Extract(context.Background(), []byte("  hello world \n"), "txt")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractKindNormalization(t *testing.T) {
	e := NewExtractor()

	for _, kind := range []string{"txt", ".txt", "TXT", "text"} {
		if _, err := e.Extract(context.Background(), []byte("x"), kind); err != nil {
			t.Fatalf("kind %q rejected: %v", kind, err)
		}
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := NewExtractor()

	// Structurally successful extraction with no content is not an error;
	// the ingestion pipeline treats the empty result as a failure instead
	text, err := e.Extract(context.Background(), []byte("   \n\t "), "txt")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(context.Background(), []byte("content"), "docx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractInvalidPDF(t *testing.T) {
	e := NewExtractor()

	if _, err := e.Extract(context.Background(), []byte("not a pdf"), "pdf"); err == nil {
		t.Fatal("expected error for invalid PDF bytes")
	}
}
