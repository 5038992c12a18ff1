// Package imports turns an uploaded resume file into a new document.
package imports

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/extract"
	"portfolio-backend/internal/parser"
	"portfolio-backend/internal/shared/apperr"
	"portfolio-backend/internal/shared/storage/object"
	"portfolio-backend/internal/shared/telemetry"
)

// MaxUploadBytes bounds accepted resume files.
const MaxUploadBytes = 5 << 20

var (
	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = fmt.Errorf("empty file: %w", apperr.ErrInvalid)
	// ErrNoText is returned when extraction yields nothing to parse, e.g. scanned PDFs.
	ErrNoText = fmt.Errorf("no readable text in file: %w", apperr.ErrInvalid)
)

// DocumentCreator is the count-gated document creation path.
type DocumentCreator interface {
	CanCreate(ctx context.Context, ownerID string) error
	Create(ctx context.Context, ownerID string, in documents.CreateInput) (documents.Document, error)
}

// Upload is one resume file submitted by an owner.
type Upload struct {
	FileName    string
	Body        io.Reader
	DisplayName string
	TemplateID  string
}

// Service runs store, extract, parse and create in order.
type Service struct {
	Store  object.ObjectStore
	Parser parser.Parser
	Docs   DocumentCreator
}

func NewService(store object.ObjectStore, p parser.Parser, docs DocumentCreator) *Service {
	return &Service{Store: store, Parser: p, Docs: docs}
}

// Import checks the owner's document allowance before touching storage so a
// denied import leaves nothing behind.
func (s *Service) Import(ctx context.Context, ownerID string, up Upload) (documents.Document, error) {
	if err := s.Docs.CanCreate(ctx, ownerID); err != nil {
		return documents.Document{}, err
	}

	key, size, mimeType, err := s.Store.Save(ctx, ownerID, up.FileName, up.Body)
	if err != nil {
		return documents.Document{}, apperr.Unavailable("imports.save", err)
	}
	doc, text, err := s.build(ctx, ownerID, up, key, size, mimeType)
	if err != nil {
		s.discard(key)
		return documents.Document{}, err
	}
	telemetry.Info("resume.imported", map[string]any{
		"user_id":     ownerID,
		"document_id": doc.ID,
		"storage_key": key,
		"mime_type":   mimeType,
		"size_bytes":  size,
		"text_chars":  len(text),
	})
	return doc, nil
}

func (s *Service) build(ctx context.Context, ownerID string, up Upload, key string, size int64, mimeType string) (documents.Document, string, error) {
	if size == 0 {
		return documents.Document{}, "", ErrEmptyFile
	}

	text, err := extract.FromStore(ctx, s.Store, key, mimeType, up.FileName)
	if err != nil {
		return documents.Document{}, "", err
	}
	if strings.TrimSpace(text) == "" {
		return documents.Document{}, "", ErrNoText
	}

	content, err := s.Parser.Parse(ctx, text)
	if err != nil {
		return documents.Document{}, "", fmt.Errorf("parse resume: %w", err)
	}

	doc, err := s.Docs.Create(ctx, ownerID, documents.CreateInput{
		DisplayName: up.DisplayName,
		TemplateID:  up.TemplateID,
		Content:     content,
	})
	if err != nil {
		return documents.Document{}, "", err
	}
	return doc, text, nil
}

// discard removes the original and its extracted text after a failed import.
// It runs on a fresh context so a canceled request still cleans up.
func (s *Service) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, k := range []string{key, key + extract.DerivedSuffix} {
		if err := s.Store.Delete(ctx, k); err != nil {
			telemetry.Warn("resume.import_cleanup_failed", map[string]any{
				"storage_key": k,
				"error":       err,
			})
		}
	}
}
