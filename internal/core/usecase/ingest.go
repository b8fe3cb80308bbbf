package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// IngestCorpusUseCase accepts a spreadsheet upload, stores the raw file, and
// hands processing off to the worker via the queue.
type IngestCorpusUseCase struct {
	corpora ports.CorpusRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestCorpusUseCase(
	corpora ports.CorpusRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestCorpusUseCase {
	return &IngestCorpusUseCase{
		corpora: corpora,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestCorpusUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Corpus, error) {
	if !supportedSpreadsheet(filename) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("unsupported file type %q, want .xlsx, .xls or .csv", filepath.Ext(filename)))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	corpus := &domain.Corpus{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.CorpusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.corpora.Create(ctx, corpus); err != nil {
		return nil, fmt.Errorf("create corpus record: %w", err)
	}

	if err := uc.queue.PublishCorpusIngested(ctx, corpus.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return corpus, nil
}

func supportedSpreadsheet(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	default:
		return false
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "corpus.bin"
	}
	return base
}
