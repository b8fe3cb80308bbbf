package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

type CorpusRepository struct {
	db *sql.DB
}

func NewCorpusRepository(db *sql.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

func (r *CorpusRepository) Create(ctx context.Context, corpus *domain.Corpus) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO corpora (
	id, filename, mime_type, storage_path, status, paper_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		corpus.ID, corpus.Filename, corpus.MimeType, corpus.StoragePath,
		string(corpus.Status), corpus.PaperCount, corpus.Error, corpus.CreatedAt, corpus.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert corpus: %w", err)
	}
	return nil
}

func (r *CorpusRepository) GetByID(ctx context.Context, id string) (*domain.Corpus, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, status, paper_count, error_message, created_at, updated_at
FROM corpora
WHERE id = $1
`, id)

	var corpus domain.Corpus
	var status string

	err := row.Scan(
		&corpus.ID, &corpus.Filename, &corpus.MimeType, &corpus.StoragePath,
		&status, &corpus.PaperCount, &corpus.Error, &corpus.CreatedAt, &corpus.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCorpusNotFound, "get corpus", fmt.Errorf("corpus %s", id))
		}
		return nil, fmt.Errorf("scan corpus: %w", err)
	}

	corpus.Status = domain.CorpusStatus(status)
	return &corpus, nil
}

func (r *CorpusRepository) UpdateStatus(ctx context.Context, id string, status domain.CorpusStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE corpora
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update corpus status: %w", err)
	}
	return notFoundWhenNoRows(result, id)
}

func (r *CorpusRepository) SetPaperCount(ctx context.Context, id string, count int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE corpora
SET paper_count = $2, updated_at = $3
WHERE id = $1
`, id, count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set corpus paper count: %w", err)
	}
	return notFoundWhenNoRows(result, id)
}

func notFoundWhenNoRows(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		// Driver without RowsAffected support; treat the update as applied.
		return nil
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCorpusNotFound, "update corpus", fmt.Errorf("corpus %s", id))
	}
	return nil
}
