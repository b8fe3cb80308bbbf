package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

func newCorpusRepoWithMock(t *testing.T) (*CorpusRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &CorpusRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCorpusGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newCorpusRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrCorpusNotFound) {
		t.Fatalf("expected ErrCorpusNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCorpusGetByIDScansRow(t *testing.T) {
	repo, mock, done := newCorpusRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "mime_type", "storage_path", "status", "paper_count", "error_message", "created_at", "updated_at",
	}).AddRow("c1", "papers.xlsx", "application/vnd.ms-excel", "c1_papers.xlsx", "ready", 42, "", now, now)

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("c1").
		WillReturnRows(rows)

	corpus, err := repo.GetByID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if corpus.Status != domain.CorpusReady || corpus.PaperCount != 42 {
		t.Fatalf("unexpected corpus: %+v", corpus)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCorpusUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newCorpusRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE corpora").
		WithArgs("missing", string(domain.CorpusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.CorpusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrCorpusNotFound) {
		t.Fatalf("expected ErrCorpusNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCorpusSetPaperCountReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newCorpusRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE corpora").
		WithArgs("missing", 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPaperCount(context.Background(), "missing", 7)
	if !domain.IsKind(err, domain.ErrCorpusNotFound) {
		t.Fatalf("expected ErrCorpusNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
