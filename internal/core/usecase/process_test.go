package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

type fakeCorpusRepo struct {
	corpora  map[string]*domain.Corpus
	statuses []domain.CorpusStatus
	count    int
	err      error
}

func (f *fakeCorpusRepo) Create(_ context.Context, corpus *domain.Corpus) error {
	if f.err != nil {
		return f.err
	}
	if f.corpora == nil {
		f.corpora = map[string]*domain.Corpus{}
	}
	f.corpora[corpus.ID] = corpus
	return nil
}

func (f *fakeCorpusRepo) GetByID(_ context.Context, id string) (*domain.Corpus, error) {
	if f.err != nil {
		return nil, f.err
	}
	corpus, ok := f.corpora[id]
	if !ok {
		return nil, domain.ErrCorpusNotFound
	}
	return corpus, nil
}

func (f *fakeCorpusRepo) UpdateStatus(_ context.Context, _ string, status domain.CorpusStatus, _ string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeCorpusRepo) SetPaperCount(_ context.Context, _ string, count int) error {
	f.count = count
	return nil
}

type fakeStorage struct {
	saved map[string][]byte
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = b
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := f.saved[key]
	if !ok {
		return nil, errors.New("missing object")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeQueue struct {
	published []string
}

func (f *fakeQueue) PublishCorpusIngested(_ context.Context, corpusID string) error {
	f.published = append(f.published, corpusID)
	return nil
}

func (f *fakeQueue) SubscribeCorpusIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeParser struct {
	papers []domain.Paper
	err    error
}

func (f *fakeParser) Parse(context.Context, string, io.Reader) ([]domain.Paper, error) {
	return f.papers, f.err
}

type fakeGraphImporter struct {
	imported int
	err      error
}

func (f *fakeGraphImporter) ImportPapers(_ context.Context, papers []domain.Paper) error {
	if f.err != nil {
		return f.err
	}
	f.imported = len(papers)
	return nil
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	uc := NewIngestCorpusUseCase(&fakeCorpusRepo{}, &fakeStorage{}, &fakeQueue{})
	_, err := uc.Upload(context.Background(), "papers.pdf", "application/pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadStoresAndPublishes(t *testing.T) {
	repo := &fakeCorpusRepo{}
	storage := &fakeStorage{}
	queue := &fakeQueue{}
	uc := NewIngestCorpusUseCase(repo, storage, queue)

	corpus, err := uc.Upload(context.Background(), "Scopus Export.xlsx", "application/vnd.ms-excel", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if corpus.Status != domain.CorpusUploaded {
		t.Fatalf("expected uploaded status, got %s", corpus.Status)
	}
	if len(storage.saved) != 1 {
		t.Fatalf("expected one stored object")
	}
	if len(queue.published) != 1 || queue.published[0] != corpus.ID {
		t.Fatalf("expected published event for %s, got %v", corpus.ID, queue.published)
	}
	if strings.Contains(corpus.StoragePath, " ") {
		t.Fatalf("storage key not sanitized: %q", corpus.StoragePath)
	}
}

func TestProcessByIDHappyPath(t *testing.T) {
	corpus := &domain.Corpus{ID: "c1", Filename: "papers.csv", StoragePath: "c1_papers.csv"}
	repo := &fakeCorpusRepo{corpora: map[string]*domain.Corpus{"c1": corpus}}
	storage := &fakeStorage{saved: map[string][]byte{"c1_papers.csv": []byte("raw")}}
	parser := &fakeParser{papers: []domain.Paper{{ID: "P1"}, {ID: "P2"}}}
	graph := &fakeGraphImporter{}
	uc := NewProcessCorpusUseCase(repo, storage, parser, &fakePaperRepo{}, &fakeSemantic{}, graph)

	if err := uc.ProcessByID(context.Background(), "c1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if graph.imported != 2 {
		t.Fatalf("expected 2 papers imported to graph, got %d", graph.imported)
	}
	if repo.count != 2 {
		t.Fatalf("expected paper count 2, got %d", repo.count)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.CorpusReady {
		t.Fatalf("expected final status ready, got %s", last)
	}
}

func TestProcessByIDEmptySpreadsheetFails(t *testing.T) {
	corpus := &domain.Corpus{ID: "c1", Filename: "papers.csv", StoragePath: "key"}
	repo := &fakeCorpusRepo{corpora: map[string]*domain.Corpus{"c1": corpus}}
	storage := &fakeStorage{saved: map[string][]byte{"key": []byte("raw")}}
	uc := NewProcessCorpusUseCase(repo, storage, &fakeParser{}, &fakePaperRepo{}, &fakeSemantic{}, &fakeGraphImporter{})

	err := uc.ProcessByID(context.Background(), "c1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.CorpusFailed {
		t.Fatalf("expected failed status, got %s", last)
	}
}
