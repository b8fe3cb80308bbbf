package ports

import (
	"context"
	"io"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

// SimilarityIndex wraps the vector store. Query results are ordered by
// descending score, score in [0,1], ties broken by paper id ascending.
type SimilarityIndex interface {
	Query(ctx context.Context, text string, topK int, minScore float64) ([]domain.SemanticHit, error)
	PairwiseSimilarities(ctx context.Context, threshold float64, maxPerPaper int) ([]domain.SemanticEdge, error)
	IndexPapers(ctx context.Context, papers []domain.Paper) error
}

// RelationshipIndex wraps the knowledge graph, read side.
type RelationshipIndex interface {
	PapersByAuthor(ctx context.Context, name string) ([]string, error)
	PapersByKeyword(ctx context.Context, keyword string) ([]string, error)
	SharedProperties(ctx context.Context, paperA, paperB string) (domain.SharedProperties, error)
	CoAuthors(ctx context.Context, name string) ([]string, error)
	ListAuthors(ctx context.Context) ([]string, error)
	ListKeywords(ctx context.Context) ([]string, error)
	// LastQuery reports the most recently executed graph query for response
	// auditability. Empty when no relational query ran yet.
	LastQuery() string
}

// GraphImporter is the write side of the knowledge graph, used only by the
// ingestion pipeline.
type GraphImporter interface {
	ImportPapers(ctx context.Context, papers []domain.Paper) error
}

// Embedder builds vectors for paper documents and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionService is the LLM text-completion contract. Synchronous from the
// core's point of view; cancellation propagates through ctx.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// PaperRepository persists and reads paper records. Upsert overwrites on id
// collision so re-ingestion never duplicates.
type PaperRepository interface {
	UpsertPapers(ctx context.Context, papers []domain.Paper) error
	GetByIDs(ctx context.Context, ids []string) ([]domain.Paper, error)
	Count(ctx context.Context) (int, error)
}

// CorpusRepository tracks uploaded spreadsheets through processing.
type CorpusRepository interface {
	Create(ctx context.Context, corpus *domain.Corpus) error
	GetByID(ctx context.Context, id string) (*domain.Corpus, error)
	UpdateStatus(ctx context.Context, id string, status domain.CorpusStatus, errMessage string) error
	SetPaperCount(ctx context.Context, id string, count int) error
}

// SpreadsheetParser turns an uploaded spreadsheet into paper records.
type SpreadsheetParser interface {
	Parse(ctx context.Context, filename string, r io.Reader) ([]domain.Paper, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes corpus ingestion events.
type MessageQueue interface {
	PublishCorpusIngested(ctx context.Context, corpusID string) error
	SubscribeCorpusIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// CorpusIngestor is the inbound contract for spreadsheet upload.
type CorpusIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Corpus, error)
}

// CorpusProcessor is the inbound contract for asynchronous corpus processing.
type CorpusProcessor interface {
	ProcessByID(ctx context.Context, corpusID string) error
}

// QuestionService is the inbound contract for the ask pipeline.
type QuestionService interface {
	Ask(ctx context.Context, question string) (*domain.ResponseEnvelope, error)
}
