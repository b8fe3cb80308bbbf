package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// ProcessCorpusUseCase is the worker side of ingestion: parse the stored
// spreadsheet, persist paper records, and populate both indexes. Vector and
// graph indexing are independent and run in parallel.
type ProcessCorpusUseCase struct {
	corpora  ports.CorpusRepository
	storage  ports.ObjectStorage
	parser   ports.SpreadsheetParser
	papers   ports.PaperRepository
	semantic ports.SimilarityIndex
	graph    ports.GraphImporter
}

func NewProcessCorpusUseCase(
	corpora ports.CorpusRepository,
	storage ports.ObjectStorage,
	parser ports.SpreadsheetParser,
	papers ports.PaperRepository,
	semantic ports.SimilarityIndex,
	graph ports.GraphImporter,
) *ProcessCorpusUseCase {
	return &ProcessCorpusUseCase{
		corpora:  corpora,
		storage:  storage,
		parser:   parser,
		papers:   papers,
		semantic: semantic,
		graph:    graph,
	}
}

func (uc *ProcessCorpusUseCase) ProcessByID(ctx context.Context, corpusID string) error {
	if err := uc.corpora.UpdateStatus(ctx, corpusID, domain.CorpusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.process(ctx, corpusID)
	if err != nil {
		if failErr := uc.corpora.UpdateStatus(ctx, corpusID, domain.CorpusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.corpora.SetPaperCount(ctx, corpusID, count); err != nil {
		return fmt.Errorf("set paper count: %w", err)
	}
	if err := uc.corpora.UpdateStatus(ctx, corpusID, domain.CorpusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessCorpusUseCase) process(ctx context.Context, corpusID string) (int, error) {
	corpus, err := uc.corpora.GetByID(ctx, corpusID)
	if err != nil {
		return 0, fmt.Errorf("fetch corpus by id: %w", err)
	}

	file, err := uc.storage.Open(ctx, corpus.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("open stored upload: %w", err)
	}
	defer file.Close()

	papers, err := uc.parser.Parse(ctx, corpus.Filename, file)
	if err != nil {
		return 0, fmt.Errorf("parse spreadsheet: %w", err)
	}
	if len(papers) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse spreadsheet", errors.New("no valid papers in file"))
	}

	if err := uc.papers.UpsertPapers(ctx, papers); err != nil {
		return 0, fmt.Errorf("persist papers: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := uc.semantic.IndexPapers(gctx, papers); err != nil {
			return fmt.Errorf("index vectors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := uc.graph.ImportPapers(gctx, papers); err != nil {
			return fmt.Errorf("import graph: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return len(papers), nil
}
