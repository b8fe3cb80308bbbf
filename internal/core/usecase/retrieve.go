package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// RetrievalConfig carries the tunable retrieval parameters. The zero value is
// usable: defaults are applied in normalize().
type RetrievalConfig struct {
	TopK       int
	MinScore   float64
	MaxResults int
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 10
	}
	if out.MinScore <= 0 {
		out.MinScore = 0.35
	}
	if out.MaxResults <= 0 {
		out.MaxResults = 10
	}
	return out
}

// RetrievalResult is what the retriever hands the rest of the pipeline. For
// listing intents Items is empty and Listing carries the flat enumeration.
type RetrievalResult struct {
	Items     []domain.EvidenceItem
	Listing   []string
	Target    domain.ListTarget
	CoAuthors []string
	GraphUsed bool
	Cypher    string
	// Degraded names the retrieval sources that failed while the other
	// path still produced evidence ("semantic", "graph").
	Degraded []string
}

// HybridRetriever combines the similarity index and the relationship index
// according to the classified intent and produces one deduplicated, ranked
// evidence set.
type HybridRetriever struct {
	semantic ports.SimilarityIndex
	graph    ports.RelationshipIndex
	papers   ports.PaperRepository
	cfg      RetrievalConfig
}

func NewHybridRetriever(
	semantic ports.SimilarityIndex,
	graph ports.RelationshipIndex,
	papers ports.PaperRepository,
	cfg RetrievalConfig,
) *HybridRetriever {
	return &HybridRetriever{
		semantic: semantic,
		graph:    graph,
		papers:   papers,
		cfg:      cfg.normalize(),
	}
}

// Retrieve runs the per-intent strategy. A failure on one retrieval path
// degrades to the other; only when every involved path fails does it return
// ErrRetrievalUnavailable.
func (r *HybridRetriever) Retrieve(ctx context.Context, question string, intent domain.QueryIntent) (*RetrievalResult, error) {
	switch intent.Kind {
	case domain.IntentAuthorLookup:
		return r.retrieveByAuthor(ctx, question, intent)
	case domain.IntentTopicLookup:
		return r.retrieveByTopic(ctx, question, intent.Keyword)
	case domain.IntentListing:
		return r.retrieveListing(ctx, intent.Target)
	default:
		return r.retrieveSemantic(ctx, question)
	}
}

// retrieveByAuthor treats authorship as a binary graph fact: every paper by
// the author scores 1.0 with relational provenance, and no semantic search
// runs. Only when the graph is down does it fall back to semantic search.
func (r *HybridRetriever) retrieveByAuthor(ctx context.Context, question string, intent domain.QueryIntent) (*RetrievalResult, error) {
	ids, err := r.graph.PapersByAuthor(ctx, intent.Author)
	if err != nil {
		slog.Warn("author_lookup_degraded_to_semantic", "author", intent.Author, "error", err)
		result, semErr := r.retrieveSemantic(ctx, question)
		if semErr != nil {
			return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "author lookup", err)
		}
		result.Degraded = append(result.Degraded, "graph")
		return result, nil
	}

	items := make([]domain.EvidenceItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.EvidenceItem{
			Paper:         domain.Paper{ID: id},
			Score:         1.0,
			Provenance:    domain.ProvenanceRelational,
			SharedAuthors: []string{intent.Author},
		})
	}

	result := &RetrievalResult{
		Items:     items,
		GraphUsed: true,
		Cypher:    r.graph.LastQuery(),
	}

	if intent.Collaboration {
		coAuthors, coErr := r.graph.CoAuthors(ctx, intent.Author)
		if coErr != nil {
			slog.Warn("co_author_lookup_failed", "author", intent.Author, "error", coErr)
		} else {
			result.CoAuthors = coAuthors
			result.Cypher = r.graph.LastQuery()
		}
	}

	return r.finalize(ctx, result)
}

// retrieveByTopic runs the semantic query and the keyword-edge query in
// parallel, then merges. A relational exact-keyword hit dominates: it scores
// 1.0, so a paper found by both paths ends up with provenance "both" and the
// maximum of the two scores.
func (r *HybridRetriever) retrieveByTopic(ctx context.Context, question, keyword string) (*RetrievalResult, error) {
	var (
		semanticHits          []domain.SemanticHit
		relationalHits        []string
		semanticErr, graphErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		semanticHits, semanticErr = r.semantic.Query(gctx, question, r.cfg.TopK, r.cfg.MinScore)
		if semanticErr != nil {
			slog.Warn("semantic_lookup_degraded", "error", semanticErr)
		}
		return nil
	})
	g.Go(func() error {
		relationalHits, graphErr = r.graph.PapersByKeyword(gctx, keyword)
		if graphErr != nil {
			slog.Warn("relational_lookup_degraded", "keyword", keyword, "error", graphErr)
		}
		return nil
	})
	// Lookup errors degrade rather than abort; the only error that escapes
	// the group is context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if semanticErr != nil && graphErr != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "topic lookup", fmt.Errorf("semantic: %w; graph: %w", semanticErr, graphErr))
	}

	byID := make(map[string]domain.EvidenceItem, len(semanticHits)+len(relationalHits))
	for _, hit := range semanticHits {
		next := domain.EvidenceItem{
			Paper:      domain.Paper{ID: hit.PaperID},
			Score:      clampScore(hit.Score),
			Provenance: domain.ProvenanceSemantic,
		}
		if existing, ok := byID[hit.PaperID]; ok {
			next = existing.Merge(next)
		}
		byID[hit.PaperID] = next
	}
	for _, id := range relationalHits {
		next := domain.EvidenceItem{
			Paper:          domain.Paper{ID: id},
			Score:          1.0,
			Provenance:     domain.ProvenanceRelational,
			SharedKeywords: []string{keyword},
		}
		if existing, ok := byID[id]; ok {
			next = existing.Merge(next)
		}
		byID[id] = next
	}

	items := make([]domain.EvidenceItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}

	result := &RetrievalResult{Items: items}
	if graphErr == nil {
		result.GraphUsed = true
		result.Cypher = r.graph.LastQuery()
	} else {
		result.Degraded = append(result.Degraded, "graph")
	}
	if semanticErr != nil {
		result.Degraded = append(result.Degraded, "semantic")
	}
	return r.finalize(ctx, result)
}

// retrieveListing bypasses per-paper scoring entirely and returns the flat
// corpus-wide enumeration.
func (r *HybridRetriever) retrieveListing(ctx context.Context, target domain.ListTarget) (*RetrievalResult, error) {
	var (
		values []string
		err    error
	)
	switch target {
	case domain.ListKeywords:
		values, err = r.graph.ListKeywords(ctx)
	default:
		target = domain.ListAuthors
		values, err = r.graph.ListAuthors(ctx)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrGraphUnavailable, "listing", err)
	}
	sort.Strings(values)
	return &RetrievalResult{
		Listing:   values,
		Target:    target,
		GraphUsed: true,
		Cypher:    r.graph.LastQuery(),
	}, nil
}

// retrieveSemantic is the GeneralConcept path: pure similarity search with
// the threshold applied, never padded to meet a quota.
func (r *HybridRetriever) retrieveSemantic(ctx context.Context, question string) (*RetrievalResult, error) {
	hits, err := r.semantic.Query(ctx, question, r.cfg.TopK, r.cfg.MinScore)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSemanticUnavailable, "semantic query", err)
	}
	items := make([]domain.EvidenceItem, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < r.cfg.MinScore {
			continue
		}
		items = append(items, domain.EvidenceItem{
			Paper:      domain.Paper{ID: hit.PaperID},
			Score:      clampScore(hit.Score),
			Provenance: domain.ProvenanceSemantic,
		})
	}
	return r.finalize(ctx, &RetrievalResult{Items: items})
}

// finalize resolves paper records, orders the evidence deterministically, and
// applies the result cap.
func (r *HybridRetriever) finalize(ctx context.Context, result *RetrievalResult) (*RetrievalResult, error) {
	if len(result.Items) == 0 {
		return result, nil
	}

	if err := r.resolvePapers(ctx, result.Items); err != nil {
		return nil, err
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		a, b := result.Items[i], result.Items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Paper.Citations != b.Paper.Citations {
			return a.Paper.Citations > b.Paper.Citations
		}
		return a.Paper.ID < b.Paper.ID
	})

	if len(result.Items) > r.cfg.MaxResults {
		result.Items = result.Items[:r.cfg.MaxResults]
	}
	return result, nil
}

// resolvePapers fills in full paper records for evidence built from bare ids.
// Unknown ids keep their placeholder record rather than failing the request.
func (r *HybridRetriever) resolvePapers(ctx context.Context, items []domain.EvidenceItem) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Paper.ID)
	}
	papers, err := r.papers.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve papers: %w", err)
	}
	byID := make(map[string]domain.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}
	for i := range items {
		if p, ok := byID[items[i].Paper.ID]; ok {
			items[i].Paper = p
		}
	}
	return nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
