package qdrant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// Index is the similarity index: papers in, cosine-ranked hits out. The
// embedder turns paper documents and query text into vectors; the client
// talks to the collection.
type Index struct {
	client   *Client
	embedder ports.Embedder
}

func NewIndex(client *Client, embedder ports.Embedder) *Index {
	return &Index{client: client, embedder: embedder}
}

func (idx *Index) Query(ctx context.Context, text string, topK int, minScore float64) ([]domain.SemanticHit, error) {
	if topK <= 0 {
		topK = 10
	}

	vector, err := idx.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapSemanticError("embed query", err)
	}

	points, err := idx.client.Search(ctx, vector, topK, minScore)
	if err != nil {
		return nil, wrapSemanticError("vector search", err)
	}

	hits := make([]domain.SemanticHit, 0, len(points))
	for _, p := range points {
		paperID := getStringPayload(p.Payload, "paper_id")
		if paperID == "" {
			continue
		}
		hits = append(hits, domain.SemanticHit{
			PaperID: paperID,
			Score:   clampUnit(p.Score),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].PaperID < hits[j].PaperID
	})
	return hits, nil
}

func (idx *Index) IndexPapers(ctx context.Context, papers []domain.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	documents := make([]string, len(papers))
	for i, paper := range papers {
		documents[i] = paperDocument(paper)
	}

	vectors, err := idx.embedder.Embed(ctx, documents)
	if err != nil {
		return wrapSemanticError("embed papers", err)
	}
	if len(vectors) != len(papers) {
		return fmt.Errorf("embedder returned %d vectors for %d papers", len(vectors), len(papers))
	}

	points := make([]point, 0, len(papers))
	for i, paper := range papers {
		points = append(points, point{
			// Deterministic point id per paper: re-ingestion overwrites
			// instead of duplicating.
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(paper.ID)).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"paper_id": paper.ID,
				"title":    paper.Title,
				"journal":  paper.Journal,
				"year":     paper.Year,
				"doi":      paper.DOI,
			},
		})
	}
	if err := idx.client.UpsertPoints(ctx, points); err != nil {
		return wrapSemanticError("upsert points", err)
	}
	return nil
}

// PairwiseSimilarities computes cosine similarity between every indexed pair
// and keeps edges at or above threshold, at most maxPerPaper strongest edges
// per paper. Qdrant has no pairwise endpoint, so the vectors are scrolled out
// and compared locally.
func (idx *Index) PairwiseSimilarities(ctx context.Context, threshold float64, maxPerPaper int) ([]domain.SemanticEdge, error) {
	if maxPerPaper <= 0 {
		maxPerPaper = 5
	}

	points, err := idx.client.ScrollAll(ctx, 256)
	if err != nil {
		return nil, wrapSemanticError("scroll points", err)
	}

	type vectorEntry struct {
		paperID string
		vector  []float32
	}
	entries := make([]vectorEntry, 0, len(points))
	for _, p := range points {
		paperID := getStringPayload(p.Payload, "paper_id")
		if paperID == "" || len(p.Vector) == 0 {
			continue
		}
		entries = append(entries, vectorEntry{paperID: paperID, vector: p.Vector})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].paperID < entries[j].paperID })

	var edges []domain.SemanticEdge
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			score := cosine(entries[i].vector, entries[j].vector)
			if score < threshold {
				continue
			}
			edges = append(edges, domain.SemanticEdge{
				PaperA: entries[i].paperID,
				PaperB: entries[j].paperID,
				Score:  clampUnit(score),
			})
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Score != edges[j].Score {
			return edges[i].Score > edges[j].Score
		}
		if edges[i].PaperA != edges[j].PaperA {
			return edges[i].PaperA < edges[j].PaperA
		}
		return edges[i].PaperB < edges[j].PaperB
	})

	degree := make(map[string]int, len(entries))
	kept := edges[:0]
	for _, edge := range edges {
		if degree[edge.PaperA] >= maxPerPaper || degree[edge.PaperB] >= maxPerPaper {
			continue
		}
		degree[edge.PaperA]++
		degree[edge.PaperB]++
		kept = append(kept, edge)
	}
	return kept, nil
}

// paperDocument builds the text that represents one paper in vector space.
func paperDocument(paper domain.Paper) string {
	var b strings.Builder
	b.WriteString("Title: " + paper.Title + "\n")
	b.WriteString("Abstract: " + paper.Abstract + "\n")
	b.WriteString("Authors: " + strings.Join(paper.Authors, "; ") + "\n")
	b.WriteString("Journal: " + paper.Journal + "\n")
	b.WriteString("Year: " + strconv.Itoa(paper.Year))
	return b.String()
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clampUnit(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func wrapSemanticError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.WrapError(domain.ErrSemanticUnavailable, operation, err)
}
