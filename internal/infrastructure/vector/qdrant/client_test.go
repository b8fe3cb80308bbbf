package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

type fixedEmbedder struct {
	query []float32
	err   error
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.query, nil
}

func TestIndexPapersEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/papers":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/papers/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	index := NewIndex(New(server.URL, "papers"), &fixedEmbedder{})
	papers := []domain.Paper{{ID: "10.1000/a.1", Title: "A"}, {ID: "10.1000/b.2", Title: "B"}}

	if err := index.IndexPapers(context.Background(), papers); err != nil {
		t.Fatalf("first IndexPapers() error = %v", err)
	}
	if err := index.IndexPapers(context.Background(), papers); err != nil {
		t.Fatalf("second IndexPapers() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestIndexPapersDeterministicPointIDs(t *testing.T) {
	var seen [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/papers/points" {
			var body struct {
				Points []struct {
					ID string `json:"id"`
				} `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			ids := make([]string, len(body.Points))
			for i, p := range body.Points {
				ids[i] = p.ID
			}
			seen = append(seen, ids)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	index := NewIndex(New(server.URL, "papers"), &fixedEmbedder{})
	papers := []domain.Paper{{ID: "10.1000/a.1", Title: "A"}}

	for i := 0; i < 2; i++ {
		if err := index.IndexPapers(context.Background(), papers); err != nil {
			t.Fatalf("IndexPapers() error = %v", err)
		}
	}
	if len(seen) != 2 || len(seen[0]) != 1 {
		t.Fatalf("unexpected upsert calls: %v", seen)
	}
	if seen[0][0] != seen[1][0] {
		t.Fatalf("point id not stable across ingestions: %q vs %q", seen[0][0], seen[1][0])
	}
}

func TestQuerySortsAndClampsHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/papers/points/search" {
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.8,"payload":{"paper_id":"p2"}},
				{"score":1.2,"payload":{"paper_id":"p9"}},
				{"score":0.8,"payload":{"paper_id":"p1"}},
				{"score":0.5,"payload":{}}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	index := NewIndex(New(server.URL, "papers"), &fixedEmbedder{query: []float32{0.1, 0.2}})
	hits, err := index.Query(context.Background(), "loyalty", 10, 0.3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	// Payload without paper_id is dropped, scores clamp to [0,1], ties break
	// by paper id ascending.
	want := []domain.SemanticHit{{PaperID: "p9", Score: 1.0}, {PaperID: "p1", Score: 0.8}, {PaperID: "p2", Score: 0.8}}
	if len(hits) != len(want) {
		t.Fatalf("hits = %v, want %v", hits, want)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Fatalf("hits[%d] = %v, want %v", i, hits[i], want[i])
		}
	}
}

func TestQueryEmbedderFailureMarkedUnavailable(t *testing.T) {
	index := NewIndex(New("http://localhost:1", "papers"), &fixedEmbedder{err: errors.New("model down")})
	_, err := index.Query(context.Background(), "loyalty", 10, 0.3)
	if !domain.IsKind(err, domain.ErrSemanticUnavailable) {
		t.Fatalf("expected ErrSemanticUnavailable, got %v", err)
	}
}

func TestPairwiseSimilarities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/papers/points/scroll" {
			_, _ = w.Write([]byte(`{"result":{"points":[
				{"id":"1","vector":[1,0],"payload":{"paper_id":"p1"}},
				{"id":"2","vector":[1,0],"payload":{"paper_id":"p2"}},
				{"id":"3","vector":[0,1],"payload":{"paper_id":"p3"}}
			],"next_page_offset":null}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	index := NewIndex(New(server.URL, "papers"), &fixedEmbedder{})
	edges, err := index.PairwiseSimilarities(context.Background(), 0.9, 5)
	if err != nil {
		t.Fatalf("PairwiseSimilarities() error = %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("edges = %v, want exactly the p1-p2 edge", edges)
	}
	if edges[0].PaperA != "p1" || edges[0].PaperB != "p2" || edges[0].Score < 0.99 {
		t.Fatalf("unexpected edge %+v", edges[0])
	}
}

func TestPairwiseSimilaritiesCapsDegree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/papers/points/scroll" {
			_, _ = w.Write([]byte(`{"result":{"points":[
				{"id":"1","vector":[1,0],"payload":{"paper_id":"p1"}},
				{"id":"2","vector":[1,0],"payload":{"paper_id":"p2"}},
				{"id":"3","vector":[1,0],"payload":{"paper_id":"p3"}}
			],"next_page_offset":null}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	index := NewIndex(New(server.URL, "papers"), &fixedEmbedder{})
	edges, err := index.PairwiseSimilarities(context.Background(), 0.9, 1)
	if err != nil {
		t.Fatalf("PairwiseSimilarities() error = %v", err)
	}
	// Three identical vectors give three candidate edges, but each paper may
	// keep only one.
	if len(edges) != 1 {
		t.Fatalf("expected degree cap to keep 1 edge, got %v", edges)
	}
}
