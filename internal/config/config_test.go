package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("RETRIEVAL_MIN_SCORE", "")
	t.Setenv("RETRIEVAL_MAX_RESULTS", "")
	t.Setenv("CAVEAT_FEW_SOURCES", "")
	t.Setenv("CAVEAT_COVERAGE_RATIO", "")
	t.Setenv("CAVEAT_YEAR_SPAN", "")

	cfg := Load()
	if cfg.RetrievalTopK != 10 {
		t.Fatalf("expected default top k 10, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalMinScore != 0.35 {
		t.Fatalf("expected default min score 0.35, got %v", cfg.RetrievalMinScore)
	}
	if cfg.RetrievalMaxResults != 10 {
		t.Fatalf("expected default max results 10, got %d", cfg.RetrievalMaxResults)
	}
	if cfg.CaveatFewSources != 5 {
		t.Fatalf("expected default few-sources threshold 5, got %d", cfg.CaveatFewSources)
	}
	if cfg.CaveatCoverageRatio != 0.10 {
		t.Fatalf("expected default coverage ratio 0.10, got %v", cfg.CaveatCoverageRatio)
	}
	if cfg.CaveatYearSpan != 3 {
		t.Fatalf("expected default year span 3, got %d", cfg.CaveatYearSpan)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "25")
	t.Setenv("RETRIEVAL_MIN_SCORE", "0.5")
	t.Setenv("CAVEAT_FEW_SOURCES", "3")

	cfg := Load()
	if cfg.RetrievalTopK != 25 {
		t.Fatalf("expected top k override 25, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalMinScore != 0.5 {
		t.Fatalf("expected min score override 0.5, got %v", cfg.RetrievalMinScore)
	}
	if cfg.CaveatFewSources != 3 {
		t.Fatalf("expected few-sources override 3, got %d", cfg.CaveatFewSources)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "lots")
	t.Setenv("RETRIEVAL_MIN_SCORE", "high")

	cfg := Load()
	if cfg.RetrievalTopK != 10 {
		t.Fatalf("expected fallback top k 10, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalMinScore != 0.35 {
		t.Fatalf("expected fallback min score 0.35, got %v", cfg.RetrievalMinScore)
	}
}
