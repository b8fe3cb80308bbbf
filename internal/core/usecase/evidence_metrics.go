package usecase

import (
	"fmt"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

// Caveat tags. The full caveat string starts with its tag so callers can
// match on the prefix while users still get a readable sentence.
const (
	CaveatFewSources   = "few sources"
	CaveatLowCoverage  = "low coverage"
	CaveatNarrowWindow = "narrow time window"
	CaveatSingleSource = "single-source bias"
)

// MetricsConfig carries the advisory thresholds. Zero value gets defaults.
type MetricsConfig struct {
	FewSources    int
	CoverageRatio float64
	YearSpan      int
}

func (c MetricsConfig) normalize() MetricsConfig {
	out := c
	if out.FewSources <= 0 {
		out.FewSources = 5
	}
	if out.CoverageRatio <= 0 {
		out.CoverageRatio = 0.10
	}
	if out.YearSpan <= 0 {
		out.YearSpan = 3
	}
	return out
}

// EvidenceMetrics computes transparency metrics over a final evidence set:
// scalar confidence, per-source contribution percentages, and advisory
// caveats. Caveats never block an answer.
type EvidenceMetrics struct {
	cfg MetricsConfig
}

func NewEvidenceMetrics(cfg MetricsConfig) *EvidenceMetrics {
	return &EvidenceMetrics{cfg: cfg.normalize()}
}

// Confidence is the mean item score, clamped to [0,1]. Empty evidence means 0.
func (m *EvidenceMetrics) Confidence(items []domain.EvidenceItem) float64 {
	if len(items) == 0 {
		return 0
	}
	sum := 0.0
	for _, item := range items {
		sum += item.Score
	}
	mean := sum / float64(len(items))
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}

// Contributions returns each item's share of the total score as a percentage.
// A zero score total falls back to an equal split.
func (m *EvidenceMetrics) Contributions(items []domain.EvidenceItem) []float64 {
	if len(items) == 0 {
		return nil
	}
	total := 0.0
	for _, item := range items {
		total += item.Score
	}
	out := make([]float64, len(items))
	if total <= 0 {
		equal := 100.0 / float64(len(items))
		for i := range out {
			out[i] = equal
		}
		return out
	}
	for i, item := range items {
		out[i] = item.Score / total * 100.0
	}
	return out
}

// Caveats generates the advisory warnings for an evidence set against the
// corpus it was drawn from.
func (m *EvidenceMetrics) Caveats(items []domain.EvidenceItem, corpusSize int) []string {
	if len(items) == 0 {
		return nil
	}
	var caveats []string

	if len(items) < m.cfg.FewSources {
		caveats = append(caveats, fmt.Sprintf("%s: answer grounded in only %d paper(s)", CaveatFewSources, len(items)))
	}

	if corpusSize > 0 {
		coverage := float64(len(items)) / float64(corpusSize)
		if coverage < m.cfg.CoverageRatio {
			caveats = append(caveats, fmt.Sprintf("%s: evidence covers %.1f%% of a %d-paper corpus", CaveatLowCoverage, coverage*100, corpusSize))
		}
	}

	if minYear, maxYear, ok := yearRange(items); ok && maxYear-minYear < m.cfg.YearSpan {
		caveats = append(caveats, fmt.Sprintf("%s: all evidence published between %d and %d", CaveatNarrowWindow, minYear, maxYear))
	}

	if journal, ok := singleJournal(items); ok {
		caveats = append(caveats, fmt.Sprintf("%s: every source appeared in %q", CaveatSingleSource, journal))
	}

	return caveats
}

// yearRange spans the known publication years; items without a year are
// treated as absent, not as errors.
func yearRange(items []domain.EvidenceItem) (minYear, maxYear int, ok bool) {
	for _, item := range items {
		year := item.Paper.Year
		if year == 0 {
			continue
		}
		if !ok {
			minYear, maxYear, ok = year, year, true
			continue
		}
		if year < minYear {
			minYear = year
		}
		if year > maxYear {
			maxYear = year
		}
	}
	return minYear, maxYear, ok
}

func singleJournal(items []domain.EvidenceItem) (string, bool) {
	journal := ""
	for _, item := range items {
		j := item.Paper.Journal
		if j == "" {
			return "", false
		}
		if journal == "" {
			journal = j
			continue
		}
		if j != journal {
			return "", false
		}
	}
	return journal, journal != ""
}
