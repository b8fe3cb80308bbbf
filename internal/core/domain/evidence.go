package domain

// Provenance records which retrieval path produced a piece of evidence.
type Provenance string

const (
	ProvenanceSemantic   Provenance = "semantic"
	ProvenanceRelational Provenance = "relational"
	ProvenanceBoth       Provenance = "both"
)

// MergeProvenance combines the provenance of two evidence items for the same
// paper. Any mix of paths collapses to ProvenanceBoth.
func MergeProvenance(a, b Provenance) Provenance {
	if a == "" {
		return b
	}
	if b == "" || a == b {
		return a
	}
	return ProvenanceBoth
}

// EvidenceItem is one deduplicated retrieval result: a paper, its relevance
// score in [0,1], which path found it, and the relational justification when
// the graph was involved.
type EvidenceItem struct {
	Paper          Paper      `json:"paper"`
	Score          float64    `json:"score"`
	Provenance     Provenance `json:"provenance"`
	SharedAuthors  []string   `json:"shared_authors,omitempty"`
	SharedKeywords []string   `json:"shared_keywords,omitempty"`
}

// Merge folds another item for the same paper into this one: provenance is
// unioned, the maximum score wins, and justification sets are concatenated
// without duplicates.
func (e EvidenceItem) Merge(other EvidenceItem) EvidenceItem {
	out := e
	out.Provenance = MergeProvenance(e.Provenance, other.Provenance)
	if other.Score > out.Score {
		out.Score = other.Score
	}
	out.SharedAuthors = unionStrings(e.SharedAuthors, other.SharedAuthors)
	out.SharedKeywords = unionStrings(e.SharedKeywords, other.SharedKeywords)
	return out
}

// SharedProperties is the relational overlap between two papers.
type SharedProperties struct {
	Authors  []string `json:"shared_authors"`
	Keywords []string `json:"shared_keywords"`
}

// SemanticHit is one raw similarity-index result.
type SemanticHit struct {
	PaperID string  `json:"paper_id"`
	Score   float64 `json:"score"`
}

// SemanticEdge links two papers by embedding similarity. Emitted for the
// visualization layer, never consumed by the retrieval core itself.
type SemanticEdge struct {
	PaperA string  `json:"paper_a"`
	PaperB string  `json:"paper_b"`
	Score  float64 `json:"score"`
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, lists := range [][]string{a, b} {
		for _, s := range lists {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
