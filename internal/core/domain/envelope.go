package domain

// Source is the caller-facing citation record. Its position in the envelope's
// Sources slice resolves the [n] markers in the answer text (n = index + 1).
type Source struct {
	Title          string     `json:"title"`
	Authors        []string   `json:"authors"`
	Year           int        `json:"year,omitempty"`
	Similarity     float64    `json:"similarity"`
	Provenance     Provenance `json:"provenance"`
	DOI            string     `json:"doi,omitempty"`
	Journal        string     `json:"journal_name,omitempty"`
	URL            string     `json:"url,omitempty"`
	Snippet        string     `json:"abstract_snippet,omitempty"`
	SharedAuthors  []string   `json:"shared_authors,omitempty"`
	SharedKeywords []string   `json:"shared_keywords,omitempty"`
}

// ResponseEnvelope is the single output of the ask pipeline.
type ResponseEnvelope struct {
	Answer          string    `json:"answer"`
	Intent          string    `json:"intent,omitempty"`
	Confidence      float64   `json:"confidence"`
	Sources         []Source  `json:"sources"`
	Contributions   []float64 `json:"contributions,omitempty"`
	Caveats         []string  `json:"caveats,omitempty"`
	DegradedSources []string  `json:"degraded_sources,omitempty"`
	Listing         []string  `json:"listing,omitempty"`
	GraphUsed       bool      `json:"graphUsed"`
	CypherQuery     string    `json:"cypherQuery,omitempty"`
	SynthesisFailed bool      `json:"synthesisFailed,omitempty"`
}

// SourceFromEvidence projects an evidence item into the serializable shape.
func SourceFromEvidence(item EvidenceItem) Source {
	return Source{
		Title:          item.Paper.Title,
		Authors:        item.Paper.Authors,
		Year:           item.Paper.Year,
		Similarity:     item.Score,
		Provenance:     item.Provenance,
		DOI:            item.Paper.DOI,
		Journal:        item.Paper.Journal,
		URL:            item.Paper.AccessLink(),
		Snippet:        item.Paper.AbstractSnippet(200),
		SharedAuthors:  item.SharedAuthors,
		SharedKeywords: item.SharedKeywords,
	}
}
