package domain

import "time"

// Rank is a journal quality label carried over from the two ranking schemes
// found in standardized literature exports (VHB and ABDC).
type Rank string

const (
	RankAPlus    Rank = "A+"
	RankAStar    Rank = "A*"
	RankA        Rank = "A"
	RankB        Rank = "B"
	RankC        Rank = "C"
	RankUnranked Rank = "unranked"
)

// ParseRank maps a free-text spreadsheet cell to a Rank. Anything outside the
// known label set collapses to RankUnranked.
func ParseRank(raw string) Rank {
	switch Rank(raw) {
	case RankAPlus, RankAStar, RankA, RankB, RankC:
		return Rank(raw)
	default:
		return RankUnranked
	}
}

// Paper is one ingested publication record. Created once per spreadsheet row
// at ingestion time; the retrieval core only ever reads it.
type Paper struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Abstract       string   `json:"abstract,omitempty"`
	Authors        []string `json:"authors"`
	AuthorKeywords []string `json:"author_keywords,omitempty"`
	IndexKeywords  []string `json:"index_keywords,omitempty"`
	Year           int      `json:"year,omitempty"`
	Journal        string   `json:"journal_name,omitempty"`
	VHBRank        Rank     `json:"vhb_rank"`
	ABDCRank       Rank     `json:"abdc_rank"`
	Citations      int      `json:"citations"`
	DOI            string   `json:"doi,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// AccessLink returns the paper URL, falling back to the DOI resolver when the
// source row carried no URL.
func (p Paper) AccessLink() string {
	if p.URL != "" {
		return p.URL
	}
	if p.DOI != "" {
		return "https://doi.org/" + p.DOI
	}
	return ""
}

// Keywords returns the union of author-supplied and index-assigned keywords,
// author keywords first, without duplicates.
func (p Paper) Keywords() []string {
	seen := make(map[string]struct{}, len(p.AuthorKeywords)+len(p.IndexKeywords))
	out := make([]string, 0, len(p.AuthorKeywords)+len(p.IndexKeywords))
	for _, kw := range p.AuthorKeywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	for _, kw := range p.IndexKeywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// AbstractSnippet returns a display excerpt of the abstract, capped at limit
// runes with a trailing ellipsis when truncated.
func (p Paper) AbstractSnippet(limit int) string {
	if limit <= 0 {
		limit = 200
	}
	runes := []rune(p.Abstract)
	if len(runes) <= limit {
		return p.Abstract
	}
	return string(runes[:limit]) + "..."
}

type CorpusStatus string

const (
	CorpusUploaded   CorpusStatus = "uploaded"
	CorpusProcessing CorpusStatus = "processing"
	CorpusReady      CorpusStatus = "ready"
	CorpusFailed     CorpusStatus = "failed"
)

// Corpus tracks one uploaded spreadsheet through the ingestion pipeline.
type Corpus struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	StoragePath string       `json:"storage_path"`
	Status      CorpusStatus `json:"status"`
	PaperCount  int          `json:"paper_count"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
