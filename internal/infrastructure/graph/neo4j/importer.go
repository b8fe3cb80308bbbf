package neo4jgraph

import (
	"context"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

var importConstraints = []string{
	`CREATE CONSTRAINT paper_id IF NOT EXISTS FOR (p:Paper) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT author_name IF NOT EXISTS FOR (a:Author) REQUIRE a.name IS UNIQUE`,
	`CREATE CONSTRAINT keyword_name IF NOT EXISTS FOR (k:Keyword) REQUIRE k.name IS UNIQUE`,
}

const importPapersQuery = `UNWIND $papers AS row
MERGE (p:Paper {id: row.id})
SET p.title = row.title,
    p.doi = row.doi,
    p.year = row.year,
    p.journal = row.journal,
    p.citations = row.citations`

const importAuthorsQuery = `UNWIND $papers AS row
MATCH (p:Paper {id: row.id})
UNWIND row.authors AS authorName
MERGE (a:Author {name: authorName})
MERGE (a)-[:AUTHORED]->(p)`

const importKeywordsQuery = `UNWIND $papers AS row
MATCH (p:Paper {id: row.id})
UNWIND row.keywords AS keywordName
MERGE (k:Keyword {name: keywordName})
MERGE (p)-[:HAS_KEYWORD]->(k)`

// ImportPapers merges paper, author, and keyword nodes for one corpus.
// MERGE keeps re-ingestion idempotent: an already-known paper is updated in
// place and edges are never duplicated.
func (idx *Index) ImportPapers(ctx context.Context, papers []domain.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	for _, constraint := range importConstraints {
		if _, err := idx.run(ctx, "neo4j.ensure_constraints", constraint, nil); err != nil {
			return err
		}
	}

	rows := make([]map[string]any, 0, len(papers))
	for _, paper := range papers {
		rows = append(rows, map[string]any{
			"id":        paper.ID,
			"title":     paper.Title,
			"doi":       paper.DOI,
			"year":      paper.Year,
			"journal":   paper.Journal,
			"citations": paper.Citations,
			"authors":   toAnySlice(paper.Authors),
			"keywords":  toAnySlice(paper.Keywords()),
		})
	}
	params := map[string]any{"papers": rows}

	for _, query := range []string{importPapersQuery, importAuthorsQuery, importKeywordsQuery} {
		if _, err := idx.run(ctx, "neo4j.import_papers", query, params); err != nil {
			return err
		}
	}

	if idx.logger != nil {
		idx.logger.Info("graph import finished", "papers", len(papers))
	}
	return nil
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
