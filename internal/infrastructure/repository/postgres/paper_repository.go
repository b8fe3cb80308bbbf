package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

type PaperRepository struct {
	db *sql.DB
}

func NewPaperRepository(db *sql.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

// UpsertPapers writes all papers in one transaction. An existing id is
// overwritten, so re-ingesting the same spreadsheet never duplicates rows.
func (r *PaperRepository) UpsertPapers(ctx context.Context, papers []domain.Paper) error {
	if len(papers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO papers (
	id, title, abstract, authors, author_keywords, index_keywords, year, journal, vhb_rank, abdc_rank, citations, doi, url
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	abstract = EXCLUDED.abstract,
	authors = EXCLUDED.authors,
	author_keywords = EXCLUDED.author_keywords,
	index_keywords = EXCLUDED.index_keywords,
	year = EXCLUDED.year,
	journal = EXCLUDED.journal,
	vhb_rank = EXCLUDED.vhb_rank,
	abdc_rank = EXCLUDED.abdc_rank,
	citations = EXCLUDED.citations,
	doi = EXCLUDED.doi,
	url = EXCLUDED.url
`
	for _, paper := range papers {
		authorsJSON, err := json.Marshal(stringsOrEmpty(paper.Authors))
		if err != nil {
			return fmt.Errorf("marshal authors: %w", err)
		}
		authorKwJSON, err := json.Marshal(stringsOrEmpty(paper.AuthorKeywords))
		if err != nil {
			return fmt.Errorf("marshal author keywords: %w", err)
		}
		indexKwJSON, err := json.Marshal(stringsOrEmpty(paper.IndexKeywords))
		if err != nil {
			return fmt.Errorf("marshal index keywords: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query,
			paper.ID, paper.Title, paper.Abstract, authorsJSON, authorKwJSON, indexKwJSON,
			paper.Year, paper.Journal, string(paper.VHBRank), string(paper.ABDCRank),
			paper.Citations, paper.DOI, paper.URL,
		); err != nil {
			return fmt.Errorf("upsert paper %s: %w", paper.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

// GetByIDs fetches the named papers. Unknown ids are silently absent from the
// result; callers decide how to handle the gap.
func (r *PaperRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT id, title, abstract, authors, author_keywords, index_keywords, year, journal, vhb_rank, abdc_rank, citations, doi, url
FROM papers
WHERE id IN (%s)
`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		var paper domain.Paper
		var authorsRaw, authorKwRaw, indexKwRaw []byte
		var vhb, abdc string

		if err := rows.Scan(
			&paper.ID, &paper.Title, &paper.Abstract, &authorsRaw, &authorKwRaw, &indexKwRaw,
			&paper.Year, &paper.Journal, &vhb, &abdc, &paper.Citations, &paper.DOI, &paper.URL,
		); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}

		if err := json.Unmarshal(authorsRaw, &paper.Authors); err != nil {
			return nil, fmt.Errorf("unmarshal authors: %w", err)
		}
		if err := json.Unmarshal(authorKwRaw, &paper.AuthorKeywords); err != nil {
			return nil, fmt.Errorf("unmarshal author keywords: %w", err)
		}
		if err := json.Unmarshal(indexKwRaw, &paper.IndexKeywords); err != nil {
			return nil, fmt.Errorf("unmarshal index keywords: %w", err)
		}
		paper.VHBRank = domain.Rank(vhb)
		paper.ABDCRank = domain.Rank(abdc)
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return papers, nil
}

func (r *PaperRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count papers: %w", err)
	}
	return count, nil
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
