// Package spreadsheet parses standardized literature exports (.xlsx, .xls,
// .csv) into paper records. The column schema follows the legacy export
// format, including its "abdcRanking" header spelling.
package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/normalize"
)

var requiredColumns = []string{
	"title",
	"authors",
	"abstract",
	"date",
	"source",
	"vhbRanking",
	"abdcRanking",
	"journal_name",
	"doi",
}

var optionalColumns = map[string]struct{}{
	"sources":          {},
	"source_count":     {},
	"issn":             {},
	"eissn":            {},
	"url":              {},
	"citations":        {},
	"journal_quartile": {},
	"author_keywords":  {},
	"index_keywords":   {},
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// JournalRanker backfills quality ratings for rows whose ranking cells are
// empty or unrecognized.
type JournalRanker interface {
	VHB(journal, issn, eissn string) domain.Rank
	ABDC(journal, issn, eissn string) domain.Rank
}

// Parser reads one spreadsheet into paper records. Rows without a title,
// abstract, and DOI are dropped before indexing.
type Parser struct {
	ranks  JournalRanker
	logger *slog.Logger
}

func NewParser(ranks JournalRanker, logger *slog.Logger) *Parser {
	return &Parser{ranks: ranks, logger: logger}
}

func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) ([]domain.Paper, error) {
	rows, err := readRows(filename, r)
	if err != nil {
		return nil, err
	}
	return p.rowsToPapers(ctx, rows)
}

func readRows(filename string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read csv", err)
		}
		return rows, nil
	case ".xlsx", ".xls":
		file, err := excelize.OpenReader(r)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
		}
		defer file.Close()

		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", errors.New("workbook has no sheets"))
		}
		rows, err := file.GetRows(sheets[0])
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read sheet", err)
		}
		return rows, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse spreadsheet", fmt.Errorf("unsupported extension %q", filepath.Ext(filename)))
	}
}

func (p *Parser) rowsToPapers(ctx context.Context, rows [][]string) ([]domain.Paper, error) {
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse spreadsheet", errors.New("empty file"))
	}

	columns, err := indexColumns(rows[0])
	if err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		title := cell("title")
		abstract := cell("abstract")
		doi := normalize.DOI(cell("doi"))
		if title == "" || abstract == "" || doi == "" {
			skipped++
			continue
		}

		paper := domain.Paper{
			ID:             doi,
			Title:          title,
			Abstract:       abstract,
			Authors:        normalize.AuthorList(cell("authors")),
			AuthorKeywords: normalize.KeywordList(cell("author_keywords")),
			IndexKeywords:  normalize.KeywordList(cell("index_keywords")),
			Year:           parseYear(cell("date")),
			Journal:        cell("journal_name"),
			VHBRank:        domain.ParseRank(cell("vhbRanking")),
			ABDCRank:       domain.ParseRank(cell("abdcRanking")),
			Citations:      parseCount(cell("citations")),
			DOI:            doi,
			URL:            cell("url"),
		}
		p.backfillRanks(&paper, cell("issn"), cell("eissn"))

		papers = append(papers, paper)
	}

	if p.logger != nil && skipped > 0 {
		p.logger.Debug("skipped incomplete spreadsheet rows", "skipped", skipped, "kept", len(papers))
	}
	return papers, nil
}

// backfillRanks consults the ranking tables only for rows whose own ranking
// cells did not carry a recognized label.
func (p *Parser) backfillRanks(paper *domain.Paper, issn, eissn string) {
	if p.ranks == nil {
		return
	}
	if paper.VHBRank == domain.RankUnranked {
		paper.VHBRank = p.ranks.VHB(paper.Journal, issn, eissn)
	}
	if paper.ABDCRank == domain.RankUnranked {
		paper.ABDCRank = p.ranks.ABDC(paper.Journal, issn, eissn)
	}
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, raw := range header {
		name := normalizeHeader(raw)
		if name == "" {
			continue
		}
		if _, dup := columns[name]; dup {
			continue
		}
		columns[name] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse spreadsheet",
			fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	for name := range columns {
		if _, ok := optionalColumns[name]; ok {
			continue
		}
		known := false
		for _, req := range requiredColumns {
			if name == req {
				known = true
				break
			}
		}
		if !known {
			delete(columns, name)
		}
	}
	return columns, nil
}

// normalizeHeader removes the hidden characters Excel exports tend to leave
// in header cells: BOM, non-breaking spaces, wrapping quotes, stray
// whitespace.
func normalizeHeader(raw string) string {
	s := strings.ReplaceAll(raw, "\uFEFF", "")
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// parseYear pulls the first plausible four-digit year out of a date cell,
// which may hold a bare year, an ISO date, or an Excel-formatted date string.
func parseYear(raw string) int {
	match := yearPattern.FindString(raw)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}

// parseCount reads a non-negative integer cell, tolerating the float
// formatting ("12.0") some spreadsheet tools emit.
func parseCount(raw string) int {
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 0 {
		return int(f)
	}
	return 0
}
