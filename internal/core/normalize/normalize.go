// Package normalize canonicalizes free-text spreadsheet fields (author lists,
// keyword lists, DOIs) into comparable tokens. Both the ingestion pipeline and
// the retrieval core depend on it, so the same raw value always normalizes to
// the same token on both sides of the index.
package normalize

import (
	"regexp"
	"strings"
)

// authorIDSuffix matches a trailing parenthetical numeric id as exported by
// bibliography tools, e.g. "Maklan, S. (7004354619)".
var authorIDSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

// keywordStoplist drops generic source-database tags that would otherwise
// create false relational edges between unrelated papers.
var keywordStoplist = map[string]struct{}{
	"scopus":         {},
	"wos":            {},
	"web of science": {},
	"crossref":       {},
	"n/a":            {},
}

// AuthorList splits a raw author cell on semicolons, strips trailing
// parenthetical ids, and trims whitespace. Order is preserved: the first
// author stays first, which citation-style labels rely on.
func AuthorList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(authorIDSuffix.ReplaceAllString(strings.TrimSpace(part), ""))
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// KeywordList normalizes a delimited keyword cell: split on semicolons (and
// commas when no semicolon is present), trim, drop stoplisted source tags.
// Duplicates are removed, first occurrence wins.
func KeywordList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	sep := ";"
	if !strings.Contains(raw, ";") {
		sep = ","
	}
	return Keywords(strings.Split(raw, sep))
}

// Keywords normalizes an already-split keyword sequence with the same
// trimming, stoplist, and dedup rules as KeywordList.
func Keywords(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, stop := keywordStoplist[key]; stop {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DOI strips doi.org URL and "doi:" prefixes case-insensitively and trims the
// remainder. Idempotent: DOI(DOI(x)) == DOI(x).
func DOI(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		lower := strings.ToLower(s)
		switch {
		case strings.HasPrefix(lower, "https://doi.org/"):
			s = s[len("https://doi.org/"):]
		case strings.HasPrefix(lower, "http://doi.org/"):
			s = s[len("http://doi.org/"):]
		case strings.HasPrefix(lower, "doi:"):
			s = s[len("doi:"):]
		default:
			return strings.TrimSpace(s)
		}
		s = strings.TrimSpace(s)
	}
}

// ISSN canonicalizes an ISSN for ranking lookups: hyphens removed, uppercased
// (the check digit may be X).
func ISSN(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", ""))
}

// JournalName lowercases and collapses internal whitespace for name-keyed
// ranking lookups.
func JournalName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
