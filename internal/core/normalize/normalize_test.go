package normalize

import (
	"reflect"
	"testing"
)

func TestAuthorListStripsIDsAndPreservesOrder(t *testing.T) {
	got := AuthorList("Maklan, S. (7004354619); Klaus, P. (36441305800);  ; Smith, J.")
	want := []string{"Maklan, S.", "Klaus, P.", "Smith, J."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AuthorList() = %v, want %v", got, want)
	}
}

func TestAuthorListEmpty(t *testing.T) {
	if got := AuthorList("  "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
	if got := AuthorList("; ;"); got != nil {
		t.Fatalf("expected nil for separator-only input, got %v", got)
	}
}

func TestAuthorListIdempotent(t *testing.T) {
	first := AuthorList("Klaus, P. (123); Maklan, S.")
	second := AuthorList(joinSemicolon(first))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not idempotent: %v then %v", first, second)
	}
}

func TestKeywordListDropsStoplistAndDuplicates(t *testing.T) {
	got := KeywordList("Customer Experience; Scopus; service quality; customer experience")
	want := []string{"Customer Experience", "service quality"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("KeywordList() = %v, want %v", got, want)
	}
}

func TestKeywordListCommaFallback(t *testing.T) {
	got := KeywordList("marketing, branding")
	want := []string{"marketing", "branding"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("KeywordList() = %v, want %v", got, want)
	}
}

func TestKeywordsIdempotent(t *testing.T) {
	first := Keywords([]string{" loyalty ", "Scopus", "loyalty", "trust"})
	second := Keywords(first)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not idempotent: %v then %v", first, second)
	}
}

func TestDOIPrefixStripping(t *testing.T) {
	cases := map[string]string{
		"https://doi.org/10.1000/xyz":     "10.1000/xyz",
		"HTTP://DOI.ORG/10.1000/xyz":      "10.1000/xyz",
		"doi:10.1000/xyz":                 "10.1000/xyz",
		"DOI: 10.1000/xyz":                "10.1000/xyz",
		"  10.1000/xyz  ":                 "10.1000/xyz",
		"doi:https://doi.org/10.1000/xyz": "10.1000/xyz",
		"": "",
	}
	for in, want := range cases {
		if got := DOI(in); got != want {
			t.Fatalf("DOI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDOIIdempotent(t *testing.T) {
	inputs := []string{"https://doi.org/10.1/a", "doi:10.2/b", "10.3/c", ""}
	for _, in := range inputs {
		once := DOI(in)
		if twice := DOI(once); twice != once {
			t.Fatalf("DOI not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestISSNAndJournalName(t *testing.T) {
	if got := ISSN(" 1234-567x "); got != "1234567X" {
		t.Fatalf("ISSN() = %q", got)
	}
	if got := JournalName("  Journal  of\tService   Research "); got != "journal of service research" {
		t.Fatalf("JournalName() = %q", got)
	}
}

func joinSemicolon(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}
