package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// IntentClassifier decides how a question should be retrieved. Classification
// is discrete: one QueryIntent variant, no numeric score. When several
// patterns match, the most specific wins, in fixed order:
// AuthorLookup > TopicLookup > Listing > GeneralConcept.
type IntentClassifier struct {
	graph ports.RelationshipIndex
}

func NewIntentClassifier(graph ports.RelationshipIndex) *IntentClassifier {
	return &IntentClassifier{graph: graph}
}

var (
	authorPhrasePattern = regexp.MustCompile(`(?i)\b(papers? by|written by|works? by|wrote|authored by|collaborated with|co-?authors? of|together with)\b`)
	possessivePattern   = regexp.MustCompile(`\b([A-Z][\p{L}.-]*(?:\s+[A-Z][\p{L}.-]*)*)['’]s\s+(?:papers?|works?|publications?)`)
	listAuthorsPattern  = regexp.MustCompile(`(?i)\b(list|show|name)\b.*\bauthors\b|\ball authors\b|\bwhich authors\b`)
	listTopicsPattern   = regexp.MustCompile(`(?i)\b(list|show|name)\b.*\b(topics?|keywords?)\b|\bwhat topics\b|\ball (topics|keywords)\b|\btopics .*\bcovered\b`)
	collaborationHint   = regexp.MustCompile(`(?i)\b(collaborated|co-?author)`)
)

// questionStopwords are capitalized words that never start an author name.
var questionStopwords = map[string]struct{}{
	"which": {}, "who": {}, "what": {}, "where": {}, "when": {}, "how": {},
	"paper": {}, "papers": {}, "author": {}, "authors": {}, "list": {},
	"show": {}, "the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "did": {},
	"does": {}, "do": {}, "about": {}, "tell": {}, "me": {}, "find": {},
	"works": {}, "work": {}, "summarize": {}, "name": {}, "give": {},
}

// Classify maps a raw question to one intent variant. The keyword vocabulary
// for TopicLookup comes from the relationship index; a graph outage silently
// narrows classification to the pattern-based cases.
func (c *IntentClassifier) Classify(ctx context.Context, question string) domain.QueryIntent {
	q := strings.TrimSpace(question)

	if name, collab := c.extractAuthor(q); name != "" {
		return domain.QueryIntent{
			Kind:          domain.IntentAuthorLookup,
			Author:        name,
			Collaboration: collab,
		}
	}

	if kw := c.matchKeyword(ctx, q); kw != "" {
		return domain.QueryIntent{Kind: domain.IntentTopicLookup, Keyword: kw}
	}

	if target, ok := c.matchListing(q); ok {
		return domain.QueryIntent{Kind: domain.IntentListing, Target: target}
	}

	return domain.QueryIntent{Kind: domain.IntentGeneralConcept}
}

func (c *IntentClassifier) extractAuthor(q string) (name string, collaboration bool) {
	if m := possessivePattern.FindStringSubmatch(q); m != nil {
		return m[1], collaborationHint.MatchString(q)
	}
	if !authorPhrasePattern.MatchString(q) {
		return "", false
	}
	name = extractProperNoun(q)
	if name == "" {
		return "", false
	}
	return name, collaborationHint.MatchString(q)
}

func (c *IntentClassifier) matchListing(q string) (domain.ListTarget, bool) {
	switch {
	case listAuthorsPattern.MatchString(q):
		return domain.ListAuthors, true
	case listTopicsPattern.MatchString(q):
		return domain.ListKeywords, true
	default:
		return "", false
	}
}

// matchKeyword checks the question against the graph's keyword vocabulary and
// returns the longest matching keyword phrase.
func (c *IntentClassifier) matchKeyword(ctx context.Context, q string) string {
	if c.graph == nil {
		return ""
	}
	vocab, err := c.graph.ListKeywords(ctx)
	if err != nil {
		slog.Warn("intent_keyword_vocab_unavailable", "error", err)
		return ""
	}
	lower := strings.ToLower(q)
	best := ""
	for _, kw := range vocab {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if containsPhrase(lower, k) && len(kw) > len(best) {
			best = kw
		}
	}
	return best
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordRune(rune(text[start-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// extractProperNoun finds the author-name span: the first capitalized run
// whose head is not a question word. Consecutive capitalized words are
// collected into one name ("Klaus Schmidt").
func extractProperNoun(q string) string {
	words := strings.Fields(q)
	for i, word := range words {
		w := strings.Trim(word, "?,.!\"'")
		if w == "" || !startsUpper(w) {
			continue
		}
		if _, stop := questionStopwords[strings.ToLower(w)]; stop {
			continue
		}
		parts := []string{w}
		for j := i + 1; j < len(words); j++ {
			next := strings.Trim(words[j], "?,.!\"'")
			if next == "" || !startsUpper(next) {
				break
			}
			parts = append(parts, next)
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
