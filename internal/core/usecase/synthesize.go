package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// InsufficientEvidenceAnswer is returned verbatim when no evidence exists.
// The completion backend is never invoked in that case.
const InsufficientEvidenceAnswer = "No relevant papers were found for this question, so no grounded answer can be given."

// SynthesisConfig tunes prompt assembly. Zero value gets defaults.
type SynthesisConfig struct {
	MaxTokens     int
	SnippetLength int
}

func (c SynthesisConfig) normalize() SynthesisConfig {
	out := c
	if out.MaxTokens <= 0 {
		out.MaxTokens = 512
	}
	if out.SnippetLength <= 0 {
		out.SnippetLength = 200
	}
	return out
}

// Synthesizer assembles the grounded, citation-annotated prompt and invokes
// the completion backend. A failed completion is retried once with the
// evidence list halved to fit context limits; a second failure surfaces as
// ErrSynthesisFailed.
type Synthesizer struct {
	llm ports.CompletionService
	cfg SynthesisConfig
}

func NewSynthesizer(llm ports.CompletionService, cfg SynthesisConfig) *Synthesizer {
	return &Synthesizer{llm: llm, cfg: cfg.normalize()}
}

// SynthesisResult pairs the answer text with the citation mapping: marker
// [n] in the text resolves to Citations[n-1].
type SynthesisResult struct {
	Text      string
	Citations []string
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, items []domain.EvidenceItem) (*SynthesisResult, error) {
	if len(items) == 0 {
		return &SynthesisResult{Text: InsufficientEvidenceAnswer}, nil
	}

	text, err := s.llm.Complete(ctx, s.buildPrompt(question, items), s.cfg.MaxTokens)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		truncated := items
		if len(truncated) > 1 {
			truncated = truncated[:(len(truncated)+1)/2]
		}
		slog.Warn("synthesis_retry_truncated", "evidence", len(items), "truncated_to", len(truncated), "error", err)
		text, err = s.llm.Complete(ctx, s.buildPrompt(question, truncated), s.cfg.MaxTokens)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSynthesisFailed, "llm completion", err)
		}
		items = truncated
	}

	citations := make([]string, 0, len(items))
	for _, item := range items {
		citations = append(citations, item.Paper.ID)
	}
	return &SynthesisResult{Text: strings.TrimSpace(text), Citations: citations}, nil
}

// SynthesizeListing formats a corpus-wide enumeration. Listings are exact
// graph facts, so they are rendered deterministically without an LLM call.
func (s *Synthesizer) SynthesizeListing(target domain.ListTarget, values []string) string {
	noun := "authors"
	if target == domain.ListKeywords {
		noun = "keywords"
	}
	if len(values) == 0 {
		return fmt.Sprintf("The corpus contains no %s.", noun)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The corpus contains %d distinct %s:\n", len(values), noun)
	for _, v := range values {
		fmt.Fprintf(&b, "- %s\n", v)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Synthesizer) buildPrompt(question string, items []domain.EvidenceItem) string {
	var evidence strings.Builder
	for i, item := range items {
		paper := item.Paper
		fmt.Fprintf(&evidence, "[%d] %q", i+1, paper.Title)
		if len(paper.Authors) > 0 {
			fmt.Fprintf(&evidence, " by %s", strings.Join(paper.Authors, ", "))
		}
		if paper.Year > 0 {
			fmt.Fprintf(&evidence, " (%d)", paper.Year)
		}
		if paper.Journal != "" {
			fmt.Fprintf(&evidence, ", %s", paper.Journal)
		}
		evidence.WriteString("\n")
		if snippet := paper.AbstractSnippet(s.cfg.SnippetLength); snippet != "" {
			fmt.Fprintf(&evidence, "Abstract: %s\n", snippet)
		}
		if len(item.SharedAuthors) > 0 {
			fmt.Fprintf(&evidence, "Graph link: shared author(s) %s\n", strings.Join(item.SharedAuthors, ", "))
		}
		if len(item.SharedKeywords) > 0 {
			fmt.Fprintf(&evidence, "Graph link: shared keyword(s) %s\n", strings.Join(item.SharedKeywords, ", "))
		}
		evidence.WriteString("\n")
	}

	return fmt.Sprintf(`You are answering a question about a corpus of research papers.
Answer ONLY from the numbered evidence below. Mark every factual claim with
the matching citation marker, e.g. [1] or [2]. If the evidence does not cover
the question, say so directly. Keep the answer to 2-3 paragraphs.

Evidence:
%s
Question:
%s

Answer:`, evidence.String(), question)
}
