package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/ports"
)

// RetrievalUnavailableAnswer is the tagged response used when both retrieval
// paths are down. The pipeline never fabricates an answer in that state.
const RetrievalUnavailableAnswer = "retrieval unavailable: neither the similarity index nor the knowledge graph could be reached. Please retry later."

// SynthesisFailedNote is appended to evidence-only responses when answer
// generation failed but sources are still worth showing.
const SynthesisFailedNote = "Answer synthesis failed; the sources below were retrieved but no narrative answer could be generated."

// AskUseCase is the public entry point of the retrieval core: it drives
// classification, hybrid retrieval, evidence metrics, and synthesis, and
// always returns either a full envelope or a clearly tagged degraded one,
// never a bare internal error for a well-formed question.
type AskUseCase struct {
	classifier  *IntentClassifier
	retriever   *HybridRetriever
	metrics     *EvidenceMetrics
	synthesizer *Synthesizer
	papers      ports.PaperRepository
}

func NewAskUseCase(
	classifier *IntentClassifier,
	retriever *HybridRetriever,
	metrics *EvidenceMetrics,
	synthesizer *Synthesizer,
	papers ports.PaperRepository,
) *AskUseCase {
	return &AskUseCase{
		classifier:  classifier,
		retriever:   retriever,
		metrics:     metrics,
		synthesizer: synthesizer,
		papers:      papers,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string) (*domain.ResponseEnvelope, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("empty question"))
	}

	intent := uc.classifier.Classify(ctx, question)
	slog.Info("question_classified", "kind", intent.Kind, "author", intent.Author, "keyword", intent.Keyword)

	retrieved, err := uc.retriever.Retrieve(ctx, question, intent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if domain.IsKind(err, domain.ErrRetrievalUnavailable) ||
			domain.IsKind(err, domain.ErrSemanticUnavailable) ||
			domain.IsKind(err, domain.ErrGraphUnavailable) {
			slog.Error("retrieval_unavailable", "error", err)
			return &domain.ResponseEnvelope{
				Answer:     RetrievalUnavailableAnswer,
				Intent:     string(intent.Kind),
				Confidence: 0,
				Sources:    []domain.Source{},
			}, nil
		}
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if retrieved.Target != "" {
		envelope := uc.listingEnvelope(retrieved)
		envelope.Intent = string(intent.Kind)
		return envelope, nil
	}

	corpusSize, err := uc.papers.Count(ctx)
	if err != nil {
		slog.Warn("corpus_size_unavailable", "error", err)
		corpusSize = 0
	}

	envelope := &domain.ResponseEnvelope{
		Intent:          string(intent.Kind),
		Confidence:      uc.metrics.Confidence(retrieved.Items),
		Contributions:   uc.metrics.Contributions(retrieved.Items),
		Caveats:         uc.metrics.Caveats(retrieved.Items, corpusSize),
		DegradedSources: retrieved.Degraded,
		Sources:         make([]domain.Source, 0, len(retrieved.Items)),
		GraphUsed:       retrieved.GraphUsed,
		CypherQuery:     retrieved.Cypher,
	}
	for _, item := range retrieved.Items {
		envelope.Sources = append(envelope.Sources, domain.SourceFromEvidence(item))
	}

	synthesis, err := uc.synthesizer.Synthesize(ctx, uc.synthesisQuestion(question, retrieved), retrieved.Items)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Evidence-only output: sources survive even when no narrative
		// answer could be generated.
		slog.Error("synthesis_failed", "error", err)
		envelope.Answer = SynthesisFailedNote
		envelope.SynthesisFailed = true
		return envelope, nil
	}
	envelope.Answer = synthesis.Text

	// The synthesizer may have truncated the evidence on retry; citations
	// then index into the truncated list, so the envelope follows it.
	if len(synthesis.Citations) > 0 && len(synthesis.Citations) < len(envelope.Sources) {
		envelope.Sources = envelope.Sources[:len(synthesis.Citations)]
		envelope.Contributions = uc.metrics.Contributions(retrieved.Items[:len(synthesis.Citations)])
	}

	return envelope, nil
}

// synthesisQuestion enriches collaboration questions with the co-author list
// so the answer can name collaborators, not just papers.
func (uc *AskUseCase) synthesisQuestion(question string, retrieved *RetrievalResult) string {
	if len(retrieved.CoAuthors) == 0 {
		return question
	}
	return fmt.Sprintf("%s\n(Known co-authors from the knowledge graph: %s)", question, strings.Join(retrieved.CoAuthors, ", "))
}

func (uc *AskUseCase) listingEnvelope(retrieved *RetrievalResult) *domain.ResponseEnvelope {
	return &domain.ResponseEnvelope{
		Answer:      uc.synthesizer.SynthesizeListing(retrieved.Target, retrieved.Listing),
		Confidence:  1.0,
		Sources:     []domain.Source{},
		Listing:     retrieved.Listing,
		GraphUsed:   true,
		CypherQuery: retrieved.Cypher,
	}
}
