package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mfriesen/litgraph/internal/core/domain"
)

func newAskUseCase(semantic *fakeSemantic, graph *fakeGraph, repo *fakePaperRepo, llm *fakeCompletion) *AskUseCase {
	return NewAskUseCase(
		NewIntentClassifier(graph),
		NewHybridRetriever(semantic, graph, repo, RetrievalConfig{}),
		NewEvidenceMetrics(MetricsConfig{}),
		NewSynthesizer(llm, SynthesisConfig{}),
		repo,
	)
}

func TestAskAuthorQuestionFullEnvelope(t *testing.T) {
	graph := &fakeGraph{byAuthor: map[string][]string{"Klaus": {"P1", "P3"}}}
	repo := &fakePaperRepo{papers: paperFixtures(), count: 2}
	llm := &fakeCompletion{answers: []string{"Klaus wrote two papers [1][2]."}}
	uc := newAskUseCase(&fakeSemantic{}, graph, repo, llm)

	envelope, err := uc.Ask(context.Background(), "Which papers were written by Klaus?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if envelope.Answer != "Klaus wrote two papers [1][2]." {
		t.Fatalf("unexpected answer %q", envelope.Answer)
	}
	if len(envelope.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(envelope.Sources))
	}
	if envelope.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0 for pure relational evidence, got %v", envelope.Confidence)
	}
	if !envelope.GraphUsed {
		t.Fatalf("expected graphUsed=true")
	}
	if envelope.CypherQuery == "" {
		t.Fatalf("expected audit cypher query")
	}
	for _, source := range envelope.Sources {
		if source.Provenance != domain.ProvenanceRelational {
			t.Fatalf("expected relational provenance, got %s", source.Provenance)
		}
	}
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	uc := newAskUseCase(&fakeSemantic{}, &fakeGraph{}, &fakePaperRepo{}, &fakeCompletion{})
	_, err := uc.Ask(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAskNoEvidenceSkipsSynthesis(t *testing.T) {
	llm := &fakeCompletion{}
	uc := newAskUseCase(&fakeSemantic{}, &fakeGraph{}, &fakePaperRepo{count: 10}, llm)

	envelope, err := uc.Ask(context.Background(), "something nobody studied")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if envelope.Answer != InsufficientEvidenceAnswer {
		t.Fatalf("expected insufficient-evidence answer, got %q", envelope.Answer)
	}
	if envelope.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %v", envelope.Confidence)
	}
	if llm.calls != 0 {
		t.Fatalf("expected zero LLM calls, got %d", llm.calls)
	}
}

func TestAskSynthesisFailureKeepsSources(t *testing.T) {
	graph := &fakeGraph{byAuthor: map[string][]string{"Klaus": {"P1"}}}
	repo := &fakePaperRepo{papers: paperFixtures(), count: 4}
	llm := &fakeCompletion{failures: 2}
	uc := newAskUseCase(&fakeSemantic{}, graph, repo, llm)

	envelope, err := uc.Ask(context.Background(), "papers by Klaus")
	if err != nil {
		t.Fatalf("synthesis failure must not fail the request, got %v", err)
	}
	if !envelope.SynthesisFailed {
		t.Fatalf("expected synthesisFailed flag")
	}
	if envelope.Answer != SynthesisFailedNote {
		t.Fatalf("unexpected answer %q", envelope.Answer)
	}
	if len(envelope.Sources) != 1 {
		t.Fatalf("expected sources to survive synthesis failure, got %d", len(envelope.Sources))
	}
}

func TestAskRetrievalUnavailableTaggedResponse(t *testing.T) {
	semantic := &fakeSemantic{err: errors.New("qdrant down")}
	graph := &fakeGraph{err: errors.New("neo4j down")}
	uc := newAskUseCase(semantic, graph, &fakePaperRepo{}, &fakeCompletion{})

	envelope, err := uc.Ask(context.Background(), "anything at all")
	if err != nil {
		t.Fatalf("expected tagged response, got error %v", err)
	}
	if envelope.Answer != RetrievalUnavailableAnswer {
		t.Fatalf("expected retrieval-unavailable answer, got %q", envelope.Answer)
	}
	if envelope.Confidence != 0 || len(envelope.Sources) != 0 {
		t.Fatalf("degraded envelope must carry no evidence")
	}
}

func TestAskListingQuestion(t *testing.T) {
	graph := &fakeGraph{authors: []string{"Maklan", "Klaus"}}
	llm := &fakeCompletion{}
	uc := newAskUseCase(&fakeSemantic{}, graph, &fakePaperRepo{}, llm)

	envelope, err := uc.Ask(context.Background(), "List all authors")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(envelope.Listing) != 2 {
		t.Fatalf("expected 2 listed authors, got %v", envelope.Listing)
	}
	if !strings.Contains(envelope.Answer, "Klaus") {
		t.Fatalf("listing answer missing entries: %q", envelope.Answer)
	}
	if llm.calls != 0 {
		t.Fatalf("listings are deterministic, expected zero LLM calls, got %d", llm.calls)
	}
}

func TestAskTopicQuestionContributionsSum(t *testing.T) {
	semantic := &fakeSemantic{hits: []domain.SemanticHit{{PaperID: "P5", Score: 0.6}, {PaperID: "P7", Score: 0.4}}}
	graph := &fakeGraph{keywords: []string{"loyalty"}, byKeyword: map[string][]string{"loyalty": {"P5"}}}
	repo := &fakePaperRepo{papers: paperFixtures(), count: 50}
	uc := newAskUseCase(semantic, graph, repo, &fakeCompletion{})

	envelope, err := uc.Ask(context.Background(), "research on loyalty")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	sum := 0.0
	for _, c := range envelope.Contributions {
		sum += c
	}
	if sum < 99.9 || sum > 100.1 {
		t.Fatalf("contributions sum = %v, want 100", sum)
	}
	if envelope.Sources[0].Provenance != domain.ProvenanceBoth {
		t.Fatalf("expected merged provenance both for P5, got %s", envelope.Sources[0].Provenance)
	}
}
