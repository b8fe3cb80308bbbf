package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mfriesen/litgraph/internal/core/ports"
	"github.com/mfriesen/litgraph/internal/observability/metrics"
)

const serviceName = "api"

// EdgeConfig carries the defaults for the semantic-edge export endpoint.
// Callers may override both per request via query parameters.
type EdgeConfig struct {
	Threshold   float64
	MaxPerPaper int
}

// TrafficConfig bounds the API edge: a process-wide token bucket plus an
// in-flight request cap.
type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
}

type Router struct {
	ingestor  ports.CorpusIngestor
	questions ports.QuestionService
	corpora   ports.CorpusRepository
	papers    ports.PaperRepository
	semantic  ports.SimilarityIndex
	metrics   *metrics.HTTPServerMetrics
	edges     EdgeConfig
	traffic   TrafficConfig
}

func NewRouter(
	ingestor ports.CorpusIngestor,
	questions ports.QuestionService,
	corpora ports.CorpusRepository,
	papers ports.PaperRepository,
	semantic ports.SimilarityIndex,
	serverMetrics *metrics.HTTPServerMetrics,
	edges EdgeConfig,
	traffic TrafficConfig,
) *Router {
	return &Router{
		ingestor:  ingestor,
		questions: questions,
		corpora:   corpora,
		papers:    papers,
		semantic:  semantic,
		metrics:   serverMetrics,
		edges:     edges,
		traffic:   traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/corpus", rt.uploadCorpus)
	mux.HandleFunc("/v1/corpus/", rt.getCorpusByID)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/graph/semantic-edges", rt.semanticEdges)
	mux.HandleFunc("/v1/status", rt.status)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, rt.traffic.QueueWait)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	corpus, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, corpus)
}

func (rt *Router) getCorpusByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/corpus/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "corpus id is required"})
		return
	}

	corpus, err := rt.corpora.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, corpus)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	envelope, err := rt.questions.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordQuestion(serviceName, envelope.Intent, len(envelope.Sources), time.Since(start))
	rt.metrics.RecordCaveats(serviceName, envelope.Caveats)
	for _, source := range envelope.DegradedSources {
		rt.metrics.RecordDegradedRetrieval(serviceName, source)
	}
	if envelope.SynthesisFailed {
		rt.metrics.RecordSynthesisFailure(serviceName)
	}

	writeJSON(w, http.StatusOK, envelope)
}

func (rt *Router) semanticEdges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	threshold := rt.edges.Threshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, ok := parseUnitInterval(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "threshold must be a number in [0,1]"})
			return
		}
		threshold = parsed
	}

	maxPerPaper := rt.edges.MaxPerPaper
	if raw := r.URL.Query().Get("max_per_paper"); raw != "" {
		parsed, ok := parsePositiveInt(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_per_paper must be a positive integer"})
			return
		}
		maxPerPaper = parsed
	}

	edges, err := rt.semantic.PairwiseSimilarities(r.Context(), threshold, maxPerPaper)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"edges":     edges,
	})
}

func (rt *Router) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	count, err := rt.papers.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":     serviceName,
		"paper_count": count,
	})
}

func parseUnitInterval(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}

func parsePositiveInt(raw string) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
