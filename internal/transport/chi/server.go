// Package chi implements the HTTP API: candidate ranking, structure scoring,
// health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/scoring"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/pdb"
	rankuc "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/usecase/rank"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeUnscored          = "unscored"
	codeEmbeddingProvider = "embedding_provider_error"
	codeFoldingProvider   = "folding_provider_error"
	codeFoldJobFailed     = "fold_job_failed"
	codeFoldJobTimeout    = "fold_job_timeout"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Limits bounds request sizes, taken from configuration.
type Limits struct {
	DefaultTopK   int
	MaxTopK       int
	MaxCandidates int
}

// Server exposes the ranking service over HTTP.
type Server struct {
	rank          *rankuc.Service
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(rank *rankuc.Service, limits Limits, logger *zap.Logger) *Server {
	s := &Server{
		rank:   rank,
		limits: limits,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnscored, http.StatusUnprocessableEntity, codeUnscored),
		sentinelHandler(domain.ErrFoldJobTimeout, http.StatusGatewayTimeout, codeFoldJobTimeout),
		sentinelHandler(domain.ErrFoldJobFailed, http.StatusBadGateway, codeFoldJobFailed),
		sentinelHandler(domain.ErrFoldingProviderError, http.StatusBadGateway, codeFoldingProvider),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
	}
	return s
}

// RegisterRoutes mounts the API handlers on the router.
func (s *Server) RegisterRoutes(r chirouter.Router) {
	r.Post("/v1/rank", s.Rank)
	r.Post("/v1/score/structures", s.ScoreStructures)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type candidatePayload struct {
	ID          string      `json:"id"`
	Sequence    string      `json:"sequence"`
	Description string      `json:"description,omitempty"`
	Embedding   [][]float64 `json:"embedding,omitempty"`
	PDB         string      `json:"pdb,omitempty"`
}

type rankRequest struct {
	Metric     string             `json:"metric"`
	Reference  candidatePayload   `json:"reference"`
	Candidates []candidatePayload `json:"candidates"`
	TopK       *int               `json:"top_k,omitempty"`
}

type rankedItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	ScoreKind   string  `json:"score_kind"`
}

type rankResponse struct {
	Items []rankedItem `json:"items"`
	TopK  int          `json:"top_k"`
}

// Rank handles POST /v1/rank.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	metric, err := domain.ParseScoreKind(req.Metric)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	if len(req.Candidates) == 0 || len(req.Candidates) > s.limits.MaxCandidates {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("candidates count must be between 1 and %d", s.limits.MaxCandidates))
		return
	}

	k := s.limits.DefaultTopK
	if req.TopK != nil {
		if *req.TopK <= 0 || *req.TopK > s.limits.MaxTopK {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("top_k must be between 1 and %d", s.limits.MaxTopK))
			return
		}
		k = *req.TopK
	}

	reference, err := candidateFromPayload(req.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "reference: "+err.Error())
		return
	}

	candidates := make([]domain.Candidate, 0, len(req.Candidates))
	for _, p := range req.Candidates {
		c, err := candidateFromPayload(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("candidate %q: %s", p.ID, err.Error()))
			return
		}
		candidates = append(candidates, c)
	}

	var ranked []domain.Candidate
	switch metric {
	case domain.ScoreCosine:
		ranked, err = s.rank.RankByEmbedding(r.Context(), reference, candidates, k)
	case domain.ScoreRMSD:
		ranked, err = s.rank.RankByStructure(r.Context(), reference, candidates, k)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]rankedItem, len(ranked))
	for i, c := range ranked {
		score, _, _ := c.Score()
		items[i] = rankedItem{
			ID:          c.ID(),
			Description: c.Description(),
			Score:       score,
			ScoreKind:   string(metric),
		}
	}

	writeJSON(w, http.StatusOK, rankResponse{Items: items, TopK: k})
}

type scoreStructuresRequest struct {
	ReferencePDB string `json:"reference_pdb"`
	CandidatePDB string `json:"candidate_pdb"`
}

type scoreStructuresResponse struct {
	RMSDBefore  float64       `json:"rmsd_before"`
	RMSDAfter   float64       `json:"rmsd_after"`
	Rotation    [3][3]float64 `json:"rotation"`
	Translation [3]float64    `json:"translation"`
}

// ScoreStructures handles POST /v1/score/structures. Both payloads are raw
// PDB text; the candidate is superposed onto the reference.
func (s *Server) ScoreStructures(w http.ResponseWriter, r *http.Request) {
	var req scoreStructuresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ReferencePDB == "" || req.CandidatePDB == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"reference_pdb and candidate_pdb are required")
		return
	}

	ref, err := pdb.Parse([]byte(req.ReferencePDB))
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("reference: %w", err))
		return
	}
	cand, err := pdb.Parse([]byte(req.CandidatePDB))
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("candidate: %w", err))
		return
	}

	sp, err := scoring.ScoreStructures(cand, ref)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scoreStructuresResponse{
		RMSDBefore:  sp.RMSDBefore,
		RMSDAfter:   sp.RMSDAfter,
		Rotation:    sp.Transform.Rotation,
		Translation: sp.Transform.Translation,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func candidateFromPayload(p candidatePayload) (domain.Candidate, error) {
	c, err := domain.NewCandidate(p.ID, p.Sequence, p.Description)
	if err != nil {
		return domain.Candidate{}, err
	}
	if len(p.Embedding) > 0 {
		emb, err := domain.NewResidueEmbedding(p.Embedding)
		if err != nil {
			return domain.Candidate{}, err
		}
		c = c.WithEmbedding(emb)
	}
	if p.PDB != "" {
		st, err := pdb.Parse([]byte(p.PDB))
		if err != nil {
			return domain.Candidate{}, err
		}
		c = c.WithStructure(st)
	}
	return c, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrUnscored,
		domain.ErrEmbeddingProviderError,
		domain.ErrFoldingProviderError,
		domain.ErrFoldJobFailed,
		domain.ErrFoldJobTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
