package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/usecase/diagram"
	searchuc "github.com/kailas-cloud/reposcout/internal/usecase/search"
	"github.com/kailas-cloud/reposcout/internal/version"
)

// Error codes returned in the JSON error envelope.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeRepoNotFound        = "repository_not_found"
	codeRepoAccessDenied    = "repository_access_denied"
	codeSearchProviderError = "search_provider_error"
	codeInternalError       = "internal_error"
)

// errorResponse is the API error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sentinelMapping maps a domain sentinel error to an HTTP response.
type sentinelMapping struct {
	sentinel error
	status   int
	code     string
}

// Server exposes the search and diagram use cases over HTTP.
type Server struct {
	search    *searchuc.Service
	diagrams  *diagram.Service
	logger    *zap.Logger
	sentinels []sentinelMapping
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, diagrams *diagram.Service, logger *zap.Logger) *Server {
	return &Server{
		search:   search,
		diagrams: diagrams,
		logger:   logger,
		sentinels: []sentinelMapping{
			{domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed},
			{domain.ErrRepoNotFound, http.StatusNotFound, codeRepoNotFound},
			{domain.ErrEmptyTree, http.StatusNotFound, codeRepoNotFound},
			{domain.ErrRepoAccessDenied, http.StatusForbidden, codeRepoAccessDenied},
			{domain.ErrSearchProviderError, http.StatusBadGateway, codeSearchProviderError},
		},
	}
}

// Routes mounts all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.handleSearch)
	r.Post("/diagram", s.handleDiagram)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Query             string `json:"query"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
	Limit             int    `json:"limit,omitempty"`
}

// repoItem is one repository in the search response.
type repoItem struct {
	ID            int64    `json:"id"`
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Language      string   `json:"language,omitempty"`
	HTMLURL       string   `json:"html_url"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	ReadmePreview string   `json:"readme_preview,omitempty"`
	FoundVia      string   `json:"found_via_query"`
	Relevance     float64  `json:"semantic_relevance"`
}

// searchResponse is the POST /search response.
type searchResponse struct {
	OriginalQuery    string     `json:"original_query"`
	SearchVariations []string   `json:"search_variations"`
	TotalCount       int        `json:"total_count"`
	Repositories     []repoItem `json:"repositories"`
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Please enter a search query")
		return
	}

	result, err := s.search.Search(r.Context(), searchuc.Request{
		Query:             req.Query,
		PreferredLanguage: req.PreferredLanguage,
		Limit:             req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]repoItem, len(result.Repos))
	for i, repo := range result.Repos {
		items[i] = repoToItem(repo)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		OriginalQuery:    req.Query,
		SearchVariations: result.Variations,
		TotalCount:       result.TotalUnique,
		Repositories:     items,
	})
}

// diagramRequest is the POST /diagram body.
type diagramRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// diagramResponse is the POST /diagram response.
type diagramResponse struct {
	Repository string `json:"repository"`
	FileCount  int    `json:"file_count"`
	Diagram    string `json:"diagram"`
}

// handleDiagram handles POST /diagram.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Owner == "" || req.Repo == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Owner and repository name are required")
		return
	}

	d, err := s.diagrams.Generate(r.Context(), req.Owner, req.Repo)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, diagramResponse{
		Repository: d.Repository,
		FileCount:  d.FileCount,
		Diagram:    d.Source,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleDomainError maps domain sentinels to HTTP responses; anything
// unmapped becomes a 500 with a generic message.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range s.sentinels {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}
	s.logger.Error("unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func repoToItem(repo domain.Repo) repoItem {
	return repoItem{
		ID:            repo.ID,
		Owner:         repo.Owner,
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		Topics:        repo.Topics,
		Stars:         repo.Stars,
		Forks:         repo.Forks,
		Language:      repo.Language,
		HTMLURL:       repo.HTMLURL,
		UpdatedAt:     repo.UpdatedAt,
		ReadmePreview: repo.ReadmePreview,
		FoundVia:      repo.FoundVia,
		Relevance:     repo.Relevance,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
