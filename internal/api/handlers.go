package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gorilla/mux"

	"github.com/securizon/kbapi/internal/health"
	"github.com/securizon/kbapi/internal/knowledgebase"
)

type bannerResponse struct {
	Message   string `json:"message"`
	Version   string `json:"version"`
	MockMode  bool   `json:"mock_mode"`
	Endpoints string `json:"endpoints"`
}

type healthResponse struct {
	Status    health.HealthStatus `json:"status"`
	Timestamp string              `json:"timestamp"`
	Services  map[string]any      `json:"services"`
}

type endpointDoc struct {
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters,omitempty"`
}

type docsResponse struct {
	Endpoints []endpointDoc `json:"endpoints"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type analyzeResponse struct {
	Analysis *knowledgebase.Analysis `json:"analysis"`
}

var endpointCatalog = []endpointDoc{
	{Path: "/health", Method: "GET", Description: "Health check endpoint"},
	{Path: "/api/knowledge/search", Method: "GET", Description: "Search knowledge base", Parameters: []string{"q (required)", "category", "page", "limit"}},
	{Path: "/api/knowledge/article/:id", Method: "GET", Description: "Get specific article by ID"},
	{Path: "/api/knowledge/popular", Method: "GET", Description: "Get popular articles"},
	{Path: "/api/knowledge/categories", Method: "GET", Description: "Get available categories"},
	{Path: "/api/knowledge/analyze", Method: "POST", Description: "Analyze technical issue"},
}

func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{
		Message:   "ServiceNow Knowledge Base API",
		Version:   g.config.Version,
		MockMode:  true,
		Endpoints: "/api/docs",
	})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := g.health.Check(r.Context())
	overall := g.health.OverallStatus(results)

	services := map[string]any{
		"api":       "up",
		"mock_mode": true,
	}
	for name, res := range results {
		if res.Up() {
			services[name] = "up"
		} else {
			services[name] = "down"
		}
		if res.Error != nil {
			g.logger.WarnContext(r.Context(), "health check failed", "check", name, "error", res.Error)
		}
	}

	status := http.StatusOK
	if overall == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Services:  services,
	})
}

func (g *Gateway) handleDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, docsResponse{Endpoints: endpointCatalog})
}

func (g *Gateway) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := query.Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, `Query parameter "q" is required`)
		return
	}

	result, err := g.kb.Search(r.Context(), knowledgebase.SearchQuery{
		Text:     q,
		Category: query.Get("category"),
		Page:     parseIntParam(query.Get("page")),
		Limit:    parseIntParam(query.Get("limit")),
	})
	if err != nil {
		g.internalError(w, r, "search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (g *Gateway) handlePopular(w http.ResponseWriter, r *http.Request) {
	result, err := g.kb.Popular(r.Context(), parseIntParam(r.URL.Query().Get("limit")))
	if err != nil {
		g.internalError(w, r, "popular listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (g *Gateway) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := g.kb.Categories(r.Context())
	if err != nil {
		g.internalError(w, r, "category listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

func (g *Gateway) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	article, err := g.kb.GetArticle(r.Context(), id)
	if errors.Is(err, knowledgebase.ErrArticleNotFound) {
		writeError(w, http.StatusNotFound, "Article not found")
		return
	}
	if err != nil {
		g.internalError(w, r, "article lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// handleAnalyze reads the whole body before decoding it.
func (g *Gateway) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.config.MaxRequestSize))
	if err != nil {
		g.logger.DebugContext(r.Context(), "failed to read analyze body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	var report knowledgebase.IssueReport
	if err := json.Unmarshal(body, &report); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	analysis, err := g.kb.Analyze(r.Context(), report)
	if errors.Is(err, knowledgebase.ErrMissingIssue) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		g.internalError(w, r, "analysis failed", err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Analysis: analysis})
}

func (g *Gateway) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func (g *Gateway) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	g.logger.ErrorContext(r.Context(), msg, "error", err, "request_id", RequestID(r.Context()))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// parseIntParam reads the leading integer of s, so "3abc" is 3. Missing,
// unparsable and out-of-range values read as 0, which the service treats
// as "use the default".
func parseIntParam(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
