package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/securizon/kbapi/internal/health"
	"github.com/securizon/kbapi/internal/knowledgebase"
)

// Gateway represents the API gateway
type Gateway struct {
	server *http.Server
	router *mux.Router
	kb     KnowledgeBase
	health *health.HealthChecker
	config GatewayConfig
	logger *slog.Logger
}

// KnowledgeBase is the article service behind the /api/knowledge routes.
type KnowledgeBase interface {
	Search(ctx context.Context, q knowledgebase.SearchQuery) (*knowledgebase.SearchResult, error)
	Analyze(ctx context.Context, report knowledgebase.IssueReport) (*knowledgebase.Analysis, error)
	Popular(ctx context.Context, limit int) (*knowledgebase.PopularResult, error)
	Categories(ctx context.Context) ([]string, error)
	GetArticle(ctx context.Context, id string) (*knowledgebase.Article, error)
}

// GatewayConfig represents gateway configuration
type GatewayConfig struct {
	Addr           string
	Version        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxRequestSize int64
}

// DefaultGatewayConfig returns default gateway configuration
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Addr:           "0.0.0.0:3000",
		Version:        "1.0.0",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxRequestSize: 1 << 20,
	}
}

// Middleware represents HTTP middleware
type Middleware func(http.Handler) http.Handler

// NewGateway creates a new API gateway
func NewGateway(config GatewayConfig, kb KnowledgeBase, checker *health.HealthChecker, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if checker == nil {
		checker = health.NewHealthChecker()
	}

	gateway := &Gateway{
		router: mux.NewRouter().SkipClean(true).UseEncodedPath(),
		kb:     kb,
		health: checker,
		config: config,
		logger: logger,
	}

	gateway.setupRoutes()

	gateway.server = &http.Server{
		Addr:         config.Addr,
		Handler:      gateway.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return gateway
}

// setupRoutes configures all API routes. Only analyze is bound to a
// method; every other route answers on its path alone. Paths match as
// sent: no cleaning, no percent-decoding.
func (g *Gateway) setupRoutes() {
	g.router.HandleFunc("/", g.handleRoot)
	g.router.HandleFunc("/health", g.handleHealth)
	g.router.HandleFunc("/api/docs", g.handleDocs)

	g.router.HandleFunc("/api/knowledge/search", g.handleSearch)
	g.router.HandleFunc("/api/knowledge/popular", g.handlePopular)
	g.router.HandleFunc("/api/knowledge/categories", g.handleCategories)
	g.router.HandleFunc("/api/knowledge/article/{id:.+}", g.handleGetArticle)
	g.router.HandleFunc("/api/knowledge/analyze", g.handleAnalyze).Methods(http.MethodPost)

	g.router.NotFoundHandler = http.HandlerFunc(g.handleNotFound)
	g.router.MethodNotAllowedHandler = http.HandlerFunc(g.handleNotFound)
}

// Handler returns the router wrapped in the middleware chain. The chain
// wraps the router itself so unmatched paths and OPTIONS requests pass
// through it too. The static CORS headers are set after rs/cors so they
// win on preflights.
func (g *Gateway) Handler() http.Handler {
	chain := []Middleware{
		g.requestIDMiddleware,
		g.loggingMiddleware,
		g.recoverMiddleware,
		g.setupCORS().Handler,
		g.corsHeadersMiddleware,
		optionsMiddleware,
	}

	var h http.Handler = g.router
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// setupCORS configures CORS negotiation for browser preflights. Preflights
// pass through so optionsMiddleware answers them like any other OPTIONS.
func (g *Gateway) setupCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:     g.config.AllowedOrigins,
		AllowedMethods:     g.config.AllowedMethods,
		AllowedHeaders:     g.config.AllowedHeaders,
		OptionsPassthrough: true,
	})
}

// Start serves until Stop is called.
func (g *Gateway) Start() error {
	ln, err := net.Listen("tcp", g.server.Addr)
	if err != nil {
		return err
	}
	return g.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (g *Gateway) Serve(ln net.Listener) error {
	g.logger.Info("starting API gateway", "addr", ln.Addr().String())
	if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener and waits for in-flight requests.
func (g *Gateway) Stop(ctx context.Context) error {
	g.logger.Info("stopping API gateway")
	return g.server.Shutdown(ctx)
}

func joinHeader(values []string) string {
	return strings.Join(values, ", ")
}
