package knowledgebase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/securizon/kbapi/internal/telemetry"
)

type KnowledgeBaseService struct {
	articleStore ArticleStore
	recorder     EventRecorder
	config       KBConfig
	logger       *slog.Logger
}

// Option customizes a KnowledgeBaseService.
type Option func(*KnowledgeBaseService)

// WithRecorder reports searches and analyses to r.
func WithRecorder(r EventRecorder) Option {
	return func(kbs *KnowledgeBaseService) {
		if r != nil {
			kbs.recorder = r
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(kbs *KnowledgeBaseService) {
		if l != nil {
			kbs.logger = l
		}
	}
}

func NewKnowledgeBaseService(articleStore ArticleStore, config KBConfig, opts ...Option) *KnowledgeBaseService {
	kbs := &KnowledgeBaseService{
		articleStore: articleStore,
		recorder:     nopRecorder{},
		config:       config,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(kbs)
	}
	return kbs
}

// Search ranks the articles matching q.Text and returns the requested page.
// A zero Page or Limit selects the default; Limit is capped at the
// configured maximum.
func (kbs *KnowledgeBaseService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}
	ctx, span := telemetry.StartSpan(ctx, "knowledgebase.Search")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]string{
		"kb.query":    q.Text,
		"kb.category": q.Category,
	})

	start := time.Now()
	page := q.Page
	if page == 0 {
		page = 1
	}
	limit := clampLimit(q.Limit, kbs.config.SearchDefaultLimit, kbs.config.SearchMaxLimit)

	articles, err := kbs.articleStore.ListArticles(ctx)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, fmt.Errorf("list articles: %w", err)
	}

	terms := Tokenize(q.Text)
	results := filterCategory(rankCandidates(terms, articles, searchPolicy), q.Category)
	from, to := pageWindow(len(results), page, limit)
	took := time.Since(start).Milliseconds()

	span.SetAttributes(
		attribute.Int("kb.terms", len(terms)),
		attribute.Int("kb.total", len(results)),
	)
	kbs.recorder.RecordSearch(ctx, q.Text, q.Category, len(results), took)
	kbs.logger.DebugContext(ctx, "search completed",
		"query", q.Text, "terms", terms, "total", len(results), "page", page, "limit", limit)

	return &SearchResult{
		Articles:   viewsOf(results[from:to]),
		Total:      len(results),
		Page:       page,
		PerPage:    limit,
		SearchTime: took,
	}, nil
}

// Analyze matches an issue report against the articles and returns up to
// five, ordered by relevance score.
func (kbs *KnowledgeBaseService) Analyze(ctx context.Context, report IssueReport) (*Analysis, error) {
	if report.IssueDescription == "" {
		return nil, ErrMissingIssue
	}
	ctx, span := telemetry.StartSpan(ctx, "knowledgebase.Analyze")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]string{"kb.issue": report.IssueDescription})

	start := time.Now()
	articles, err := kbs.articleStore.ListArticles(ctx)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, fmt.Errorf("list articles: %w", err)
	}

	combined := report.IssueDescription + " "
	if report.ErrorMessage != nil {
		combined += *report.ErrorMessage
	}
	keywords := ExtractKeywords(combined)
	scored := scoreAnalysis(keywords, rankCandidates(keywords, articles, analyzePolicy))

	span.SetAttributes(
		attribute.StringSlice("kb.keywords", keywords),
		attribute.Int("kb.found", len(scored)),
	)
	kbs.recorder.RecordAnalysis(ctx, keywords, len(scored), time.Since(start).Milliseconds())

	return &Analysis{
		IssueDescription:   report.IssueDescription,
		ErrorMessage:       report.echoedErrorMessage(),
		SystemInfo:         report.SystemInfo,
		ExtractedKeywords:  keywords,
		RelevantArticles:   scored,
		TotalArticlesFound: len(scored),
		Recommendations:    recommendationsFor(len(scored)),
	}, nil
}

// Popular lists the most viewed articles. A non-positive limit selects the
// default.
func (kbs *KnowledgeBaseService) Popular(ctx context.Context, limit int) (*PopularResult, error) {
	articles, err := kbs.articleStore.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	limit = clampLimit(limit, kbs.config.PopularDefaultLimit, kbs.config.PopularMaxLimit)
	popular := mostPopular(articles, limit)
	return &PopularResult{Articles: viewsOf(popular), Total: len(popular)}, nil
}

// Categories lists the distinct article categories.
func (kbs *KnowledgeBaseService) Categories(ctx context.Context) ([]string, error) {
	articles, err := kbs.articleStore.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return distinctCategories(articles), nil
}

func (kbs *KnowledgeBaseService) GetArticle(ctx context.Context, id string) (*Article, error) {
	return kbs.articleStore.GetArticle(ctx, id)
}

// Count reports how many articles are available.
func (kbs *KnowledgeBaseService) Count(ctx context.Context) (int, error) {
	articles, err := kbs.articleStore.ListArticles(ctx)
	if err != nil {
		return 0, err
	}
	return len(articles), nil
}

func clampLimit(limit, def, maximum int) int {
	if limit <= 0 {
		limit = def
	}
	return min(limit, maximum)
}
