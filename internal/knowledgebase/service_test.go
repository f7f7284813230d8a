package knowledgebase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordedSearch struct {
	query, category string
	total           int
}

type fakeRecorder struct {
	searches []recordedSearch
	analyses [][]string
}

func (f *fakeRecorder) RecordSearch(_ context.Context, query, category string, total int, _ int64) {
	f.searches = append(f.searches, recordedSearch{query, category, total})
}

func (f *fakeRecorder) RecordAnalysis(_ context.Context, keywords []string, _ int, _ int64) {
	f.analyses = append(f.analyses, keywords)
}

type failingStore struct{}

func (failingStore) GetArticle(context.Context, string) (*Article, error) {
	return nil, errors.New("unavailable")
}

func (failingStore) ListArticles(context.Context) ([]Article, error) {
	return nil, errors.New("unavailable")
}

func newTestService(t *testing.T, articles []Article, opts ...Option) *KnowledgeBaseService {
	t.Helper()
	store, err := NewMemoryStore(articles)
	require.NoError(t, err)
	return NewKnowledgeBaseService(store, DefaultKBConfig(), opts...)
}

func kbNumbers(views []ArticleView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.KBNumber
	}
	return out
}

func TestSearch(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(t, sampleArticles(t), WithRecorder(rec))

	res, err := svc.Search(context.Background(), SearchQuery{Text: "VPN connection issue"})
	require.NoError(t, err)
	// The email article qualifies on "issues" alone: 1 of 3 terms >= 0.9.
	assert.Equal(t, []string{"KB0067891", "KB0034567"}, kbNumbers(res.Articles))
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 10, res.PerPage)
	assert.GreaterOrEqual(t, res.SearchTime, int64(0))
	assert.Equal(t, "KB0067891 - Troubleshooting VPN Connection Issues", res.Articles[0].DisplayInfo)

	require.Len(t, rec.searches, 1)
	assert.Equal(t, recordedSearch{"VPN connection issue", "", 2}, rec.searches[0])
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(t, sampleArticles(t))
	_, err := svc.Search(context.Background(), SearchQuery{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchOnlyStopwordsMatchesEverything(t *testing.T) {
	svc := newTestService(t, sampleArticles(t))

	res, err := svc.Search(context.Background(), SearchQuery{Text: "to the a"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	// With no terms only popularity orders the results.
	assert.Equal(t, []string{"KB0067891", "KB0012345", "KB0034567"}, kbNumbers(res.Articles))
}

func TestSearchStableForEqualScores(t *testing.T) {
	articles := []Article{
		{ID: "a", KBNumber: "KB1", Title: "Printer jam"},
		{ID: "b", KBNumber: "KB2", Title: "Printer jam"},
		{ID: "c", KBNumber: "KB3", Title: "Printer jam"},
	}
	svc := newTestService(t, articles)

	res, err := svc.Search(context.Background(), SearchQuery{Text: "printer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"KB1", "KB2", "KB3"}, kbNumbers(res.Articles))
}

func TestSearchCategoryAfterRanking(t *testing.T) {
	svc := newTestService(t, sampleArticles(t))

	res, err := svc.Search(context.Background(), SearchQuery{Text: "password", Category: "AUTHENTICATION"})
	require.NoError(t, err)
	assert.Equal(t, []string{"KB0012345"}, kbNumbers(res.Articles))
	assert.Equal(t, 1, res.Total)

	res, err = svc.Search(context.Background(), SearchQuery{Text: "password", Category: "Hardware"})
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.NotNil(t, res.Articles)
}

func TestSearchStoreError(t *testing.T) {
	svc := NewKnowledgeBaseService(failingStore{}, DefaultKBConfig())
	_, err := svc.Search(context.Background(), SearchQuery{Text: "vpn"})
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(t, sampleArticles(t), WithRecorder(rec))

	msg := "cannot open outlook"
	res, err := svc.Analyze(context.Background(), IssueReport{
		IssueDescription: "Email not syncing",
		ErrorMessage:     &msg,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "not", "syncing", "cannot", "open", "outlook"}, res.ExtractedKeywords)
	require.NotEmpty(t, res.RelevantArticles)
	assert.Equal(t, "KB0034567", res.RelevantArticles[0].KBNumber)
	assert.Equal(t, len(res.RelevantArticles), res.TotalArticlesFound)
	assert.Equal(t, "Found 2 relevant articles", res.Recommendations[0])
	require.Len(t, rec.analyses, 1)
}

func TestAnalyzeMissingIssue(t *testing.T) {
	svc := newTestService(t, sampleArticles(t))
	_, err := svc.Analyze(context.Background(), IssueReport{})
	assert.ErrorIs(t, err, ErrMissingIssue)
}

func TestAnalyzeKeepsTopFiveReorderedByRelevance(t *testing.T) {
	var articles []Article
	for i, kb := range []string{"KB1", "KB2", "KB3", "KB4", "KB5", "KB6"} {
		articles = append(articles, Article{
			ID:        kb,
			KBNumber:  kb,
			Title:     "Printer setup guide",
			Content:   "printers",
			ViewCount: int64(6-i) * 1000,
		})
	}
	// Same search score as its neighbours, but the exact content word lifts
	// its relevance above theirs.
	articles[3].Content = "printer"

	svc := newTestService(t, articles)
	res, err := svc.Analyze(context.Background(), IssueReport{IssueDescription: "printer"})
	require.NoError(t, err)

	require.Len(t, res.RelevantArticles, analyzeTopN)
	got := make([]string, 0, analyzeTopN)
	for _, a := range res.RelevantArticles {
		got = append(got, a.KBNumber)
	}
	// KB6 is the least popular and falls outside the top five.
	assert.Equal(t, []string{"KB4", "KB1", "KB2", "KB3", "KB5"}, got)
	assert.Equal(t, 5, res.RelevantArticles[0].RelevanceScore)
	assert.Equal(t, 3, res.RelevantArticles[1].RelevanceScore)
}

func TestPopular(t *testing.T) {
	svc := newTestService(t, sampleArticles(t))

	tests := []struct {
		limit int
		want  []string
	}{
		{2, []string{"KB0067891", "KB0012345"}},
		{0, []string{"KB0067891", "KB0012345", "KB0034567"}},
		{-3, []string{"KB0067891", "KB0012345", "KB0034567"}},
		{100, []string{"KB0067891", "KB0012345", "KB0034567"}},
	}
	for _, tt := range tests {
		res, err := svc.Popular(context.Background(), tt.limit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, kbNumbers(res.Articles), "limit %d", tt.limit)
		assert.Equal(t, len(tt.want), res.Total)
	}
}

func TestPopularCapsAtMax(t *testing.T) {
	var articles []Article
	for i := 0; i < 25; i++ {
		articles = append(articles, Article{ID: string(rune('a' + i)), ViewCount: int64(i)})
	}
	svc := newTestService(t, articles)

	res, err := svc.Popular(context.Background(), 25)
	require.NoError(t, err)
	assert.Len(t, res.Articles, 20)
	assert.Equal(t, int64(24), res.Articles[0].ViewCount)
}

func TestCategories(t *testing.T) {
	articles := append(sampleArticles(t), Article{ID: "9", Category: "Network"})
	svc := newTestService(t, articles)

	got, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Authentication", "Network", "Email"}, got)
}

func TestGetArticleAndCount(t *testing.T) {
	svc := newTestService(t, sampleArticles(t))

	a, err := svc.GetArticle(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Email", a.Category)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		n, page, limit int
		start, end     int
	}{
		{10, 1, 3, 0, 3},
		{10, 4, 3, 9, 10},
		{10, 5, 3, 10, 10},
		{10, -2, 3, 0, 3},
		{0, 1, 10, 0, 0},
		{10, 1 << 40, 50, 10, 10},
	}
	for _, tt := range tests {
		start, end := pageWindow(tt.n, tt.page, tt.limit)
		assert.Equal(t, [2]int{tt.start, tt.end}, [2]int{start, end}, "pageWindow(%d, %d, %d)", tt.n, tt.page, tt.limit)
	}
}

func TestSearchAndAnalyzeAreTraced(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	exporter := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))

	svc := newTestService(t, sampleArticles(t))
	_, err := svc.Search(context.Background(), SearchQuery{Text: "vpn", Category: "Network"})
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), IssueReport{IssueDescription: "VPN drops"})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	attrs := func(i int) map[string]string {
		out := make(map[string]string)
		for _, kv := range spans[i].Attributes {
			out[string(kv.Key)] = kv.Value.Emit()
		}
		return out
	}
	assert.Equal(t, "knowledgebase.Search", spans[0].Name)
	assert.Equal(t, "vpn", attrs(0)["kb.query"])
	assert.Equal(t, "Network", attrs(0)["kb.category"])
	assert.Equal(t, "knowledgebase.Analyze", spans[1].Name)
	assert.Equal(t, "VPN drops", attrs(1)["kb.issue"])
}
