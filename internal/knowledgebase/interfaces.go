package knowledgebase

import (
	"context"
	"errors"
)

var (
	// ErrArticleNotFound is returned when no article has the requested id.
	ErrArticleNotFound = errors.New("article not found")

	// ErrDuplicateArticle is returned when a collection repeats an id.
	ErrDuplicateArticle = errors.New("duplicate article id")

	// ErrEmptyQuery is returned when a search is issued without query text.
	ErrEmptyQuery = errors.New("query is required")

	// ErrMissingIssue is returned when an issue report has no description.
	ErrMissingIssue = errors.New("issue_description is required")
)

// ArticleStore is the read-only source of articles.
type ArticleStore interface {
	GetArticle(ctx context.Context, id string) (*Article, error)
	ListArticles(ctx context.Context) ([]Article, error)
}

// EventRecorder receives a notification after each search and analysis.
type EventRecorder interface {
	RecordSearch(ctx context.Context, query, category string, total int, tookMS int64)
	RecordAnalysis(ctx context.Context, keywords []string, found int, tookMS int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordSearch(context.Context, string, string, int, int64) {}
func (nopRecorder) RecordAnalysis(context.Context, []string, int, int64) {}
