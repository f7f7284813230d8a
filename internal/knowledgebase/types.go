package knowledgebase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Article is a knowledge base entry. Articles are loaded once and never
// mutated afterwards.
type Article struct {
	ID           string    `json:"id" yaml:"id"`
	KBNumber     string    `json:"kb_number" yaml:"kb_number"`
	Title        string    `json:"title" yaml:"title"`
	Content      string    `json:"content" yaml:"content"`
	Category     string    `json:"category" yaml:"category"`
	Tags         []string  `json:"tags" yaml:"tags"`
	Priority     string    `json:"priority" yaml:"priority"`
	Department   string    `json:"department" yaml:"department"`
	ViewCount    int64     `json:"view_count" yaml:"view_count"`
	HelpfulCount int64     `json:"helpful_count" yaml:"helpful_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// DisplayInfo is the "<kb_number> - <title>" label shown in list views.
func (a Article) DisplayInfo() string {
	return a.KBNumber + " - " + a.Title
}

// Popularity is the sum used by the popular listing and the search boost.
func (a Article) Popularity() int64 {
	return a.ViewCount + a.HelpfulCount
}

// ArticleView is an article as it appears in list responses.
type ArticleView struct {
	Article
	DisplayInfo string `json:"display_info"`
}

// ScoredArticle is an analyze result with its display relevance.
type ScoredArticle struct {
	ArticleView
	RelevanceScore int `json:"relevance_score"`
}

func newArticleView(a Article) ArticleView {
	return ArticleView{Article: a, DisplayInfo: a.DisplayInfo()}
}

// SearchQuery carries the parsed parameters of a search request.
type SearchQuery struct {
	Text     string
	Category string
	Page     int
	Limit    int
}

// SearchResult is one page of ranked articles.
type SearchResult struct {
	Articles   []ArticleView `json:"articles"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	SearchTime int64         `json:"search_time"`
}

// PopularResult lists the most viewed articles.
type PopularResult struct {
	Articles []ArticleView `json:"articles"`
	Total    int           `json:"total"`
}

// IssueReport is the body of an analyze request. Keys are matched exactly.
// An explicit "error_message": null is remembered so it can be echoed.
type IssueReport struct {
	IssueDescription string
	ErrorMessage     *string
	SystemInfo       json.RawMessage

	errorMessageNull bool
}

var errNotObject = errors.New("issue report must be a JSON object")

func (r *IssueReport) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotObject
	}

	*r = IssueReport{}
	if raw, ok := fields["issue_description"]; ok {
		if err := json.Unmarshal(raw, &r.IssueDescription); err != nil {
			return fmt.Errorf("issue_description: %w", err)
		}
	}
	if raw, ok := fields["error_message"]; ok {
		if isJSONNull(raw) {
			r.errorMessageNull = true
		} else {
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				return fmt.Errorf("error_message: %w", err)
			}
			r.ErrorMessage = &msg
		}
	}
	if raw, ok := fields["system_info"]; ok {
		r.SystemInfo = raw
	}
	return nil
}

// echoedErrorMessage is the error_message value an Analysis reports: the
// string, an explicit null, or nil when the key was absent.
func (r IssueReport) echoedErrorMessage() any {
	switch {
	case r.ErrorMessage != nil:
		return *r.ErrorMessage
	case r.errorMessageNull:
		return json.RawMessage("null")
	default:
		return nil
	}
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Analysis is the outcome of matching an issue report against the articles.
type Analysis struct {
	IssueDescription   string          `json:"issue_description"`
	ErrorMessage       any             `json:"error_message,omitempty"`
	SystemInfo         json.RawMessage `json:"system_info,omitempty"`
	ExtractedKeywords  []string        `json:"extracted_keywords"`
	RelevantArticles   []ScoredArticle `json:"relevant_articles"`
	TotalArticlesFound int             `json:"total_articles_found"`
	Recommendations    []string        `json:"recommendations"`
}

// KBConfig holds the paging limits of the service.
type KBConfig struct {
	SearchDefaultLimit  int
	SearchMaxLimit      int
	PopularDefaultLimit int
	PopularMaxLimit     int
}

// DefaultKBConfig returns the limits the public API documents.
func DefaultKBConfig() KBConfig {
	return KBConfig{
		SearchDefaultLimit:  10,
		SearchMaxLimit:      50,
		PopularDefaultLimit: 10,
		PopularMaxLimit:     20,
	}
}
