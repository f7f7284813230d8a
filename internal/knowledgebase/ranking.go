package knowledgebase

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// analyzeTopN is how many articles an analysis keeps before re-ranking.
const analyzeTopN = 5

type rankedArticle struct {
	article Article
	score   float64
}

// rankCandidates keeps the articles passing policy and sorts them by
// SearchScore, highest first. Equal scores keep collection order.
func rankCandidates(terms []string, articles []Article, policy filterPolicy) []Article {
	ranked := make([]rankedArticle, 0, len(articles))
	for _, a := range articles {
		if !isCandidate(terms, a, policy) {
			continue
		}
		ranked = append(ranked, rankedArticle{article: a, score: SearchScore(terms, a)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]Article, len(ranked))
	for i, r := range ranked {
		out[i] = r.article
	}
	return out
}

func filterCategory(articles []Article, category string) []Article {
	if category == "" {
		return articles
	}
	want := strings.ToLower(category)
	out := articles[:0:0]
	for _, a := range articles {
		if strings.ToLower(a.Category) == want {
			out = append(out, a)
		}
	}
	return out
}

// pageWindow returns the slice bounds of page for n results. Pages below 1
// start at the first result; pages past the end are empty.
func pageWindow(n, page, limit int) (start, end int) {
	if limit <= 0 {
		return 0, 0
	}
	switch {
	case page < 1:
		start = 0
	case page-1 > n/limit:
		start = n
	default:
		start = min((page-1)*limit, n)
	}
	end = min(start+limit, n)
	return start, end
}

func viewsOf(articles []Article) []ArticleView {
	views := make([]ArticleView, len(articles))
	for i, a := range articles {
		views[i] = newArticleView(a)
	}
	return views
}

// mostPopular sorts a copy of articles by views plus helpful votes and keeps
// the first limit.
func mostPopular(articles []Article, limit int) []Article {
	sorted := slices.Clone(articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Popularity() > sorted[j].Popularity()
	})
	return sorted[:min(max(limit, 0), len(sorted))]
}

// distinctCategories lists categories in the order they first appear.
func distinctCategories(articles []Article) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, a := range articles {
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		categories = append(categories, a.Category)
	}
	return categories
}

// scoreAnalysis attaches relevance to the top candidates and re-sorts them
// by it. The candidates arrive sorted by SearchScore.
func scoreAnalysis(keywords []string, candidates []Article) []ScoredArticle {
	top := candidates[:min(analyzeTopN, len(candidates))]
	scored := make([]ScoredArticle, len(top))
	for i, a := range top {
		scored[i] = ScoredArticle{
			ArticleView:    newArticleView(a),
			RelevanceScore: RelevanceScore(keywords, a),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

func recommendationsFor(found int) []string {
	if found > 0 {
		return []string{
			fmt.Sprintf("Found %d relevant articles", found),
			"Review articles in order of relevance",
		}
	}
	return []string{"No relevant articles found", "Try different search terms"}
}
