package knowledgebase

import (
	"math"
	"slices"
	"strings"
)

// contentWindow is how many leading content words scoring looks at.
const contentWindow = 100

// maxRelevance caps the display relevance score.
const maxRelevance = 10

type scoringFields struct {
	title   []string
	content []string
	tags    []string
}

func fieldsOf(a Article) scoringFields {
	tags := make([]string, len(a.Tags))
	for i, t := range a.Tags {
		tags[i] = strings.ToLower(t)
	}
	return scoringFields{
		title:   splitWords(strings.ToLower(a.Title)),
		content: firstN(splitWords(strings.ToLower(a.Content)), contentWindow),
		tags:    tags,
	}
}

// SearchScore orders candidates. Title hits weigh 5, tag hits 3 and hits in
// the first hundred content words 1; whole-word title and tag matches add 2
// and 1. Popular articles get (views + helpful) / 1000 on top.
func SearchScore(terms []string, a Article) float64 {
	f := fieldsOf(a)
	var score float64
	for _, term := range terms {
		if anyContains(f.title, term) {
			score += 5
		}
		if anyContains(f.tags, term) {
			score += 3
		}
		if anyContains(f.content, term) {
			score++
		}
		if slices.Contains(f.title, term) {
			score += 2
		}
		if slices.Contains(f.tags, term) {
			score++
		}
	}
	return score + float64(a.Popularity())/1000
}

// RelevanceScore is the 0-10 figure attached to analyze results. Each keyword
// earns 3 for a title word, 2 for one of the first hundred content words and
// 2 for a tag; the sum is averaged over the keywords and rounded.
func RelevanceScore(keywords []string, a Article) int {
	if len(keywords) == 0 {
		return 0
	}
	f := fieldsOf(a)
	score := 0
	for _, kw := range keywords {
		if slices.Contains(f.title, kw) {
			score += 3
		}
		if slices.Contains(f.content, kw) {
			score += 2
		}
		if slices.Contains(f.tags, kw) {
			score += 2
		}
	}
	avg := math.Floor(float64(score)/float64(len(keywords)) + 0.5)
	return min(int(avg), maxRelevance)
}

func anyContains(words []string, term string) bool {
	for _, w := range words {
		if strings.Contains(w, term) {
			return true
		}
	}
	return false
}
