package knowledgebase

import "strings"

// variant grants partial credit to a term that is missing from an article
// when one of its stand-ins is present.
type variant struct {
	term        string
	alternates  []string
	credit      float64
	analyzeOnly bool
}

var variants = []variant{
	{term: "password", alternates: []string{"pwd", "pass"}, credit: 0.5},
	{term: "reset", alternates: []string{"change"}, credit: 0.5},
	{term: "issue", alternates: []string{"problem", "troubleshoot"}, credit: 0.5},
	{term: "vpn", alternates: []string{"connection"}, credit: 0.3},
	{term: "email", alternates: []string{"mail", "outlook"}, credit: 0.5, analyzeOnly: true},
}

// filterPolicy selects the threshold and variant set of the candidate filter.
type filterPolicy int

const (
	searchPolicy filterPolicy = iota
	analyzePolicy
)

func variantCredit(term, text string, policy filterPolicy) float64 {
	for _, v := range variants {
		if v.term != term {
			continue
		}
		if v.analyzeOnly && policy != analyzePolicy {
			return 0
		}
		for _, alt := range v.alternates {
			if strings.Contains(text, alt) {
				return v.credit
			}
		}
		return 0
	}
	return 0
}

// articleText is the lowercased title, content and tags of an article.
func articleText(a Article) string {
	return strings.ToLower(a.Title + " " + a.Content + " " + strings.Join(a.Tags, " "))
}

// matchCount sums full credit for every term found verbatim in the article
// and variant credit for the rest.
func matchCount(terms []string, a Article, policy filterPolicy) float64 {
	text := articleText(a)
	var count float64
	for _, t := range terms {
		if strings.Contains(text, t) {
			count++
			continue
		}
		count += variantCredit(t, text, policy)
	}
	return count
}

// isCandidate applies the policy threshold. An empty term list passes the
// search policy.
func isCandidate(terms []string, a Article, policy filterPolicy) bool {
	n := float64(len(terms))
	count := matchCount(terms, a, policy)
	if policy == analyzePolicy {
		return count >= max(1, n*0.2)
	}
	return count >= n*0.3
}
