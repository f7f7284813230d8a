package knowledgebase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxKeywords caps the keyword list extracted from an issue report.
const maxKeywords = 10

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {}, "in": {}, "with": {}, "to": {}, "for": {},
	"of": {}, "as": {}, "by": {},
}

// Tokenize lowercases text, blanks out everything except ASCII word
// characters and whitespace, and returns the remaining words longer than two
// characters that are not stopwords. Duplicates are kept.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if isWordChar(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	var tokens []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// ExtractKeywords tokenizes text, drops repeats and keeps at most ten
// keywords in first-seen order.
func ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)
	for _, t := range Tokenize(text) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		keywords = append(keywords, t)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

func isWordChar(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// splitWords splits on whitespace runs the way a regexp split does: text
// starting with whitespace yields a leading empty word.
func splitWords(s string) []string {
	words := strings.Fields(s)
	if r, _ := utf8.DecodeRuneInString(s); s != "" && unicode.IsSpace(r) {
		words = append([]string{""}, words...)
	}
	return words
}

func firstN(words []string, n int) []string {
	if len(words) > n {
		return words[:n]
	}
	return words
}
