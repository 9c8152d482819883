package domain

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "your": {}, "what": {}, "which": {}, "have": {},
	"with": {}, "any": {}, "are": {}, "can": {}, "show": {}, "tell": {}, "about": {}, "some": {},
	"this": {}, "that": {}, "there": {}, "does": {}, "got": {}, "need": {}, "want": {}, "please": {},
	"how": {}, "much": {}, "get": {}, "buy": {}, "order": {}, "purchase": {}, "like": {}, "would": {},
	"looking": {}, "sell": {}, "all": {}, "from": {}, "them": {}, "they": {},
}

// SearchTerms splits a free-text query into lower-case, singularized terms,
// dropping stop words and tokens shorter than three letters.
func SearchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		f = Singular(f)
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// Singular strips a simple English plural suffix.
func Singular(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && (strings.HasSuffix(word, "ches") || strings.HasSuffix(word, "shes") || strings.HasSuffix(word, "xes")):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

// SingularPhrase singularizes every word of a phrase.
func SingularPhrase(phrase string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(phrase)))
	for i, w := range words {
		words[i] = Singular(w)
	}
	return strings.Join(words, " ")
}

// MatchScore counts how many terms occur in any of the fields.
func MatchScore(terms []string, fields ...string) int {
	score := 0
	for _, t := range terms {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), t) {
				score++
				break
			}
		}
	}
	return score
}
