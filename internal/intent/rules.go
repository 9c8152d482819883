package intent

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Input is the normalized view of an utterance the rules match against.
type Input struct {
	Raw   string
	Text  string // trimmed, lower-cased
	Words int
}

// NewInput normalizes an utterance.
func NewInput(utterance string) Input {
	text := strings.ToLower(strings.TrimSpace(utterance))
	return Input{Raw: utterance, Text: text, Words: len(strings.Fields(text))}
}

// Rule maps a predicate to a label. Rules are evaluated in order and the
// first match wins.
type Rule struct {
	Name  string
	Label Label
	Match func(in Input) bool
}

// BuildRules compiles the deterministic cascade from a vocabulary.
func BuildRules(v Vocabulary) []Rule {
	brandPhrases := make(map[string]struct{}, len(v.BrandPhrases))
	for _, p := range v.BrandPhrases {
		brandPhrases[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	var brandToken *regexp.Regexp
	if v.Brand != "" {
		brandToken = wordPattern([]string{v.Brand}, false)
	}
	question := wordPattern(v.QuestionWords, false)
	affirm := wordPattern(v.Affirmations, false)
	transaction := wordPattern(v.Transactions, false)
	support := wordPattern(v.SupportTerms, false)
	closing := wordPattern(v.ClosingTerms, false)
	nouns := wordPattern(v.ProductNouns, true)
	attributes := wordPattern(v.AttributeTerms, true)
	continuation := wordPattern(v.Continuations, false)

	return []Rule{
		{Name: "contact", Label: LeadSubmission, Match: func(in Input) bool {
			return emailPattern.MatchString(in.Text)
		}},
		{Name: "brand", Label: AboutBrand, Match: func(in Input) bool {
			phrase := strings.TrimRight(in.Text, "?!. ")
			if _, ok := brandPhrases[phrase]; ok {
				return true
			}
			return brandToken != nil && brandToken.MatchString(in.Text) && question.MatchString(in.Text)
		}},
		{Name: "affirmation", Label: Affirmation, Match: func(in Input) bool {
			return in.Words < 6 && affirm.MatchString(in.Text)
		}},
		{Name: "transaction", Label: Buying, Match: func(in Input) bool {
			return transaction.MatchString(in.Text)
		}},
		{Name: "support", Label: Support, Match: func(in Input) bool {
			return support.MatchString(in.Text)
		}},
		{Name: "closing", Label: Closing, Match: func(in Input) bool {
			return in.Words <= 4 && closing.MatchString(in.Text)
		}},
		{Name: "catalog", Label: ProductInfo, Match: func(in Input) bool {
			return nouns.MatchString(in.Text) || attributes.MatchString(in.Text)
		}},
		{Name: "continuation", Label: ProductInfo, Match: func(in Input) bool {
			return continuation.MatchString(in.Text)
		}},
		{Name: "short", Label: Browsing, Match: func(in Input) bool {
			return in.Words <= 3
		}},
	}
}

// IsContinuation reports whether text asks for more of the previous listing.
func IsContinuation(v Vocabulary, text string) bool {
	return ContinuationMatcher(v)(text)
}

// ContinuationMatcher compiles the continuation keywords once.
func ContinuationMatcher(v Vocabulary) func(text string) bool {
	pattern := wordPattern(v.Continuations, false)
	return pattern.MatchString
}

// FindEmail returns the first email-shaped token in text.
func FindEmail(text string) (string, bool) {
	match := emailPattern.FindString(text)
	return strings.ToLower(match), match != ""
}
