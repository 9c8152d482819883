package intent

import (
	"regexp"
	"sort"
	"strings"
)

// Vocabulary holds the keyword lists the rule cascade is built from.
type Vocabulary struct {
	Brand          string
	BrandPhrases   []string
	QuestionWords  []string
	Affirmations   []string
	Transactions   []string
	SupportTerms   []string
	ClosingTerms   []string
	ProductNouns   []string
	AttributeTerms []string
	Continuations  []string
}

// DefaultVocabulary returns the keyword lists for the given brand token.
func DefaultVocabulary(brand string) Vocabulary {
	brand = strings.ToLower(strings.TrimSpace(brand))
	return Vocabulary{
		Brand: brand,
		BrandPhrases: []string{
			"about",
			"about " + brand,
			"tell me about " + brand,
			"who are you",
		},
		QuestionWords: []string{"what", "who", "where", "when", "why", "how", "tell", "about", "is", "are"},
		Affirmations:  []string{"yes", "yeah", "sure", "yep", "please", "interested", "do it", "send it", "i want"},
		Transactions:  []string{"buy", "order", "purchase", "checkout", "price", "cost", "pay", "add to cart", "place order", "how much"},
		SupportTerms:  []string{"return", "refund", "shipping", "delivery", "warranty", "track", "cancel", "exchange", "broken", "damaged", "late", "arrive"},
		ClosingTerms: []string{
			"okay", "ok", "thanks", "thank you", "thx", "great", "cool", "good", "perfect", "understood", "got it",
			"bye", "goodbye", "cya", "see ya", "good night",
		},
		ProductNouns: []string{
			"tree", "garland", "wreath", "bauble", "light", "decoration", "ornament",
			"heater", "radiator", "quartz", "oil", "fan", "warm",
			"tub", "spa", "pool", "filter", "chemical", "pump", "chlorine",
			"furniture", "sofa", "rattan", "table", "chair", "dining", "gazebo", "parasol",
			"mat", "cover", "bulb", "bow", "suit", "costume",
			"category", "categories", "catalog", "catalogue", "range", "list", "product", "item", "collection",
		},
		AttributeTerms: []string{
			"feature", "spec", "detail", "difference", "compare", "desc",
			"size", "material", "color", "colour", "dimension", "weight", "height", "width",
		},
		Continuations: []string{"more", "else", "other", "next", "continue", "go on", "anything else", "what else", "show me more"},
	}
}

// wordPattern compiles terms into one case-insensitive whole-word regex.
// Longer terms are tried first so multi-word phrases win over their parts.
func wordPattern(terms []string, plurals bool) *regexp.Regexp {
	sorted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			sorted = append(sorted, regexp.QuoteMeta(strings.ToLower(t)))
		}
	}
	if len(sorted) == 0 {
		return regexp.MustCompile(`$^`)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	suffix := ""
	if plurals {
		suffix = "(?:e?s)?"
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(sorted, "|") + `)` + suffix + `\b`)
}
