// Package intent maps a shopper utterance to a closed set of intent labels
// using an ordered rule cascade with a model-backed fallback as the last rule.
package intent

import "strings"

// Label is a closed-set summary of the shopper's immediate goal.
type Label string

const (
	LeadSubmission Label = "LEAD_SUBMISSION"
	AboutBrand     Label = "ABOUT_BRAND"
	Affirmation    Label = "AFFIRMATION"
	Buying         Label = "BUYING"
	Support        Label = "SUPPORT"
	Closing        Label = "CLOSING"
	ProductInfo    Label = "PRODUCT_INFO"
	Browsing       Label = "BROWSING"
	OutOfDomain    Label = "OUT_OF_DOMAIN"
)

// FallbackLabels is the label set offered to the fallback classifier.
// Contact capture is never delegated.
var FallbackLabels = []Label{Browsing, ProductInfo, Buying, Support, Closing, AboutBrand, Affirmation}

func (l Label) String() string { return string(l) }

// Parse returns the label named by s, case-insensitively.
func Parse(s string) (Label, bool) {
	candidate := Label(strings.ToUpper(strings.TrimSpace(s)))
	switch candidate {
	case LeadSubmission, AboutBrand, Affirmation, Buying, Support, Closing, ProductInfo, Browsing, OutOfDomain:
		return candidate, true
	}
	return "", false
}
