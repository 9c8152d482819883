// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "GB"

// runs of digits with an optional leading + and common separators
var candidatePattern = regexp.MustCompile(`\+?\d[\d\s\-().]{8,}\d`)

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Find returns the first valid phone number in free text, normalized to
// E.164, and whether one was found.
func Find(text string) (string, bool) {
	for _, candidate := range candidatePattern.FindAllString(text, -1) {
		number, err := phonenumbers.Parse(strings.TrimSpace(candidate), defaultRegion)
		if err != nil || !phonenumbers.IsValidNumber(number) {
			continue
		}
		return phonenumbers.Format(number, phonenumbers.E164), true
	}
	return "", false
}
