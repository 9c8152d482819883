package session

import (
	"sort"
	"strings"
)

// DefaultTopics is the built-in catalog term list used when the seed file
// provides none.
var DefaultTopics = []string{
	"oil filled", "radiator", "quartz", "fan heater", "halogen", "heater",
	"led", "parcel", "light", "tree",
}

// TopicExtractor scans text for the longest configured catalog term.
type TopicExtractor struct {
	terms []string
}

func NewTopicExtractor(terms []string) *TopicExtractor {
	if len(terms) == 0 {
		terms = DefaultTopics
	}
	sorted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return &TopicExtractor{terms: sorted}
}

// Extract returns the first matching term, longest first. Unknown text
// falls back to the trimmed, lower-cased message.
func (e *TopicExtractor) Extract(text string) string {
	topic, ok := e.Match(text)
	if ok {
		return topic
	}
	return strings.ToLower(strings.TrimSpace(text))
}

// Match is Extract without the raw-text fallback.
func (e *TopicExtractor) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range e.terms {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}

// KeywordMenus replaces the session menu when a configured keyword appears.
type KeywordMenus struct {
	keys  []string
	menus map[string][]string
}

func NewKeywordMenus(menus map[string][]string) *KeywordMenus {
	km := &KeywordMenus{menus: make(map[string][]string, len(menus))}
	for k, items := range menus {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || len(items) == 0 {
			continue
		}
		km.keys = append(km.keys, k)
		km.menus[k] = items
	}
	sort.Slice(km.keys, func(i, j int) bool {
		if len(km.keys[i]) != len(km.keys[j]) {
			return len(km.keys[i]) > len(km.keys[j])
		}
		return km.keys[i] < km.keys[j]
	})
	return km
}

// Apply sets the menu for the first keyword found in text.
func (km *KeywordMenus) Apply(s *Session, text string) bool {
	if km == nil {
		return false
	}
	lower := strings.ToLower(text)
	for _, k := range km.keys {
		if strings.Contains(lower, k) {
			s.SetMenu(km.menus[k])
			return true
		}
	}
	return false
}
