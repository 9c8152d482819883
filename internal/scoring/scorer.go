// Package scoring keeps a bounded engagement score per session and decides
// when the reply should ask for contact details.
package scoring

import (
	"strings"

	"funnel_backend/internal/intent"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Weights are the per-signal deltas.
type Weights struct {
	Buying        int
	Affirmation   int
	ProductInfo   int
	Closing       int
	HookThreshold int
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		Buying:        20,
		Affirmation:   15,
		ProductInfo:   10,
		Closing:       -10,
		HookThreshold: 50,
	}
}

// Change is one (intent, delta) pair kept for observability.
type Change struct {
	Intent intent.Label `json:"intent"`
	Delta  int          `json:"delta"`
}

const maxHistory = 20

// State is the per-session scoring state. It is serialized with the session.
type State struct {
	Score           int      `json:"score"`
	ContactCaptured bool     `json:"contactCaptured"`
	HookTriggered   bool     `json:"hookTriggered"`
	History         []Change `json:"history,omitempty"`
}

// Delta computes the score change for one message.
func Delta(w Weights, label intent.Label, text string) int {
	delta := 0
	switch label {
	case intent.Buying:
		delta = w.Buying
	case intent.Affirmation:
		delta = w.Affirmation
	case intent.ProductInfo:
		delta = w.ProductInfo
	case intent.Closing:
		delta = w.Closing
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "price") || strings.Contains(lower, "cost") {
		delta += w.Affirmation
	}
	return delta
}

// Update applies one message to s and returns the clamped score.
func Update(w Weights, s *State, label intent.Label, text string) int {
	delta := Delta(w, label, text)
	s.Score = clamp(s.Score + delta)
	s.History = append(s.History, Change{Intent: label, Delta: delta})
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
	return s.Score
}

// ShouldTriggerHook reports whether the reply should ask for contact details.
func ShouldTriggerHook(w Weights, s *State) bool {
	return !s.ContactCaptured && s.Score >= w.HookThreshold
}

// MarkHookShown records that the hook was shown. It returns true the first time.
func MarkHookShown(s *State) bool {
	if s.HookTriggered {
		return false
	}
	s.HookTriggered = true
	return true
}

// CaptureContact disables the hook for the rest of the session.
func CaptureContact(s *State) {
	s.ContactCaptured = true
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
