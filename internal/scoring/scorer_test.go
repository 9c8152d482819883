package scoring

import (
	"testing"

	"funnel_backend/internal/intent"
)

func TestDeltaTable(t *testing.T) {
	w := DefaultWeights()
	cases := []struct {
		label intent.Label
		text  string
		want  int
	}{
		{intent.Buying, "buy it", 20},
		{intent.Buying, "what is the price", 35},
		{intent.Affirmation, "yes", 15},
		{intent.ProductInfo, "heaters", 10},
		{intent.ProductInfo, "heater cost?", 25},
		{intent.Closing, "thanks bye", -10},
		{intent.Support, "refund", 0},
		{intent.Browsing, "hi", 0},
	}
	for _, tc := range cases {
		if got := Delta(w, tc.label, tc.text); got != tc.want {
			t.Fatalf("%s %q: expected %d, got %d", tc.label, tc.text, tc.want, got)
		}
	}
}

func TestUpdateClampsToBounds(t *testing.T) {
	w := DefaultWeights()
	s := &State{}

	if got := Update(w, s, intent.Closing, "thanks bye"); got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
	for i := 0; i < 10; i++ {
		Update(w, s, intent.Buying, "price")
	}
	if s.Score != MaxScore {
		t.Fatalf("expected ceiling at %d, got %d", MaxScore, s.Score)
	}
	if s.History[0].Delta != -10 {
		t.Fatalf("expected raw delta in history, got %d", s.History[0].Delta)
	}
}

func TestHookIsGatedByScoreAndCapture(t *testing.T) {
	w := DefaultWeights()
	s := &State{Score: 45}
	if ShouldTriggerHook(w, s) {
		t.Fatalf("expected no hook below threshold")
	}
	Update(w, s, intent.ProductInfo, "heater")
	if !ShouldTriggerHook(w, s) {
		t.Fatalf("expected hook at %d", s.Score)
	}
	if !MarkHookShown(s) || MarkHookShown(s) {
		t.Fatalf("expected MarkHookShown to report first showing only")
	}

	CaptureContact(s)
	Update(w, s, intent.Buying, "buy")
	if ShouldTriggerHook(w, s) {
		t.Fatalf("expected hook never to fire after contact capture")
	}
}
