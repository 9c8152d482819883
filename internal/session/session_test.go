package session

import (
	"testing"
	"time"

	"funnel_backend/internal/catalog/domain"
)

func TestTopicExtractionLongestFirst(t *testing.T) {
	ex := NewTopicExtractor(nil)
	cases := []struct {
		text string
		want string
	}{
		{"I want to buy 2 oil filled radiators", "oil filled"},
		{"do you have a fan heater", "fan heater"},
		{"show me heaters", "heater"},
		{"LED lights please", "led"},
		{"Something Else", "something else"},
	}
	for _, tc := range cases {
		if got := ex.Extract(tc.text); got != tc.want {
			t.Fatalf("extract %q: expected %q, got %q", tc.text, tc.want, got)
		}
	}
}

func TestHistoryKeepsLastSixTurns(t *testing.T) {
	s := New("s1", time.Now())
	for i := 0; i < 9; i++ {
		s.AppendTurn(string(rune('a' + i)))
		s.RecordReply("ok")
	}
	if len(s.History) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(s.History))
	}
	if s.History[0].User != "d" {
		t.Fatalf("expected oldest kept turn d, got %q", s.History[0].User)
	}

	s.AppendTurn("current")
	prior := s.PriorTurns()
	if len(prior) != 5 {
		t.Fatalf("expected 5 prior turns, got %d", len(prior))
	}
}

func TestResolveMenu(t *testing.T) {
	s := New("s1", time.Now())
	s.SetMenu([]string{"oil filled radiator", "quartz heater"})

	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"1", "oil filled radiator", true},
		{" 2 ", "quartz heater", true},
		{"3", "", false},
		{"0", "", false},
		{"+1", "", false},
		{"one", "", false},
	}
	for _, tc := range cases {
		got, ok := s.ResolveMenu(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("resolve %q: expected (%q,%v), got (%q,%v)", tc.text, tc.want, tc.ok, got, ok)
		}
	}
}

func TestKeywordMenus(t *testing.T) {
	km := NewKeywordMenus(map[string][]string{
		"heater":     {"oil filled radiator", "quartz heater", "fan heater", "halogen heater"},
		"light":      {"led parcel lights", "rope lights"},
		"fan heater": {"2kW fan heater"},
	})
	s := New("s1", time.Now())

	if !km.Apply(s, "any fan heater deals?") || len(s.Menu) != 1 {
		t.Fatalf("expected longest keyword menu, got %v", s.Menu)
	}
	if !km.Apply(s, "which heater is best") || len(s.Menu) != 4 {
		t.Fatalf("expected heater menu, got %v", s.Menu)
	}
	if km.Apply(s, "hello") {
		t.Fatalf("expected no menu change")
	}
}

func TestSelectProductAndNewTopic(t *testing.T) {
	s := New("s1", time.Now())
	if s.IsNewTopic("heater") {
		t.Fatalf("fresh session has no topic to switch from")
	}

	if s.SelectProduct(domain.Product{SKU: "OFR-1", Name: "Oil Filled Radiator"}) {
		t.Fatalf("first selection is not a switch")
	}
	s.LastTopic = "oil filled"

	if s.IsNewTopic("oil filled") || s.IsNewTopic("radiator") {
		t.Fatalf("same product topics must not count as new")
	}
	if !s.IsNewTopic("led") {
		t.Fatalf("expected led to be a new topic")
	}
	if !s.SelectProduct(domain.Product{SKU: "LED-1", Name: "LED Parcel Lights"}) {
		t.Fatalf("expected a switch to a different sku")
	}
}

func TestCaptureEmailOnce(t *testing.T) {
	s := New("s1", time.Now())
	if !s.CaptureEmail("jane@x.com") {
		t.Fatalf("expected first capture")
	}
	if s.CaptureEmail("other@x.com") || s.Email != "jane@x.com" {
		t.Fatalf("expected email captured once, got %q", s.Email)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := New("s1", time.Now())
	s.SelectProduct(domain.Product{SKU: "A", Name: "A"})
	s.SetMenu([]string{"x"})
	s.Listing = &Listing{Groups: []string{"Heaters"}}

	c := s.Clone()
	c.SelectedProduct.Name = "changed"
	c.Menu[0] = "y"
	c.Listing.Groups[0] = "Lights"

	if s.SelectedProduct.Name != "A" || s.Menu[0] != "x" || s.Listing.Groups[0] != "Heaters" {
		t.Fatalf("clone shares memory with original")
	}
}
