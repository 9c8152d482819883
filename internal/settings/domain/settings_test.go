package domain

import (
	"errors"
	"testing"
)

func TestApply(t *testing.T) {
	base := Defaults("Frono Assistant", map[string][]string{"Heaters": {"Heaters"}})

	tests := []struct {
		name    string
		values  map[string]string
		wantErr error
		check   func(t *testing.T, s Settings)
	}{
		{
			name:   "ints and text",
			values: map[string]string{KeyMaxProductsToShow: "5", KeyBotName: " Bob ", KeyClosingPenalty: "-20"},
			check: func(t *testing.T, s Settings) {
				if s.MaxProductsToShow != 5 || s.BotName != "Bob" || s.ClosingPenalty != -20 {
					t.Fatalf("unexpected settings %+v", s)
				}
			},
		},
		{
			name:   "collection groups",
			values: map[string]string{KeyCollectionGroups: `{"Christmas Products":["Christmas","Christmas Lighting"]}`},
			check: func(t *testing.T, s Settings) {
				if got := s.CollectionGroups["Christmas Products"]; len(got) != 2 {
					t.Fatalf("unexpected groups %+v", s.CollectionGroups)
				}
				if _, ok := s.CollectionGroups["Heaters"]; ok {
					t.Fatalf("groups should be replaced, not merged")
				}
			},
		},
		{name: "unknown key", values: map[string]string{"colour": "red"}, wantErr: ErrUnknownKey},
		{name: "not an int", values: map[string]string{KeyBuyingPoints: "lots"}, wantErr: ErrInvalidValue},
		{name: "positive penalty", values: map[string]string{KeyClosingPenalty: "5"}, wantErr: ErrInvalidValue},
		{name: "zero products", values: map[string]string{KeyMaxProductsToShow: "0"}, wantErr: ErrInvalidValue},
		{name: "empty group", values: map[string]string{KeyCollectionGroups: `{"Heaters":[]}`}, wantErr: ErrInvalidValue},
		{name: "empty reply", values: map[string]string{KeySafeNoDataReply: "  "}, wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Apply(tt.values)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if got.MaxProductsToShow != base.MaxProductsToShow || got.BotName != base.BotName {
					t.Fatalf("rejected update must not change settings")
				}
				return
			}
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			tt.check(t, got)
		})
	}

	if base.CollectionGroups["Heaters"] == nil {
		t.Fatalf("apply mutated the receiver")
	}
}

func TestValuesRoundTripThroughApply(t *testing.T) {
	s := Defaults("Frono Assistant", map[string][]string{"Heaters": {"Heaters", "Winter Essentials"}})
	s.HookThreshold = 60

	back, err := Defaults("", nil).Apply(s.Values())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if back.HookThreshold != 60 || back.BotName != "Frono Assistant" || len(back.CollectionGroups["Heaters"]) != 2 {
		t.Fatalf("unexpected settings %+v", back)
	}
}

func TestWeights(t *testing.T) {
	w := Defaults("x", nil).Weights()
	if w.Buying != 20 || w.Affirmation != 15 || w.ProductInfo != 10 || w.Closing != -10 || w.HookThreshold != 50 {
		t.Fatalf("unexpected weights %+v", w)
	}
}
