// Package domain defines the runtime-tunable funnel settings.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"funnel_backend/internal/scoring"
)

const (
	KeyBotName           = "bot_name"
	KeyMaxProductsToShow = "max_products_to_show"
	KeySafeNoDataReply   = "safe_no_data_reply"
	KeyBuyingPoints      = "buying_points"
	KeyAffirmationPoints = "affirmation_points"
	KeyProductInfoPoints = "product_info_points"
	KeyClosingPenalty    = "closing_penalty"
	KeyHookThreshold     = "hook_threshold"
	KeyCollectionGroups  = "collection_groups"
)

const DefaultSafeNoDataReply = "I'm unable to find the right information for this at the moment. Please reach out to support@frono.uk."

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Repository persists raw key/value pairs.
type Repository interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
}

// Settings is the typed view over the stored values.
type Settings struct {
	BotName           string              `json:"bot_name"`
	MaxProductsToShow int                 `json:"max_products_to_show"`
	SafeNoDataReply   string              `json:"safe_no_data_reply"`
	BuyingPoints      int                 `json:"buying_points"`
	AffirmationPoints int                 `json:"affirmation_points"`
	ProductInfoPoints int                 `json:"product_info_points"`
	ClosingPenalty    int                 `json:"closing_penalty"`
	HookThreshold     int                 `json:"hook_threshold"`
	CollectionGroups  map[string][]string `json:"collection_groups"`
}

// Defaults returns the stock settings. groups usually comes from the catalog
// seed file.
func Defaults(botName string, groups map[string][]string) Settings {
	w := scoring.DefaultWeights()
	return Settings{
		BotName:           botName,
		MaxProductsToShow: 3,
		SafeNoDataReply:   DefaultSafeNoDataReply,
		BuyingPoints:      w.Buying,
		AffirmationPoints: w.Affirmation,
		ProductInfoPoints: w.ProductInfo,
		ClosingPenalty:    w.Closing,
		HookThreshold:     w.HookThreshold,
		CollectionGroups:  cloneGroups(groups),
	}
}

// Weights maps the scoring keys onto scoring.Weights.
func (s Settings) Weights() scoring.Weights {
	return scoring.Weights{
		Buying:        s.BuyingPoints,
		Affirmation:   s.AffirmationPoints,
		ProductInfo:   s.ProductInfoPoints,
		Closing:       s.ClosingPenalty,
		HookThreshold: s.HookThreshold,
	}
}

// Apply returns a copy of s with values parsed over it. Nothing is applied
// when any value is rejected.
func (s Settings) Apply(values map[string]string) (Settings, error) {
	out := s
	out.CollectionGroups = cloneGroups(s.CollectionGroups)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := strings.TrimSpace(values[key])
		var err error
		switch key {
		case KeyBotName:
			out.BotName, err = parseText(raw)
		case KeySafeNoDataReply:
			out.SafeNoDataReply, err = parseText(raw)
		case KeyMaxProductsToShow:
			out.MaxProductsToShow, err = parseInt(raw, 1, 20)
		case KeyBuyingPoints:
			out.BuyingPoints, err = parseInt(raw, 0, 100)
		case KeyAffirmationPoints:
			out.AffirmationPoints, err = parseInt(raw, 0, 100)
		case KeyProductInfoPoints:
			out.ProductInfoPoints, err = parseInt(raw, 0, 100)
		case KeyClosingPenalty:
			out.ClosingPenalty, err = parseInt(raw, -100, 0)
		case KeyHookThreshold:
			out.HookThreshold, err = parseInt(raw, 0, 100)
		case KeyCollectionGroups:
			out.CollectionGroups, err = parseGroups(raw)
		default:
			return s, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if err != nil {
			return s, fmt.Errorf("%s: %w", key, err)
		}
	}
	return out, nil
}

// Values encodes s back into storable strings.
func (s Settings) Values() map[string]string {
	groups, _ := json.Marshal(s.CollectionGroups)
	return map[string]string{
		KeyBotName:           s.BotName,
		KeyMaxProductsToShow: strconv.Itoa(s.MaxProductsToShow),
		KeySafeNoDataReply:   s.SafeNoDataReply,
		KeyBuyingPoints:      strconv.Itoa(s.BuyingPoints),
		KeyAffirmationPoints: strconv.Itoa(s.AffirmationPoints),
		KeyProductInfoPoints: strconv.Itoa(s.ProductInfoPoints),
		KeyClosingPenalty:    strconv.Itoa(s.ClosingPenalty),
		KeyHookThreshold:     strconv.Itoa(s.HookThreshold),
		KeyCollectionGroups:  string(groups),
	}
}

func parseText(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: must not be empty", ErrInvalidValue)
	}
	return raw, nil
}

func parseInt(raw string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, raw)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidValue, v, lo, hi)
	}
	return v, nil
}

func parseGroups(raw string) (map[string][]string, error) {
	var groups map[string][]string
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		return nil, fmt.Errorf("%w: expected an object of string lists", ErrInvalidValue)
	}
	for name, collections := range groups {
		if strings.TrimSpace(name) == "" || len(collections) == 0 {
			return nil, fmt.Errorf("%w: group %q needs a name and at least one collection", ErrInvalidValue, name)
		}
	}
	return groups, nil
}

func cloneGroups(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
