package intent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// LLMFallback asks a language model to pick one label.
type LLMFallback struct {
	llm model.LLM
}

func NewLLMFallback(llm model.LLM) *LLMFallback {
	return &LLMFallback{llm: llm}
}

func (f *LLMFallback) Classify(ctx context.Context, text string, allowed []Label) (Label, error) {
	names := make([]string, len(allowed))
	for i, l := range allowed {
		names[i] = string(l)
	}
	prompt := fmt.Sprintf(
		"Classify the user message into ONE category: %s.\nReply with only the category name.\n\nMessage: %s",
		strings.Join(names, ", "), text,
	)

	temp := float32(0)
	req := &model.LLMRequest{
		Contents: []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText(prompt)}}},
		Config:   &genai.GenerateContentConfig{Temperature: &temp, MaxOutputTokens: 10},
	}

	var reply strings.Builder
	for resp, err := range f.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				reply.WriteString(part.Text)
			}
		}
	}

	return matchLabel(reply.String(), allowed)
}

// matchLabel finds the allowed label contained in a free-form reply,
// preferring the longest name so OUT_OF_DOMAIN is not shadowed.
func matchLabel(reply string, allowed []Label) (Label, error) {
	upper := strings.ToUpper(reply)
	candidates := append([]Label(nil), allowed...)
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })
	for _, l := range candidates {
		if strings.Contains(upper, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, strings.TrimSpace(reply))
}
