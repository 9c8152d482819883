package service

import (
	"fmt"
	"strings"

	"funnel_backend/internal/funnel"
	"funnel_backend/internal/intent"
	"funnel_backend/internal/session"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	checkoutHook = "Please provide your email address to complete your order."
	softHook     = "If it fits naturally, invite the shopper to leave an email address so the team can follow up."

	replyTemperature = 0.2
	replyMaxTokens   = 400
)

// SystemPrompt pins the generator to verified information only.
func SystemPrompt(botName, brand string) string {
	return fmt.Sprintf(`You are %s, the official AI assistant for %s.

CRITICAL RULES:
- You MUST ONLY use verified information provided in context.
- You MUST NOT invent products, prices, stock, categories, or policies.
- You MUST NOT assume availability or offerings.
- If verified information is missing, say clearly that you do not know.
- Ask a clarifying question instead of guessing.
- Be concise, factual, and neutral.`, botName, brand)
}

// leadHook returns the contact request to append, or "".
func leadHook(res funnel.Result) string {
	if !res.LeadHook {
		return ""
	}
	if res.Session != nil && res.Session.Stage == session.StageCheckout {
		return checkoutHook
	}
	return softHook
}

// userPrompt frames the shopper message with its verified context.
func userPrompt(message, brand string, res funnel.Result) string {
	var b strings.Builder
	if res.Intent == intent.AboutBrand {
		fmt.Fprintf(&b, "You represent the company %s.\n\n", brand)
		b.WriteString("Rules:\n- Speak ONLY about the company, never about yourself.\n- Use ONLY the facts below.\n- Do NOT speculate.\n\n")
		fmt.Fprintf(&b, "FACTS ABOUT %s:\n%s\n\n", strings.ToUpper(brand), res.Context.Text())
	} else {
		fmt.Fprintf(&b, "Verified information:\n%s\n\n", res.Context.Text())
	}
	if hook := leadHook(res); hook != "" {
		fmt.Fprintf(&b, "End your answer with this request: %s\n\n", hook)
	}
	fmt.Fprintf(&b, "User:\n%s\n\nAnswer:", message)
	return b.String()
}

// BuildRequest assembles the generator request: prior completed turns as
// conversation history, then the framed message.
func BuildRequest(system, brand, message string, res funnel.Result) *model.LLMRequest {
	var contents []*genai.Content
	if res.Session != nil {
		for _, t := range res.Session.PriorTurns() {
			contents = append(contents,
				genai.NewContentFromText(t.User, genai.RoleUser),
				genai.NewContentFromText(t.Bot, genai.RoleModel),
			)
		}
	}
	contents = append(contents, genai.NewContentFromText(userPrompt(message, brand, res), genai.RoleUser))

	temp := float32(replyTemperature)
	return &model.LLMRequest{
		Contents: contents,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       &temp,
			MaxOutputTokens:   replyMaxTokens,
		},
	}
}
