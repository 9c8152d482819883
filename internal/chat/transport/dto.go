package transport

// ChatRequest is one shopper message. A missing SessionID starts a new
// conversation and the issued id is returned.
type ChatRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128,sessionid"`
	Prompt    string `json:"prompt" validate:"required,max=2000"`
}

type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Intent    string `json:"intent"`
	Stage     string `json:"stage"`
	Score     int    `json:"score"`
	LeadHook  bool   `json:"leadHook"`
	Source    string `json:"source"`
}

// StreamStarted acknowledges a streamed message. Tokens follow on
// GET /api/v1/chat/stream/events/:sessionId.
type StreamStarted struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// TurnMeta is the payload of the context event that opens a streamed reply.
type TurnMeta struct {
	Intent   string `json:"intent"`
	Stage    string `json:"stage"`
	Score    int    `json:"score"`
	LeadHook bool   `json:"leadHook"`
	Source   string `json:"source"`
}
