package transport

import "github.com/google/uuid"

// CreateLeadRequest is the direct lead form body.
type CreateLeadRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128,sessionid"`
	Email     string `json:"email" validate:"omitempty,email,max=320"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Name      string `json:"name" validate:"omitempty,max=200"`
	Interest  string `json:"interest" validate:"omitempty,max=500"`
}

type CreateLeadResponse struct {
	ID uuid.UUID `json:"id"`
}
