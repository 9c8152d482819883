package handler

import (
	"net/http"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/service"
	"funnel_backend/internal/leads/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	directLeadIntent    = "LEAD_FORM"
)

// Handler handles the public lead form.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create stores a lead submitted outside the chat.
// POST /api/v1/leads
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id, err := h.svc.Capture(c.Request.Context(), service.Capture{
		SessionID: req.SessionID,
		Contact:   domain.Contact{Email: req.Email, Phone: req.Phone, Name: req.Name},
		Intent:    directLeadIntent,
		Topic:     req.Interest,
		Announce:  true,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CreateLeadResponse{ID: id})
}
