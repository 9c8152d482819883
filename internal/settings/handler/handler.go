package handler

import (
	"net/http"

	"funnel_backend/internal/settings/service"
	"funnel_backend/internal/settings/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves the admin settings endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Get returns the effective settings.
// GET /api/v1/admin/settings
func (h *Handler) Get(c *gin.Context) {
	httpkit.OK(c, h.svc.Current(c.Request.Context()))
}

// Update changes one or more settings.
// PUT /api/v1/admin/settings
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	values, err := req.Strings()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	settings, err := h.svc.Update(c.Request.Context(), values)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}
