package handler

import (
	"net/http"

	"funnel_backend/internal/catalog/service"
	"funnel_backend/internal/catalog/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the catalog.
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

// ListProducts lists a collection or runs a product search.
// GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	var req transport.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetProduct returns one product with its live stock.
// GET /api/v1/products/:sku
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.svc.Get(c.Request.Context(), c.Param("sku"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, product)
}

// SetStock overwrites a product's available quantity.
// PUT /api/v1/admin/products/:sku/stock
func (h *Handler) SetStock(c *gin.Context) {
	var req transport.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	product, err := h.svc.SetStock(c.Request.Context(), c.Param("sku"), *req.Qty)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, product)
}
