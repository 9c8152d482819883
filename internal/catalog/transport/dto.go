package transport

import "funnel_backend/internal/catalog/domain"

type ListProductsRequest struct {
	Query      string `form:"q" validate:"max=200"`
	Collection string `form:"collection" validate:"max=100"`
	Offset     int    `form:"offset" validate:"min=0"`
	Limit      int    `form:"limit" validate:"min=0,max=100"`
}

type ProductListResponse struct {
	Items []domain.Product `json:"items"`
	Total int              `json:"total"`
}

type SetStockRequest struct {
	Qty *int `json:"qty" validate:"required,min=0"`
}
