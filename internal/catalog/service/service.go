package service

import (
	"context"
	"errors"
	"strings"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/internal/catalog/transport"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
)

const defaultPageSize = 20

// Store is everything the catalog endpoints need from a backend.
type Store interface {
	domain.ProductStore
	domain.StockWriter
}

// Service exposes read access to the catalog and the admin stock write.
type Service struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) List(ctx context.Context, req transport.ListProductsRequest) (transport.ProductListResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	if c := strings.TrimSpace(req.Collection); c != "" {
		page, err := s.store.QueryByCollection(ctx, domain.CollectionQuery{
			Names:       []string{c},
			InStockOnly: true,
			Offset:      req.Offset,
			Limit:       limit,
		})
		if err != nil {
			s.log.StoreError("catalog.QueryByCollection", err)
			return transport.ProductListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list products", err)
		}
		return transport.ProductListResponse{Items: nonNil(page.Items), Total: page.Total}, nil
	}

	items, err := s.store.SearchProducts(ctx, req.Query, limit)
	if err != nil {
		s.log.StoreError("catalog.SearchProducts", err)
		return transport.ProductListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to search products", err)
	}
	return transport.ProductListResponse{Items: nonNil(items), Total: len(items)}, nil
}

func (s *Service) Get(ctx context.Context, sku string) (domain.Product, error) {
	p, err := s.store.GetBySKU(ctx, sku)
	if errors.Is(err, domain.ErrProductNotFound) {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return domain.Product{}, apperr.Wrap(apperr.KindInternal, "failed to load product", err)
	}
	return p, nil
}

// SetStock overwrites the available quantity, as a catalog sync would.
// The version bump invalidates any commit in flight against the old value.
func (s *Service) SetStock(ctx context.Context, sku string, qty int) (domain.Product, error) {
	p, err := s.store.SetStock(ctx, sku, qty)
	if errors.Is(err, domain.ErrProductNotFound) {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return domain.Product{}, apperr.Wrap(apperr.KindInternal, "failed to update stock", err)
	}
	s.log.Info("stock updated", "sku", sku, "qty", qty, "version", p.Version)
	return p, nil
}

func nonNil(items []domain.Product) []domain.Product {
	if items == nil {
		return []domain.Product{}
	}
	return items
}
