// Package domain holds the catalog types and the store contracts the
// conversation core depends on.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrFactNotFound      = errors.New("fact not found")
	ErrVersionConflict   = errors.New("product version changed")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is a snapshot of one product record. Version is the concurrency
// token every conditioned write is checked against.
type Product struct {
	SKU         string    `json:"sku" yaml:"sku"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Collection  string    `json:"collection,omitempty" yaml:"collection"`
	Price       float64   `json:"price" yaml:"price"`
	Qty         int       `json:"qty" yaml:"qty"`
	InStock     bool      `json:"inStock" yaml:"-"`
	Version     int64     `json:"version" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// Fact is a verified piece of site knowledge (about text, policies).
type Fact struct {
	ID         string  `json:"id" yaml:"id"`
	Type       string  `json:"type" yaml:"type"`
	Title      string  `json:"title" yaml:"title"`
	Content    string  `json:"content" yaml:"content"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// CollectionQuery selects products belonging to any of Names.
type CollectionQuery struct {
	Names       []string
	InStockOnly bool
	Offset      int
	Limit       int
}

// ProductPage is one page of a collection listing. Total counts all matches.
type ProductPage struct {
	Items []Product
	Total int
}

// ProductStore is the authoritative product backend.
type ProductStore interface {
	// FindProduct resolves a SKU or a product name (exact, then partial).
	FindProduct(ctx context.Context, identifier string) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	// DebitStock subtracts qty only if the stored version still equals
	// expectedVersion and enough units remain. It never applies a blind
	// decrement: on mismatch it returns ErrVersionConflict or
	// ErrInsufficientStock and leaves the record untouched.
	DebitStock(ctx context.Context, sku string, qty int, expectedVersion int64) (Product, error)
	QueryByCollection(ctx context.Context, q CollectionQuery) (ProductPage, error)
	// SearchProducts runs a multi-field fuzzy search restricted to qty > 0.
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
}

// FactStore is the verified-knowledge backend.
type FactStore interface {
	FindFact(ctx context.Context, factType string) (Fact, error)
	// SearchFacts ranks by relevance, then confidence.
	SearchFacts(ctx context.Context, query string, limit int) ([]Fact, error)
}

// StockWriter is implemented by stores that accept catalog sync writes.
// Every write bumps the version.
type StockWriter interface {
	UpsertProduct(ctx context.Context, p Product) (Product, error)
	SetStock(ctx context.Context, sku string, qty int) (Product, error)
	UpsertFact(ctx context.Context, f Fact) error
}
