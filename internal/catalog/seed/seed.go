// Package seed loads the catalog bootstrap file: products, facts and the
// conversation vocabulary (collection groups, topic keywords, keyword menus).
package seed

import (
	"context"
	"fmt"
	"os"

	"funnel_backend/internal/catalog/domain"

	"gopkg.in/yaml.v3"
)

// File is the YAML document layout.
type File struct {
	Products []domain.Product    `yaml:"products"`
	Facts    []domain.Fact       `yaml:"facts"`
	Groups   map[string][]string `yaml:"collectionGroups"`
	Topics   []string            `yaml:"topics"`
	Menus    map[string][]string `yaml:"menus"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a seed document.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Products))
	for i, p := range f.Products {
		if p.SKU == "" || p.Name == "" {
			return nil, fmt.Errorf("seed product %d: sku and name are required", i)
		}
		if p.Qty < 0 {
			return nil, fmt.Errorf("seed product %s: negative qty", p.SKU)
		}
		if _, dup := seen[p.SKU]; dup {
			return nil, fmt.Errorf("seed product %s: duplicate sku", p.SKU)
		}
		seen[p.SKU] = struct{}{}
	}
	for i, fact := range f.Facts {
		if fact.ID == "" || fact.Type == "" {
			return nil, fmt.Errorf("seed fact %d: id and type are required", i)
		}
	}
	return &f, nil
}

// Apply writes products and facts into a store.
func (f *File) Apply(ctx context.Context, w domain.StockWriter) error {
	for _, p := range f.Products {
		if _, err := w.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, fact := range f.Facts {
		if err := w.UpsertFact(ctx, fact); err != nil {
			return err
		}
	}
	return nil
}
