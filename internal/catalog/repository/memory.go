package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"funnel_backend/internal/catalog/domain"
)

// MemoryRepo is an in-process product and fact store used when no database
// is configured, and by tests. DebitStock is a compare-and-swap on Version
// under the write lock.
type MemoryRepo struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	facts    []domain.Fact
	now      func() time.Time
}

func NewMemory() *MemoryRepo {
	return &MemoryRepo{
		products: make(map[string]domain.Product),
		now:      time.Now,
	}
}

var (
	_ domain.ProductStore = (*MemoryRepo)(nil)
	_ domain.FactStore    = (*MemoryRepo)(nil)
	_ domain.StockWriter  = (*MemoryRepo)(nil)
)

func (r *MemoryRepo) UpsertProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.products[p.SKU]; ok {
		p.Version = existing.Version + 1
	} else {
		p.Version = 1
	}
	p.InStock = p.Qty > 0
	p.UpdatedAt = r.now()
	r.products[p.SKU] = p
	return p, nil
}

func (r *MemoryRepo) SetStock(_ context.Context, sku string, qty int) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	p.Qty = qty
	p.InStock = qty > 0
	p.Version++
	p.UpdatedAt = r.now()
	r.products[sku] = p
	return p, nil
}

func (r *MemoryRepo) UpsertFact(_ context.Context, f domain.Fact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.facts {
		if r.facts[i].ID == f.ID {
			r.facts[i] = f
			return nil
		}
	}
	r.facts = append(r.facts, f)
	return nil
}

func (r *MemoryRepo) GetBySKU(_ context.Context, sku string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *MemoryRepo) FindProduct(_ context.Context, identifier string) (domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	if needle == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.products[identifier]; ok {
		return p, nil
	}

	var partial []domain.Product
	for _, p := range r.products {
		name := strings.ToLower(p.Name)
		if name == needle {
			return p, nil
		}
		if strings.Contains(name, needle) || strings.Contains(name, domain.SingularPhrase(needle)) {
			partial = append(partial, p)
		}
	}
	if len(partial) == 0 {
		terms := domain.SearchTerms(needle)
		for _, p := range r.products {
			if len(terms) > 0 && domain.MatchScore(terms, p.Name) == len(terms) {
				partial = append(partial, p)
			}
		}
	}
	if len(partial) == 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	sortForResolution(partial)
	return partial[0], nil
}

func (r *MemoryRepo) DebitStock(_ context.Context, sku string, qty int, expectedVersion int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if p.Version != expectedVersion {
		return domain.Product{}, domain.ErrVersionConflict
	}
	if p.Qty < qty {
		return domain.Product{}, domain.ErrInsufficientStock
	}

	p.Qty -= qty
	p.InStock = p.Qty > 0
	p.Version++
	p.UpdatedAt = r.now()
	r.products[sku] = p
	return p, nil
}

func (r *MemoryRepo) QueryByCollection(_ context.Context, q domain.CollectionQuery) (domain.ProductPage, error) {
	wanted := make(map[string]struct{}, len(q.Names))
	for _, n := range q.Names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	r.mu.RLock()
	var matches []domain.Product
	for _, p := range r.products {
		if _, ok := wanted[strings.ToLower(p.Collection)]; !ok {
			continue
		}
		if q.InStockOnly && p.Qty <= 0 {
			continue
		}
		matches = append(matches, p)
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return domain.ProductPage{Items: paginate(matches, q.Offset, q.Limit), Total: len(matches)}, nil
}

func (r *MemoryRepo) SearchProducts(_ context.Context, query string, limit int) ([]domain.Product, error) {
	terms := domain.SearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		p     domain.Product
		score int
	}
	r.mu.RLock()
	var hits []scored
	for _, p := range r.products {
		if p.Qty <= 0 {
			continue
		}
		if s := domain.MatchScore(terms, p.Name, p.Description, p.Collection, p.SKU); s > 0 {
			hits = append(hits, scored{p: p, score: s})
		}
	}
	r.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].p.Name < hits[j].p.Name
	})

	out := make([]domain.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.p)
	}
	return paginate(out, 0, limit), nil
}

func (r *MemoryRepo) FindFact(_ context.Context, factType string) (domain.Fact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.Fact
	for i := range r.facts {
		f := &r.facts[i]
		if !strings.EqualFold(f.Type, factType) {
			continue
		}
		if best == nil || f.Confidence > best.Confidence {
			best = f
		}
	}
	if best == nil {
		return domain.Fact{}, domain.ErrFactNotFound
	}
	return *best, nil
}

func (r *MemoryRepo) SearchFacts(_ context.Context, query string, limit int) ([]domain.Fact, error) {
	terms := domain.SearchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		f     domain.Fact
		score int
	}
	r.mu.RLock()
	var hits []scored
	for _, f := range r.facts {
		if s := domain.MatchScore(terms, f.Title, f.Content, f.Type); s > 0 {
			hits = append(hits, scored{f: f, score: s})
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].f.Confidence > hits[j].f.Confidence
	})

	out := make([]domain.Fact, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.f)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortForResolution prefers in-stock items, then the shortest name.
func sortForResolution(products []domain.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].InStock != products[j].InStock {
			return products[i].InStock
		}
		if len(products[i].Name) != len(products[j].Name) {
			return len(products[i].Name) < len(products[j].Name)
		}
		return products[i].SKU < products[j].SKU
	})
}

func paginate(items []domain.Product, offset, limit int) []domain.Product {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
