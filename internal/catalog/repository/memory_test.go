package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"funnel_backend/internal/catalog/domain"
)

func seeded(t *testing.T) *MemoryRepo {
	t.Helper()
	r := NewMemory()
	ctx := context.Background()
	for _, p := range []domain.Product{
		{SKU: "OFR-1", Name: "Oil Filled Radiator 2kW", Collection: "Heaters", Price: 49.99, Qty: 5},
		{SKU: "QH-1", Name: "Quartz Heater", Collection: "Heaters", Price: 19.99, Qty: 0},
		{SKU: "FH-1", Name: "Fan Heater", Collection: "Heaters", Price: 14.99, Qty: 3},
		{SKU: "LED-1", Name: "LED Parcel Lights", Collection: "Christmas Lights", Price: 9.99, Qty: 10},
	} {
		if _, err := r.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_ = r.UpsertFact(ctx, domain.Fact{ID: "f1", Type: "policy", Title: "Returns", Content: "Returns accepted within 30 days", Confidence: 0.5})
	_ = r.UpsertFact(ctx, domain.Fact{ID: "f2", Type: "policy", Title: "Returns policy", Content: "Unused returns are refunded", Confidence: 0.9})
	return r
}

func TestDebitStockIsConditioned(t *testing.T) {
	r := seeded(t)
	ctx := context.Background()

	p, _ := r.GetBySKU(ctx, "OFR-1")
	if _, err := r.DebitStock(ctx, "OFR-1", 2, p.Version+1); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if _, err := r.DebitStock(ctx, "OFR-1", 6, p.Version); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	after, err := r.DebitStock(ctx, "OFR-1", 5, p.Version)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Qty != 0 || after.InStock || after.Version != p.Version+1 {
		t.Fatalf("unexpected product after debit %+v", after)
	}
}

func TestConcurrentDebitsOnSameVersionAllowOneWinner(t *testing.T) {
	r := seeded(t)
	ctx := context.Background()
	p, _ := r.GetBySKU(ctx, "FH-1")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.DebitStock(ctx, "FH-1", 1, p.Version); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
	final, _ := r.GetBySKU(ctx, "FH-1")
	if final.Qty != 2 {
		t.Fatalf("expected qty 2, got %d", final.Qty)
	}
}

func TestFindProductResolution(t *testing.T) {
	r := seeded(t)
	ctx := context.Background()

	cases := map[string]string{
		"OFR-1":              "OFR-1",
		"quartz heater":      "QH-1",
		"oil filled":         "OFR-1",
		"oil filled radiators": "OFR-1",
		"heater":             "FH-1",
	}
	for in, want := range cases {
		p, err := r.FindProduct(ctx, in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if p.SKU != want {
			t.Fatalf("%q: expected %s, got %s", in, want, p.SKU)
		}
	}
	if _, err := r.FindProduct(ctx, "sofa"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQueryByCollectionPaging(t *testing.T) {
	r := seeded(t)
	page, _ := r.QueryByCollection(context.Background(), domain.CollectionQuery{Names: []string{"heaters"}, InStockOnly: true, Limit: 1})
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].SKU != "FH-1" {
		t.Fatalf("unexpected first page %+v", page)
	}
	page, _ = r.QueryByCollection(context.Background(), domain.CollectionQuery{Names: []string{"heaters"}, InStockOnly: true, Offset: 1, Limit: 1})
	if len(page.Items) != 1 || page.Items[0].SKU != "OFR-1" {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestSearchSkipsOutOfStock(t *testing.T) {
	r := seeded(t)
	hits, _ := r.SearchProducts(context.Background(), "quartz heaters", 5)
	for _, h := range hits {
		if h.Qty <= 0 {
			t.Fatalf("expected only in-stock hits, got %+v", h)
		}
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 heater hits, got %d", len(hits))
	}
}

func TestSearchFactsRanksByRelevanceThenConfidence(t *testing.T) {
	r := seeded(t)
	facts, _ := r.SearchFacts(context.Background(), "returns", 5)
	if len(facts) != 2 || facts[0].ID != "f2" {
		t.Fatalf("expected higher-confidence fact first, got %+v", facts)
	}
	if out, _ := r.SearchFacts(context.Background(), "what do you sell", 5); len(out) != 0 {
		t.Fatalf("expected no facts for stop-word query, got %+v", out)
	}
}
