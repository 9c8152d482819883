package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/internal/catalog/repository"
	"funnel_backend/internal/intent"
	"funnel_backend/internal/session"
	"funnel_backend/platform/logger"
)

var testGroups = map[string][]string{
	"heaters":          {"Heaters"},
	"christmas lights": {"Christmas Lights"},
	"garden furniture": {"Garden Furniture"},
}

func newRepo(t *testing.T) *repository.MemoryRepo {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemory()
	for _, p := range []domain.Product{
		{SKU: "H1", Name: "Fan Heater", Collection: "Heaters", Price: 15, Qty: 3},
		{SKU: "H2", Name: "Halogen Heater", Collection: "Heaters", Price: 25, Qty: 2},
		{SKU: "H3", Name: "Oil Filled Radiator", Collection: "Heaters", Price: 50, Qty: 5},
		{SKU: "H4", Name: "Quartz Heater", Collection: "Heaters", Price: 20, Qty: 4},
		{SKU: "H5", Name: "Wall Panel Heater", Collection: "Heaters", Price: 80, Qty: 0},
		{SKU: "GF1", Name: "Rattan Sofa", Collection: "Garden Furniture", Price: 400, Qty: 0},
		{SKU: "L1", Name: "LED Parcel Lights", Collection: "Christmas Lights", Price: 10, Qty: 9},
	} {
		if _, err := repo.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func newOrchestrator(repo *repository.MemoryRepo) *Orchestrator {
	cont := intent.ContinuationMatcher(intent.DefaultVocabulary("frono"))
	cfg := Static(Config{MaxProducts: 3, Welcome: "Welcome to Frono.", Groups: testGroups})
	return NewOrchestrator(repo, repo, cfg, cont, time.Second, logger.Nop())
}

func TestAboutBrandUsesFactThenWelcome(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	o := newOrchestrator(repo)

	vc, err := o.Retrieve(ctx, "about frono", intent.AboutBrand, nil)
	if err != nil || vc == nil || vc.Source != SourceWelcome {
		t.Fatalf("expected welcome fallback, got %+v err=%v", vc, err)
	}

	_ = repo.UpsertFact(ctx, domain.Fact{ID: "a", Type: "about", Title: "About", Content: "Family retailer since 1990", Confidence: 1})
	vc, _ = o.Retrieve(ctx, "about frono", intent.AboutBrand, nil)
	if vc == nil || vc.Source != SourceAbout || !strings.Contains(vc.Text(), "Family retailer") {
		t.Fatalf("expected about fact, got %+v", vc)
	}
}

func TestCollectionGroupListingAndContinuation(t *testing.T) {
	ctx := context.Background()
	o := newOrchestrator(newRepo(t))
	sess := session.New("s1", time.Now())

	vc, err := o.Retrieve(ctx, "Show me your heater range?", intent.ProductInfo, sess)
	if err != nil || vc == nil {
		t.Fatalf("expected collection context, err=%v", err)
	}
	if vc.Source != SourceCollection || vc.Group != "heaters" {
		t.Fatalf("unexpected source %s group %q", vc.Source, vc.Group)
	}
	if len(vc.Products) != 3 || !vc.More {
		t.Fatalf("expected 3 products with more marker, got %d more=%v", len(vc.Products), vc.More)
	}
	if len(sess.Menu) != 3 || sess.Menu[0] != "Fan Heater" {
		t.Fatalf("expected menu repopulated, got %v", sess.Menu)
	}

	vc, _ = o.Retrieve(ctx, "show me more", intent.ProductInfo, sess)
	if vc == nil || vc.Source != SourceContinuation {
		t.Fatalf("expected continuation page, got %+v", vc)
	}
	if len(vc.Products) != 1 || vc.Products[0].Name != "Quartz Heater" || vc.More {
		t.Fatalf("unexpected second page %+v", vc.Products)
	}
	if sess.Menu[0] != "Quartz Heater" {
		t.Fatalf("expected menu replaced by second page, got %v", sess.Menu)
	}
}

func TestEmptyGroupYieldsVerifiedNotice(t *testing.T) {
	o := newOrchestrator(newRepo(t))
	vc, _ := o.Retrieve(context.Background(), "garden furniture", intent.ProductInfo, session.New("s1", time.Now()))
	if vc == nil || vc.Source != SourceEmptyGroup {
		t.Fatalf("expected empty group notice, got %+v", vc)
	}
	if !strings.Contains(vc.Text(), "not available") {
		t.Fatalf("unexpected notice %q", vc.Text())
	}
}

func TestProductSearchThenFacts(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_ = repo.UpsertFact(ctx, domain.Fact{ID: "r", Type: "policy", Title: "Returns", Content: "Returns accepted within 30 days", Confidence: 0.9})
	o := newOrchestrator(repo)
	sess := session.New("s1", time.Now())

	vc, _ := o.Retrieve(ctx, "radiator", intent.ProductInfo, sess)
	if vc == nil || vc.Source != SourceProducts || vc.Products[0].SKU != "H3" {
		t.Fatalf("expected radiator hit, got %+v", vc)
	}
	if len(sess.Menu) != 1 {
		t.Fatalf("expected menu from search, got %v", sess.Menu)
	}

	vc, _ = o.Retrieve(ctx, "can I get returns", intent.Support, sess)
	if vc == nil || vc.Source != SourceFacts {
		t.Fatalf("expected facts, got %+v", vc)
	}
}

func TestNothingVerifiedReturnsNil(t *testing.T) {
	o := newOrchestrator(newRepo(t))
	vc, err := o.Retrieve(context.Background(), "what do you sell", intent.Browsing, session.New("s1", time.Now()))
	if err != nil || vc != nil {
		t.Fatalf("expected nil context, got %+v err=%v", vc, err)
	}
}

type failingStore struct {
	*repository.MemoryRepo
}

func (failingStore) SearchProducts(context.Context, string, int) ([]domain.Product, error) {
	return nil, errors.New("search down")
}

func TestStoreErrorsDegradeToMiss(t *testing.T) {
	repo := newRepo(t)
	o := NewOrchestrator(failingStore{repo}, repo, Static(Config{}), nil, time.Second, logger.Nop())
	vc, err := o.Retrieve(context.Background(), "radiator", intent.ProductInfo, nil)
	if err != nil || vc != nil {
		t.Fatalf("expected degraded miss, got %+v err=%v", vc, err)
	}
}

func TestMatchGroupSingularizes(t *testing.T) {
	cases := []struct {
		query string
		want  string
		ok    bool
	}{
		{"heaters", "heaters", true},
		{"any heater?", "heaters", true},
		{"christmas light deals", "christmas lights", true},
		{"lights", "", false},
		{"preheaters", "", false},
	}
	for _, tc := range cases {
		got, _, ok := MatchGroup(tc.query, testGroups)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("match %q: expected (%q,%v), got (%q,%v)", tc.query, tc.want, tc.ok, got, ok)
		}
	}
}
