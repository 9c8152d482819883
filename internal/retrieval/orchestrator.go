package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/internal/intent"
	"funnel_backend/internal/session"
	"funnel_backend/platform/logger"
)

const (
	defaultMaxProducts = 3
	defaultFactLimit   = 3
)

// Config holds the runtime-tunable retrieval parameters.
type Config struct {
	MaxProducts int
	Welcome     string
	// Groups maps a shopper-facing group name to catalog collections.
	Groups map[string][]string
}

// ConfigFunc supplies the current Config, typically from runtime settings.
type ConfigFunc func(ctx context.Context) Config

// Static returns a ConfigFunc that always yields cfg.
func Static(cfg Config) ConfigFunc {
	return func(context.Context) Config { return cfg }
}

// Orchestrator walks the lookup branches in a fixed order.
type Orchestrator struct {
	products     domain.ProductStore
	facts        domain.FactStore
	config       ConfigFunc
	continuation func(string) bool
	timeout      time.Duration
	log          *logger.Logger
}

func NewOrchestrator(products domain.ProductStore, facts domain.FactStore, config ConfigFunc, continuation func(string) bool, timeout time.Duration, log *logger.Logger) *Orchestrator {
	if continuation == nil {
		continuation = func(string) bool { return false }
	}
	return &Orchestrator{
		products:     products,
		facts:        facts,
		config:       config,
		continuation: continuation,
		timeout:      timeout,
		log:          log,
	}
}

// Retrieve returns verified context for query or nil when nothing verified
// matches. It may repopulate the session menu and listing. Store failures
// are logged and treated as misses.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, label intent.Label, sess *session.Session) (*VerifiedContext, error) {
	cfg := o.config(ctx)
	if cfg.MaxProducts <= 0 {
		cfg.MaxProducts = defaultMaxProducts
	}

	if label == intent.AboutBrand {
		return o.about(ctx, cfg), nil
	}

	if sess != nil && sess.Listing.HasMore() && o.continuation(strings.ToLower(query)) {
		if vc := o.nextPage(ctx, sess); vc != nil {
			return vc, nil
		}
	}

	if group, names, ok := MatchGroup(query, cfg.Groups); ok {
		return o.collection(ctx, group, names, cfg.MaxProducts, sess), nil
	}

	if vc := o.searchProducts(ctx, query, cfg.MaxProducts, sess); vc != nil {
		return vc, nil
	}

	if vc := o.searchFacts(ctx, query); vc != nil {
		return vc, nil
	}

	return nil, nil
}

func (o *Orchestrator) about(ctx context.Context, cfg Config) *VerifiedContext {
	sctx, cancel := o.bounded(ctx)
	defer cancel()

	fact, err := o.facts.FindFact(sctx, "about")
	if err == nil {
		return &VerifiedContext{Source: SourceAbout, Facts: []domain.Fact{fact}}
	}
	if !errors.Is(err, domain.ErrFactNotFound) {
		o.log.StoreError("facts.find_about", err)
	}
	if cfg.Welcome == "" {
		return nil
	}
	return &VerifiedContext{Source: SourceWelcome, Note: cfg.Welcome}
}

func (o *Orchestrator) collection(ctx context.Context, group string, names []string, limit int, sess *session.Session) *VerifiedContext {
	sctx, cancel := o.bounded(ctx)
	defer cancel()

	page, err := o.products.QueryByCollection(sctx, domain.CollectionQuery{
		Names:       names,
		InStockOnly: true,
		Limit:       limit,
	})
	if err != nil {
		o.log.StoreError("products.query_collection", err)
		return nil
	}
	if len(page.Items) == 0 {
		return &VerifiedContext{
			Source: SourceEmptyGroup,
			Group:  group,
			Note:   fmt.Sprintf("%s are not available right now. Suggest exploring the other product groups.", titleCase(group)),
		}
	}

	vc := &VerifiedContext{
		Source:   SourceCollection,
		Group:    group,
		Products: page.Items,
		More:     page.Total > len(page.Items),
	}
	if sess != nil {
		sess.SetMenu(vc.MenuItems())
		sess.Listing = &session.Listing{
			Groups:   names,
			Query:    group,
			Offset:   0,
			PageSize: limit,
			Total:    page.Total,
		}
	}
	return vc
}

func (o *Orchestrator) nextPage(ctx context.Context, sess *session.Session) *VerifiedContext {
	l := sess.Listing
	sctx, cancel := o.bounded(ctx)
	defer cancel()

	offset := l.Offset + l.PageSize
	page, err := o.products.QueryByCollection(sctx, domain.CollectionQuery{
		Names:       l.Groups,
		InStockOnly: true,
		Offset:      offset,
		Limit:       l.PageSize,
	})
	if err != nil {
		o.log.StoreError("products.query_collection", err)
		return nil
	}
	if len(page.Items) == 0 {
		return nil
	}

	l.Offset = offset
	l.Total = page.Total
	vc := &VerifiedContext{
		Source:   SourceContinuation,
		Group:    l.Query,
		Products: page.Items,
		More:     l.HasMore(),
	}
	sess.SetMenu(vc.MenuItems())
	return vc
}

func (o *Orchestrator) searchProducts(ctx context.Context, query string, limit int, sess *session.Session) *VerifiedContext {
	sctx, cancel := o.bounded(ctx)
	defer cancel()

	items, err := o.products.SearchProducts(sctx, query, limit)
	if err != nil {
		o.log.StoreError("products.search", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	vc := &VerifiedContext{Source: SourceProducts, Products: items}
	if sess != nil {
		sess.SetMenu(vc.MenuItems())
		sess.Listing = nil
	}
	return vc
}

func (o *Orchestrator) searchFacts(ctx context.Context, query string) *VerifiedContext {
	sctx, cancel := o.bounded(ctx)
	defer cancel()

	facts, err := o.facts.SearchFacts(sctx, query, defaultFactLimit)
	if err != nil {
		o.log.StoreError("facts.search", err)
		return nil
	}
	if len(facts) == 0 {
		return nil
	}
	return &VerifiedContext{Source: SourceFacts, Facts: facts}
}

func (o *Orchestrator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// MatchGroup finds the collection group named in query. Both sides are
// singularized so "heaters" and "heater" match the same group. The longest
// group name wins.
func MatchGroup(query string, groups map[string][]string) (string, []string, bool) {
	if len(groups) == 0 {
		return "", nil, false
	}
	normalized := " " + normalizePhrase(query) + " "

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		needle := normalizePhrase(k)
		if needle == "" {
			continue
		}
		if strings.Contains(normalized, " "+needle+" ") {
			return k, groups[k], true
		}
	}
	return "", nil, false
}

// normalizePhrase lower-cases, strips punctuation and singularizes each word.
func normalizePhrase(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = domain.Singular(w)
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
