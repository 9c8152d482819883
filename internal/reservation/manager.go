package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"funnel_backend/internal/catalog/domain"
	"funnel_backend/platform/keylock"
	"funnel_backend/platform/logger"
)

// Options tunes the manager. Zero values fall back to defaults.
type Options struct {
	TTL      time.Duration
	Attempts int
	Now      func() time.Time

	// StoreTimeout bounds every single store call, so each commit attempt
	// gets its own deadline.
	StoreTimeout time.Duration
}

// Manager owns the reservation lifecycle. Operations on one session are
// serialized; different sessions proceed in parallel.
type Manager struct {
	store        Store
	products     domain.ProductStore
	locks        *keylock.Map
	ttl          time.Duration
	attempts     int
	storeTimeout time.Duration
	now          func() time.Time
	log          *logger.Logger
}

func NewManager(store Store, products domain.ProductStore, opts Options, log *logger.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:        store,
		products:     products,
		locks:        keylock.New(),
		ttl:          opts.TTL,
		attempts:     opts.Attempts,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
		log:          log,
	}
}

// TTL returns the configured reservation lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Reserve creates a hold for qty units of sku. Holds are never additive: a
// session with a live reservation gets ErrReservationExists.
func (m *Manager) Reserve(ctx context.Context, sessionID, sku string, qty int) (Reservation, error) {
	if qty <= 0 {
		return Reservation{}, ErrInvalidQuantity
	}

	unlock, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return Reservation{}, err
	}
	defer unlock()

	now := m.now()
	if _, err := m.ExpireStale(ctx, now); err != nil {
		return Reservation{}, err
	}

	existing, ok, err := m.load(ctx, sessionID)
	if err != nil {
		return Reservation{}, fmt.Errorf("load reservation: %w", err)
	}
	if ok && !existing.Expired(now, m.ttl) {
		return Reservation{}, ErrReservationExists
	}

	product, err := m.product(ctx, sku)
	if err != nil {
		return Reservation{}, err
	}
	if qty > product.Qty {
		return Reservation{}, &InsufficientStockError{
			SKU:         product.SKU,
			ProductName: product.Name,
			Requested:   qty,
			Available:   product.Qty,
		}
	}

	r := Reservation{
		SessionID:          sessionID,
		SKU:                product.SKU,
		ProductName:        product.Name,
		UnitPrice:          product.Price,
		Quantity:           qty,
		AvailableAtReserve: product.Qty,
		ReservedAt:         now,
	}
	sctx, cancel := m.bounded(ctx)
	defer cancel()
	if err := m.store.Put(sctx, r); err != nil {
		return Reservation{}, fmt.Errorf("save reservation: %w", err)
	}

	m.log.Info("reservation created",
		slog.String("session_id", sessionID),
		slog.String("sku", r.SKU),
		slog.Int("qty", qty),
	)
	return r, nil
}

// ExpireStale removes every reservation older than the TTL at now. Calling it
// twice with the same now removes nothing the second time.
func (m *Manager) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	sctx, cancel := m.bounded(ctx)
	defer cancel()
	removed, err := m.store.DeleteReservedBefore(sctx, now.Add(-m.ttl))
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	if removed > 0 {
		m.log.Debug("reservations expired", slog.Int("count", removed))
	}
	return removed, nil
}

// Get returns the live reservation of a session. An expired hold is removed
// and reported as ErrReservationExpired.
func (m *Manager) Get(ctx context.Context, sessionID string) (Reservation, error) {
	r, ok, err := m.load(ctx, sessionID)
	if err != nil {
		return Reservation{}, fmt.Errorf("load reservation: %w", err)
	}
	if !ok {
		return Reservation{}, ErrNoReservation
	}
	if r.Expired(m.now(), m.ttl) {
		if err := m.drop(ctx, sessionID); err != nil {
			return Reservation{}, fmt.Errorf("drop expired reservation: %w", err)
		}
		return Reservation{}, ErrReservationExpired
	}
	return r, nil
}

// Release drops the session's reservation, if any.
func (m *Manager) Release(ctx context.Context, sessionID string) error {
	unlock, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	return m.drop(ctx, sessionID)
}

// Commit converts the session's reservation into a stock debit. Each attempt
// re-reads the product and issues a write conditioned on the version it read.
// A version conflict is retried up to the configured budget. Insufficient
// stock at commit time fails immediately and keeps the reservation so the
// caller can decide what to do with it.
func (m *Manager) Commit(ctx context.Context, sessionID string) (CommitResult, error) {
	unlock, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return CommitResult{}, err
	}
	defer unlock()

	r, err := m.Get(ctx, sessionID)
	if err != nil {
		return CommitResult{}, err
	}

	for attempt := 1; attempt <= m.attempts; attempt++ {
		product, err := m.product(ctx, r.SKU)
		if err != nil {
			return CommitResult{}, err
		}
		if product.Qty < r.Quantity {
			return CommitResult{}, &InsufficientStockError{
				SKU:         r.SKU,
				ProductName: product.Name,
				Requested:   r.Quantity,
				Available:   product.Qty,
			}
		}

		updated, err := m.debit(ctx, r.SKU, r.Quantity, product.Version)
		switch {
		case err == nil:
			if err := m.drop(ctx, sessionID); err != nil {
				m.log.StoreError("reservation.delete", err)
			}
			m.log.Info("reservation committed",
				slog.String("session_id", sessionID),
				slog.String("sku", r.SKU),
				slog.Int("qty", r.Quantity),
				slog.Int("attempts", attempt),
			)
			return CommitResult{Reservation: r, Product: updated, Attempts: attempt}, nil
		case errors.Is(err, domain.ErrVersionConflict):
			m.log.Debug("commit version conflict",
				slog.String("sku", r.SKU),
				slog.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, domain.ErrInsufficientStock):
			latest, gerr := m.product(ctx, r.SKU)
			available := 0
			if gerr == nil {
				available = latest.Qty
			}
			return CommitResult{}, &InsufficientStockError{
				SKU:         r.SKU,
				ProductName: product.Name,
				Requested:   r.Quantity,
				Available:   available,
			}
		default:
			return CommitResult{}, fmt.Errorf("debit stock: %w", err)
		}
	}

	return CommitResult{}, ErrCommitConflict
}

func (m *Manager) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.storeTimeout)
}

func (m *Manager) load(ctx context.Context, sessionID string) (Reservation, bool, error) {
	sctx, cancel := m.bounded(ctx)
	defer cancel()
	return m.store.Get(sctx, sessionID)
}

func (m *Manager) drop(ctx context.Context, sessionID string) error {
	sctx, cancel := m.bounded(ctx)
	defer cancel()
	return m.store.Delete(sctx, sessionID)
}

func (m *Manager) product(ctx context.Context, sku string) (domain.Product, error) {
	sctx, cancel := m.bounded(ctx)
	defer cancel()
	return m.products.GetBySKU(sctx, sku)
}

func (m *Manager) debit(ctx context.Context, sku string, qty int, version int64) (domain.Product, error) {
	sctx, cancel := m.bounded(ctx)
	defer cancel()
	return m.products.DebitStock(sctx, sku, qty, version)
}
