// Package reservation grants, tracks, expires and commits per-session stock
// holds. Reservations are advisory: they never lock global stock. Commit is
// authoritative and applies the debit through a version-conditioned write.
package reservation

import (
	"errors"
	"fmt"
	"time"

	"funnel_backend/internal/catalog/domain"
)

const (
	// DefaultTTL is how long a reservation may be honored.
	DefaultTTL = 600 * time.Second

	defaultStoreTimeout = 2 * time.Second
)

var (
	ErrNoReservation      = errors.New("no active reservation")
	ErrReservationExpired = errors.New("reservation expired")
	ErrReservationExists  = errors.New("session already holds a reservation")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrCommitConflict     = errors.New("stock changed concurrently, retry budget exhausted")
)

// Reservation is a time-bounded hold on one product for one session.
type Reservation struct {
	SessionID          string    `json:"sessionId"`
	SKU                string    `json:"sku"`
	ProductName        string    `json:"productName"`
	UnitPrice          float64   `json:"unitPrice"`
	Quantity           int       `json:"quantity"`
	AvailableAtReserve int       `json:"availableAtReserve"`
	ReservedAt         time.Time `json:"reservedAt"`
}

// Expired reports whether the reservation is older than ttl at now.
func (r Reservation) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.ReservedAt) > ttl
}

// Total is the order value of the reservation.
func (r Reservation) Total() float64 {
	return r.UnitPrice * float64(r.Quantity)
}

// InsufficientStockError reports a request larger than the available stock.
type InsufficientStockError struct {
	SKU         string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// Shortfall is how many units are missing.
func (e *InsufficientStockError) Shortfall() int {
	if e.Requested <= e.Available {
		return 0
	}
	return e.Requested - e.Available
}

// Is lets errors.Is(err, domain.ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == domain.ErrInsufficientStock
}

// CommitResult describes a successful debit.
type CommitResult struct {
	Reservation Reservation
	Product     domain.Product
	Attempts    int
}
