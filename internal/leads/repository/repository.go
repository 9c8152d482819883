package repository

import (
	"context"
	"errors"
	"fmt"

	"funnel_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository is the Postgres lead sink.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert runs in one transaction. A concurrent insert of the same contact
// surfaces as a unique violation and is retried once as an update.
func (r *Repository) Upsert(ctx context.Context, c domain.Contact, intent string, score int) (uuid.UUID, error) {
	if c.Empty() {
		return uuid.Nil, domain.ErrNoContact
	}

	id, err := r.upsert(ctx, c, intent, score)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		id, err = r.upsert(ctx, c, intent, score)
	}
	return id, err
}

func (r *Repository) upsert(ctx context.Context, c domain.Contact, intent string, score int) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM funnel_leads
		WHERE ($1 <> '' AND lower(email) = lower($1))
		   OR ($2 <> '' AND phone = $2)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE
	`, c.Email, c.Phone).Scan(&id)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO funnel_leads (id, email, phone, name, intent, score)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
		`, id, c.Email, c.Phone, c.Name, intent, score)
		if err != nil {
			return uuid.Nil, err
		}
	case err != nil:
		return uuid.Nil, err
	default:
		_, err = tx.Exec(ctx, `
			UPDATE funnel_leads SET
				email = COALESCE(email, NULLIF($2, '')),
				phone = COALESCE(phone, NULLIF($3, '')),
				name = CASE WHEN $4 <> '' THEN $4 ELSE name END,
				intent = $5,
				score = GREATEST(score, $6),
				updated_at = now()
			WHERE id = $1
		`, id, c.Email, c.Phone, c.Name, intent, score)
		if err != nil {
			return uuid.Nil, fmt.Errorf("update lead: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

var _ domain.Sink = (*Repository)(nil)
