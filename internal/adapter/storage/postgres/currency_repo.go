package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CurrencyRepo implements ports.CurrencyRepository.
type CurrencyRepo struct {
	pool Pool
}

// NewCurrencyRepo creates a new CurrencyRepo.
func NewCurrencyRepo(pool Pool) *CurrencyRepo {
	return &CurrencyRepo{pool: pool}
}

// Create inserts a new currency into the database.
func (r *CurrencyRepo) Create(ctx context.Context, c *domain.Currency) error {
	query := `INSERT INTO currencies (id, code, name, slug, crypto, subdivision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Code, c.Name, c.Slug, c.Crypto, c.Subdivision, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert currency: %w", err)
	}
	return nil
}

// GetByID fetches a currency by its UUID.
func (r *CurrencyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Currency, error) {
	query := `SELECT id, code, name, slug, crypto, subdivision, created_at
		FROM currencies WHERE id = $1`

	return r.scanCurrency(r.pool.QueryRow(ctx, query, id))
}

// GetByCode fetches a currency by its code.
func (r *CurrencyRepo) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `SELECT id, code, name, slug, crypto, subdivision, created_at
		FROM currencies WHERE code = $1`

	return r.scanCurrency(r.pool.QueryRow(ctx, query, code))
}

// List fetches currencies, optionally restricted to crypto or fiat, in
// registration order.
func (r *CurrencyRepo) List(ctx context.Context, filter ports.CurrencyFilter) ([]domain.Currency, error) {
	query := `SELECT id, code, name, slug, crypto, subdivision, created_at
		FROM currencies`
	var args []any
	if filter.Crypto != nil {
		query += ` WHERE crypto = $1`
		args = append(args, *filter.Crypto)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []domain.Currency
	for rows.Next() {
		c := domain.Currency{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Slug, &c.Crypto, &c.Subdivision, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan currency row: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currency rows: %w", err)
	}
	return currencies, nil
}

// Aggregates sums the currency's ledger entries by accounting class, in native
// fixed-point units.
func (r *CurrencyRepo) Aggregates(ctx context.Context, currencyID uuid.UUID) (*ports.CurrencyAggregates, error) {
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE class = 'ASSET'), 0) AS assets,
		COALESCE(SUM(amount) FILTER (WHERE class = 'LIABILITY'), 0) AS liability,
		COALESCE(SUM(amount) FILTER (WHERE class = 'EQUITY'), 0) AS equity
		FROM events WHERE currency_id = $1`

	agg := &ports.CurrencyAggregates{}
	err := r.pool.QueryRow(ctx, query, currencyID).Scan(&agg.Assets, &agg.Liability, &agg.Equity)
	if err != nil {
		return nil, fmt.Errorf("currency aggregates: %w", err)
	}
	return agg, nil
}

// HasReferences reports whether any ledger entry or transaction references the
// currency.
func (r *CurrencyRepo) HasReferences(ctx context.Context, currencyID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM events WHERE currency_id = $1)
		OR EXISTS(SELECT 1 FROM transactions WHERE source_currency_id = $1 OR destination_currency_id = $1)`

	var referenced bool
	if err := r.pool.QueryRow(ctx, query, currencyID).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check currency references: %w", err)
	}
	return referenced, nil
}

// Delete removes a currency. Callers must check HasReferences first; the
// foreign keys restrict deletion regardless.
func (r *CurrencyRepo) Delete(ctx context.Context, currencyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM currencies WHERE id = $1`, currencyID)
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("currency not found: %s", currencyID)
	}
	return nil
}

// scanCurrency is a helper to scan a single row into a Currency.
func (r *CurrencyRepo) scanCurrency(row pgx.Row) (*domain.Currency, error) {
	c := &domain.Currency{}
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Slug, &c.Crypto, &c.Subdivision, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan currency: %w", err)
	}
	return c, nil
}
