package ports

import (
	"context"

	"custodial-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// CurrencyRepository defines persistence operations for the currency registry.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *domain.Currency) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Currency, error)
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context, filter CurrencyFilter) ([]domain.Currency, error)
	// Aggregates sums the currency's events by accounting class, in native
	// fixed-point units.
	Aggregates(ctx context.Context, currencyID uuid.UUID) (*CurrencyAggregates, error)
	// HasReferences reports whether any transaction or event references the
	// currency. Referenced currencies are never deleted (restrict-on-delete).
	HasReferences(ctx context.Context, currencyID uuid.UUID) (bool, error)
	Delete(ctx context.Context, currencyID uuid.UUID) error
}

// CurrencyFilter restricts a currency listing. Nil Crypto means both kinds.
type CurrencyFilter struct {
	Crypto *bool
}

// CurrencyAggregates holds per-class event sums for one currency.
type CurrencyAggregates struct {
	Assets    int64
	Liability int64
	Equity    int64
}

// MemberRepository defines persistence operations for members.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	GetByUsername(ctx context.Context, username string) (*domain.Member, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Member, int64, error)
}

// TransactionRepository defines persistence for transactions and their entries.
// Methods accepting pgx.Tx run inside the commit transaction so that the
// per-lineage lock, the latest-transaction lookup and the multi-record insert
// are one atomic unit.
type TransactionRepository interface {
	// LockLineages takes advisory locks on each endpoint's transaction chain,
	// in sorted key order so concurrent commits cannot deadlock.
	LockLineages(ctx context.Context, tx pgx.Tx, refs []domain.EntityRef) error
	// LatestFor returns the id of the most recent committed transaction whose
	// source or destination is ref, or nil if the lineage is empty.
	LatestFor(ctx context.Context, tx pgx.Tx, ref domain.EntityRef) (*uuid.UUID, error)
	// Commit writes the transaction and all its entries; callers own the
	// enclosing pgx transaction.
	Commit(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListFor(ctx context.Context, ref domain.EntityRef, page, pageSize int) ([]domain.Transaction, int64, error)
	// MemberBalance sums the member's liability and equity event amounts for
	// one currency, in native fixed-point units. Always a live aggregation.
	MemberBalance(ctx context.Context, memberID, currencyID uuid.UUID) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
