package ports

import (
	"context"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// RateOracle supplies live market quotes. Implementations are network-bound
// and must respect the caller's context deadline; a quote that cannot be
// produced in time surfaces as an error, never as a stale or zero rate.
type RateOracle interface {
	// FiatQuote returns how many units of the fiat currency one reference
	// unit buys, per the provider's reference-based exchange document.
	FiatQuote(ctx context.Context, code string) (decimal.Decimal, time.Time, error)
	// CryptoQuote returns the bid on the reference-<code> market.
	CryptoQuote(ctx context.Context, code string) (decimal.Decimal, time.Time, error)
}

// Quote is a cached market rate.
type Quote struct {
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"as_of"`
}

// RateCache stores quotes with a bounded TTL. AcquireRefresh is a short-lived
// per-key lock that collapses concurrent cache misses into a single oracle
// call; losers wait and re-read instead of stampeding the provider.
type RateCache interface {
	Get(ctx context.Context, key string) (*Quote, error) // nil, nil on miss
	Set(ctx context.Context, key string, quote Quote, ttl time.Duration) error
	AcquireRefresh(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseRefresh(ctx context.Context, key string) error
}

// --- Service Ports (Business Logic) ---

// RegistryService defines the currency registry: registration, rate
// resolution and conversion.
type RegistryService interface {
	Register(ctx context.Context, req RegisterCurrencyRequest) (*domain.Currency, error)
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context, filter CurrencyFilter) ([]domain.Currency, error)
	Describe(ctx context.Context, code string) (*CurrencyDetail, error)
	Remove(ctx context.Context, code string) error
	// Rate returns units of currency equivalent to one reference unit.
	// Exactly 1 for the reference currency itself.
	Rate(ctx context.Context, currency *domain.Currency) (decimal.Decimal, error)
	// Convert computes amount * rate(from) / rate(to) in arbitrary-precision
	// decimal, rounded half-up at the destination subdivision.
	Convert(ctx context.Context, amount decimal.Decimal, from, to *domain.Currency) (decimal.Decimal, error)
}

// RegisterCurrencyRequest holds validated input for currency registration.
type RegisterCurrencyRequest struct {
	Code        string
	Name        string
	Crypto      bool
	Subdivision int32
}

// CurrencyDetail is a currency with its live rate and per-class aggregates.
type CurrencyDetail struct {
	Currency  domain.Currency `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	Assets    decimal.Decimal `json:"assets"`
	Liability decimal.Decimal `json:"liability"`
	Equity    decimal.Decimal `json:"equity"`
}

// LedgerService is the transaction engine: it builds a transaction from a
// request, locks current rates into its entries, validates every invariant
// (collecting all failures) and commits atomically.
type LedgerService interface {
	Submit(ctx context.Context, req TransactionRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListFor(ctx context.Context, ref domain.EntityRef, page, pageSize int) ([]domain.Transaction, int64, error)
	// Balance aggregates a member's liability and equity events for one
	// currency, in that currency's native decimal representation.
	Balance(ctx context.Context, memberID uuid.UUID, currencyCode string) (decimal.Decimal, error)
	// SystemTotalValue expresses total system assets in the reference unit.
	SystemTotalValue(ctx context.Context) (decimal.Decimal, error)
}

// TransactionRequest holds validated input for transaction submission.
// For single-currency types DestinationCurrency may be empty and defaults to
// SourceCurrency; DestinationAmount is meaningful for exchanges only.
type TransactionRequest struct {
	Type                  domain.TransactionType
	SourceCurrency        string
	DestinationCurrency   string
	MemberID              *uuid.UUID // required when the type has a member endpoint
	SourceAmount          int64
	DestinationAmount     int64
	InitiatedBy           uuid.UUID
	AuthorizedBy          *uuid.UUID
	PreviousTransactionID *uuid.UUID
}

// MemberService defines member administration.
type MemberService interface {
	Create(ctx context.Context, req CreateMemberRequest) (*domain.Member, error)
	GetByUsername(ctx context.Context, username string) (*domain.Member, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Member, int64, error)
}

// CreateMemberRequest holds validated input for member creation.
type CreateMemberRequest struct {
	Username    string
	Email       string
	PhoneNumber string
	CountryCode string
}
