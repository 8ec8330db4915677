package domain

import (
	"time"

	"custodial-ledger/pkg/fixedpoint"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventClass is the accounting class of a ledger entry.
type EventClass string

const (
	EventClassAsset     EventClass = "ASSET"     // pooled system holdings
	EventClassLiability EventClass = "LIABILITY" // amounts owed to members
	EventClassEquity    EventClass = "EQUITY"    // members' ownership stake
)

// Event is a single signed, currency-denominated ledger entry. Amount is an
// integer in the currency's native subdivision; Rate is the valuation rate
// locked at construction time and never updated afterwards, so a transaction's
// math stays self-consistent even when the market moves before commit.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Class         EventClass      `json:"class"`
	CurrencyID    uuid.UUID       `json:"currency_id"`
	Amount        int64           `json:"amount"`
	Rate          decimal.Decimal `json:"rate"`
	MemberID      *uuid.UUID      `json:"member_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewEvent constructs a ledger entry with its rate locked in.
func NewEvent(class EventClass, currencyID uuid.UUID, amount int64, rate decimal.Decimal, memberID *uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Class:      class,
		CurrencyID: currencyID,
		Amount:     amount,
		Rate:       rate,
		MemberID:   memberID,
		CreatedAt:  time.Now().UTC(),
	}
}

// RequiresMember reports whether this class must be attributed to a member.
// Asset entries belong to the pooled system currency itself.
func (c EventClass) RequiresMember() bool {
	return c == EventClassLiability || c == EventClassEquity
}

// Valid reports whether the class is one of the three accounting classes.
func (c EventClass) Valid() bool {
	switch c {
	case EventClassAsset, EventClassLiability, EventClassEquity:
		return true
	}
	return false
}

// ValueInReference converts the entry to the reference unit using the locked
// rate, rounded half-up at the reference subdivision. Asset entries are a
// debit against the zero-sum total, so their value is negated; liabilities and
// equity are credits.
func (e *Event) ValueInReference(subdivision int32) decimal.Decimal {
	value := fixedpoint.Round(
		fixedpoint.ToDecimal(e.Amount, subdivision).Mul(e.Rate),
		ReferenceSubdivision,
	)
	if e.Class == EventClassAsset {
		return value.Neg()
	}
	return value
}
