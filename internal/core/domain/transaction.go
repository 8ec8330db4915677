package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType identifies the economic action a transaction performs.
// The set is fixed; extending it requires explicit versioning.
type TransactionType string

const (
	TransactionTypeSystemDeposit    TransactionType = "SystemDeposit"
	TransactionTypeSystemAllocation TransactionType = "SystemAllocation"
	TransactionTypeSystemWithdrawal TransactionType = "SystemWithdrawal"
	TransactionTypeMemberDeposit    TransactionType = "MemberDeposit"
	TransactionTypeMemberAllocation TransactionType = "MemberAllocation"
	TransactionTypeMemberExchange   TransactionType = "MemberExchange"
	TransactionTypeMemberWithdrawal TransactionType = "MemberWithdrawal"
)

// Endpoints is the (source kind, destination kind) pair a type permits.
type Endpoints struct {
	Source      EntityKind
	Destination EntityKind
}

// transactionEndpoints maps each type to its allowed endpoint combination.
// Validation dispatches on this table instead of per-type subclasses.
var transactionEndpoints = map[TransactionType]Endpoints{
	TransactionTypeSystemDeposit:    {EntityKindPool, EntityKindPool},
	TransactionTypeSystemAllocation: {EntityKindPool, EntityKindPool},
	TransactionTypeSystemWithdrawal: {EntityKindPool, EntityKindPool},
	TransactionTypeMemberDeposit:    {EntityKindPool, EntityKindMember},
	TransactionTypeMemberAllocation: {EntityKindPool, EntityKindMember},
	TransactionTypeMemberExchange:   {EntityKindMember, EntityKindMember},
	TransactionTypeMemberWithdrawal: {EntityKindMember, EntityKindPool},
}

// Valid reports whether the type is one of the enumerated kinds.
func (t TransactionType) Valid() bool {
	_, ok := transactionEndpoints[t]
	return ok
}

// Endpoints returns the allowed endpoint combination for the type.
func (t TransactionType) Endpoints() (Endpoints, bool) {
	e, ok := transactionEndpoints[t]
	return e, ok
}

// IsExchange reports whether the type is a member-initiated exchange, which
// is the only flow subject to rate-freshness and value-match validation.
func (t TransactionType) IsExchange() bool {
	return t == TransactionTypeMemberExchange
}

// Transaction is an atomic, typed bundle of ledger entries representing one
// economic action. It is immutable once committed; corrections are new,
// compensating transactions.
type Transaction struct {
	ID                    uuid.UUID       `json:"id"`
	Type                  TransactionType `json:"type"`
	Source                EntityRef       `json:"source"`
	Destination           EntityRef       `json:"destination"`
	SourceCurrencyID      uuid.UUID       `json:"source_currency_id"`
	DestinationCurrencyID uuid.UUID       `json:"destination_currency_id"`
	InitiatedBy           uuid.UUID       `json:"initiated_by"`
	AuthorizedBy          *uuid.UUID      `json:"authorized_by,omitempty"`
	PreviousTransactionID *uuid.UUID      `json:"previous_transaction_id,omitempty"`
	Entries               []Event         `json:"entries"`
	CreatedAt             time.Time       `json:"created_at"`
}

// SumInReference computes the signed sum of all entries in the reference unit,
// Asset entries negated, using each entry's locked rate. subdivisions maps
// currency ID to that currency's fixed-point precision. A committed
// transaction always sums to exactly zero.
func (t *Transaction) SumInReference(subdivisions map[uuid.UUID]int32) decimal.Decimal {
	total := decimal.Zero
	for i := range t.Entries {
		total = total.Add(t.Entries[i].ValueInReference(subdivisions[t.Entries[i].CurrencyID]))
	}
	return total
}

// EntriesOf returns the entries of one accounting class, in order.
func (t *Transaction) EntriesOf(class EventClass) []Event {
	var out []Event
	for _, e := range t.Entries {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}

// Lineages returns the distinct endpoint references whose transaction chains
// this transaction extends. Source and destination may coincide.
func (t *Transaction) Lineages() []EntityRef {
	if t.Source == t.Destination {
		return []EntityRef{t.Source}
	}
	return []EntityRef{t.Source, t.Destination}
}
