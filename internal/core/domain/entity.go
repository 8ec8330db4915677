package domain

import "github.com/google/uuid"

// EntityKind discriminates the two endpoint variants a transaction may move
// value between.
type EntityKind string

const (
	EntityKindPool   EntityKind = "POOL"   // a currency's pooled system holdings
	EntityKindMember EntityKind = "MEMBER" // an individual account holder
)

// EntityRef is a tagged reference to a transaction endpoint: either a currency
// pool or a member. Exhaustive switching on Kind replaces the original's
// open-ended polymorphic association.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// PoolRef references the pooled holdings of a currency.
func PoolRef(currencyID uuid.UUID) EntityRef {
	return EntityRef{Kind: EntityKindPool, ID: currencyID}
}

// MemberRef references a member.
func MemberRef(memberID uuid.UUID) EntityRef {
	return EntityRef{Kind: EntityKindMember, ID: memberID}
}

// Key returns a stable string identity for lineage locking and lookups.
func (r EntityRef) Key() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// IsZero reports whether the reference is unset.
func (r EntityRef) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}
