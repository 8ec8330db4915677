package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReferenceCode is the common unit of account. Every entry value is converted
// to it for the zero-sum check.
const ReferenceCode = "BTC"

// ReferenceSubdivision is the fixed-point precision of the reference unit.
const ReferenceSubdivision int32 = 8

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// Currency is a tradable unit, fiat or crypto, with a fixed-point subdivision.
// Code is immutable once assigned and never deleted while any transaction or
// event references it.
type Currency struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Crypto      bool      `json:"crypto"`
	Subdivision int32     `json:"subdivision"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsReference returns true for the reference currency, whose rate is exactly 1.
func (c *Currency) IsReference() bool {
	return c.Code == ReferenceCode
}

// Fiat returns true for non-crypto currencies.
func (c *Currency) Fiat() bool {
	return !c.Crypto
}

// ValidCurrencyCode reports whether a code uses only the allowed character set.
func ValidCurrencyCode(code string) bool {
	return code != "" && codePattern.MatchString(code)
}

// Slugify derives the URL slug for a code or username.
func Slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, ".", "-"))
}
