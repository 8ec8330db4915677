package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member is a party to whom liability and equity events may be attributed.
// Balances are never stored on the member; they are always recomputed from
// its events.
type Member struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Slug        string    `json:"slug"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FullPhoneNumber renders the E.164-style number used for notification delivery.
func (m *Member) FullPhoneNumber() string {
	if m.CountryCode == "" || m.PhoneNumber == "" {
		return ""
	}
	return "+" + m.CountryCode + m.PhoneNumber
}

// ValidUsername reports whether a username uses only the allowed character set.
// Usernames share the currency-code alphabet.
func ValidUsername(username string) bool {
	return ValidCurrencyCode(username)
}
