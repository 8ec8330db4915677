package dto

// RegisterCurrencyRequest is the request body for currency registration.
type RegisterCurrencyRequest struct {
	Code        string `json:"code" binding:"required,max=30"`
	Name        string `json:"name" binding:"required,max=100"`
	Crypto      bool   `json:"crypto"`
	Subdivision int32  `json:"subdivision" binding:"min=0,max=18"`
}

// CurrencyResponse is the response body for a registered currency.
type CurrencyResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Crypto      bool   `json:"crypto"`
	Subdivision int32  `json:"subdivision"`
	CreatedAt   string `json:"created_at"`
}

// CurrencyDetailResponse adds the live rate and per-class aggregates.
type CurrencyDetailResponse struct {
	CurrencyResponse
	Rate      string `json:"rate"`
	Assets    string `json:"assets"`
	Liability string `json:"liability"`
	Equity    string `json:"equity"`
}

// CreateMemberRequest is the request body for member creation.
type CreateMemberRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" binding:"max=20"`
	CountryCode string `json:"country_code" binding:"max=4"`
}

// MemberResponse is the response body for a member.
type MemberResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Slug        string `json:"slug"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// SubmitTransactionRequest is the request body for transaction submission.
// Amounts are integers in each currency's native subdivision.
type SubmitTransactionRequest struct {
	Type                  string  `json:"type" binding:"required"`
	SourceCurrency        string  `json:"source_currency" binding:"required"`
	DestinationCurrency   string  `json:"destination_currency,omitempty"`
	MemberID              *string `json:"member_id,omitempty"`
	SourceAmount          int64   `json:"source_amount" binding:"required,gt=0"`
	DestinationAmount     int64   `json:"destination_amount,omitempty"`
	InitiatedBy           string  `json:"initiated_by" binding:"required"`
	AuthorizedBy          *string `json:"authorized_by,omitempty"`
	PreviousTransactionID *string `json:"previous_transaction_id,omitempty"`
}

// EventResponse is one ledger entry inside a TransactionResponse.
type EventResponse struct {
	ID         string  `json:"id"`
	Class      string  `json:"class"`
	CurrencyID string  `json:"currency_id"`
	Amount     int64   `json:"amount"`
	Rate       string  `json:"rate"`
	MemberID   *string `json:"member_id,omitempty"`
}

// TransactionResponse is the response body for a committed transaction.
type TransactionResponse struct {
	ID                    string          `json:"id"`
	Type                  string          `json:"type"`
	SourceKind            string          `json:"source_kind"`
	SourceID              string          `json:"source_id"`
	DestinationKind       string          `json:"destination_kind"`
	DestinationID         string          `json:"destination_id"`
	InitiatedBy           string          `json:"initiated_by"`
	AuthorizedBy          *string         `json:"authorized_by,omitempty"`
	PreviousTransactionID *string         `json:"previous_transaction_id,omitempty"`
	Entries               []EventResponse `json:"entries"`
	CreatedAt             string          `json:"created_at"`
}

// BalanceResponse is the response body for a member balance query.
type BalanceResponse struct {
	Username string `json:"username"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// SystemValueResponse is the response body for the total-value query.
type SystemValueResponse struct {
	ReferenceCurrency string `json:"reference_currency"`
	TotalValue        string `json:"total_value"`
}

// PageResponse wraps a paginated listing.
type PageResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
