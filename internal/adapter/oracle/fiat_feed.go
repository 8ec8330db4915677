// Package oracle implements ports.RateOracle against external market data
// providers. Both feeds treat any provider hiccup as an error: the ledger
// never defaults a rate it could not fetch.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// FiatFeed fetches fiat quotes from a coinbase-style exchange-rates document:
// one request returns every ISO code's rate against the reference currency.
type FiatFeed struct {
	client  *http.Client
	baseURL string
}

// NewFiatFeed creates a fiat quote feed.
func NewFiatFeed(client *http.Client, baseURL string) *FiatFeed {
	return &FiatFeed{client: client, baseURL: baseURL}
}

type exchangeRatesDoc struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

// FiatQuote returns how many units of the fiat currency one reference unit
// buys. A code absent from the provider document is an error, not a zero.
func (f *FiatFeed) FiatQuote(ctx context.Context, code string) (decimal.Decimal, time.Time, error) {
	endpoint := f.baseURL + "?currency=" + url.QueryEscape(domain.ReferenceCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("build fiat request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("fetch fiat rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, time.Time{}, fmt.Errorf("fiat provider returned %d", resp.StatusCode)
	}

	var doc exchangeRatesDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("decode fiat rates: %w", err)
	}

	raw, ok := doc.Data.Rates[code]
	if !ok {
		return decimal.Zero, time.Time{}, fmt.Errorf("no fiat rate for %s", code)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("parse fiat rate for %s: %w", code, err)
	}
	if rate.IsZero() {
		return decimal.Zero, time.Time{}, fmt.Errorf("zero fiat rate for %s", code)
	}
	return rate, time.Now().UTC(), nil
}
