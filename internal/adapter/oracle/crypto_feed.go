package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CryptoFeed fetches crypto quotes from a bittrex-style market summaries
// endpoint. Each non-reference crypto currency trades on the
// "<reference>-<code>" market; its bid is the rate.
type CryptoFeed struct {
	client  *http.Client
	baseURL string
}

// NewCryptoFeed creates a crypto quote feed.
func NewCryptoFeed(client *http.Client, baseURL string) *CryptoFeed {
	return &CryptoFeed{client: client, baseURL: baseURL}
}

type marketSummariesDoc struct {
	Success bool `json:"success"`
	Result  []struct {
		MarketName string          `json:"MarketName"`
		Bid        decimal.Decimal `json:"Bid"`
		TimeStamp  string          `json:"TimeStamp"`
	} `json:"result"`
}

// CryptoQuote returns the bid on the reference-<code> market in reference
// units. A market absent from the summary is an error, not a zero.
func (f *CryptoFeed) CryptoQuote(ctx context.Context, code string) (decimal.Decimal, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL, nil)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("build crypto request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("fetch market summaries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, time.Time{}, fmt.Errorf("crypto provider returned %d", resp.StatusCode)
	}

	var doc marketSummariesDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("decode market summaries: %w", err)
	}
	if !doc.Success {
		return decimal.Zero, time.Time{}, fmt.Errorf("crypto provider reported failure")
	}

	market := domain.ReferenceCode + "-" + code
	for _, summary := range doc.Result {
		if summary.MarketName != market {
			continue
		}
		if summary.Bid.IsZero() {
			return decimal.Zero, time.Time{}, fmt.Errorf("zero bid on market %s", market)
		}
		asOf := time.Now().UTC()
		if ts, err := time.Parse("2006-01-02T15:04:05", summary.TimeStamp); err == nil {
			asOf = ts.UTC()
		}
		return summary.Bid, asOf, nil
	}
	return decimal.Zero, time.Time{}, fmt.Errorf("no market %s in summary", market)
}
