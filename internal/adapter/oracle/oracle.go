package oracle

import (
	"net/http"

	"custodial-ledger/config"
)

// Oracle combines the fiat and crypto feeds into one ports.RateOracle.
type Oracle struct {
	*FiatFeed
	*CryptoFeed
}

// New creates an Oracle with a shared HTTP client bounded by the configured
// request timeout.
func New(cfg config.OracleConfig) *Oracle {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	return &Oracle{
		FiatFeed:   NewFiatFeed(client, cfg.FiatURL),
		CryptoFeed: NewCryptoFeed(client, cfg.CryptoURL),
	}
}
