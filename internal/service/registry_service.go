package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/metrics"
	"custodial-ledger/pkg/apperror"
	"custodial-ledger/pkg/fixedpoint"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RegistryConfig tunes the quote cache behavior.
type RegistryConfig struct {
	CacheTTL        time.Duration // how long a quote stays fresh
	RefreshLockTTL  time.Duration // in-flight window collapsing concurrent refreshes
	RefreshWaitPoll time.Duration // how often a waiting caller re-reads the cache
}

// RegistryServiceImpl implements ports.RegistryService.
type RegistryServiceImpl struct {
	currencyRepo ports.CurrencyRepository
	oracle       ports.RateOracle
	cache        ports.RateCache
	cfg          RegistryConfig
	log          zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(
	currencyRepo ports.CurrencyRepository,
	oracle ports.RateOracle,
	cache ports.RateCache,
	cfg RegistryConfig,
	log zerolog.Logger,
) *RegistryServiceImpl {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.RefreshLockTTL <= 0 {
		cfg.RefreshLockTTL = 5 * time.Second
	}
	if cfg.RefreshWaitPoll <= 0 {
		cfg.RefreshWaitPoll = 100 * time.Millisecond
	}
	return &RegistryServiceImpl{
		currencyRepo: currencyRepo,
		oracle:       oracle,
		cache:        cache,
		cfg:          cfg,
		log:          log,
	}
}

// Register creates a currency. Code and subdivision are immutable afterwards.
func (s *RegistryServiceImpl) Register(ctx context.Context, req ports.RegisterCurrencyRequest) (*domain.Currency, error) {
	if !domain.ValidCurrencyCode(req.Code) {
		return nil, apperror.ErrInvalidCurrencyCode(req.Code)
	}
	if req.Subdivision < 0 {
		return nil, apperror.ErrInvalidSubdivision(req.Subdivision)
	}

	existing, err := s.currencyRepo.GetByCode(ctx, req.Code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check code uniqueness: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateCurrencyCode(req.Code)
	}

	currency := &domain.Currency{
		ID:          uuid.New(),
		Code:        req.Code,
		Name:        req.Name,
		Slug:        domain.Slugify(req.Code),
		Crypto:      req.Crypto,
		Subdivision: req.Subdivision,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.currencyRepo.Create(ctx, currency); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create currency: %w", err))
	}

	s.log.Info().
		Str("code", currency.Code).
		Bool("crypto", currency.Crypto).
		Int32("subdivision", currency.Subdivision).
		Msg("currency registered")

	return currency, nil
}

// GetByCode fetches a currency by its code.
func (s *RegistryServiceImpl) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get currency: %w", err))
	}
	if currency == nil {
		return nil, apperror.ErrNotFound("currency")
	}
	return currency, nil
}

// List returns currencies, optionally filtered to crypto or fiat.
func (s *RegistryServiceImpl) List(ctx context.Context, filter ports.CurrencyFilter) ([]domain.Currency, error) {
	currencies, err := s.currencyRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list currencies: %w", err))
	}
	return currencies, nil
}

// Describe returns a currency with its live rate and per-class aggregates.
func (s *RegistryServiceImpl) Describe(ctx context.Context, code string) (*ports.CurrencyDetail, error) {
	currency, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	rate, err := s.Rate(ctx, currency)
	if err != nil {
		return nil, err
	}

	agg, err := s.currencyRepo.Aggregates(ctx, currency.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("currency aggregates: %w", err))
	}

	return &ports.CurrencyDetail{
		Currency:  *currency,
		Rate:      rate,
		Assets:    fixedpoint.ToDecimal(agg.Assets, currency.Subdivision),
		Liability: fixedpoint.ToDecimal(agg.Liability, currency.Subdivision),
		Equity:    fixedpoint.ToDecimal(agg.Equity, currency.Subdivision),
	}, nil
}

// Remove deletes a currency unless the ledger references it.
func (s *RegistryServiceImpl) Remove(ctx context.Context, code string) error {
	currency, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	referenced, err := s.currencyRepo.HasReferences(ctx, currency.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check references: %w", err))
	}
	if referenced {
		return apperror.ErrCurrencyReferenced(code)
	}

	if err := s.currencyRepo.Delete(ctx, currency.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete currency: %w", err))
	}

	s.log.Info().Str("code", code).Msg("currency removed")
	return nil
}

// Rate returns reference units per one native unit of the currency: exactly 1
// for the reference currency, the reference-market bid for other crypto
// currencies, and the inverted provider quote for fiat. A missing or late
// quote is an error, never a default, since a guessed rate corrupts the
// zero-sum invariant downstream.
func (s *RegistryServiceImpl) Rate(ctx context.Context, currency *domain.Currency) (decimal.Decimal, error) {
	if currency.IsReference() {
		return decimal.New(1, 0), nil
	}

	if currency.Crypto {
		bid, err := s.cachedQuote(ctx, "crypto:"+currency.Code, func(ctx context.Context) (decimal.Decimal, time.Time, error) {
			return s.oracle.CryptoQuote(ctx, currency.Code)
		})
		if err != nil {
			return decimal.Zero, err
		}
		return bid, nil
	}

	// Fiat quotes arrive as units of fiat per one reference unit; invert.
	quote, err := s.cachedQuote(ctx, "fiat:"+currency.Code, func(ctx context.Context) (decimal.Decimal, time.Time, error) {
		return s.oracle.FiatQuote(ctx, currency.Code)
	})
	if err != nil {
		return decimal.Zero, err
	}
	if quote.IsZero() {
		return decimal.Zero, apperror.ErrRateUnavailable(currency.Code)
	}
	return decimal.New(1, 0).DivRound(quote, domain.ReferenceSubdivision*2), nil
}

// Convert computes amount * rate(from) / rate(to) in decimal, fixed to the
// destination subdivision with round-half-up.
func (s *RegistryServiceImpl) Convert(ctx context.Context, amount decimal.Decimal, from, to *domain.Currency) (decimal.Decimal, error) {
	fromRate, err := s.Rate(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := s.Rate(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	if toRate.IsZero() {
		return decimal.Zero, apperror.ErrRateUnavailable(to.Code)
	}
	return fixedpoint.Round(amount.Mul(fromRate).DivRound(toRate, domain.ReferenceSubdivision*2), to.Subdivision), nil
}

type fetchFunc func(ctx context.Context) (decimal.Decimal, time.Time, error)

// cachedQuote is the cache-aside path with a single-flight refresh: the first
// caller to miss takes the per-key refresh lock and fetches; everyone else
// polls the cache until that value lands. All waiters see the same quote.
func (s *RegistryServiceImpl) cachedQuote(ctx context.Context, key string, fetch fetchFunc) (decimal.Decimal, error) {
	code := key[strings.IndexByte(key, ':')+1:]

	if quote, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("rate cache read failed, fetching directly")
	} else if quote != nil {
		metrics.RateCacheLookups.WithLabelValues("hit").Inc()
		return quote.Rate, nil
	}
	metrics.RateCacheLookups.WithLabelValues("miss").Inc()

	deadline := time.Now().Add(s.cfg.RefreshLockTTL)
	for {
		acquired, err := s.cache.AcquireRefresh(ctx, key, s.cfg.RefreshLockTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("refresh lock unavailable, fetching directly")
			acquired = true
		}

		if acquired {
			rate, asOf, fetchErr := s.fetchWithMetrics(ctx, key, fetch)
			if fetchErr == nil {
				if err := s.cache.Set(ctx, key, ports.Quote{Rate: rate, AsOf: asOf}, s.cfg.CacheTTL); err != nil {
					s.log.Warn().Err(err).Str("key", key).Msg("failed to cache quote")
				}
			}
			if releaseErr := s.cache.ReleaseRefresh(ctx, key); releaseErr != nil {
				s.log.Warn().Err(releaseErr).Str("key", key).Msg("failed to release refresh lock")
			}
			if fetchErr != nil {
				return decimal.Zero, apperror.ErrRateUnavailableWrap(code, fetchErr)
			}
			return rate, nil
		}

		// Another caller is refreshing; wait for its value.
		select {
		case <-ctx.Done():
			return decimal.Zero, apperror.ErrRateUnavailableWrap(code, ctx.Err())
		case <-time.After(s.cfg.RefreshWaitPoll):
		}

		if quote, err := s.cache.Get(ctx, key); err == nil && quote != nil {
			return quote.Rate, nil
		}
		if time.Now().After(deadline) {
			return decimal.Zero, apperror.ErrRateUnavailable(code)
		}
	}
}

func (s *RegistryServiceImpl) fetchWithMetrics(ctx context.Context, key string, fetch fetchFunc) (decimal.Decimal, time.Time, error) {
	feed := key[:strings.IndexByte(key, ':')]
	start := time.Now()
	rate, asOf, err := fetch(ctx)
	metrics.OracleFetchDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleFetches.WithLabelValues(feed, "error").Inc()
		return decimal.Zero, time.Time{}, err
	}
	metrics.OracleFetches.WithLabelValues(feed, "ok").Inc()
	return rate, asOf, nil
}
