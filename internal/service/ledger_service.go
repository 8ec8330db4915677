package service

import (
	"context"
	"fmt"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/metrics"
	"custodial-ledger/pkg/apperror"
	"custodial-ledger/pkg/fixedpoint"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService. A submitted request moves
// through Building (entry construction with locked rates), Validating (all
// invariants run, failures collected) and either Committed (one atomic store
// write) or Rejected (nothing persisted).
type LedgerServiceImpl struct {
	txRepo       ports.TransactionRepository
	currencyRepo ports.CurrencyRepository
	memberRepo   ports.MemberRepository
	registry     ports.RegistryService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	txRepo ports.TransactionRepository,
	currencyRepo ports.CurrencyRepository,
	memberRepo ports.MemberRepository,
	registry ports.RegistryService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		txRepo:       txRepo,
		currencyRepo: currencyRepo,
		memberRepo:   memberRepo,
		registry:     registry,
		transactor:   transactor,
		log:          log,
	}
}

// Submit builds, validates and commits a transaction. Validation failures are
// collected into a single *apperror.ValidationErrors so the caller sees every
// violated invariant at once; on any failure nothing is persisted.
func (s *LedgerServiceImpl) Submit(ctx context.Context, req ports.TransactionRequest) (*domain.Transaction, error) {
	rejection := &apperror.ValidationErrors{}

	// Type & actor check. A request with no recognizable type or initiator
	// cannot be built at all, so these two short-circuit construction.
	if !req.Type.Valid() {
		return nil, s.reject(rejection, apperror.ErrInvalidTransactionType(string(req.Type)))
	}
	if req.InitiatedBy == uuid.Nil {
		return nil, s.reject(rejection, apperror.ErrMissingInitiator())
	}

	endpoints, _ := req.Type.Endpoints()
	if (endpoints.Source == domain.EntityKindMember || endpoints.Destination == domain.EntityKindMember) && req.MemberID == nil {
		return nil, apperror.Validation("member_id is required for " + string(req.Type))
	}
	if req.MemberID != nil {
		member, err := s.memberRepo.GetByID(ctx, *req.MemberID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get member: %w", err))
		}
		if member == nil {
			return nil, apperror.ErrNotFound("member")
		}
	}

	source, err := s.registry.GetByCode(ctx, req.SourceCurrency)
	if err != nil {
		return nil, err
	}
	destination := source
	if req.DestinationCurrency != "" && req.DestinationCurrency != req.SourceCurrency {
		destination, err = s.registry.GetByCode(ctx, req.DestinationCurrency)
		if err != nil {
			return nil, err
		}
	}

	// Lock current rates into the entries. Downstream validation recomputes
	// value with these locked rates, not freshly fetched ones, so the
	// transaction's math is self-consistent even if the market moves before
	// commit.
	sourceRate, err := s.registry.Rate(ctx, source)
	if err != nil {
		return nil, err
	}
	destinationRate := sourceRate
	if destination.ID != source.ID {
		destinationRate, err = s.registry.Rate(ctx, destination)
		if err != nil {
			return nil, err
		}
	}

	txn := s.build(req, endpoints, source, destination, sourceRate, destinationRate)

	// Validating: every remaining check runs; failures accumulate.
	s.validateRateFreshness(ctx, rejection, txn, source, destination)
	s.validateValueMatch(rejection, txn, source, destination)
	s.validateZeroSum(rejection, txn, source, destination)

	// The chaining check recomputes "latest transaction for this lineage"
	// from the durable store under the per-lineage lock, inside the same
	// database transaction that commits — concurrent chainers get exactly
	// one winner.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.txRepo.LockLineages(ctx, dbTx, txn.Lineages()); err != nil {
		return nil, apperror.ErrLockTimeout(fmt.Errorf("lock lineages: %w", err))
	}
	if err := s.validateChaining(ctx, rejection, dbTx, txn); err != nil {
		return nil, err
	}

	if rejection.HasErrors() {
		for _, code := range rejection.Codes() {
			metrics.TransactionsRejected.WithLabelValues(code).Inc()
		}
		s.log.Info().
			Str("type", string(txn.Type)).
			Strs("codes", rejection.Codes()).
			Msg("transaction rejected")
		return nil, rejection
	}

	if err := s.txRepo.Commit(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	metrics.TransactionsCommitted.WithLabelValues(string(txn.Type)).Inc()
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txn.Type)).
		Str("source", txn.Source.Key()).
		Str("destination", txn.Destination.Key()).
		Msg("transaction committed")

	return txn, nil
}

func (s *LedgerServiceImpl) reject(rejection *apperror.ValidationErrors, err *apperror.AppError) error {
	rejection.Add(err)
	metrics.TransactionsRejected.WithLabelValues(err.Code).Inc()
	return rejection
}

// build constructs the transaction and its entries for the requested type.
// Amounts arrive positive; withdrawal-style types negate them here.
func (s *LedgerServiceImpl) build(
	req ports.TransactionRequest,
	endpoints domain.Endpoints,
	source, destination *domain.Currency,
	sourceRate, destinationRate decimal.Decimal,
) *domain.Transaction {
	now := time.Now().UTC()

	sourceRef := domain.PoolRef(source.ID)
	if endpoints.Source == domain.EntityKindMember {
		sourceRef = domain.MemberRef(*req.MemberID)
	}
	destinationRef := domain.PoolRef(destination.ID)
	if endpoints.Destination == domain.EntityKindMember {
		destinationRef = domain.MemberRef(*req.MemberID)
	}

	txn := &domain.Transaction{
		ID:                    uuid.New(),
		Type:                  req.Type,
		Source:                sourceRef,
		Destination:           destinationRef,
		SourceCurrencyID:      source.ID,
		DestinationCurrencyID: destination.ID,
		InitiatedBy:           req.InitiatedBy,
		AuthorizedBy:          req.AuthorizedBy,
		PreviousTransactionID: req.PreviousTransactionID,
		CreatedAt:             now,
	}

	switch req.Type {
	case domain.TransactionTypeSystemDeposit:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassAsset, source.ID, req.SourceAmount, sourceRate, nil),
			domain.NewEvent(domain.EventClassEquity, source.ID, req.SourceAmount, sourceRate, &req.InitiatedBy),
		}
	case domain.TransactionTypeSystemWithdrawal:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassAsset, source.ID, -req.SourceAmount, sourceRate, nil),
			domain.NewEvent(domain.EventClassEquity, source.ID, -req.SourceAmount, sourceRate, &req.InitiatedBy),
		}
	case domain.TransactionTypeSystemAllocation:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassAsset, source.ID, -req.SourceAmount, sourceRate, nil),
			domain.NewEvent(domain.EventClassAsset, destination.ID, req.DestinationAmount, destinationRate, nil),
		}
	case domain.TransactionTypeMemberDeposit:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassAsset, source.ID, req.SourceAmount, sourceRate, nil),
			domain.NewEvent(domain.EventClassLiability, source.ID, req.SourceAmount, sourceRate, req.MemberID),
		}
	case domain.TransactionTypeMemberAllocation:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassAsset, source.ID, req.SourceAmount, sourceRate, nil),
			domain.NewEvent(domain.EventClassEquity, source.ID, req.SourceAmount, sourceRate, req.MemberID),
		}
	case domain.TransactionTypeMemberWithdrawal:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassAsset, source.ID, -req.SourceAmount, sourceRate, nil),
			domain.NewEvent(domain.EventClassLiability, source.ID, -req.SourceAmount, sourceRate, req.MemberID),
		}
	case domain.TransactionTypeMemberExchange:
		txn.Entries = []domain.Event{
			domain.NewEvent(domain.EventClassLiability, source.ID, -req.SourceAmount, sourceRate, req.MemberID),
			domain.NewEvent(domain.EventClassLiability, destination.ID, req.DestinationAmount, destinationRate, req.MemberID),
		}
	}

	for i := range txn.Entries {
		txn.Entries[i].TransactionID = txn.ID
		txn.Entries[i].CreatedAt = now
	}
	return txn
}

// validateRateFreshness recomputes each side's current rate and requires it to
// match the locked rate within the reference subdivision's rounding tolerance.
// Member-initiated exchanges only: the member agreed to a quoted price, and a
// moved market means that price no longer holds.
func (s *LedgerServiceImpl) validateRateFreshness(ctx context.Context, rejection *apperror.ValidationErrors, txn *domain.Transaction, source, destination *domain.Currency) {
	if !txn.Type.IsExchange() {
		return
	}

	lockedByID := map[uuid.UUID]decimal.Decimal{}
	for _, e := range txn.Entries {
		lockedByID[e.CurrencyID] = e.Rate
	}

	for _, currency := range []*domain.Currency{source, destination} {
		current, err := s.registry.Rate(ctx, currency)
		if err != nil {
			rejection.Add(apperror.ErrRateUnavailableWrap(currency.Code, err))
			return
		}
		locked := lockedByID[currency.ID]
		if !fixedpoint.Round(locked, domain.ReferenceSubdivision).Equal(fixedpoint.Round(current, domain.ReferenceSubdivision)) {
			rejection.Add(apperror.ErrStaleRate())
			return
		}
	}
}

// legValue expresses a leg in integer units of the reference subdivision:
// round(amount * rate, reference places), then shift by the subdivision gap.
func legValue(amount int64, subdivision int32, rate decimal.Decimal) int64 {
	return fixedpoint.ToUnits(
		fixedpoint.Round(decimal.New(amount, 0).Mul(rate), domain.ReferenceSubdivision),
		domain.ReferenceSubdivision-subdivision,
	)
}

// validateValueMatch requires an exchange's source and destination legs to
// agree in reference-unit value.
func (s *LedgerServiceImpl) validateValueMatch(rejection *apperror.ValidationErrors, txn *domain.Transaction, source, destination *domain.Currency) {
	if !txn.Type.IsExchange() || len(txn.Entries) != 2 {
		return
	}

	sourceLeg, destinationLeg := txn.Entries[0], txn.Entries[1]
	sourceValue := legValue(-sourceLeg.Amount, source.Subdivision, sourceLeg.Rate)
	destinationValue := legValue(destinationLeg.Amount, destination.Subdivision, destinationLeg.Rate)
	if sourceValue != destinationValue {
		rejection.Add(apperror.ErrValueMismatch())
	}
}

// validateZeroSum requires the signed reference-unit sum of all entries, Asset
// entries negated, to be exactly zero at the reference subdivision.
func (s *LedgerServiceImpl) validateZeroSum(rejection *apperror.ValidationErrors, txn *domain.Transaction, source, destination *domain.Currency) {
	subdivisions := map[uuid.UUID]int32{
		source.ID:      source.Subdivision,
		destination.ID: destination.Subdivision,
	}
	if !txn.SumInReference(subdivisions).IsZero() {
		rejection.Add(apperror.ErrUnbalancedTransaction())
	}
}

// validateChaining requires a declared previous transaction to equal the
// actual most recent transaction for the source or destination lineage, read
// from the store under the lineage lock.
func (s *LedgerServiceImpl) validateChaining(ctx context.Context, rejection *apperror.ValidationErrors, dbTx pgx.Tx, txn *domain.Transaction) error {
	if txn.PreviousTransactionID == nil {
		return nil
	}

	for _, ref := range txn.Lineages() {
		latest, err := s.txRepo.LatestFor(ctx, dbTx, ref)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("find latest transaction: %w", err))
		}
		if latest != nil && *latest == *txn.PreviousTransactionID {
			return nil
		}
	}

	rejection.Add(apperror.ErrInvalidChain())
	return nil
}

// GetTransaction fetches a committed transaction with its entries.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// ListFor lists an endpoint's transaction chain, newest first.
func (s *LedgerServiceImpl) ListFor(ctx context.Context, ref domain.EntityRef, page, pageSize int) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txRepo.ListFor(ctx, ref, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// Balance returns a member's holdings in one currency: the live sum of their
// liability and equity event amounts, never a cached counter.
func (s *LedgerServiceImpl) Balance(ctx context.Context, memberID uuid.UUID, currencyCode string) (decimal.Decimal, error) {
	currency, err := s.registry.GetByCode(ctx, currencyCode)
	if err != nil {
		return decimal.Zero, err
	}
	units, err := s.txRepo.MemberBalance(ctx, memberID, currency.ID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("member balance: %w", err))
	}
	return fixedpoint.ToDecimal(units, currency.Subdivision), nil
}

// SystemTotalValue expresses the system's pooled assets across all currencies
// in the reference unit.
func (s *LedgerServiceImpl) SystemTotalValue(ctx context.Context) (decimal.Decimal, error) {
	currencies, err := s.currencyRepo.List(ctx, ports.CurrencyFilter{})
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("list currencies: %w", err))
	}

	total := decimal.Zero
	for i := range currencies {
		currency := &currencies[i]
		agg, err := s.currencyRepo.Aggregates(ctx, currency.ID)
		if err != nil {
			return decimal.Zero, apperror.InternalError(fmt.Errorf("aggregates for %s: %w", currency.Code, err))
		}
		if agg.Assets == 0 {
			continue
		}
		rate, err := s.registry.Rate(ctx, currency)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(fixedpoint.ToDecimal(agg.Assets, currency.Subdivision).Mul(rate))
	}
	return fixedpoint.Round(total, domain.ReferenceSubdivision), nil
}
