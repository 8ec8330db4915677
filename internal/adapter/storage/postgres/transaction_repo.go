package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"custodial-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// LockLineages takes an advisory lock on each endpoint's transaction chain for
// the duration of the enclosing database transaction. Keys are locked in
// sorted order so two commits touching the same endpoints cannot deadlock.
func (r *TransactionRepo) LockLineages(ctx context.Context, tx pgx.Tx, refs []domain.EntityRef) error {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ref.Key())
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock lineage %s: %w", key, err)
		}
	}
	return nil
}

// LatestFor returns the id of the most recent committed transaction whose
// source or destination is ref, or nil for an empty lineage. Must run inside
// the same database transaction that holds the lineage lock.
func (r *TransactionRepo) LatestFor(ctx context.Context, tx pgx.Tx, ref domain.EntityRef) (*uuid.UUID, error) {
	query := `SELECT id FROM transactions
		WHERE (source_kind = $1 AND source_id = $2)
		   OR (destination_kind = $1 AND destination_id = $2)
		ORDER BY created_at DESC, id DESC LIMIT 1`

	var id uuid.UUID
	err := tx.QueryRow(ctx, query, ref.Kind, ref.ID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest transaction for %s: %w", ref.Key(), err)
	}
	return &id, nil
}

// Commit writes the transaction and all its entries inside the caller's
// database transaction. Committed rows are never updated afterwards.
func (r *TransactionRepo) Commit(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	txnQuery := `INSERT INTO transactions (id, type, source_kind, source_id, destination_kind, destination_id,
		source_currency_id, destination_currency_id, initiated_by, authorized_by, previous_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, txnQuery,
		t.ID, t.Type, t.Source.Kind, t.Source.ID, t.Destination.Kind, t.Destination.ID,
		t.SourceCurrencyID, t.DestinationCurrencyID, t.InitiatedBy, t.AuthorizedBy,
		t.PreviousTransactionID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	eventQuery := `INSERT INTO events (id, transaction_id, class, currency_id, amount, rate, member_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i := range t.Entries {
		e := &t.Entries[i]
		_, err := tx.Exec(ctx, eventQuery,
			e.ID, e.TransactionID, e.Class, e.CurrencyID, e.Amount, e.Rate, e.MemberID, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

// GetByID fetches a transaction with its entries.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, type, source_kind, source_id, destination_kind, destination_id,
		source_currency_id, destination_currency_id, initiated_by, authorized_by, previous_transaction_id, created_at
		FROM transactions WHERE id = $1`

	t, err := r.scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil || t == nil {
		return t, err
	}

	entries, err := r.loadEntries(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	t.Entries = entries[t.ID]
	return t, nil
}

// ListFor fetches an endpoint's transaction chain with pagination, newest
// first, entries included.
func (r *TransactionRepo) ListFor(ctx context.Context, ref domain.EntityRef, page, pageSize int) ([]domain.Transaction, int64, error) {
	where := `WHERE (source_kind = $1 AND source_id = $2) OR (destination_kind = $1 AND destination_id = $2)`

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, ref.Kind, ref.ID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, type, source_kind, source_id, destination_kind, destination_id,
		source_currency_id, destination_currency_id, initiated_by, authorized_by, previous_transaction_id, created_at
		FROM transactions ` + where + ` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, ref.Kind, ref.ID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	var ids []uuid.UUID
	for rows.Next() {
		t := domain.Transaction{}
		if err := scanTransactionFields(rows, &t); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}

	if len(ids) > 0 {
		entries, err := r.loadEntries(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range txns {
			txns[i].Entries = entries[txns[i].ID]
		}
	}
	return txns, total, nil
}

// MemberBalance sums the member's liability and equity entry amounts for one
// currency, in native fixed-point units. Always computed from the entries, so
// it cannot drift from the transaction history.
func (r *TransactionRepo) MemberBalance(ctx context.Context, memberID, currencyID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM events
		WHERE member_id = $1 AND currency_id = $2 AND class IN ('LIABILITY', 'EQUITY')`

	var balance int64
	if err := r.pool.QueryRow(ctx, query, memberID, currencyID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("member balance: %w", err)
	}
	return balance, nil
}

// loadEntries fetches the entries for a set of transactions, keyed by
// transaction id, in insertion order.
func (r *TransactionRepo) loadEntries(ctx context.Context, txnIDs []uuid.UUID) (map[uuid.UUID][]domain.Event, error) {
	query := `SELECT id, transaction_id, class, currency_id, amount, rate, member_id, created_at
		FROM events WHERE transaction_id = ANY($1) ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, txnIDs)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[uuid.UUID][]domain.Event)
	for rows.Next() {
		e := domain.Event{}
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.Class, &e.CurrencyID, &e.Amount, &e.Rate, &e.MemberID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		entries[e.TransactionID] = append(entries[e.TransactionID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return entries, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	if err := scanTransactionFields(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func scanTransactionFields(row pgx.Row, t *domain.Transaction) error {
	return row.Scan(
		&t.ID, &t.Type, &t.Source.Kind, &t.Source.ID, &t.Destination.Kind, &t.Destination.ID,
		&t.SourceCurrencyID, &t.DestinationCurrencyID, &t.InitiatedBy, &t.AuthorizedBy,
		&t.PreviousTransactionID, &t.CreatedAt,
	)
}
