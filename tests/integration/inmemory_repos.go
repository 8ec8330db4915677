package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memTx stands in for a pgx transaction. Lineage locks taken through
// LockLineages are attached to it and released exactly once, on Commit or
// Rollback, mirroring the lifetime of a postgres advisory xact lock.
type memTx struct {
	pgx.Tx
	mu      sync.Mutex
	release []func()
}

func (t *memTx) addRelease(f func()) {
	t.mu.Lock()
	t.release = append(t.release, f)
	t.mu.Unlock()
}

func (t *memTx) done() {
	t.mu.Lock()
	release := t.release
	t.release = nil
	t.mu.Unlock()
	for i := len(release) - 1; i >= 0; i-- {
		release[i]()
	}
}

func (t *memTx) Commit(ctx context.Context) error {
	t.done()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done()
	return nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu    sync.RWMutex
	txns  map[uuid.UUID]*domain.Transaction
	order []uuid.UUID // commit sequence, oldest first

	lineageMu sync.Mutex
	lineages  map[string]*sync.Mutex
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		txns:     make(map[uuid.UUID]*domain.Transaction),
		lineages: make(map[string]*sync.Mutex),
	}
}

func (r *inMemoryTransactionRepo) lineageLock(key string) *sync.Mutex {
	r.lineageMu.Lock()
	defer r.lineageMu.Unlock()
	l, ok := r.lineages[key]
	if !ok {
		l = &sync.Mutex{}
		r.lineages[key] = l
	}
	return l
}

// LockLineages acquires a per-lineage mutex for each endpoint, in sorted key
// order like the advisory-lock implementation, and parks the releases on the
// enclosing transaction.
func (r *inMemoryTransactionRepo) LockLineages(ctx context.Context, tx pgx.Tx, refs []domain.EntityRef) error {
	mtx, ok := tx.(*memTx)
	if !ok {
		return fmt.Errorf("expected *memTx, got %T", tx)
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = ref.Key()
	}
	sort.Strings(keys)

	for _, key := range keys {
		l := r.lineageLock(key)
		l.Lock()
		mtx.addRelease(l.Unlock)
	}
	return nil
}

func (r *inMemoryTransactionRepo) LatestFor(ctx context.Context, tx pgx.Tx, ref domain.EntityRef) (*uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		t := r.txns[r.order[i]]
		if t.Source == ref || t.Destination == ref {
			id := t.ID
			return &id, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) Commit(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	stored.Entries = make([]domain.Event, len(t.Entries))
	copy(stored.Entries, t.Entries)
	for i := range stored.Entries {
		stored.Entries[i].TransactionID = stored.ID
	}
	r.txns[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (r *inMemoryTransactionRepo) ListFor(ctx context.Context, ref domain.EntityRef, page, pageSize int) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []domain.Transaction
	for i := len(r.order) - 1; i >= 0; i-- { // newest first
		t := r.txns[r.order[i]]
		if t.Source == ref || t.Destination == ref {
			matches = append(matches, *t)
		}
	}

	total := int64(len(matches))
	start := (page - 1) * pageSize
	if start >= len(matches) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

func (r *inMemoryTransactionRepo) MemberBalance(ctx context.Context, memberID, currencyID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, t := range r.txns {
		for _, e := range t.Entries {
			if e.MemberID == nil || *e.MemberID != memberID || e.CurrencyID != currencyID {
				continue
			}
			if e.Class == domain.EventClassLiability || e.Class == domain.EventClassEquity {
				sum += e.Amount
			}
		}
	}
	return sum, nil
}

// events returns every committed entry, for aggregate queries.
func (r *inMemoryTransactionRepo) events() []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Event
	for _, t := range r.txns {
		out = append(out, t.Entries...)
	}
	return out
}

// references reports whether any transaction or entry touches the currency.
func (r *inMemoryTransactionRepo) references(currencyID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.txns {
		if t.SourceCurrencyID == currencyID || t.DestinationCurrencyID == currencyID {
			return true
		}
		for _, e := range t.Entries {
			if e.CurrencyID == currencyID {
				return true
			}
		}
	}
	return false
}

// --- In-Memory Currency Repo ---

type inMemoryCurrencyRepo struct {
	mu         sync.RWMutex
	currencies map[uuid.UUID]*domain.Currency
	order      []uuid.UUID
	txns       *inMemoryTransactionRepo
}

func newInMemoryCurrencyRepo(txns *inMemoryTransactionRepo) *inMemoryCurrencyRepo {
	return &inMemoryCurrencyRepo{
		currencies: make(map[uuid.UUID]*domain.Currency),
		txns:       txns,
	}
}

func (r *inMemoryCurrencyRepo) Create(ctx context.Context, currency *domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.currencies {
		if existing.Code == currency.Code {
			return fmt.Errorf("currency code already exists")
		}
	}
	c := *currency
	r.currencies[c.ID] = &c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *inMemoryCurrencyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.currencies[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *inMemoryCurrencyRepo) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.currencies {
		if c.Code == code {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCurrencyRepo) List(ctx context.Context, filter ports.CurrencyFilter) ([]domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Currency
	for _, id := range r.order {
		c := r.currencies[id]
		if filter.Crypto != nil && c.Crypto != *filter.Crypto {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *inMemoryCurrencyRepo) Aggregates(ctx context.Context, currencyID uuid.UUID) (*ports.CurrencyAggregates, error) {
	agg := &ports.CurrencyAggregates{}
	for _, e := range r.txns.events() {
		if e.CurrencyID != currencyID {
			continue
		}
		switch e.Class {
		case domain.EventClassAsset:
			agg.Assets += e.Amount
		case domain.EventClassLiability:
			agg.Liability += e.Amount
		case domain.EventClassEquity:
			agg.Equity += e.Amount
		}
	}
	return agg, nil
}

func (r *inMemoryCurrencyRepo) HasReferences(ctx context.Context, currencyID uuid.UUID) (bool, error) {
	return r.txns.references(currencyID), nil
}

func (r *inMemoryCurrencyRepo) Delete(ctx context.Context, currencyID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.currencies[currencyID]; !ok {
		return fmt.Errorf("currency not found: %s", currencyID)
	}
	delete(r.currencies, currencyID)
	for i, id := range r.order {
		if id == currencyID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// --- In-Memory Member Repo ---

type inMemoryMemberRepo struct {
	mu      sync.RWMutex
	members map[uuid.UUID]*domain.Member
	order   []uuid.UUID
}

func newInMemoryMemberRepo() *inMemoryMemberRepo {
	return &inMemoryMemberRepo{members: make(map[uuid.UUID]*domain.Member)}
}

func (r *inMemoryMemberRepo) Create(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.Username == member.Username {
			return fmt.Errorf("username already exists")
		}
	}
	m := *member
	r.members[m.ID] = &m
	r.order = append(r.order, m.ID)
	return nil
}

func (r *inMemoryMemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (r *inMemoryMemberRepo) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.Username == username {
			out := *m
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMemberRepo) List(ctx context.Context, page, pageSize int) ([]domain.Member, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := int64(len(r.order))
	var out []domain.Member
	for i := len(r.order) - 1; i >= 0; i-- { // newest first
		out = append(out, *r.members[r.order[i]])
	}
	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}
