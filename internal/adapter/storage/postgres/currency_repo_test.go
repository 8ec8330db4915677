package postgres

import (
	"context"
	"testing"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCurrency(code string, crypto bool, subdivision int32) *domain.Currency {
	return &domain.Currency{
		ID:          uuid.New(),
		Code:        code,
		Name:        code,
		Slug:        domain.Slugify(code),
		Crypto:      crypto,
		Subdivision: subdivision,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func currencyColumns() []string {
	return []string{"id", "code", "name", "slug", "crypto", "subdivision", "created_at"}
}

func currencyRow(c *domain.Currency) *pgxmock.Rows {
	return pgxmock.NewRows(currencyColumns()).AddRow(
		c.ID, c.Code, c.Name, c.Slug, c.Crypto, c.Subdivision, c.CreatedAt,
	)
}

func TestCurrencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	c := newTestCurrency("BTC", true, 8)

	mock.ExpectExec("INSERT INTO currencies").
		WithArgs(c.ID, c.Code, c.Name, c.Slug, c.Crypto, c.Subdivision, c.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), c)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_GetByCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	c := newTestCurrency("USD", false, 2)

	mock.ExpectQuery("SELECT .+ FROM currencies WHERE code").
		WithArgs("USD").
		WillReturnRows(currencyRow(c))

	result, err := repo.GetByCode(context.Background(), "USD")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, c.ID, result.ID)
	assert.Equal(t, int32(2), result.Subdivision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_GetByCode_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM currencies WHERE code").
		WithArgs("NOPE").
		WillReturnRows(pgxmock.NewRows(currencyColumns()))

	result, err := repo.GetByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_List_CryptoOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	btc := newTestCurrency("BTC", true, 8)
	eth := newTestCurrency("ETH", true, 8)

	crypto := true
	mock.ExpectQuery("SELECT .+ FROM currencies WHERE crypto").
		WithArgs(true).
		WillReturnRows(currencyRow(btc).AddRow(
			eth.ID, eth.Code, eth.Name, eth.Slug, eth.Crypto, eth.Subdivision, eth.CreatedAt,
		))

	result, err := repo.List(context.Background(), ports.CurrencyFilter{Crypto: &crypto})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "BTC", result[0].Code)
	assert.Equal(t, "ETH", result[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_Aggregates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	currencyID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM events WHERE currency_id").
		WithArgs(currencyID).
		WillReturnRows(pgxmock.NewRows([]string{"assets", "liability", "equity"}).
			AddRow(int64(250000000), int64(200000000), int64(50000000)))

	agg, err := repo.Aggregates(context.Background(), currencyID)
	require.NoError(t, err)
	assert.Equal(t, int64(250000000), agg.Assets)
	assert.Equal(t, int64(200000000), agg.Liability)
	assert.Equal(t, int64(50000000), agg.Equity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_HasReferences(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	currencyID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(currencyID).
		WillReturnRows(pgxmock.NewRows([]string{"referenced"}).AddRow(true))

	referenced, err := repo.HasReferences(context.Background(), currencyID)
	require.NoError(t, err)
	assert.True(t, referenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	currencyID := uuid.New()

	mock.ExpectExec("DELETE FROM currencies").
		WithArgs(currencyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = repo.Delete(context.Background(), currencyID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrencyRepo_Delete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCurrencyRepo(mock)
	currencyID := uuid.New()

	mock.ExpectExec("DELETE FROM currencies").
		WithArgs(currencyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = repo.Delete(context.Background(), currencyID)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
