package postgres

import (
	"context"
	"testing"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMember() *domain.Member {
	return &domain.Member{
		ID:          uuid.New(),
		Username:    "satoshi",
		Slug:        "satoshi",
		Email:       "satoshi@example.com",
		PhoneNumber: "5551234",
		CountryCode: "1",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func memberColumns() []string {
	return []string{"id", "username", "slug", "email", "phone_number", "country_code", "created_at"}
}

func memberRow(m *domain.Member) *pgxmock.Rows {
	return pgxmock.NewRows(memberColumns()).AddRow(
		m.ID, m.Username, m.Slug, m.Email, m.PhoneNumber, m.CountryCode, m.CreatedAt,
	)
}

func TestMemberRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMemberRepo(mock)
	m := newTestMember()

	mock.ExpectExec("INSERT INTO members").
		WithArgs(m.ID, m.Username, m.Slug, m.Email, m.PhoneNumber, m.CountryCode, m.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), m)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepo_GetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMemberRepo(mock)
	m := newTestMember()

	mock.ExpectQuery("SELECT .+ FROM members WHERE username").
		WithArgs("satoshi").
		WillReturnRows(memberRow(m))

	result, err := repo.GetByUsername(context.Background(), "satoshi")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, m.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepo_GetByUsername_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMemberRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM members WHERE username").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(memberColumns()))

	result, err := repo.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMemberRepo(mock)
	m := newTestMember()

	mock.ExpectQuery("SELECT COUNT.+ FROM members").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM members ORDER BY").
		WithArgs(20, 0).
		WillReturnRows(memberRow(m))

	members, total, err := repo.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, members, 1)
	assert.Equal(t, "satoshi", members[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
