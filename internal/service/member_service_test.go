package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/core/ports/mocks"
	"custodial-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMemberService_Create_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMemberRepository(ctrl)
	svc := NewMemberService(mockRepo, zerolog.Nop())

	mockRepo.EXPECT().GetByUsername(gomock.Any(), "alice.trader").Return(nil, nil)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m *domain.Member) error {
			assert.Equal(t, "alice.trader", m.Username)
			assert.Equal(t, "alice-trader", m.Slug)
			assert.NotEqual(t, uuid.Nil, m.ID)
			return nil
		})

	member, err := svc.Create(context.Background(), ports.CreateMemberRequest{
		Username:    "alice.trader",
		Email:       "alice@example.com",
		PhoneNumber: "5551234567",
		CountryCode: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-trader", member.Slug)
	assert.Equal(t, "+15551234567", member.FullPhoneNumber())
}

func TestMemberService_Create_InvalidUsername(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMemberRepository(ctrl)
	svc := NewMemberService(mockRepo, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateMemberRequest{Username: "has space"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_004", appErr.Code)
}

func TestMemberService_Create_DuplicateUsername(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMemberRepository(ctrl)
	svc := NewMemberService(mockRepo, zerolog.Nop())

	mockRepo.EXPECT().GetByUsername(gomock.Any(), "alice").Return(&domain.Member{
		ID:       uuid.New(),
		Username: "alice",
	}, nil)

	_, err := svc.Create(context.Background(), ports.CreateMemberRequest{Username: "alice"})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_004", appErr.Code)
}

func TestMemberService_GetByUsername_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMemberRepository(ctrl)
	svc := NewMemberService(mockRepo, zerolog.Nop())

	mockRepo.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, nil)

	_, err := svc.GetByUsername(context.Background(), "ghost")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_007", appErr.Code)
}

func TestMemberService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMemberRepository(ctrl)
	svc := NewMemberService(mockRepo, zerolog.Nop())

	expected := []domain.Member{
		{ID: uuid.New(), Username: "bob", CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Username: "alice", CreatedAt: time.Now().UTC()},
	}
	mockRepo.EXPECT().List(gomock.Any(), 1, 20).Return(expected, int64(2), nil)

	members, total, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, expected, members)
}

func TestMemberService_List_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMemberRepository(ctrl)
	svc := NewMemberService(mockRepo, zerolog.Nop())

	mockRepo.EXPECT().List(gomock.Any(), 1, 20).Return(nil, int64(0), errors.New("connection reset"))

	_, _, err := svc.List(context.Background(), 1, 20)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_001", appErr.Code)
}
