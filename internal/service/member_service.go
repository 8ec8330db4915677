package service

import (
	"context"
	"fmt"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MemberServiceImpl implements ports.MemberService.
type MemberServiceImpl struct {
	memberRepo ports.MemberRepository
	log        zerolog.Logger
}

// NewMemberService creates a new MemberServiceImpl.
func NewMemberService(memberRepo ports.MemberRepository, log zerolog.Logger) *MemberServiceImpl {
	return &MemberServiceImpl{memberRepo: memberRepo, log: log}
}

// Create registers a member. Username and slug are unique; the slug is derived
// from the username and immutable.
func (s *MemberServiceImpl) Create(ctx context.Context, req ports.CreateMemberRequest) (*domain.Member, error) {
	if !domain.ValidUsername(req.Username) {
		return nil, apperror.Validation(fmt.Sprintf("username %q may only contain letters, digits, '.' and '_'", req.Username))
	}

	existing, err := s.memberRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username uniqueness: %w", err))
	}
	if existing != nil {
		return nil, apperror.Validation(fmt.Sprintf("username %q already taken", req.Username))
	}

	member := &domain.Member{
		ID:          uuid.New(),
		Username:    req.Username,
		Slug:        domain.Slugify(req.Username),
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		CountryCode: req.CountryCode,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create member: %w", err))
	}

	s.log.Info().Str("username", member.Username).Msg("member created")
	return member, nil
}

// GetByUsername fetches a member by username.
func (s *MemberServiceImpl) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	member, err := s.memberRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get member: %w", err))
	}
	if member == nil {
		return nil, apperror.ErrNotFound("member")
	}
	return member, nil
}

// List returns members with pagination.
func (s *MemberServiceImpl) List(ctx context.Context, page, pageSize int) ([]domain.Member, int64, error) {
	members, total, err := s.memberRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list members: %w", err))
	}
	return members, total, nil
}
