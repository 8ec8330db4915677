package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MemberRepo implements ports.MemberRepository.
type MemberRepo struct {
	pool Pool
}

// NewMemberRepo creates a new MemberRepo.
func NewMemberRepo(pool Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

// Create inserts a new member into the database.
func (r *MemberRepo) Create(ctx context.Context, m *domain.Member) error {
	query := `INSERT INTO members (id, username, slug, email, phone_number, country_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Username, m.Slug, m.Email, m.PhoneNumber, m.CountryCode, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetByID fetches a member by UUID.
func (r *MemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT id, username, slug, email, phone_number, country_code, created_at
		FROM members WHERE id = $1`

	return r.scanMember(r.pool.QueryRow(ctx, query, id))
}

// GetByUsername fetches a member by username.
func (r *MemberRepo) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	query := `SELECT id, username, slug, email, phone_number, country_code, created_at
		FROM members WHERE username = $1`

	return r.scanMember(r.pool.QueryRow(ctx, query, username))
}

// List fetches members with pagination, newest first.
func (r *MemberRepo) List(ctx context.Context, page, pageSize int) ([]domain.Member, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, username, slug, email, phone_number, country_code, created_at
		FROM members ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m := domain.Member{}
		if err := rows.Scan(&m.ID, &m.Username, &m.Slug, &m.Email, &m.PhoneNumber, &m.CountryCode, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate member rows: %w", err)
	}
	return members, total, nil
}

// scanMember is a helper to scan a single row into a Member.
func (r *MemberRepo) scanMember(row pgx.Row) (*domain.Member, error) {
	m := &domain.Member{}
	err := row.Scan(&m.ID, &m.Username, &m.Slug, &m.Email, &m.PhoneNumber, &m.CountryCode, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	return m, nil
}
