package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TravelmateGo/internal/domain"
	"github.com/utafrali/TravelmateGo/pkg/database"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
)

// MemberRepository implements repository.MemberRepository using PostgreSQL.
type MemberRepository struct {
	db database.DBTX
}

// NewMemberRepository creates a new PostgreSQL-backed member repository.
func NewMemberRepository(db database.DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a new member and assigns their number from the sequence.
func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_number`

	err := r.db.QueryRow(ctx, query,
		m.Email,
		m.PasswordHash,
		m.Name,
		m.Role,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&m.UserNumber)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("member", "email", m.Email)
		}
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

// GetByNumber retrieves a member by their number.
func (r *MemberRepository) GetByNumber(ctx context.Context, userNumber int) (*domain.Member, error) {
	query := `
		SELECT user_number, email, password_hash, name, role, is_active, created_at, updated_at, last_login_at
		FROM members
		WHERE user_number = $1`

	return r.scanMember(ctx, query, userNumber)
}

// GetByEmail retrieves a member by their email address.
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `
		SELECT user_number, email, password_hash, name, role, is_active, created_at, updated_at, last_login_at
		FROM members
		WHERE email = $1`

	return r.scanMember(ctx, query, email)
}

// Update modifies an existing member.
func (r *MemberRepository) Update(ctx context.Context, m *domain.Member) error {
	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE members
		SET email = $1, password_hash = $2, name = $3, role = $4, is_active = $5, updated_at = $6
		WHERE user_number = $7`

	ct, err := r.db.Exec(ctx, query,
		m.Email,
		m.PasswordHash,
		m.Name,
		m.Role,
		m.IsActive,
		m.UpdatedAt,
		m.UserNumber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("member", "email", m.Email)
		}
		return fmt.Errorf("update member: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("member", fmt.Sprintf("%d", m.UserNumber))
	}

	return nil
}

// RecordLogin stamps the member's last successful login time.
func (r *MemberRepository) RecordLogin(ctx context.Context, userNumber int, at time.Time) error {
	query := `UPDATE members SET last_login_at = $1 WHERE user_number = $2`

	ct, err := r.db.Exec(ctx, query, at, userNumber)
	if err != nil {
		return fmt.Errorf("record member login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("member", fmt.Sprintf("%d", userNumber))
	}

	return nil
}

// scanMember is a helper that executes a query expected to return a single member row.
func (r *MemberRepository) scanMember(ctx context.Context, query string, args ...any) (*domain.Member, error) {
	var m domain.Member

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&m.UserNumber,
		&m.Email,
		&m.PasswordHash,
		&m.Name,
		&m.Role,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}

	return &m, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
