package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Approve(ctx context.Context, username, approverID string) (*domain.User, error)
	ListByStatus(ctx context.Context, status domain.UserStatus, limit int) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, role, status, approved_at, approved_by, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash, role, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// Approve moves a PENDING user to APPROVED. Already approved users are returned
// unchanged; an unknown username yields pgx.ErrNoRows.
func (r *userRepository) Approve(ctx context.Context, username, approverID string) (*domain.User, error) {
	query := `
        UPDATE users
        SET status = CASE WHEN status = 'PENDING' THEN 'APPROVED' ELSE status END,
            approved_at = COALESCE(approved_at, NOW()),
            approved_by = COALESCE(approved_by, $2),
            updated_at = NOW()
        WHERE username=$1
        RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query, username, approverID))
}

func (r *userRepository) ListByStatus(ctx context.Context, status domain.UserStatus, limit int) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE status=$1 ORDER BY created_at LIMIT $2`

	rows, err := r.db.Query(ctx, query, status, clampLimit(limit, MaxListLimit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.ApprovedAt,
		&user.ApprovedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
