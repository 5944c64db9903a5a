package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const insertUserQuery = `
	INSERT INTO users (email, password_hash, role, status)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at`

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.Email == "" || user.PasswordHash == "" {
		return pkgerrors.ErrInvalidInput
	}
	err := r.db.QueryRowContext(ctx, insertUserQuery, user.Email, user.PasswordHash, user.Role, user.Status).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateWithWallet keeps registration atomic: a user row never exists
// without its wallet row.
func (r *PostgresUserRepository) CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Wallet) error {
	if user == nil || user.Email == "" || user.PasswordHash == "" || wallet == nil {
		return pkgerrors.ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, insertUserQuery, user.Email, user.PasswordHash, user.Role, user.Status).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	wallet.UserID = user.ID
	if err := insertWallet(ctx, tx, wallet); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, status, country, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, pkgerrors.ErrInvalidInput
	}
	query := `SELECT id, email, password_hash, role, status, country, created_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.Status, &user.Country, &user.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	query := `SELECT id, email, password_hash, role, status, country, created_at FROM users WHERE role = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.Country, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepository) SetStatus(ctx context.Context, id int64, status models.UserStatus, country string) error {
	query := `UPDATE users SET status = $1, country = NULLIF($2, '') WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, country, id)
	if err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrUserNotFound
	}
	return nil
}
