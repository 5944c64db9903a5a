package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresTransferRepository struct {
	db *sql.DB
}

func NewPostgresTransferRepository(db *sql.DB) *PostgresTransferRepository {
	return &PostgresTransferRepository{db: db}
}

func (r *PostgresTransferRepository) CreateEntry(ctx context.Context, entry *models.FundEntry) error {
	if entry == nil || !entry.Amount.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}
	entry.Status = models.FundEntryPending
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO fund_entries (validator_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		entry.ValidatorID, entry.Amount, entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fund entry: %w", err)
	}
	return nil
}

func (r *PostgresTransferRepository) ListPendingByValidator(ctx context.Context, validatorID int64) ([]models.FundEntry, error) {
	query := `SELECT id, validator_id, amount, status, transfer_id, created_at FROM fund_entries WHERE validator_id = $1 AND status = 'pending' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, validatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending fund entries: %w", err)
	}
	defer rows.Close()

	var out []models.FundEntry
	for rows.Next() {
		var e models.FundEntry
		if err := rows.Scan(&e.ID, &e.ValidatorID, &e.Amount, &e.Status, &e.TransferID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fund entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Submit groups the validator's pending fund entries into a new transfer.
// Entries that are not pending (or belong to someone else) are simply not
// picked up; submitting with nothing eligible fails.
func (r *PostgresTransferRepository) Submit(ctx context.Context, validatorID int64, entryIDs []int64) (*models.ValidatorTransfer, error) {
	if len(entryIDs) == 0 {
		return nil, pkgerrors.ErrNoFundEntries
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	transfer := &models.ValidatorTransfer{
		ID:          uuid.New(),
		ValidatorID: validatorID,
		Status:      models.TransferPending,
	}

	rows, err := tx.QueryContext(ctx, `
		UPDATE fund_entries
		SET status = 'in_transfer', transfer_id = $1
		WHERE id = ANY($2) AND validator_id = $3 AND status = 'pending'
		RETURNING amount`,
		transfer.ID, pq.Array(entryIDs), validatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to attach fund entries: %w", err)
	}
	var total decimal.Decimal
	var attached int
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan fund entry amount: %w", err)
		}
		total = total.Add(amount)
		attached++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to attach fund entries: %w", err)
	}
	rows.Close()
	if attached == 0 {
		return nil, pkgerrors.ErrNoFundEntries
	}
	transfer.Total = total

	err = tx.QueryRowContext(ctx, `
		INSERT INTO validator_transfers (id, validator_id, total, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		transfer.ID, transfer.ValidatorID, transfer.Total, transfer.Status,
	).Scan(&transfer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create validator transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer submission: %w", err)
	}

	slog.Info("validator transfer submitted", "transfer_id", transfer.ID, "validator_id", validatorID, "total", total.String())
	return transfer, nil
}

func (r *PostgresTransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ValidatorTransfer, error) {
	var t models.ValidatorTransfer
	query := `SELECT id, validator_id, total, status, reviewed_by, reviewed_at, created_at FROM validator_transfers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.ValidatorID, &t.Total, &t.Status, &t.ReviewedBy, &t.ReviewedAt, &t.CreatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrTransferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validator transfer: %w", err)
	}
	return &t, nil
}

func (r *PostgresTransferRepository) ListEntries(ctx context.Context, transferID uuid.UUID) ([]models.FundEntry, error) {
	query := `SELECT id, validator_id, amount, status, transfer_id, created_at FROM fund_entries WHERE transfer_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fund entries: %w", err)
	}
	defer rows.Close()

	var out []models.FundEntry
	for rows.Next() {
		var e models.FundEntry
		if err := rows.Scan(&e.ID, &e.ValidatorID, &e.Amount, &e.Status, &e.TransferID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fund entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Reject resets every attached fund entry back to pending and detaches it,
// in the same transaction as the status flip, so no entry can be left
// pointing at a rejected transfer.
func (r *PostgresTransferRepository) Reject(ctx context.Context, id uuid.UUID, reviewedBy int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE validator_transfers
		SET status = 'rejected', reviewed_by = $1, reviewed_at = NOW()
		WHERE id = $2 AND status = 'pending'`,
		reviewedBy, id)
	if err != nil {
		return fmt.Errorf("failed to reject transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return r.classifyTransfer(ctx, id)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE fund_entries
		SET status = 'pending', transfer_id = NULL
		WHERE transfer_id = $1`,
		id); err != nil {
		return fmt.Errorf("failed to release fund entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer rejection: %w", err)
	}

	slog.Info("validator transfer rejected", "transfer_id", id, "reviewed_by", reviewedBy)
	return nil
}

// Approve settles the attached entries and credits the admin wallet with the
// transfer total.
func (r *PostgresTransferRepository) Approve(ctx context.Context, id uuid.UUID, reviewedBy int64, adminWalletID int64) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		UPDATE validator_transfers
		SET status = 'approved', reviewed_by = $1, reviewed_at = NOW()
		WHERE id = $2 AND status = 'pending'
		RETURNING total`,
		reviewedBy, id).Scan(&total)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyTransfer(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve transfer: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE fund_entries
		SET status = 'settled'
		WHERE transfer_id = $1`,
		id); err != nil {
		return nil, fmt.Errorf("failed to settle fund entries: %w", err)
	}

	ledger, err := applyLedgerEntry(ctx, tx, repository.LedgerEntry{
		WalletID:          adminWalletID,
		Amount:            total,
		Type:              models.EntryCredit,
		RelatedEntityType: "validator_transfer",
		RelatedEntityID:   id.String(),
		Description:       "validator transfer settled",
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer approval: %w", err)
	}

	slog.Info("validator transfer approved", "transfer_id", id, "total", total.String(), "reviewed_by", reviewedBy)
	return ledger, nil
}

func (r *PostgresTransferRepository) classifyTransfer(ctx context.Context, id uuid.UUID) error {
	var status models.TransferStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM validator_transfers WHERE id = $1`, id).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrTransferNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect transfer %s: %w", id, err)
	}
	return pkgerrors.ErrInvalidStatusTransition
}
