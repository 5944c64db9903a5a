package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresRechargeRepository struct {
	db *sql.DB
}

func NewPostgresRechargeRepository(db *sql.DB) *PostgresRechargeRepository {
	return &PostgresRechargeRepository{db: db}
}

func (r *PostgresRechargeRepository) Create(ctx context.Context, recharge *models.Recharge) error {
	if recharge == nil || !recharge.Amount.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}
	recharge.ID = uuid.New()
	recharge.Status = models.RechargePending
	query := `
		INSERT INTO recharges (id, wallet_id, amount, payment_method, external_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		recharge.ID, recharge.WalletID, recharge.Amount, recharge.PaymentMethod, recharge.ExternalRef, recharge.Status,
	).Scan(&recharge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recharge: %w", err)
	}
	return nil
}

const selectRechargeQuery = `
	SELECT id, wallet_id, amount, payment_method, external_ref, status, created_at, processed_at
	FROM recharges`

func (r *PostgresRechargeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recharge, error) {
	return r.scanRecharge(r.db.QueryRowContext(ctx, selectRechargeQuery+` WHERE id = $1`, id))
}

func (r *PostgresRechargeRepository) GetByExternalRef(ctx context.Context, ref string) (*models.Recharge, error) {
	return r.scanRecharge(r.db.QueryRowContext(ctx, selectRechargeQuery+` WHERE external_ref = $1`, ref))
}

func (r *PostgresRechargeRepository) scanRecharge(row *sql.Row) (*models.Recharge, error) {
	var rec models.Recharge
	err := row.Scan(&rec.ID, &rec.WalletID, &rec.Amount, &rec.PaymentMethod, &rec.ExternalRef, &rec.Status, &rec.CreatedAt, &rec.ProcessedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrRechargeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recharge: %w", err)
	}
	return &rec, nil
}

// Complete flips the recharge pending -> completed and credits the wallet in
// the same transaction. The status CAS runs first so a recharge can never be
// credited twice.
func (r *PostgresRechargeRepository) Complete(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var walletID int64
	var amount decimal.Decimal
	query := `
		UPDATE recharges
		SET status = 'completed', processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING wallet_id, amount`
	err = tx.QueryRowContext(ctx, query, id).Scan(&walletID, &amount)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyTransition(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete recharge: %w", err)
	}

	ledger, err := applyLedgerEntry(ctx, tx, repository.LedgerEntry{
		WalletID:          walletID,
		Amount:            amount,
		Type:              models.EntryCredit,
		RelatedEntityType: "recharge",
		RelatedEntityID:   id.String(),
		Description:       "recharge completed",
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recharge completion: %w", err)
	}

	slog.Info("recharge completed", "recharge_id", id, "wallet_id", walletID, "amount", ledger.Amount.String())
	return ledger, nil
}

func (r *PostgresRechargeRepository) Fail(ctx context.Context, id uuid.UUID, status models.RechargeStatus) error {
	if status != models.RechargeFailed && status != models.RechargeCancelled {
		return pkgerrors.ErrInvalidStatusTransition
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recharges SET status = $1, processed_at = NOW() WHERE id = $2 AND status = 'pending'`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to fail recharge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return r.classifyTransition(ctx, id)
	}
	return nil
}

func (r *PostgresRechargeRepository) classifyTransition(ctx context.Context, id uuid.UUID) error {
	var status models.RechargeStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM recharges WHERE id = $1`, id).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrRechargeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect recharge %s: %w", id, err)
	}
	return pkgerrors.ErrInvalidStatusTransition
}
