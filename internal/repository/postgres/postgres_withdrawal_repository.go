package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keymarket/ledger-service/internal/infrastructure/observability"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresWithdrawalRepository struct {
	db *sql.DB
}

func NewPostgresWithdrawalRepository(db *sql.DB) *PostgresWithdrawalRepository {
	return &PostgresWithdrawalRepository{db: db}
}

func (r *PostgresWithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	if req == nil || !req.Amount.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}
	req.ID = uuid.New()
	req.Status = models.WithdrawalPending
	query := `
		INSERT INTO withdrawal_requests (id, wallet_id, amount, payment_method, payment_details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		req.ID, req.WalletID, req.Amount, req.PaymentMethod, req.PaymentDetails, req.Status,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

const selectWithdrawalQuery = `
	SELECT id, wallet_id, amount, payment_method, payment_details, status, processed_by, processed_at, rejection_reason, created_at
	FROM withdrawal_requests`

func (r *PostgresWithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.QueryRowContext(ctx, selectWithdrawalQuery+` WHERE id = $1`, id).Scan(
		&req.ID, &req.WalletID, &req.Amount, &req.PaymentMethod, &req.PaymentDetails,
		&req.Status, &req.ProcessedBy, &req.ProcessedAt, &req.RejectionReason, &req.CreatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	return &req, nil
}

func (r *PostgresWithdrawalRepository) ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.WithdrawalRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		selectWithdrawalQuery+` WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var out []models.WithdrawalRequest
	for rows.Next() {
		var req models.WithdrawalRequest
		if err := rows.Scan(&req.ID, &req.WalletID, &req.Amount, &req.PaymentMethod, &req.PaymentDetails,
			&req.Status, &req.ProcessedBy, &req.ProcessedAt, &req.RejectionReason, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Approve records the validator decision without moving funds.
func (r *PostgresWithdrawalRepository) Approve(ctx context.Context, id uuid.UUID, processedBy int64) error {
	query := `
		UPDATE withdrawal_requests
		SET status = 'approved', processed_by = $1, processed_at = NOW()
		WHERE id = $2 AND status = 'pending'`
	return r.transition(ctx, query, id, processedBy)
}

func (r *PostgresWithdrawalRepository) Reject(ctx context.Context, id uuid.UUID, processedBy int64, reason string) error {
	if reason == "" {
		return pkgerrors.ErrRejectionReasonRequired
	}
	query := `
		UPDATE withdrawal_requests
		SET status = 'rejected', processed_by = $1, processed_at = NOW(), rejection_reason = $3
		WHERE id = $2 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, processedBy, id, reason)
	if err != nil {
		return fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

func (r *PostgresWithdrawalRepository) transition(ctx context.Context, query string, id uuid.UUID, processedBy int64) error {
	res, err := r.db.ExecContext(ctx, query, processedBy, id)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal status: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

func (r *PostgresWithdrawalRepository) checkTransition(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return r.classifyTransition(ctx, id)
	}
	return nil
}

// Complete debits the wallet and finalizes the request in one transaction.
// A wallet whose balance has since dropped below the requested amount fails
// the whole call; the request stays approved.
func (r *PostgresWithdrawalRepository) Complete(ctx context.Context, id uuid.UUID, processedBy int64) (*models.WalletTransaction, error) {
	var err error
	tracer := otel.Tracer("withdrawal-repository")
	ctx, span := tracer.Start(ctx, "CompleteWithdrawal")
	span.SetAttributes(attribute.String("withdrawal_id", id.String()))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("CompleteWithdrawal", status).Inc()
		observability.RepositoryDuration.WithLabelValues("CompleteWithdrawal").Observe(time.Since(start).Seconds())
	}()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var walletID int64
	var amount decimal.Decimal
	query := `
		UPDATE withdrawal_requests
		SET status = 'completed', processed_by = $1, processed_at = NOW()
		WHERE id = $2 AND status = 'approved'
		RETURNING wallet_id, amount`
	err = tx.QueryRowContext(ctx, query, processedBy, id).Scan(&walletID, &amount)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = r.classifyTransition(ctx, id)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete withdrawal: %w", err)
	}

	var ledger *models.WalletTransaction
	ledger, err = applyLedgerEntry(ctx, tx, repository.LedgerEntry{
		WalletID:          walletID,
		Amount:            amount.Neg(),
		Type:              models.EntryDebit,
		RelatedEntityType: "withdrawal",
		RelatedEntityID:   id.String(),
		Description:       "withdrawal completed",
	})
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal completion: %w", err)
	}

	slog.Info("withdrawal completed",
		"withdrawal_id", id,
		"wallet_id", walletID,
		"amount", amount.String(),
		"balance_after", ledger.BalanceAfter.String(),
	)
	return ledger, nil
}

func (r *PostgresWithdrawalRepository) classifyTransition(ctx context.Context, id uuid.UUID) error {
	var status models.WithdrawalStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM withdrawal_requests WHERE id = $1`, id).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrWithdrawalNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect withdrawal %s: %w", id, err)
	}
	return pkgerrors.ErrInvalidStatusTransition
}
