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

type PostgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) *PostgresDisputeRepository {
	return &PostgresDisputeRepository{db: db}
}

func (r *PostgresDisputeRepository) Create(ctx context.Context, dispute *models.Dispute) error {
	if dispute == nil || !dispute.Amount.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}
	dispute.ID = uuid.New()
	dispute.Status = models.DisputeOpen
	query := `
		INSERT INTO disputes (id, purchase_id, amount, seller_wallet_id, provider_wallet_id, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING opened_at`
	err := r.db.QueryRowContext(ctx, query,
		dispute.ID, dispute.PurchaseID, dispute.Amount, dispute.SellerWalletID,
		dispute.ProviderWalletID, dispute.Status, dispute.Reason,
	).Scan(&dispute.OpenedAt)
	if err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

const selectDisputeQuery = `
	SELECT id, purchase_id, amount, seller_wallet_id, provider_wallet_id, status,
	       resolution_type, partial_refund_percentage, reason, resolved_by, opened_at, resolved_at
	FROM disputes`

func (r *PostgresDisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	var resolution sql.NullString
	err := r.db.QueryRowContext(ctx, selectDisputeQuery+` WHERE id = $1`, id).Scan(
		&d.ID, &d.PurchaseID, &d.Amount, &d.SellerWalletID, &d.ProviderWalletID, &d.Status,
		&resolution, &d.PartialRefundPercentage, &d.Reason, &d.ResolvedBy, &d.OpenedAt, &d.ResolvedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	d.ResolutionType = models.ResolutionType(resolution.String)
	return &d, nil
}

func (r *PostgresDisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	rows, err := r.db.QueryContext(ctx,
		selectDisputeQuery+` WHERE status IN ('open', 'under_review') ORDER BY opened_at ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer rows.Close()

	var out []models.Dispute
	for rows.Next() {
		var d models.Dispute
		var resolution sql.NullString
		if err := rows.Scan(&d.ID, &d.PurchaseID, &d.Amount, &d.SellerWalletID, &d.ProviderWalletID, &d.Status,
			&resolution, &d.PartialRefundPercentage, &d.Reason, &d.ResolvedBy, &d.OpenedAt, &d.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispute: %w", err)
		}
		d.ResolutionType = models.ResolutionType(resolution.String)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Resolve records the resolution and, when the refund is non-zero, moves it
// from the provider wallet to the seller wallet. Resolution is final: only
// open or under_review disputes can be resolved.
func (r *PostgresDisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolution models.ResolutionType, percentage int64, sellerRefund decimal.Decimal, resolvedBy int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sellerWalletID, providerWalletID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE disputes
		SET status = 'resolved', resolution_type = $1, partial_refund_percentage = $2,
		    resolved_by = $3, resolved_at = NOW()
		WHERE id = $4 AND status IN ('open', 'under_review')
		RETURNING seller_wallet_id, provider_wallet_id`,
		resolution, nullPercentage(resolution, percentage), resolvedBy, id,
	).Scan(&sellerWalletID, &providerWalletID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return r.classifyDispute(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}

	if sellerRefund.IsPositive() {
		if _, err = applyLedgerEntry(ctx, tx, repository.LedgerEntry{
			WalletID:          providerWalletID,
			Amount:            sellerRefund.Neg(),
			Type:              models.EntryTransfer,
			RelatedEntityType: "dispute",
			RelatedEntityID:   id.String(),
			Description:       "dispute refund to seller",
		}); err != nil {
			return err
		}
		if _, err = applyLedgerEntry(ctx, tx, repository.LedgerEntry{
			WalletID:          sellerWalletID,
			Amount:            sellerRefund,
			Type:              models.EntryTransfer,
			RelatedEntityType: "dispute",
			RelatedEntityID:   id.String(),
			Description:       "dispute refund to seller",
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dispute resolution: %w", err)
	}

	slog.Info("dispute resolved",
		"dispute_id", id,
		"resolution", resolution,
		"seller_refund", sellerRefund.String(),
		"resolved_by", resolvedBy,
	)
	return nil
}

func nullPercentage(resolution models.ResolutionType, percentage int64) sql.NullInt64 {
	if resolution != models.ResolutionPartialRefund {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: percentage, Valid: true}
}

func (r *PostgresDisputeRepository) classifyDispute(ctx context.Context, id uuid.UUID) error {
	var status models.DisputeStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM disputes WHERE id = $1`, id).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrDisputeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect dispute %s: %w", id, err)
	}
	return pkgerrors.ErrDisputeAlreadyResolved
}
