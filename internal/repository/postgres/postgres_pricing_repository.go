package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresPricingRepository struct {
	db *sql.DB
}

func NewPostgresPricingRepository(db *sql.DB) *PostgresPricingRepository {
	return &PostgresPricingRepository{db: db}
}

func (r *PostgresPricingRepository) GetCurrent(ctx context.Context) (*models.PricingConfig, error) {
	var cfg models.PricingConfig
	query := `
		SELECT version, markup_percent, withdrawal_fee, referral_approval_fee, updated_by, created_at
		FROM pricing_configs
		ORDER BY version DESC
		LIMIT 1`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&cfg.Version, &cfg.MarkupPercent, &cfg.WithdrawalFee, &cfg.ReferralApprovalFee, &cfg.UpdatedBy, &cfg.CreatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrPricingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing config: %w", err)
	}
	return &cfg, nil
}

// Insert appends the next version; rows are never updated in place.
func (r *PostgresPricingRepository) Insert(ctx context.Context, cfg *models.PricingConfig) error {
	if cfg == nil {
		return pkgerrors.ErrInvalidInput
	}
	query := `
		INSERT INTO pricing_configs (version, markup_percent, withdrawal_fee, referral_approval_fee, updated_by)
		VALUES ((SELECT COALESCE(MAX(version), 0) + 1 FROM pricing_configs), $1, $2, $3, $4)
		RETURNING version, created_at`
	err := r.db.QueryRowContext(ctx, query,
		cfg.MarkupPercent, cfg.WithdrawalFee, cfg.ReferralApprovalFee, cfg.UpdatedBy,
	).Scan(&cfg.Version, &cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pricing config: %w", err)
	}
	return nil
}
