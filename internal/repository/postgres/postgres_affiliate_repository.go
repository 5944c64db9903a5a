package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresAffiliateRepository struct {
	db *sql.DB
}

func NewPostgresAffiliateRepository(db *sql.DB) *PostgresAffiliateRepository {
	return &PostgresAffiliateRepository{db: db}
}

const selectProfileQuery = `
	SELECT p.id, p.user_id, p.referral_code, p.status, p.approval_status,
	       p.total_earnings, p.pending_balance, p.paid_balance,
	       (SELECT COUNT(*) FROM referrals r WHERE r.affiliate_id = p.id) AS referral_count,
	       p.created_at
	FROM affiliate_profiles p`

func (r *PostgresAffiliateRepository) GetProfileByID(ctx context.Context, id int64) (*models.AffiliateProfile, error) {
	return r.scanProfile(r.db.QueryRowContext(ctx, selectProfileQuery+` WHERE p.id = $1`, id))
}

func (r *PostgresAffiliateRepository) GetProfileByUserID(ctx context.Context, userID int64) (*models.AffiliateProfile, error) {
	return r.scanProfile(r.db.QueryRowContext(ctx, selectProfileQuery+` WHERE p.user_id = $1`, userID))
}

func (r *PostgresAffiliateRepository) scanProfile(row *sql.Row) (*models.AffiliateProfile, error) {
	var p models.AffiliateProfile
	err := row.Scan(&p.ID, &p.UserID, &p.ReferralCode, &p.Status, &p.ApprovalStatus,
		&p.TotalEarnings, &p.PendingBalance, &p.PaidBalance, &p.ReferralCount, &p.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get affiliate profile: %w", err)
	}
	return &p, nil
}

func (r *PostgresAffiliateRepository) ListProfiles(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error) {
	return r.listProfiles(ctx, selectProfileQuery+` ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PostgresAffiliateRepository) ListApplications(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error) {
	return r.listProfiles(ctx, selectProfileQuery+` WHERE p.approval_status = 'pending' ORDER BY p.created_at ASC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PostgresAffiliateRepository) listProfiles(ctx context.Context, query string, args ...any) ([]models.AffiliateProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list affiliate profiles: %w", err)
	}
	defer rows.Close()

	var out []models.AffiliateProfile
	for rows.Next() {
		var p models.AffiliateProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.ReferralCode, &p.Status, &p.ApprovalStatus,
			&p.TotalEarnings, &p.PendingBalance, &p.PaidBalance, &p.ReferralCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan affiliate profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresAffiliateRepository) GetReferral(ctx context.Context, id int64) (*models.Referral, error) {
	var ref models.Referral
	query := `SELECT id, affiliate_id, referred_user_id, approval_status, processed_by, processed_at, created_at FROM referrals WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ref.ID, &ref.AffiliateID, &ref.ReferredUserID, &ref.ApprovalStatus, &ref.ProcessedBy, &ref.ProcessedAt, &ref.CreatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrReferralNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &ref, nil
}

// ApproveReferral charges the affiliate wallet the approval fee and credits
// the platform wallet, all in one transaction. The referral CAS runs first;
// an insufficient affiliate balance rolls the whole thing back.
func (r *PostgresAffiliateRepository) ApproveReferral(ctx context.Context, referralID int64, affiliateWalletID, platformWalletID int64, fee decimal.Decimal, processedBy int64) error {
	if fee.IsNegative() {
		return pkgerrors.ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE referrals
		SET approval_status = 'approved', processed_by = $1, processed_at = NOW()
		WHERE id = $2 AND approval_status = 'pending'`,
		processedBy, referralID)
	if err != nil {
		return fmt.Errorf("failed to approve referral: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return r.classifyReferral(ctx, referralID)
	}

	if fee.IsPositive() {
		relatedID := fmt.Sprintf("%d", referralID)
		if _, err = applyLedgerEntry(ctx, tx, repository.LedgerEntry{
			WalletID:          affiliateWalletID,
			Amount:            fee.Neg(),
			Type:              models.EntryDebit,
			RelatedEntityType: "referral",
			RelatedEntityID:   relatedID,
			Description:       "referral approval fee",
		}); err != nil {
			return err
		}
		if _, err = applyLedgerEntry(ctx, tx, repository.LedgerEntry{
			WalletID:          platformWalletID,
			Amount:            fee,
			Type:              models.EntryCredit,
			RelatedEntityType: "referral",
			RelatedEntityID:   relatedID,
			Description:       "referral approval fee",
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit referral approval: %w", err)
	}

	slog.Info("referral approved", "referral_id", referralID, "fee", fee.String(), "processed_by", processedBy)
	return nil
}

// RejectReferral records the decision; no funds move.
func (r *PostgresAffiliateRepository) RejectReferral(ctx context.Context, referralID int64, processedBy int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE referrals
		SET approval_status = 'rejected', processed_by = $1, processed_at = NOW()
		WHERE id = $2 AND approval_status = 'pending'`,
		processedBy, referralID)
	if err != nil {
		return fmt.Errorf("failed to reject referral: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return r.classifyReferral(ctx, referralID)
	}
	return nil
}

func (r *PostgresAffiliateRepository) classifyReferral(ctx context.Context, id int64) error {
	var status models.ApprovalStatus
	err := r.db.QueryRowContext(ctx, `SELECT approval_status FROM referrals WHERE id = $1`, id).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrReferralNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect referral %d: %w", id, err)
	}
	return pkgerrors.ErrInvalidStatusTransition
}
