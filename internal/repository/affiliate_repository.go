package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/models"
)

type AffiliateRepository interface {
	GetProfileByID(ctx context.Context, id int64) (*models.AffiliateProfile, error)
	GetProfileByUserID(ctx context.Context, userID int64) (*models.AffiliateProfile, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error)
	ListApplications(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error)
	GetReferral(ctx context.Context, id int64) (*models.Referral, error)
	// ApproveReferral debits the affiliate wallet by fee and credits the
	// platform wallet in one transaction. Insufficient affiliate balance
	// leaves everything untouched.
	ApproveReferral(ctx context.Context, referralID int64, affiliateWalletID, platformWalletID int64, fee decimal.Decimal, processedBy int64) error
	RejectReferral(ctx context.Context, referralID int64, processedBy int64) error
}
