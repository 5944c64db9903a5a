package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingConfig rows are append-only; the highest version is current.
// Readers fetch it once per operation, never across an invalidation.
type PricingConfig struct {
	Version             int64           `json:"version"`
	MarkupPercent       decimal.Decimal `json:"markup_percent"`
	WithdrawalFee       decimal.Decimal `json:"withdrawal_fee"`
	ReferralApprovalFee decimal.Decimal `json:"referral_approval_fee"`
	UpdatedBy           int64           `json:"updated_by"`
	CreatedAt           time.Time       `json:"created_at"`
}
