package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type AffiliateStatus string

const (
	AffiliatePending   AffiliateStatus = "pending"
	AffiliateApproved  AffiliateStatus = "approved"
	AffiliateRejected  AffiliateStatus = "rejected"
	AffiliateActive    AffiliateStatus = "active"
	AffiliateSuspended AffiliateStatus = "suspended"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type AffiliateProfile struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	ReferralCode   string          `json:"referral_code"`
	Status         AffiliateStatus `json:"status"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	PaidBalance    decimal.Decimal `json:"paid_balance"`
	ReferralCount  int64           `json:"referral_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Referral links a referred user to an affiliate. Approving it charges the
// affiliate wallet the configured approval fee.
type Referral struct {
	ID             int64          `json:"id"`
	AffiliateID    int64          `json:"affiliate_id"`
	ReferredUserID int64          `json:"referred_user_id"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ProcessedBy    sql.NullInt64  `json:"-"`
	ProcessedAt    sql.NullTime   `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
}
