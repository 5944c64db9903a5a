package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeClosed      DisputeStatus = "closed"
)

type ResolutionType string

const (
	ResolutionRefundSeller  ResolutionType = "refund_seller"
	ResolutionFavorProvider ResolutionType = "favor_provider"
	ResolutionPartialRefund ResolutionType = "partial_refund"
	ResolutionNoAction      ResolutionType = "no_action"
)

type Dispute struct {
	ID                      uuid.UUID       `json:"id"`
	PurchaseID              uuid.UUID       `json:"purchase_id"`
	Amount                  decimal.Decimal `json:"amount"`
	SellerWalletID          int64           `json:"seller_wallet_id"`
	ProviderWalletID        int64           `json:"provider_wallet_id"`
	Status                  DisputeStatus   `json:"status"`
	ResolutionType          ResolutionType  `json:"resolution_type,omitempty"`
	PartialRefundPercentage sql.NullInt64   `json:"partial_refund_percentage,omitempty"`
	Reason                  string          `json:"reason"`
	ResolvedBy              sql.NullInt64   `json:"-"`
	OpenedAt                time.Time       `json:"opened_at"`
	ResolvedAt              sql.NullTime    `json:"-"`
}

// SellerRefund computes how much of amount goes back to the seller for the
// given resolution. Partial refunds round half up to 2 decimal places; the
// provider always retains amount minus the refund, so the split sums exactly.
func SellerRefund(amount decimal.Decimal, resolution ResolutionType, percentage int64) decimal.Decimal {
	switch resolution {
	case ResolutionRefundSeller:
		return amount
	case ResolutionPartialRefund:
		return amount.Mul(decimal.NewFromInt(percentage)).Div(decimal.NewFromInt(100)).Round(2)
	}
	return decimal.Zero
}

// SLA display thresholds. Indicative only, nothing downstream enforces them.
const (
	slaWarningAfter = 48 * time.Hour
	slaOverdueAfter = 72 * time.Hour
)

func (d *Dispute) SLAIndicator(now time.Time) string {
	if d.Status == DisputeResolved || d.Status == DisputeClosed {
		return "on_time"
	}
	age := now.Sub(d.OpenedAt)
	switch {
	case age >= slaOverdueAfter:
		return "overdue"
	case age >= slaWarningAfter:
		return "warning"
	}
	return "on_time"
}
