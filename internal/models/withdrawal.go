package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

// WithdrawalRequest moves pending -> approved -> completed, or
// pending -> rejected. Funds leave the wallet only on completion.
type WithdrawalRequest struct {
	ID              uuid.UUID        `json:"id"`
	WalletID        int64            `json:"wallet_id"`
	Amount          decimal.Decimal  `json:"amount"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentDetails  string           `json:"-"` // encrypted at rest
	Status          WithdrawalStatus `json:"status"`
	ProcessedBy     sql.NullInt64    `json:"-"`
	ProcessedAt     sql.NullTime     `json:"-"`
	RejectionReason sql.NullString   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// CanTransition reports whether the lifecycle permits moving to next.
func (w *WithdrawalRequest) CanTransition(next WithdrawalStatus) bool {
	switch w.Status {
	case WithdrawalPending:
		return next == WithdrawalApproved || next == WithdrawalRejected
	case WithdrawalApproved:
		return next == WithdrawalCompleted
	}
	return false
}
