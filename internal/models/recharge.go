package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RechargeStatus string

const (
	RechargePending   RechargeStatus = "pending"
	RechargeCompleted RechargeStatus = "completed"
	RechargeFailed    RechargeStatus = "failed"
	RechargeCancelled RechargeStatus = "cancelled"
)

// Recharge is a pending external payment. Only a pending recharge may reach a
// terminal status, and only completion credits the wallet.
type Recharge struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      int64           `json:"wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	ExternalRef   sql.NullString  `json:"-"`
	Status        RechargeStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ProcessedAt   sql.NullTime    `json:"-"`
}
