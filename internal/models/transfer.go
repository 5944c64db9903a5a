package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FundEntryStatus string

const (
	FundEntryPending    FundEntryStatus = "pending"
	FundEntryInTransfer FundEntryStatus = "in_transfer"
	FundEntrySettled    FundEntryStatus = "settled"
)

// FundEntry is a pending settlement amount collected by a payment validator.
type FundEntry struct {
	ID          int64           `json:"id"`
	ValidatorID int64           `json:"validator_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      FundEntryStatus `json:"status"`
	TransferID  uuid.NullUUID   `json:"transfer_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferApproved TransferStatus = "approved"
	TransferRejected TransferStatus = "rejected"
)

// ValidatorTransfer groups fund entries submitted by a validator for admin
// review. Rejecting it must return every entry to pending, detached.
type ValidatorTransfer struct {
	ID          uuid.UUID       `json:"id"`
	ValidatorID int64           `json:"validator_id"`
	Total       decimal.Decimal `json:"total"`
	Status      TransferStatus  `json:"status"`
	ReviewedBy  sql.NullInt64   `json:"-"`
	ReviewedAt  sql.NullTime    `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}
