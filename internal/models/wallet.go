package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletStatus string

const (
	WalletActive WalletStatus = "active"
	WalletFrozen WalletStatus = "frozen"
	WalletClosed WalletStatus = "closed"
)

// Wallet balances are mutated only through ledger entries; version backs the
// conditional update guarding concurrent debits.
type Wallet struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    WalletStatus    `json:"status"`
	Version   int64           `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type EntryType string

const (
	EntryCredit   EntryType = "credit"
	EntryDebit    EntryType = "debit"
	EntryTransfer EntryType = "transfer"
)

// WalletTransaction is an append-only ledger row. Amount is signed (negative
// for debits); BalanceAfter snapshots the wallet balance at write time.
type WalletTransaction struct {
	ID                int64           `json:"id"`
	WalletID          int64           `json:"wallet_id"`
	Type              EntryType       `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	RelatedEntityType string          `json:"related_entity_type,omitempty"`
	RelatedEntityID   string          `json:"related_entity_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}
