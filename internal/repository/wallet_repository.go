package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/models"
)

// LedgerEntry describes one balance-affecting mutation to apply.
type LedgerEntry struct {
	WalletID          int64
	Amount            decimal.Decimal // signed; negative debits
	Type              models.EntryType
	RelatedEntityType string
	RelatedEntityID   string
	Description       string
}

type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id int64) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error)
	// ApplyEntry atomically adjusts the balance and appends the ledger row.
	// Debits that would go negative fail with ErrInsufficientFunds and write
	// nothing.
	ApplyEntry(ctx context.Context, entry LedgerEntry) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID int64, limit, offset int) ([]models.WalletTransaction, error)
}
