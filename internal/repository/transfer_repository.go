package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/keymarket/ledger-service/internal/models"
)

type TransferRepository interface {
	// CreateEntry records a pending settlement amount for a validator.
	CreateEntry(ctx context.Context, entry *models.FundEntry) error
	ListPendingByValidator(ctx context.Context, validatorID int64) ([]models.FundEntry, error)
	// Submit creates a transfer from the validator's pending fund entries and
	// marks them in_transfer, all in one transaction.
	Submit(ctx context.Context, validatorID int64, entryIDs []int64) (*models.ValidatorTransfer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ValidatorTransfer, error)
	ListEntries(ctx context.Context, transferID uuid.UUID) ([]models.FundEntry, error)
	// Reject returns every attached entry to pending with a NULL transfer id.
	Reject(ctx context.Context, id uuid.UUID, reviewedBy int64) error
	// Approve settles the entries and credits adminWalletID with the total.
	Approve(ctx context.Context, id uuid.UUID, reviewedBy int64, adminWalletID int64) (*models.WalletTransaction, error)
}
