package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/keymarket/ledger-service/internal/models"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, req *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.WithdrawalRequest, error)
	// Approve and Reject compare-and-swap the status from pending; neither
	// moves funds.
	Approve(ctx context.Context, id uuid.UUID, processedBy int64) error
	Reject(ctx context.Context, id uuid.UUID, processedBy int64, reason string) error
	// Complete flips approved -> completed and debits the wallet in the same
	// transaction; a balance that has since dropped fails the whole call.
	Complete(ctx context.Context, id uuid.UUID, processedBy int64) (*models.WalletTransaction, error)
}
