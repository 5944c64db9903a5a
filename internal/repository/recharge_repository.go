package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/keymarket/ledger-service/internal/models"
)

type RechargeRepository interface {
	Create(ctx context.Context, recharge *models.Recharge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recharge, error)
	GetByExternalRef(ctx context.Context, ref string) (*models.Recharge, error)
	// Complete flips pending -> completed and credits the wallet in one
	// transaction; any other starting status fails.
	Complete(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error)
	// Fail flips pending -> failed (or cancelled) with no fund movement.
	Fail(ctx context.Context, id uuid.UUID, status models.RechargeStatus) error
}
