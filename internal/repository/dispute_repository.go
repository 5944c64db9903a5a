package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/models"
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	// Resolve records the resolution and moves sellerRefund from the provider
	// wallet to the seller wallet in one transaction. A zero refund records
	// the resolution only.
	Resolve(ctx context.Context, id uuid.UUID, resolution models.ResolutionType, percentage int64, sellerRefund decimal.Decimal, resolvedBy int64) error
}
