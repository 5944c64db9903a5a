package repository

import (
	"context"

	"github.com/keymarket/ledger-service/internal/models"
)

type PricingRepository interface {
	// GetCurrent returns the highest-version config row.
	GetCurrent(ctx context.Context) (*models.PricingConfig, error)
	// Insert appends a new version and returns it.
	Insert(ctx context.Context, cfg *models.PricingConfig) error
}
