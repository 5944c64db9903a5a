package repository

import (
	"context"

	"github.com/keymarket/ledger-service/internal/models"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product, inventory []models.InventoryAccount) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	ListByProvider(ctx context.Context, providerID int64, limit, offset int) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
	GetInventory(ctx context.Context, accountID int64) (*models.InventoryAccount, error)
	DeleteInventory(ctx context.Context, accountID int64) error
}
