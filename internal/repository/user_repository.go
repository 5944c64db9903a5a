package repository

import (
	"context"

	"github.com/keymarket/ledger-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// CreateWithWallet inserts the user and their wallet in one transaction;
	// neither row exists if either insert fails.
	CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Wallet) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	SetStatus(ctx context.Context, id int64, status models.UserStatus, country string) error
}
