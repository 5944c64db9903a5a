package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keymarket/ledger-service/internal/infrastructure/crypto"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type ProductService interface {
	Create(ctx context.Context, providerID int64, product *models.Product, credentials []string) error
	Get(ctx context.Context, id int64) (*models.Product, error)
	ListByProvider(ctx context.Context, providerID int64, limit, offset int) ([]models.Product, error)
	Update(ctx context.Context, providerID int64, product *models.Product) error
	Delete(ctx context.Context, providerID int64, productID int64) error
	RevealCredentials(ctx context.Context, providerID int64, accountID int64) (string, error)
	DeleteInventory(ctx context.Context, providerID int64, accountID int64) error
}

type productService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cipher      *crypto.Cipher
}

func NewProductService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	cipher *crypto.Cipher,
) *productService {
	return &productService{productRepo: productRepo, userRepo: userRepo, cipher: cipher}
}

// Create lists a product with its inventory. Only approved providers can
// list; each credential is encrypted before it touches the database.
func (s *productService) Create(ctx context.Context, providerID int64, product *models.Product, credentials []string) error {
	if product == nil || product.Name == "" || !product.Price.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}

	provider, err := s.userRepo.GetByID(ctx, providerID)
	if err != nil {
		return err
	}
	if provider.Status != models.UserApproved {
		return pkgerrors.ErrProviderNotApproved
	}

	inventory := make([]models.InventoryAccount, 0, len(credentials))
	for _, cred := range credentials {
		if cred == "" {
			return pkgerrors.ErrInvalidInput
		}
		encrypted, err := s.cipher.Encrypt(cred)
		if err != nil {
			return fmt.Errorf("%w: failed to encrypt credentials", pkgerrors.ErrInternal)
		}
		inventory = append(inventory, models.InventoryAccount{Credentials: encrypted})
	}

	product.ProviderID = providerID
	if err := s.productRepo.Create(ctx, product, inventory); err != nil {
		return err
	}

	slog.Info("product created", "product_id", product.ID, "provider_id", providerID, "inventory", len(inventory))
	return nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) ListByProvider(ctx context.Context, providerID int64, limit, offset int) ([]models.Product, error) {
	return s.productRepo.ListByProvider(ctx, providerID, limit, offset)
}

func (s *productService) Update(ctx context.Context, providerID int64, product *models.Product) error {
	existing, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if existing.ProviderID != providerID {
		return pkgerrors.ErrNotOwner
	}
	if product.Name == "" || !product.Price.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}
	product.ProviderID = providerID
	return s.productRepo.Update(ctx, product)
}

func (s *productService) Delete(ctx context.Context, providerID int64, productID int64) error {
	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if existing.ProviderID != providerID {
		return pkgerrors.ErrNotOwner
	}
	return s.productRepo.Delete(ctx, productID)
}

// RevealCredentials decrypts one inventory account for its owning provider.
func (s *productService) RevealCredentials(ctx context.Context, providerID int64, accountID int64) (string, error) {
	account, err := s.productRepo.GetInventory(ctx, accountID)
	if err != nil {
		return "", err
	}
	product, err := s.productRepo.GetByID(ctx, account.ProductID)
	if err != nil {
		return "", err
	}
	if product.ProviderID != providerID {
		return "", pkgerrors.ErrNotOwner
	}
	plain, err := s.cipher.Decrypt(account.Credentials)
	if err != nil {
		slog.Error("failed to decrypt inventory credentials", "account_id", accountID, "error", err)
		return "", fmt.Errorf("%w: failed to decrypt credentials", pkgerrors.ErrInternal)
	}
	return plain, nil
}

// DeleteInventory removes an unsold account. Sold accounts are part of the
// purchase history and stay.
func (s *productService) DeleteInventory(ctx context.Context, providerID int64, accountID int64) error {
	account, err := s.productRepo.GetInventory(ctx, accountID)
	if err != nil {
		return err
	}
	product, err := s.productRepo.GetByID(ctx, account.ProductID)
	if err != nil {
		return err
	}
	if product.ProviderID != providerID {
		return pkgerrors.ErrNotOwner
	}
	return s.productRepo.DeleteInventory(ctx, accountID)
}
