package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
)

type mockWalletRepo struct{ mock.Mock }

func (m *mockWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	return m.Called(ctx, wallet).Error(0)
}

func (m *mockWalletRepo) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	args := m.Called(ctx, id)
	if w := args.Get(0); w != nil {
		return w.(*models.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWalletRepo) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if w := args.Get(0); w != nil {
		return w.(*models.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWalletRepo) ApplyEntry(ctx context.Context, entry repository.LedgerEntry) (*models.WalletTransaction, error) {
	args := m.Called(ctx, entry)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.WalletTransaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWalletRepo) ListTransactions(ctx context.Context, walletID int64, limit, offset int) ([]models.WalletTransaction, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if out := args.Get(0); out != nil {
		return out.([]models.WalletTransaction), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWithdrawalRepo struct{ mock.Mock }

func (m *mockWithdrawalRepo) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if req := args.Get(0); req != nil {
		return req.(*models.WithdrawalRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWithdrawalRepo) ListByStatus(ctx context.Context, status models.WithdrawalStatus, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if out := args.Get(0); out != nil {
		return out.([]models.WithdrawalRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWithdrawalRepo) Approve(ctx context.Context, id uuid.UUID, processedBy int64) error {
	return m.Called(ctx, id, processedBy).Error(0)
}

func (m *mockWithdrawalRepo) Reject(ctx context.Context, id uuid.UUID, processedBy int64, reason string) error {
	return m.Called(ctx, id, processedBy, reason).Error(0)
}

func (m *mockWithdrawalRepo) Complete(ctx context.Context, id uuid.UUID, processedBy int64) (*models.WalletTransaction, error) {
	args := m.Called(ctx, id, processedBy)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.WalletTransaction), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTransferRepo struct{ mock.Mock }

func (m *mockTransferRepo) CreateEntry(ctx context.Context, entry *models.FundEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockTransferRepo) ListPendingByValidator(ctx context.Context, validatorID int64) ([]models.FundEntry, error) {
	args := m.Called(ctx, validatorID)
	if out := args.Get(0); out != nil {
		return out.([]models.FundEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransferRepo) Submit(ctx context.Context, validatorID int64, entryIDs []int64) (*models.ValidatorTransfer, error) {
	args := m.Called(ctx, validatorID, entryIDs)
	if t := args.Get(0); t != nil {
		return t.(*models.ValidatorTransfer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ValidatorTransfer, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*models.ValidatorTransfer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransferRepo) ListEntries(ctx context.Context, transferID uuid.UUID) ([]models.FundEntry, error) {
	args := m.Called(ctx, transferID)
	if out := args.Get(0); out != nil {
		return out.([]models.FundEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransferRepo) Reject(ctx context.Context, id uuid.UUID, reviewedBy int64) error {
	return m.Called(ctx, id, reviewedBy).Error(0)
}

func (m *mockTransferRepo) Approve(ctx context.Context, id uuid.UUID, reviewedBy int64, adminWalletID int64) (*models.WalletTransaction, error) {
	args := m.Called(ctx, id, reviewedBy, adminWalletID)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.WalletTransaction), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRechargeRepo struct{ mock.Mock }

func (m *mockRechargeRepo) Create(ctx context.Context, recharge *models.Recharge) error {
	return m.Called(ctx, recharge).Error(0)
}

func (m *mockRechargeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Recharge, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Recharge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRechargeRepo) GetByExternalRef(ctx context.Context, ref string) (*models.Recharge, error) {
	args := m.Called(ctx, ref)
	if r := args.Get(0); r != nil {
		return r.(*models.Recharge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRechargeRepo) Complete(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	args := m.Called(ctx, id)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.WalletTransaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRechargeRepo) Fail(ctx context.Context, id uuid.UUID, status models.RechargeStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Wallet) error {
	return m.Called(ctx, user, wallet).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	if out := args.Get(0); out != nil {
		return out.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) SetStatus(ctx context.Context, id int64, status models.UserStatus, country string) error {
	return m.Called(ctx, id, status, country).Error(0)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) Create(ctx context.Context, product *models.Product, inventory []models.InventoryAccount) error {
	return m.Called(ctx, product, inventory).Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductRepo) ListByProvider(ctx context.Context, providerID int64, limit, offset int) ([]models.Product, error) {
	args := m.Called(ctx, providerID, limit, offset)
	if out := args.Get(0); out != nil {
		return out.([]models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepo) GetInventory(ctx context.Context, accountID int64) (*models.InventoryAccount, error) {
	args := m.Called(ctx, accountID)
	if a := args.Get(0); a != nil {
		return a.(*models.InventoryAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProductRepo) DeleteInventory(ctx context.Context, accountID int64) error {
	return m.Called(ctx, accountID).Error(0)
}

type mockAffiliateRepo struct{ mock.Mock }

func (m *mockAffiliateRepo) GetProfileByID(ctx context.Context, id int64) (*models.AffiliateProfile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.AffiliateProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAffiliateRepo) GetProfileByUserID(ctx context.Context, userID int64) (*models.AffiliateProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.AffiliateProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAffiliateRepo) ListProfiles(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error) {
	args := m.Called(ctx, limit, offset)
	if out := args.Get(0); out != nil {
		return out.([]models.AffiliateProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAffiliateRepo) ListApplications(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error) {
	args := m.Called(ctx, limit, offset)
	if out := args.Get(0); out != nil {
		return out.([]models.AffiliateProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAffiliateRepo) GetReferral(ctx context.Context, id int64) (*models.Referral, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Referral), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAffiliateRepo) ApproveReferral(ctx context.Context, referralID int64, affiliateWalletID, platformWalletID int64, fee decimal.Decimal, processedBy int64) error {
	return m.Called(ctx, referralID, affiliateWalletID, platformWalletID, fee, processedBy).Error(0)
}

func (m *mockAffiliateRepo) RejectReferral(ctx context.Context, referralID int64, processedBy int64) error {
	return m.Called(ctx, referralID, processedBy).Error(0)
}

type mockDisputeRepo struct{ mock.Mock }

func (m *mockDisputeRepo) Create(ctx context.Context, dispute *models.Dispute) error {
	return m.Called(ctx, dispute).Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if d := args.Get(0); d != nil {
		return d.(*models.Dispute), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, limit, offset)
	if out := args.Get(0); out != nil {
		return out.([]models.Dispute), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDisputeRepo) Resolve(ctx context.Context, id uuid.UUID, resolution models.ResolutionType, percentage int64, sellerRefund decimal.Decimal, resolvedBy int64) error {
	return m.Called(ctx, id, resolution, percentage, sellerRefund, resolvedBy).Error(0)
}

type mockPricingRepo struct{ mock.Mock }

func (m *mockPricingRepo) GetCurrent(ctx context.Context) (*models.PricingConfig, error) {
	args := m.Called(ctx)
	if cfg := args.Get(0); cfg != nil {
		return cfg.(*models.PricingConfig), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPricingRepo) Insert(ctx context.Context, cfg *models.PricingConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

type mockRedis struct{ mock.Mock }

func (m *mockRedis) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *mockRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *mockRedis) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockRedis) Close() error {
	return m.Called().Error(0)
}

type mockProducer struct{ mock.Mock }

func (m *mockProducer) Send(ctx context.Context, topic string, key string, value []byte) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

func (m *mockProducer) Close() error {
	return m.Called().Error(0)
}
