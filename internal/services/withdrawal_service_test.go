package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/keymarket/ledger-service/internal/infrastructure/crypto"
	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.NewCipher("6368616e676520746869732070617373776f726420746f206120736563726574")
	require.NoError(t, err)
	return c
}

func TestWithdrawalService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		withdrawalRepo := new(mockWithdrawalRepo)
		walletRepo := new(mockWalletRepo)
		transferRepo := new(mockTransferRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewWithdrawalService(withdrawalRepo, walletRepo, transferRepo, redisClient, producer, testCipher(t))

		redisClient.On("SetNX", mock.Anything, "request:req-1", "pending", requestKeyTTL).Return(true, nil)
		walletRepo.On("GetByUserID", mock.Anything, int64(10)).Return(&models.Wallet{
			ID: 1, UserID: 10, Balance: decimal.NewFromInt(100), Status: models.WalletActive,
		}, nil)
		withdrawalRepo.On("Create", mock.Anything, mock.MatchedBy(func(req *models.WithdrawalRequest) bool {
			// details must be sealed before hitting the repository
			return req.WalletID == 1 &&
				req.Amount.Equal(decimal.NewFromInt(40)) &&
				req.PaymentDetails != "IBAN DE89" &&
				len(req.PaymentDetails) > 3 && req.PaymentDetails[:3] == "v2:"
		})).Return(nil)

		req, err := svc.Create(ctx, 10, decimal.NewFromInt(40), "bank_transfer", "IBAN DE89", "req-1")
		assert.NoError(t, err)
		assert.NotNil(t, req)
		withdrawalRepo.AssertExpectations(t)
		redisClient.AssertExpectations(t)
	})

	t.Run("DuplicateRequestID", func(t *testing.T) {
		withdrawalRepo := new(mockWithdrawalRepo)
		walletRepo := new(mockWalletRepo)
		transferRepo := new(mockTransferRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewWithdrawalService(withdrawalRepo, walletRepo, transferRepo, redisClient, producer, testCipher(t))

		redisClient.On("SetNX", mock.Anything, "request:req-1", "pending", requestKeyTTL).Return(false, nil)

		_, err := svc.Create(ctx, 10, decimal.NewFromInt(40), "bank_transfer", "IBAN DE89", "req-1")
		assert.ErrorIs(t, err, pkgerrors.ErrRequestAlreadyProcessed)
		walletRepo.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		withdrawalRepo := new(mockWithdrawalRepo)
		walletRepo := new(mockWalletRepo)
		transferRepo := new(mockTransferRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewWithdrawalService(withdrawalRepo, walletRepo, transferRepo, redisClient, producer, testCipher(t))

		redisClient.On("SetNX", mock.Anything, "request:req-2", "pending", requestKeyTTL).Return(true, nil)
		redisClient.On("Del", mock.Anything, "request:req-2").Return(nil)
		walletRepo.On("GetByUserID", mock.Anything, int64(10)).Return(&models.Wallet{
			ID: 1, UserID: 10, Balance: decimal.NewFromInt(5), Status: models.WalletActive,
		}, nil)

		_, err := svc.Create(ctx, 10, decimal.NewFromInt(40), "bank_transfer", "IBAN DE89", "req-2")
		assert.ErrorIs(t, err, pkgerrors.ErrInsufficientFunds)
		withdrawalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		redisClient.AssertExpectations(t)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockWalletRepo), new(mockTransferRepo), new(mockRedis), new(mockProducer), testCipher(t))
		_, err := svc.Create(ctx, 10, decimal.Zero, "bank_transfer", "IBAN", "req-3")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})
}

func TestWithdrawalService_Reject(t *testing.T) {
	svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockWalletRepo), new(mockTransferRepo), new(mockRedis), new(mockProducer), testCipher(t))

	err := svc.Reject(context.Background(), uuid.New(), 5, "")
	assert.ErrorIs(t, err, pkgerrors.ErrRejectionReasonRequired)
}

func TestWithdrawalService_Complete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		withdrawalRepo := new(mockWithdrawalRepo)
		walletRepo := new(mockWalletRepo)
		transferRepo := new(mockTransferRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewWithdrawalService(withdrawalRepo, walletRepo, transferRepo, redisClient, producer, testCipher(t))

		amount := decimal.NewFromInt(40)
		withdrawalRepo.On("GetByID", mock.Anything, id).Return(&models.WithdrawalRequest{
			ID: id, WalletID: 1, Amount: amount, Status: models.WithdrawalApproved,
		}, nil)
		redisClient.On("SetNX", mock.Anything, "wallet:1:lock", "locked", walletLockTTL).Return(true, nil)
		redisClient.On("Del", mock.Anything, "wallet:1:lock").Return(nil)
		withdrawalRepo.On("Complete", mock.Anything, id, int64(5)).Return(&models.WalletTransaction{
			WalletID: 1, Type: models.EntryDebit, Amount: amount.Neg(), BalanceAfter: decimal.NewFromInt(60),
		}, nil)
		transferRepo.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *models.FundEntry) bool {
			return e.ValidatorID == 5 && e.Amount.Equal(amount)
		})).Return(nil)
		producer.On("Send", mock.Anything, ledgerEventsTopic, mock.Anything, mock.Anything).Return(nil)

		err := svc.Complete(ctx, id, 5)
		assert.NoError(t, err)
		withdrawalRepo.AssertExpectations(t)
		transferRepo.AssertExpectations(t)
		producer.AssertExpectations(t)
	})

	t.Run("NotApproved", func(t *testing.T) {
		withdrawalRepo := new(mockWithdrawalRepo)
		svc := NewWithdrawalService(withdrawalRepo, new(mockWalletRepo), new(mockTransferRepo), new(mockRedis), new(mockProducer), testCipher(t))

		withdrawalRepo.On("GetByID", mock.Anything, id).Return(&models.WithdrawalRequest{
			ID: id, WalletID: 1, Amount: decimal.NewFromInt(40), Status: models.WithdrawalPending,
		}, nil)

		err := svc.Complete(ctx, id, 5)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidStatusTransition)
		withdrawalRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WalletLocked", func(t *testing.T) {
		withdrawalRepo := new(mockWithdrawalRepo)
		redisClient := new(mockRedis)
		svc := NewWithdrawalService(withdrawalRepo, new(mockWalletRepo), new(mockTransferRepo), redisClient, new(mockProducer), testCipher(t))

		withdrawalRepo.On("GetByID", mock.Anything, id).Return(&models.WithdrawalRequest{
			ID: id, WalletID: 1, Amount: decimal.NewFromInt(40), Status: models.WithdrawalApproved,
		}, nil)
		redisClient.On("SetNX", mock.Anything, "wallet:1:lock", "locked", walletLockTTL).Return(false, nil)

		err := svc.Complete(ctx, id, 5)
		assert.ErrorIs(t, err, pkgerrors.ErrWalletLocked)
		withdrawalRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWithdrawalService_DecryptedDetails(t *testing.T) {
	cipher := testCipher(t)
	svc := NewWithdrawalService(new(mockWithdrawalRepo), new(mockWalletRepo), new(mockTransferRepo), new(mockRedis), new(mockProducer), cipher)

	encrypted, err := cipher.Encrypt("IBAN DE89")
	require.NoError(t, err)
	assert.Equal(t, "IBAN DE89", svc.DecryptedDetails(&models.WithdrawalRequest{PaymentDetails: encrypted}))
	assert.Equal(t, "", svc.DecryptedDetails(&models.WithdrawalRequest{PaymentDetails: "untagged"}))
}
