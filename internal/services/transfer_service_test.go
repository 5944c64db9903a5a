package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

func TestTransferService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyBatch", func(t *testing.T) {
		transferRepo := new(mockTransferRepo)
		svc := NewTransferService(transferRepo, new(mockWalletRepo), new(mockRedis), new(mockProducer), 1)

		_, err := svc.Submit(ctx, 5, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrNoFundEntries)
		transferRepo.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		transferRepo := new(mockTransferRepo)
		svc := NewTransferService(transferRepo, new(mockWalletRepo), new(mockRedis), new(mockProducer), 1)

		transferRepo.On("Submit", mock.Anything, int64(5), []int64{1, 2}).Return(&models.ValidatorTransfer{
			ID: uuid.New(), ValidatorID: 5, Total: decimal.NewFromInt(30),
		}, nil)

		transfer, err := svc.Submit(ctx, 5, []int64{1, 2})
		assert.NoError(t, err)
		assert.True(t, transfer.Total.Equal(decimal.NewFromInt(30)))
	})
}

func TestTransferService_Approve(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("SettlesIntoPlatformWallet", func(t *testing.T) {
		transferRepo := new(mockTransferRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewTransferService(transferRepo, new(mockWalletRepo), redisClient, producer, 100)

		redisClient.On("SetNX", mock.Anything, "wallet:100:lock", "locked", walletLockTTL).Return(true, nil)
		redisClient.On("Del", mock.Anything, "wallet:100:lock").Return(nil)
		transferRepo.On("Approve", mock.Anything, id, int64(9), int64(100)).Return(&models.WalletTransaction{
			WalletID: 100, Type: models.EntryCredit, Amount: decimal.NewFromInt(30), BalanceAfter: decimal.NewFromInt(530),
		}, nil)
		producer.On("Send", mock.Anything, ledgerEventsTopic, "wallet-100", mock.Anything).Return(nil)

		err := svc.Approve(ctx, id, 9)
		assert.NoError(t, err)
		transferRepo.AssertExpectations(t)
		producer.AssertExpectations(t)
	})

	t.Run("PlatformWalletLocked", func(t *testing.T) {
		transferRepo := new(mockTransferRepo)
		redisClient := new(mockRedis)
		svc := NewTransferService(transferRepo, new(mockWalletRepo), redisClient, new(mockProducer), 100)

		redisClient.On("SetNX", mock.Anything, "wallet:100:lock", "locked", walletLockTTL).Return(false, nil)

		err := svc.Approve(ctx, id, 9)
		assert.ErrorIs(t, err, pkgerrors.ErrWalletLocked)
		transferRepo.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTransferService_Reject(t *testing.T) {
	transferRepo := new(mockTransferRepo)
	svc := NewTransferService(transferRepo, new(mockWalletRepo), new(mockRedis), new(mockProducer), 100)

	id := uuid.New()
	transferRepo.On("Reject", mock.Anything, id, int64(9)).Return(nil)

	err := svc.Reject(context.Background(), id, 9)
	assert.NoError(t, err)
	transferRepo.AssertExpectations(t)
}
