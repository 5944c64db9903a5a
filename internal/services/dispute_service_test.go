package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

func openDispute(id uuid.UUID, amount string) *models.Dispute {
	return &models.Dispute{
		ID:               id,
		PurchaseID:       uuid.New(),
		Amount:           decimal.RequireFromString(amount),
		SellerWalletID:   1,
		ProviderWalletID: 2,
		Status:           models.DisputeOpen,
		Reason:           "account invalid",
		OpenedAt:         time.Now(),
	}
}

func TestDisputeService_Resolve(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("PartialRefund", func(t *testing.T) {
		disputeRepo := new(mockDisputeRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewDisputeService(disputeRepo, new(mockWalletRepo), redisClient, producer)

		disputeRepo.On("GetByID", mock.Anything, id).Return(openDispute(id, "100.00"), nil)
		redisClient.On("SetNX", mock.Anything, "wallet:2:lock", "locked", walletLockTTL).Return(true, nil)
		redisClient.On("Del", mock.Anything, "wallet:2:lock").Return(nil)
		disputeRepo.On("Resolve", mock.Anything, id, models.ResolutionPartialRefund, int64(25),
			mock.MatchedBy(func(refund decimal.Decimal) bool { return refund.Equal(decimal.NewFromInt(25)) }),
			int64(3)).Return(nil)
		producer.On("Send", mock.Anything, ledgerEventsTopic, mock.Anything, mock.Anything).Return(nil)

		refund, err := svc.Resolve(ctx, id, models.ResolutionPartialRefund, 25, 3)
		assert.NoError(t, err)
		assert.True(t, refund.Equal(decimal.NewFromInt(25)))
		disputeRepo.AssertExpectations(t)
	})

	t.Run("PercentageOutOfRange", func(t *testing.T) {
		svc := NewDisputeService(new(mockDisputeRepo), new(mockWalletRepo), new(mockRedis), new(mockProducer))

		_, err := svc.Resolve(ctx, id, models.ResolutionPartialRefund, 101, 3)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidRefundPercentage)

		_, err = svc.Resolve(ctx, id, models.ResolutionPartialRefund, -1, 3)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidRefundPercentage)
	})

	t.Run("UnknownResolution", func(t *testing.T) {
		svc := NewDisputeService(new(mockDisputeRepo), new(mockWalletRepo), new(mockRedis), new(mockProducer))
		_, err := svc.Resolve(ctx, id, models.ResolutionType("split_evenly"), 0, 3)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})

	t.Run("AlreadyResolved", func(t *testing.T) {
		disputeRepo := new(mockDisputeRepo)
		svc := NewDisputeService(disputeRepo, new(mockWalletRepo), new(mockRedis), new(mockProducer))

		resolved := openDispute(id, "100.00")
		resolved.Status = models.DisputeResolved
		disputeRepo.On("GetByID", mock.Anything, id).Return(resolved, nil)

		_, err := svc.Resolve(ctx, id, models.ResolutionNoAction, 0, 3)
		assert.ErrorIs(t, err, pkgerrors.ErrDisputeAlreadyResolved)
		disputeRepo.AssertNotCalled(t, "Resolve",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NoActionZeroRefund", func(t *testing.T) {
		disputeRepo := new(mockDisputeRepo)
		redisClient := new(mockRedis)
		producer := new(mockProducer)
		svc := NewDisputeService(disputeRepo, new(mockWalletRepo), redisClient, producer)

		disputeRepo.On("GetByID", mock.Anything, id).Return(openDispute(id, "100.00"), nil)
		redisClient.On("SetNX", mock.Anything, "wallet:2:lock", "locked", walletLockTTL).Return(true, nil)
		redisClient.On("Del", mock.Anything, "wallet:2:lock").Return(nil)
		disputeRepo.On("Resolve", mock.Anything, id, models.ResolutionNoAction, int64(0),
			mock.MatchedBy(func(refund decimal.Decimal) bool { return refund.IsZero() }),
			int64(3)).Return(nil)
		producer.On("Send", mock.Anything, ledgerEventsTopic, mock.Anything, mock.Anything).Return(nil)

		refund, err := svc.Resolve(ctx, id, models.ResolutionNoAction, 0, 3)
		assert.NoError(t, err)
		assert.True(t, refund.IsZero())
	})
}

func TestDisputeService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresReasonAndAmount", func(t *testing.T) {
		svc := NewDisputeService(new(mockDisputeRepo), new(mockWalletRepo), new(mockRedis), new(mockProducer))

		err := svc.Open(ctx, 5, &models.Dispute{Amount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

		err = svc.Open(ctx, 5, &models.Dispute{Reason: "bad account", Amount: decimal.Zero})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	})

	t.Run("Success", func(t *testing.T) {
		disputeRepo := new(mockDisputeRepo)
		walletRepo := new(mockWalletRepo)
		svc := NewDisputeService(disputeRepo, walletRepo, new(mockRedis), new(mockProducer))

		dispute := &models.Dispute{Amount: decimal.NewFromInt(10), SellerWalletID: 1, ProviderWalletID: 2, Reason: "bad account"}
		walletRepo.On("GetByUserID", mock.Anything, int64(5)).Return(&models.Wallet{ID: 1, UserID: 5}, nil)
		walletRepo.On("GetByID", mock.Anything, int64(2)).Return(&models.Wallet{ID: 2, UserID: 9}, nil)
		disputeRepo.On("Create", mock.Anything, dispute).Return(nil)

		err := svc.Open(ctx, 5, dispute)
		assert.NoError(t, err)
		disputeRepo.AssertExpectations(t)
	})

	t.Run("SellerWalletMustBelongToCaller", func(t *testing.T) {
		disputeRepo := new(mockDisputeRepo)
		walletRepo := new(mockWalletRepo)
		svc := NewDisputeService(disputeRepo, walletRepo, new(mockRedis), new(mockProducer))

		// caller owns wallet 1 but claims wallet 42
		walletRepo.On("GetByUserID", mock.Anything, int64(5)).Return(&models.Wallet{ID: 1, UserID: 5}, nil)

		err := svc.Open(ctx, 5, &models.Dispute{
			Amount: decimal.NewFromInt(10), SellerWalletID: 42, ProviderWalletID: 2, Reason: "bad account",
		})
		assert.ErrorIs(t, err, pkgerrors.ErrNotOwner)
		disputeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ProviderWalletMustExist", func(t *testing.T) {
		disputeRepo := new(mockDisputeRepo)
		walletRepo := new(mockWalletRepo)
		svc := NewDisputeService(disputeRepo, walletRepo, new(mockRedis), new(mockProducer))

		walletRepo.On("GetByUserID", mock.Anything, int64(5)).Return(&models.Wallet{ID: 1, UserID: 5}, nil)
		walletRepo.On("GetByID", mock.Anything, int64(999)).Return(nil, pkgerrors.ErrWalletNotFound)

		err := svc.Open(ctx, 5, &models.Dispute{
			Amount: decimal.NewFromInt(10), SellerWalletID: 1, ProviderWalletID: 999, Reason: "bad account",
		})
		assert.ErrorIs(t, err, pkgerrors.ErrWalletNotFound)
		disputeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDisputeService_GetReportsSLA(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	svc := NewDisputeService(disputeRepo, new(mockWalletRepo), new(mockRedis), new(mockProducer))
	id := uuid.New()

	stale := openDispute(id, "50.00")
	stale.OpenedAt = time.Now().Add(-80 * time.Hour)
	disputeRepo.On("GetByID", mock.Anything, id).Return(stale, nil)

	_, sla, err := svc.Get(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, "overdue", sla)
}
