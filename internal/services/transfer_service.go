package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type TransferService interface {
	ListPendingEntries(ctx context.Context, validatorID int64) ([]models.FundEntry, error)
	Submit(ctx context.Context, validatorID int64, entryIDs []int64) (*models.ValidatorTransfer, error)
	Approve(ctx context.Context, id uuid.UUID, adminID int64) error
	Reject(ctx context.Context, id uuid.UUID, adminID int64) error
}

type transferService struct {
	transferRepo     repository.TransferRepository
	walletRepo       repository.WalletRepository
	redis            redis.RedisClient
	producer         kafka.KafkaProducer
	platformWalletID int64
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	walletRepo repository.WalletRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	platformWalletID int64,
) *transferService {
	return &transferService{
		transferRepo:     transferRepo,
		walletRepo:       walletRepo,
		redis:            redisClient,
		producer:         producer,
		platformWalletID: platformWalletID,
	}
}

func (s *transferService) ListPendingEntries(ctx context.Context, validatorID int64) ([]models.FundEntry, error) {
	return s.transferRepo.ListPendingByValidator(ctx, validatorID)
}

func (s *transferService) Submit(ctx context.Context, validatorID int64, entryIDs []int64) (*models.ValidatorTransfer, error) {
	if len(entryIDs) == 0 {
		return nil, pkgerrors.ErrNoFundEntries
	}
	return s.transferRepo.Submit(ctx, validatorID, entryIDs)
}

// Approve settles the batch into the platform wallet.
func (s *transferService) Approve(ctx context.Context, id uuid.UUID, adminID int64) error {
	tracer := otel.Tracer("transfer-service")
	ctx, span := tracer.Start(ctx, "ApproveTransfer")
	span.SetAttributes(attribute.String("transfer_id", id.String()))
	defer span.End()

	lockKey := fmt.Sprintf("wallet:%d:lock", s.platformWalletID)
	ok, err := s.redis.SetNX(ctx, lockKey, "locked", walletLockTTL)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to acquire wallet lock: %w", err)
	}
	if !ok {
		return pkgerrors.ErrWalletLocked
	}
	defer s.redis.Del(ctx, lockKey)

	ledger, err := s.transferRepo.Approve(ctx, id, adminID, s.platformWalletID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	publishLedgerEvent(ctx, s.producer, "validator_transfer_approved", ledger)
	return nil
}

// Reject releases every attached fund entry back to the validator's pending
// pool.
func (s *transferService) Reject(ctx context.Context, id uuid.UUID, adminID int64) error {
	if err := s.transferRepo.Reject(ctx, id, adminID); err != nil {
		return err
	}
	slog.Info("validator transfer rejected", "transfer_id", id, "admin_id", adminID)
	return nil
}
