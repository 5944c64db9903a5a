package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type DisputeService interface {
	Open(ctx context.Context, sellerUserID int64, dispute *models.Dispute) error
	Get(ctx context.Context, id uuid.UUID) (*models.Dispute, string, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution models.ResolutionType, percentage int64, resolvedBy int64) (decimal.Decimal, error)
}

type disputeService struct {
	disputeRepo repository.DisputeRepository
	walletRepo  repository.WalletRepository
	redis       redis.RedisClient
	producer    kafka.KafkaProducer
}

func NewDisputeService(
	disputeRepo repository.DisputeRepository,
	walletRepo repository.WalletRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
) *disputeService {
	return &disputeService{disputeRepo: disputeRepo, walletRepo: walletRepo, redis: redisClient, producer: producer}
}

// Open records a new dispute. The seller wallet in the payload must belong to
// the caller, and the provider wallet must exist; wallet ids are otherwise
// attacker-controlled input.
func (s *disputeService) Open(ctx context.Context, sellerUserID int64, dispute *models.Dispute) error {
	if dispute == nil || !dispute.Amount.IsPositive() || dispute.Reason == "" {
		return pkgerrors.ErrInvalidInput
	}

	sellerWallet, err := s.walletRepo.GetByUserID(ctx, sellerUserID)
	if err != nil {
		return err
	}
	if sellerWallet.ID != dispute.SellerWalletID {
		slog.Warn("dispute rejected: seller wallet mismatch",
			"user_id", sellerUserID,
			"claimed_wallet_id", dispute.SellerWalletID,
			"actual_wallet_id", sellerWallet.ID,
		)
		return pkgerrors.ErrNotOwner
	}
	if _, err := s.walletRepo.GetByID(ctx, dispute.ProviderWalletID); err != nil {
		return err
	}

	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return err
	}
	slog.Info("dispute opened", "dispute_id", dispute.ID, "purchase_id", dispute.PurchaseID, "amount", dispute.Amount.String())
	return nil
}

// Get returns the dispute with its display-only SLA indicator.
func (s *disputeService) Get(ctx context.Context, id uuid.UUID) (*models.Dispute, string, error) {
	dispute, err := s.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return dispute, dispute.SLAIndicator(time.Now()), nil
}

func (s *disputeService) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	return s.disputeRepo.ListOpen(ctx, limit, offset)
}

// Resolve applies the resolution exactly once and returns the seller refund.
// percentage is only read for partial refunds and must sit in [0,100].
func (s *disputeService) Resolve(ctx context.Context, id uuid.UUID, resolution models.ResolutionType, percentage int64, resolvedBy int64) (decimal.Decimal, error) {
	tracer := otel.Tracer("dispute-service")
	ctx, span := tracer.Start(ctx, "ResolveDispute")
	span.SetAttributes(
		attribute.String("dispute_id", id.String()),
		attribute.String("resolution", string(resolution)),
	)
	defer span.End()

	switch resolution {
	case models.ResolutionRefundSeller, models.ResolutionFavorProvider, models.ResolutionNoAction:
	case models.ResolutionPartialRefund:
		if percentage < 0 || percentage > 100 {
			span.SetStatus(codes.Error, "percentage out of range")
			return decimal.Zero, pkgerrors.ErrInvalidRefundPercentage
		}
	default:
		return decimal.Zero, pkgerrors.ErrInvalidInput
	}

	dispute, err := s.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if dispute.Status == models.DisputeResolved || dispute.Status == models.DisputeClosed {
		return decimal.Zero, pkgerrors.ErrDisputeAlreadyResolved
	}

	refund := models.SellerRefund(dispute.Amount, resolution, percentage)

	lockKey := fmt.Sprintf("wallet:%d:lock", dispute.ProviderWalletID)
	ok, err := s.redis.SetNX(ctx, lockKey, "locked", walletLockTTL)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, fmt.Errorf("failed to acquire wallet lock: %w", err)
	}
	if !ok {
		return decimal.Zero, pkgerrors.ErrWalletLocked
	}
	defer s.redis.Del(ctx, lockKey)

	if err := s.disputeRepo.Resolve(ctx, id, resolution, percentage, refund, resolvedBy); err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	event := map[string]interface{}{
		"event_type":    "dispute_resolved",
		"dispute_id":    id.String(),
		"resolution":    resolution,
		"seller_refund": refund.String(),
	}
	if payload, err := json.Marshal(event); err == nil {
		if err := s.producer.Send(ctx, ledgerEventsTopic, "dispute-"+id.String(), payload); err != nil {
			slog.Error("failed to publish dispute event", "dispute_id", id, "error", err)
		}
	}

	slog.Info("dispute resolved",
		"dispute_id", id,
		"resolution", resolution,
		"seller_refund", refund.String(),
		"resolved_by", resolvedBy,
	)
	return refund, nil
}
