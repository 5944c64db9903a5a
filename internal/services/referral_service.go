package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type ReferralService interface {
	ListProfiles(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error)
	ListApplications(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error)
	Approve(ctx context.Context, referralID int64, adminID int64) error
	Reject(ctx context.Context, referralID int64, adminID int64) error
}

type referralService struct {
	affiliateRepo    repository.AffiliateRepository
	walletRepo       repository.WalletRepository
	pricing          PricingService
	redis            redis.RedisClient
	producer         kafka.KafkaProducer
	platformWalletID int64
}

func NewReferralService(
	affiliateRepo repository.AffiliateRepository,
	walletRepo repository.WalletRepository,
	pricing PricingService,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	platformWalletID int64,
) *referralService {
	return &referralService{
		affiliateRepo:    affiliateRepo,
		walletRepo:       walletRepo,
		pricing:          pricing,
		redis:            redisClient,
		producer:         producer,
		platformWalletID: platformWalletID,
	}
}

func (s *referralService) ListProfiles(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error) {
	return s.affiliateRepo.ListProfiles(ctx, limit, offset)
}

func (s *referralService) ListApplications(ctx context.Context, limit, offset int) ([]models.AffiliateProfile, error) {
	return s.affiliateRepo.ListApplications(ctx, limit, offset)
}

// Approve charges the affiliate wallet the configured approval fee and
// credits the platform wallet. An affiliate who cannot cover the fee keeps
// the referral pending and their balance untouched.
func (s *referralService) Approve(ctx context.Context, referralID int64, adminID int64) error {
	tracer := otel.Tracer("referral-service")
	ctx, span := tracer.Start(ctx, "ApproveReferral")
	span.SetAttributes(attribute.Int64("referral_id", referralID))
	defer span.End()

	referral, err := s.affiliateRepo.GetReferral(ctx, referralID)
	if err != nil {
		return err
	}
	if referral.ApprovalStatus != models.ApprovalPending {
		return pkgerrors.ErrInvalidStatusTransition
	}

	profile, err := s.affiliateRepo.GetProfileByID(ctx, referral.AffiliateID)
	if err != nil {
		return err
	}
	wallet, err := s.walletRepo.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}

	cfg, err := s.pricing.Get(ctx)
	if err != nil {
		return err
	}
	fee := cfg.ReferralApprovalFee

	if wallet.Balance.LessThan(fee) {
		span.SetStatus(codes.Error, "insufficient funds for approval fee")
		slog.Warn("referral approval refused, insufficient balance",
			"referral_id", referralID,
			"affiliate_id", profile.ID,
			"balance", wallet.Balance.String(),
			"fee", fee.String(),
		)
		return pkgerrors.ErrInsufficientFunds
	}

	lockKey := fmt.Sprintf("wallet:%d:lock", wallet.ID)
	ok, err := s.redis.SetNX(ctx, lockKey, "locked", walletLockTTL)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to acquire wallet lock: %w", err)
	}
	if !ok {
		return pkgerrors.ErrWalletLocked
	}
	defer s.redis.Del(ctx, lockKey)

	if err := s.affiliateRepo.ApproveReferral(ctx, referralID, wallet.ID, s.platformWalletID, fee, adminID); err != nil {
		span.RecordError(err)
		return err
	}

	event, err := json.Marshal(map[string]interface{}{
		"event_type":  "referral_approved",
		"referral_id": referralID,
		"fee":         fee.String(),
		"wallet_id":   wallet.ID,
	})
	if err == nil {
		if err := s.producer.Send(ctx, ledgerEventsTopic, fmt.Sprintf("referral-%d", referralID), event); err != nil {
			slog.Error("failed to publish referral event", "referral_id", referralID, "error", err)
		}
	}

	slog.Info("referral approved", "referral_id", referralID, "fee", fee.String(), "admin_id", adminID)
	return nil
}

func (s *referralService) Reject(ctx context.Context, referralID int64, adminID int64) error {
	referral, err := s.affiliateRepo.GetReferral(ctx, referralID)
	if err != nil {
		return err
	}
	if referral.ApprovalStatus != models.ApprovalPending {
		return pkgerrors.ErrInvalidStatusTransition
	}
	return s.affiliateRepo.RejectReferral(ctx, referralID, adminID)
}
