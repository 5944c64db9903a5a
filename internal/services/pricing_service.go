package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

const (
	pricingCacheKey = "pricing:current"
	pricingCacheTTL = 10 * time.Minute
)

type PricingService interface {
	Get(ctx context.Context) (*models.PricingConfig, error)
	Update(ctx context.Context, cfg *models.PricingConfig) error
}

type pricingService struct {
	pricingRepo repository.PricingRepository
	redis       redis.RedisClient
}

func NewPricingService(pricingRepo repository.PricingRepository, redisClient redis.RedisClient) *pricingService {
	return &pricingService{pricingRepo: pricingRepo, redis: redisClient}
}

// Get serves the current config from cache when possible. The cache key is
// deleted on every update, so a stale read cannot outlive an invalidation.
func (s *pricingService) Get(ctx context.Context) (*models.PricingConfig, error) {
	if cached, err := s.redis.Get(ctx, pricingCacheKey); err == nil {
		var cfg models.PricingConfig
		if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
			return &cfg, nil
		}
		slog.Warn("failed to unmarshal cached pricing config", "error", err)
	} else if !stderrors.Is(err, redis.ErrKeyNotFound) {
		slog.Warn("pricing cache read failed", "error", err)
	}

	cfg, err := s.pricingRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(cfg); err == nil {
		if err := s.redis.Set(ctx, pricingCacheKey, string(payload), pricingCacheTTL); err != nil {
			slog.Warn("failed to cache pricing config", "error", err)
		}
	}
	return cfg, nil
}

// Update appends a new version and invalidates the cache.
func (s *pricingService) Update(ctx context.Context, cfg *models.PricingConfig) error {
	if cfg == nil {
		return pkgerrors.ErrInvalidInput
	}
	if cfg.MarkupPercent.IsNegative() || cfg.WithdrawalFee.IsNegative() || cfg.ReferralApprovalFee.IsNegative() {
		return pkgerrors.ErrInvalidInput
	}

	if err := s.pricingRepo.Insert(ctx, cfg); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, pricingCacheKey); err != nil {
		slog.Error("failed to invalidate pricing cache", "error", err)
		return fmt.Errorf("config saved but cache invalidation failed: %w", err)
	}

	slog.Info("pricing config updated",
		"version", cfg.Version,
		"markup_percent", cfg.MarkupPercent.String(),
		"withdrawal_fee", cfg.WithdrawalFee.String(),
		"referral_approval_fee", cfg.ReferralApprovalFee.String(),
	)
	return nil
}
