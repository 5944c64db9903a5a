package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

const (
	walletLockTTL     = 3 * time.Second
	requestKeyTTL     = 24 * time.Hour
	ledgerEventsTopic = "ledger.events"
)

type WalletService interface {
	GetWallet(ctx context.Context, userID int64) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.WalletTransaction, error)
	CreateRecharge(ctx context.Context, userID int64, amount decimal.Decimal, paymentMethod, externalRef, requestID string) (*models.Recharge, error)
	CompleteRecharge(ctx context.Context, rechargeID uuid.UUID) error
	FailRecharge(ctx context.Context, rechargeID uuid.UUID, status models.RechargeStatus) error
	CompleteRechargeByRef(ctx context.Context, externalRef string, succeeded bool) error
	AdjustWallet(ctx context.Context, walletID int64, amount decimal.Decimal, reason string, adminID int64) (*models.WalletTransaction, error)
}

type walletService struct {
	walletRepo   repository.WalletRepository
	rechargeRepo repository.RechargeRepository
	redis        redis.RedisClient
	producer     kafka.KafkaProducer
}

func NewWalletService(
	walletRepo repository.WalletRepository,
	rechargeRepo repository.RechargeRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
) *walletService {
	return &walletService{
		walletRepo:   walletRepo,
		rechargeRepo: rechargeRepo,
		redis:        redisClient,
		producer:     producer,
	}
}

func (s *walletService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	return s.walletRepo.GetByUserID(ctx, userID)
}

func (s *walletService) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.WalletTransaction, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.walletRepo.ListTransactions(ctx, wallet.ID, limit, offset)
}

// CreateRecharge opens a pending recharge. The request id makes retried
// client calls idempotent; nothing is credited until the payment confirms.
// The external ref is the correlation key the gateway echoes back on
// payment.confirmations; one is generated when the caller has none yet.
func (s *walletService) CreateRecharge(ctx context.Context, userID int64, amount decimal.Decimal, paymentMethod, externalRef, requestID string) (*models.Recharge, error) {
	tracer := otel.Tracer("wallet-service")
	ctx, span := tracer.Start(ctx, "CreateRecharge")
	defer span.End()

	if !amount.IsPositive() || paymentMethod == "" || requestID == "" {
		span.SetStatus(codes.Error, "invalid input")
		return nil, pkgerrors.ErrInvalidInput
	}

	requestKey := fmt.Sprintf("request:%s", requestID)
	ok, err := s.redis.SetNX(ctx, requestKey, "pending", requestKeyTTL)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to reserve request id: %w", err)
	}
	if !ok {
		slog.Warn("recharge request already processed", "request_id", requestID, "user_id", userID)
		return nil, pkgerrors.ErrRequestAlreadyProcessed
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.redis.Del(ctx, requestKey)
		return nil, err
	}
	if wallet.Status != models.WalletActive {
		s.redis.Del(ctx, requestKey)
		return nil, pkgerrors.ErrWalletNotActive
	}

	if externalRef == "" {
		externalRef = uuid.NewString()
	}
	recharge := &models.Recharge{
		WalletID:      wallet.ID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		ExternalRef:   sql.NullString{String: externalRef, Valid: true},
	}
	if err := s.rechargeRepo.Create(ctx, recharge); err != nil {
		s.redis.Del(ctx, requestKey)
		span.RecordError(err)
		return nil, err
	}

	slog.Info("recharge created", "recharge_id", recharge.ID, "wallet_id", wallet.ID, "amount", amount.String())
	return recharge, nil
}

func (s *walletService) CompleteRecharge(ctx context.Context, rechargeID uuid.UUID) error {
	tracer := otel.Tracer("wallet-service")
	ctx, span := tracer.Start(ctx, "CompleteRecharge")
	defer span.End()

	recharge, err := s.rechargeRepo.GetByID(ctx, rechargeID)
	if err != nil {
		return err
	}

	unlock, err := s.lockWallet(ctx, recharge.WalletID)
	if err != nil {
		return err
	}
	defer unlock()

	ledger, err := s.rechargeRepo.Complete(ctx, rechargeID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.publishLedgerEvent(ctx, "recharge_completed", ledger)
	return nil
}

func (s *walletService) FailRecharge(ctx context.Context, rechargeID uuid.UUID, status models.RechargeStatus) error {
	return s.rechargeRepo.Fail(ctx, rechargeID, status)
}

// CompleteRechargeByRef resolves a payment gateway confirmation to its
// recharge. Used by the kafka consumer.
func (s *walletService) CompleteRechargeByRef(ctx context.Context, externalRef string, succeeded bool) error {
	recharge, err := s.rechargeRepo.GetByExternalRef(ctx, externalRef)
	if err != nil {
		return err
	}
	if succeeded {
		return s.CompleteRecharge(ctx, recharge.ID)
	}
	return s.rechargeRepo.Fail(ctx, recharge.ID, models.RechargeFailed)
}

// AdjustWallet is the admin correction path (chargebacks, support credits).
// It runs through the version-guarded executor, so a concurrent mutation on
// the same wallet retries instead of clobbering.
func (s *walletService) AdjustWallet(ctx context.Context, walletID int64, amount decimal.Decimal, reason string, adminID int64) (*models.WalletTransaction, error) {
	tracer := otel.Tracer("wallet-service")
	ctx, span := tracer.Start(ctx, "AdjustWallet")
	defer span.End()

	if amount.IsZero() {
		return nil, pkgerrors.ErrZeroAmount
	}
	if reason == "" {
		return nil, pkgerrors.ErrInvalidInput
	}

	unlock, err := s.lockWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entryType := models.EntryCredit
	if amount.IsNegative() {
		entryType = models.EntryDebit
	}
	ledger, err := s.walletRepo.ApplyEntry(ctx, repository.LedgerEntry{
		WalletID:          walletID,
		Amount:            amount,
		Type:              entryType,
		RelatedEntityType: "adjustment",
		RelatedEntityID:   strconv.FormatInt(adminID, 10),
		Description:       reason,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	slog.Info("wallet adjusted", "wallet_id", walletID, "amount", amount.String(), "admin_id", adminID, "reason", reason)
	s.publishLedgerEvent(ctx, "wallet_adjusted", ledger)
	return ledger, nil
}

// lockWallet takes the short redis lock that serializes financial mutations
// on one wallet across instances. The database conditional update is the
// real guard; the lock just fails fast.
func (s *walletService) lockWallet(ctx context.Context, walletID int64) (func(), error) {
	lockKey := fmt.Sprintf("wallet:%d:lock", walletID)
	ok, err := s.redis.SetNX(ctx, lockKey, "locked", walletLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire wallet lock: %w", err)
	}
	if !ok {
		return nil, pkgerrors.ErrWalletLocked
	}
	return func() { s.redis.Del(ctx, lockKey) }, nil
}

func (s *walletService) publishLedgerEvent(ctx context.Context, eventType string, ledger *models.WalletTransaction) {
	publishLedgerEvent(ctx, s.producer, eventType, ledger)
}

// publishLedgerEvent is best effort: the ledger row is already committed, so
// a broker hiccup is logged, not surfaced.
func publishLedgerEvent(ctx context.Context, producer kafka.KafkaProducer, eventType string, ledger *models.WalletTransaction) {
	if ledger == nil {
		return
	}
	event, err := json.Marshal(map[string]interface{}{
		"event_type":    eventType,
		"wallet_id":     ledger.WalletID,
		"type":          ledger.Type,
		"amount":        ledger.Amount.String(),
		"balance_after": ledger.BalanceAfter.String(),
		"related_type":  ledger.RelatedEntityType,
		"related_id":    ledger.RelatedEntityID,
		"created_at":    ledger.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("failed to marshal ledger event", "error", err)
		return
	}
	if err := producer.Send(ctx, ledgerEventsTopic, fmt.Sprintf("wallet-%d", ledger.WalletID), event); err != nil {
		slog.Error("failed to publish ledger event", "event_type", eventType, "wallet_id", ledger.WalletID, "error", err)
	}
}
