package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keymarket/ledger-service/internal/infrastructure/crypto"
	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type WithdrawalService interface {
	Create(ctx context.Context, userID int64, amount decimal.Decimal, paymentMethod, paymentDetails, requestID string) (*models.WithdrawalRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error)
	Approve(ctx context.Context, id uuid.UUID, validatorID int64) error
	Reject(ctx context.Context, id uuid.UUID, validatorID int64, reason string) error
	Complete(ctx context.Context, id uuid.UUID, validatorID int64) error
	DecryptedDetails(req *models.WithdrawalRequest) string
}

type withdrawalService struct {
	withdrawalRepo repository.WithdrawalRepository
	walletRepo     repository.WalletRepository
	transferRepo   repository.TransferRepository
	redis          redis.RedisClient
	producer       kafka.KafkaProducer
	cipher         *crypto.Cipher
}

func NewWithdrawalService(
	withdrawalRepo repository.WithdrawalRepository,
	walletRepo repository.WalletRepository,
	transferRepo repository.TransferRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	cipher *crypto.Cipher,
) *withdrawalService {
	return &withdrawalService{
		withdrawalRepo: withdrawalRepo,
		walletRepo:     walletRepo,
		transferRepo:   transferRepo,
		redis:          redisClient,
		producer:       producer,
		cipher:         cipher,
	}
}

// Create opens a pending request. The balance is checked for an early
// rejection, but nothing is held; completion re-checks inside the
// transaction.
func (s *withdrawalService) Create(ctx context.Context, userID int64, amount decimal.Decimal, paymentMethod, paymentDetails, requestID string) (*models.WithdrawalRequest, error) {
	tracer := otel.Tracer("withdrawal-service")
	ctx, span := tracer.Start(ctx, "CreateWithdrawal")
	defer span.End()

	if !amount.IsPositive() || paymentMethod == "" || paymentDetails == "" || requestID == "" {
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
	if wallet.Balance.LessThan(amount) {
		s.redis.Del(ctx, requestKey)
		return nil, pkgerrors.ErrInsufficientFunds
	}

	encrypted, err := s.cipher.Encrypt(paymentDetails)
	if err != nil {
		s.redis.Del(ctx, requestKey)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: failed to encrypt payment details", pkgerrors.ErrInternal)
	}

	req := &models.WithdrawalRequest{
		WalletID:       wallet.ID,
		Amount:         amount,
		PaymentMethod:  paymentMethod,
		PaymentDetails: encrypted,
	}
	if err := s.withdrawalRepo.Create(ctx, req); err != nil {
		s.redis.Del(ctx, requestKey)
		span.RecordError(err)
		return nil, err
	}

	slog.Info("withdrawal requested", "withdrawal_id", req.ID, "wallet_id", wallet.ID, "amount", amount.String())
	return req, nil
}

func (s *withdrawalService) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByStatus(ctx, models.WithdrawalPending, limit, offset)
}

func (s *withdrawalService) Approve(ctx context.Context, id uuid.UUID, validatorID int64) error {
	if err := s.withdrawalRepo.Approve(ctx, id, validatorID); err != nil {
		return err
	}
	slog.Info("withdrawal approved", "withdrawal_id", id, "validator_id", validatorID)
	return nil
}

func (s *withdrawalService) Reject(ctx context.Context, id uuid.UUID, validatorID int64, reason string) error {
	if reason == "" {
		return pkgerrors.ErrRejectionReasonRequired
	}
	if err := s.withdrawalRepo.Reject(ctx, id, validatorID, reason); err != nil {
		return err
	}
	slog.Info("withdrawal rejected", "withdrawal_id", id, "validator_id", validatorID, "reason", reason)
	return nil
}

// Complete is the irreversible step: the wallet is debited and a fund entry
// accrues to the validator for later settlement.
func (s *withdrawalService) Complete(ctx context.Context, id uuid.UUID, validatorID int64) error {
	tracer := otel.Tracer("withdrawal-service")
	ctx, span := tracer.Start(ctx, "CompleteWithdrawal")
	span.SetAttributes(attribute.String("withdrawal_id", id.String()))
	defer span.End()

	req, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !req.CanTransition(models.WithdrawalCompleted) {
		return pkgerrors.ErrInvalidStatusTransition
	}

	lockKey := fmt.Sprintf("wallet:%d:lock", req.WalletID)
	ok, err := s.redis.SetNX(ctx, lockKey, "locked", walletLockTTL)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to acquire wallet lock: %w", err)
	}
	if !ok {
		return pkgerrors.ErrWalletLocked
	}
	defer s.redis.Del(ctx, lockKey)

	ledger, err := s.withdrawalRepo.Complete(ctx, id, validatorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	entry := &models.FundEntry{
		ValidatorID: validatorID,
		Amount:      req.Amount,
	}
	if err := s.transferRepo.CreateEntry(ctx, entry); err != nil {
		// The withdrawal itself is committed; the settlement entry can be
		// recreated from the ledger.
		slog.Error("failed to create fund entry", "withdrawal_id", id, "validator_id", validatorID, "error", err)
	}

	publishLedgerEvent(ctx, s.producer, "withdrawal_completed", ledger)
	return nil
}

// DecryptedDetails exposes payment details to the processing validator.
func (s *withdrawalService) DecryptedDetails(req *models.WithdrawalRequest) string {
	return s.cipher.SafeDecrypt(req.PaymentDetails)
}
