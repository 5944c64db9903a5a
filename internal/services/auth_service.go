package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/keymarket/ledger-service/internal/infrastructure/kafka"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

const tokenTTL = time.Hour

type AuthService interface {
	Register(ctx context.Context, email, password string, role models.Role) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type authService struct {
	userRepo  repository.UserRepository
	redis     redis.RedisClient
	producer  kafka.KafkaProducer
	jwtSecret string
}

func NewAuthService(
	userRepo repository.UserRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	jwtSecret string,
) *authService {
	return &authService{
		userRepo:  userRepo,
		redis:     redisClient,
		producer:  producer,
		jwtSecret: jwtSecret,
	}
}

// Register creates the user together with their wallet. Providers and
// payment validators start as pending until an admin approves them.
func (s *authService) Register(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	if email == "" || password == "" || !role.Valid() {
		span.SetStatus(codes.Error, "invalid input")
		return nil, pkgerrors.ErrInvalidInput
	}
	if role == models.RoleAdmin {
		// admins are provisioned out of band
		span.SetStatus(codes.Error, "admin registration rejected")
		return nil, pkgerrors.ErrForbidden
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if existing != nil {
		slog.Warn("email already registered", "email", email, "existing_id", existing.ID)
		return nil, pkgerrors.ErrEmailExists
	}
	if err != nil && !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		span.RecordError(err)
		slog.Error("failed to check user existence", "email", email, "error", err)
		return nil, fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	status := models.UserApproved
	if role == models.RoleProvider || role == models.RolePaymentValidator {
		status = models.UserPending
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	}
	wallet := &models.Wallet{
		Balance:  decimal.Zero,
		Currency: "USD",
		Status:   models.WalletActive,
	}
	// one transaction: a user must never exist without a wallet
	if err := s.userRepo.CreateWithWallet(ctx, user, wallet); err != nil {
		span.RecordError(err)
		slog.Error("failed to register user", "email", email, "error", err)
		return nil, fmt.Errorf("%w: failed to register user", pkgerrors.ErrInternal)
	}

	event, err := json.Marshal(map[string]interface{}{
		"event_type": "user_registered",
		"user_id":    user.ID,
		"role":       user.Role,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err == nil {
		if err := s.producer.Send(ctx, "ledger.events", fmt.Sprintf("user-%d", user.ID), event); err != nil {
			slog.Error("failed to send registration event", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		slog.Warn("login failed", "email", email, "error", err)
		return "", pkgerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("invalid password", "email", email)
		return "", pkgerrors.ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.redis.Set(ctx, fmt.Sprintf("user:%d:token", user.ID), tokenString, tokenTTL); err != nil {
		slog.Error("failed to cache token", "user_id", user.ID, "error", err)
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return tokenString, nil
}
