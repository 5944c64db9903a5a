package service

import (
	"context"
	"log/slog"

	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type AdminService interface {
	ListValidators(ctx context.Context) ([]models.User, error)
	ApproveValidator(ctx context.Context, id int64, country string, adminID int64) error
	RejectValidator(ctx context.Context, id int64, adminID int64) error
}

type adminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) *adminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) ListValidators(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RolePaymentValidator)
}

// ApproveValidator activates a validator for one country.
func (s *adminService) ApproveValidator(ctx context.Context, id int64, country string, adminID int64) error {
	if country == "" {
		return pkgerrors.ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != models.RolePaymentValidator {
		return pkgerrors.ErrValidatorNotFound
	}
	if user.Status != models.UserPending {
		return pkgerrors.ErrInvalidStatusTransition
	}
	if err := s.userRepo.SetStatus(ctx, id, models.UserApproved, country); err != nil {
		return err
	}
	slog.Info("validator approved", "validator_id", id, "country", country, "admin_id", adminID)
	return nil
}

func (s *adminService) RejectValidator(ctx context.Context, id int64, adminID int64) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != models.RolePaymentValidator {
		return pkgerrors.ErrValidatorNotFound
	}
	if user.Status != models.UserPending {
		return pkgerrors.ErrInvalidStatusTransition
	}
	if err := s.userRepo.SetStatus(ctx, id, models.UserRejected, ""); err != nil {
		return err
	}
	slog.Info("validator rejected", "validator_id", id, "admin_id", adminID)
	return nil
}
