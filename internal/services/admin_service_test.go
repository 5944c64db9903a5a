package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

func TestAdminService_ApproveValidator(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		svc := NewAdminService(userRepo)

		userRepo.On("GetByID", mock.Anything, int64(3)).Return(&models.User{
			ID: 3, Role: models.RolePaymentValidator, Status: models.UserPending,
		}, nil)
		userRepo.On("SetStatus", mock.Anything, int64(3), models.UserApproved, "BR").Return(nil)

		err := svc.ApproveValidator(ctx, 3, "BR", 9)
		assert.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("CountryRequired", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		svc := NewAdminService(userRepo)

		err := svc.ApproveValidator(ctx, 3, "", 9)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("NotAValidator", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		svc := NewAdminService(userRepo)

		userRepo.On("GetByID", mock.Anything, int64(3)).Return(&models.User{
			ID: 3, Role: models.RoleSeller, Status: models.UserPending,
		}, nil)

		err := svc.ApproveValidator(ctx, 3, "BR", 9)
		assert.ErrorIs(t, err, pkgerrors.ErrValidatorNotFound)
	})

	t.Run("AlreadyReviewed", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		svc := NewAdminService(userRepo)

		userRepo.On("GetByID", mock.Anything, int64(3)).Return(&models.User{
			ID: 3, Role: models.RolePaymentValidator, Status: models.UserApproved,
		}, nil)

		err := svc.ApproveValidator(ctx, 3, "BR", 9)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidStatusTransition)
		userRepo.AssertNotCalled(t, "SetStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminService_RejectValidator(t *testing.T) {
	userRepo := new(mockUserRepo)
	svc := NewAdminService(userRepo)

	userRepo.On("GetByID", mock.Anything, int64(3)).Return(&models.User{
		ID: 3, Role: models.RolePaymentValidator, Status: models.UserPending,
	}, nil)
	userRepo.On("SetStatus", mock.Anything, int64(3), models.UserRejected, "").Return(nil)

	err := svc.RejectValidator(context.Background(), 3, 9)
	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestAdminService_ListValidators(t *testing.T) {
	userRepo := new(mockUserRepo)
	svc := NewAdminService(userRepo)

	userRepo.On("ListByRole", mock.Anything, models.RolePaymentValidator).Return([]models.User{
		{ID: 3, Role: models.RolePaymentValidator, Status: models.UserPending},
	}, nil)

	validators, err := svc.ListValidators(context.Background())
	assert.NoError(t, err)
	assert.Len(t, validators, 1)
}
