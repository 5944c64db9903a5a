package errors

import "errors"

var (
	// auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("operation not permitted for role")

	// wallet / ledger
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletNotActive   = errors.New("wallet is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrVersionConflict   = errors.New("wallet version conflict")
	ErrWalletLocked      = errors.New("wallet is locked by another operation")
	ErrZeroAmount        = errors.New("amount must be positive")

	// recharge
	ErrRechargeNotFound = errors.New("recharge not found")

	// withdrawal
	ErrWithdrawalNotFound      = errors.New("withdrawal request not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")

	// affiliate / referral
	ErrAffiliateNotFound = errors.New("affiliate profile not found")
	ErrReferralNotFound  = errors.New("referral not found")

	// validator transfers
	ErrTransferNotFound = errors.New("validator transfer not found")
	ErrNoFundEntries    = errors.New("no fund entries to transfer")

	// disputes
	ErrDisputeNotFound         = errors.New("dispute not found")
	ErrDisputeAlreadyResolved  = errors.New("dispute already resolved")
	ErrInvalidRefundPercentage = errors.New("partial refund percentage must be between 0 and 100")

	// products / inventory
	ErrProductNotFound     = errors.New("product not found")
	ErrInventoryNotFound   = errors.New("inventory account not found")
	ErrInventorySold       = errors.New("inventory account already sold")
	ErrNotOwner            = errors.New("resource belongs to another user")
	ErrProviderNotApproved = errors.New("provider is not approved")

	// pricing / validators
	ErrPricingNotFound   = errors.New("pricing config not found")
	ErrValidatorNotFound = errors.New("payment validator not found")

	ErrRequestAlreadyProcessed = errors.New("request already processed")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInternal                = errors.New("internal error")
)
