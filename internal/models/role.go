package models

// Role is the closed set of account roles. Handlers never compare role
// strings directly; authorization goes through Can.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleProvider         Role = "provider"
	RoleSeller           Role = "seller"
	RoleAffiliate        Role = "affiliate"
	RolePaymentValidator Role = "payment_validator"
	RoleConciliator      Role = "conciliator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProvider, RoleSeller, RoleAffiliate, RolePaymentValidator, RoleConciliator:
		return true
	}
	return false
}

// Action names a capability that a role may or may not hold.
type Action string

const (
	ActionManagePricing      Action = "pricing.manage"
	ActionManageValidators   Action = "validators.manage"
	ActionReviewTransfers    Action = "transfers.review"
	ActionSubmitTransfers    Action = "transfers.submit"
	ActionManageAffiliates   Action = "affiliates.manage"
	ActionProcessWithdrawals Action = "withdrawals.process"
	ActionRequestWithdrawal  Action = "withdrawals.request"
	ActionManageProducts     Action = "products.manage"
	ActionResolveDisputes    Action = "disputes.resolve"
	ActionOpenDisputes       Action = "disputes.open"
	ActionCompleteRecharges  Action = "recharges.complete"
	ActionAdjustWallets      Action = "wallets.adjust"
	ActionViewOwnWallet      Action = "wallet.view"
)

var capabilities = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionManagePricing:     true,
		ActionManageValidators:  true,
		ActionReviewTransfers:   true,
		ActionManageAffiliates:  true,
		ActionCompleteRecharges: true,
		ActionAdjustWallets:     true,
		ActionViewOwnWallet:     true,
	},
	RoleProvider: {
		ActionManageProducts:    true,
		ActionRequestWithdrawal: true,
		ActionViewOwnWallet:     true,
	},
	RoleSeller: {
		ActionOpenDisputes:      true,
		ActionRequestWithdrawal: true,
		ActionViewOwnWallet:     true,
	},
	RoleAffiliate: {
		ActionRequestWithdrawal: true,
		ActionViewOwnWallet:     true,
	},
	RolePaymentValidator: {
		ActionProcessWithdrawals: true,
		ActionSubmitTransfers:    true,
		ActionViewOwnWallet:      true,
	},
	RoleConciliator: {
		ActionResolveDisputes: true,
		ActionViewOwnWallet:   true,
	},
}

// Can reports whether role holds the capability for action.
func Can(role Role, action Action) bool {
	return capabilities[role][action]
}
