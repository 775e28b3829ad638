package types

type DepositStatus string

var (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

func (s DepositStatus) IsValid() bool {
	return s == DepositStatusPending || s == DepositStatusApproved || s == DepositStatusRejected
}

func (s DepositStatus) IsTerminal() bool {
	return s == DepositStatusApproved || s == DepositStatusRejected
}

type WithdrawalStatus string

var (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) IsValid() bool {
	return s == WithdrawalStatusPending || s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

type WithdrawalMethod string

var (
	MethodBank      WithdrawalMethod = "bank"
	MethodEasypaisa WithdrawalMethod = "easypaisa"
	MethodJazzcash  WithdrawalMethod = "jazzcash"
	MethodCrypto    WithdrawalMethod = "crypto"
)

var WithdrawalMethods = []WithdrawalMethod{MethodBank, MethodEasypaisa, MethodJazzcash, MethodCrypto}

func (m WithdrawalMethod) IsValid() bool {
	for _, method := range WithdrawalMethods {
		if m == method {
			return true
		}
	}

	return false
}

type WithdrawalType string

var (
	WithdrawalTypeInvestmentProfit WithdrawalType = "investment_profit"
	WithdrawalTypeReferralEarnings WithdrawalType = "referral_earnings"
	WithdrawalTypeBoth             WithdrawalType = "both"
)

// OperationKind names the balance source an operation row touches.
type OperationKind = string

var (
	KindDeposit  OperationKind = "deposit"
	KindReferral OperationKind = "referral"
	KindExternal OperationKind = "external"
)

type Role = string

var (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)
