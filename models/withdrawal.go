package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/payvest/ledger/types"
)

type Withdrawal struct {
	ID               uint64                 `json:"id" gorm:"primaryKey"`
	UUID             uuid.UUID              `json:"uuid" gorm:"type:uuid;uniqueIndex"`
	AccountID        uint64                 `json:"account_id" gorm:"index;uniqueIndex:idx_withdrawals_idempotency"`
	Amount           decimal.Decimal        `json:"amount" gorm:"type:numeric(32,2)"`
	Method           types.WithdrawalMethod `json:"method"`
	AccountTitle     string                 `json:"account_title"`
	AccountNumber    string                 `json:"account_number"`
	BankName         null.String            `json:"bank_name"`
	ExternalDeducted decimal.Decimal        `json:"external_deducted" gorm:"type:numeric(32,2);default:0"`
	DepositDeducted  decimal.Decimal        `json:"deposit_deducted" gorm:"type:numeric(32,2);default:0"`
	ReferralDeducted decimal.Decimal        `json:"referral_deducted" gorm:"type:numeric(32,2);default:0"`
	WithdrawalType   types.WithdrawalType   `json:"withdrawal_type"`
	Status           types.WithdrawalStatus `json:"status" gorm:"default:pending;index"`
	TransactionID    null.String            `json:"transaction_id"`
	RejectedReason   null.String            `json:"rejected_reason"`
	IdempotencyKey   null.String            `json:"-" gorm:"uniqueIndex:idx_withdrawals_idempotency"`
	ProcessedAt      null.Time              `json:"processed_at"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Breakdown is the apportionment of a withdrawal across balance sources.
type Breakdown struct {
	External decimal.Decimal `json:"external"`
	Deposit  decimal.Decimal `json:"deposit"`
	Referral decimal.Decimal `json:"referral"`
}

func (b Breakdown) Total() decimal.Decimal {
	return b.External.Add(b.Deposit).Add(b.Referral)
}

func (w *Withdrawal) Breakdown() Breakdown {
	return Breakdown{
		External: w.ExternalDeducted,
		Deposit:  w.DepositDeducted,
		Referral: w.ReferralDeducted,
	}
}

type WithdrawalJSON struct {
	ID             uint64                 `json:"id"`
	UUID           uuid.UUID              `json:"uuid"`
	Amount         decimal.Decimal        `json:"amount"`
	Method         types.WithdrawalMethod `json:"method"`
	AccountTitle   string                 `json:"account_title"`
	AccountNumber  string                 `json:"account_number"`
	BankName       null.String            `json:"bank_name"`
	Breakdown      Breakdown              `json:"breakdown"`
	WithdrawalType types.WithdrawalType   `json:"withdrawal_type"`
	Status         types.WithdrawalStatus `json:"status"`
	TransactionID  null.String            `json:"transaction_id"`
	RejectedReason null.String            `json:"rejected_reason"`
	ProcessedAt    null.Time              `json:"processed_at"`
	CreatedAt      time.Time              `json:"created_at"`
}

func (w *Withdrawal) ToJSON() WithdrawalJSON {
	return WithdrawalJSON{
		ID:             w.ID,
		UUID:           w.UUID,
		Amount:         w.Amount,
		Method:         w.Method,
		AccountTitle:   w.AccountTitle,
		AccountNumber:  w.AccountNumber,
		BankName:       w.BankName,
		Breakdown:      w.Breakdown(),
		WithdrawalType: w.WithdrawalType,
		Status:         w.Status,
		TransactionID:  w.TransactionID,
		RejectedReason: w.RejectedReason,
		ProcessedAt:    w.ProcessedAt,
		CreatedAt:      w.CreatedAt,
	}
}
