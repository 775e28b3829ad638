package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/payvest/ledger/types"
)

type Deposit struct {
	ID             uint64              `json:"id" gorm:"primaryKey"`
	UUID           uuid.UUID           `json:"uuid" gorm:"type:uuid;uniqueIndex"`
	AccountID      uint64              `json:"account_id" gorm:"index"`
	Amount         decimal.Decimal     `json:"amount" gorm:"type:numeric(32,2)" validate:"ValidateAmount"`
	Method         string              `json:"method"`
	TransactionRef string              `json:"transaction_ref"`
	Status         types.DepositStatus `json:"status" gorm:"default:pending;index"`
	ApprovedAt     null.Time           `json:"approved_at"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (d Deposit) ValidateAmount(amount decimal.Decimal) bool {
	return amount.IsPositive()
}

type DepositJSON struct {
	ID             uint64              `json:"id"`
	UUID           uuid.UUID           `json:"uuid"`
	Amount         decimal.Decimal     `json:"amount"`
	Method         string              `json:"method"`
	TransactionRef string              `json:"transaction_ref"`
	Status         types.DepositStatus `json:"status"`
	ApprovedAt     null.Time           `json:"approved_at"`
	CreatedAt      time.Time           `json:"created_at"`
}

func (d *Deposit) ToJSON() DepositJSON {
	return DepositJSON{
		ID:             d.ID,
		UUID:           d.UUID,
		Amount:         d.Amount,
		Method:         d.Method,
		TransactionRef: d.TransactionRef,
		Status:         d.Status,
		ApprovedAt:     d.ApprovedAt,
		CreatedAt:      d.CreatedAt,
	}
}
