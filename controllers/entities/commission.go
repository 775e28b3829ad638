package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommissionEntity struct {
	ID            uint64          `json:"id"`
	ReferredID    uint64          `json:"referred_id"`
	DepositID     uint64          `json:"deposit_id"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	Percentage    decimal.Decimal `json:"percentage"`
	EarnAmount    decimal.Decimal `json:"earned_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
