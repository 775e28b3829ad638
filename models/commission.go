package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission is the append-only record of a referral commission paid for one
// approved deposit.
type Commission struct {
	ID            uint64          `json:"id" gorm:"primaryKey"`
	ReferrerID    uint64          `json:"referrer_id" gorm:"index"`
	ReferredID    uint64          `json:"referred_id"`
	DepositID     uint64          `json:"deposit_id" gorm:"uniqueIndex"`
	DepositAmount decimal.Decimal `json:"deposit_amount" gorm:"type:numeric(32,2)"`
	Percentage    decimal.Decimal `json:"percentage" gorm:"type:numeric(5,2)"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(32,2)"`
	CreatedAt     time.Time       `json:"created_at"`
}
