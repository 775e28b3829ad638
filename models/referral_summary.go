package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralSummary is a daily rollup of one referrer's commissions.
type ReferralSummary struct {
	ID               uint64          `json:"id" gorm:"primaryKey"`
	AccountID        uint64          `json:"account_id" gorm:"uniqueIndex:idx_referral_summaries_day"`
	Day              time.Time       `json:"day" gorm:"type:date;uniqueIndex:idx_referral_summaries_day"`
	Earned           decimal.Decimal `json:"earned" gorm:"type:numeric(32,2);default:0"`
	FriendsDeposited uint64          `json:"friends_deposited"`
	Friends          uint64          `json:"friends"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
