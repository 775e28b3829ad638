package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralSummaryEntity struct {
	ID               uint64          `json:"id"`
	Day              string          `json:"day"`
	Earned           decimal.Decimal `json:"earned"`
	FriendsDeposited uint64          `json:"friends_deposited"`
	Friends          uint64          `json:"friends"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
