package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID                        uint64          `json:"id" gorm:"primaryKey"`
	UID                       string          `json:"uid" gorm:"uniqueIndex"`
	Email                     string          `json:"email"`
	Role                      string          `json:"role" gorm:"default:member"`
	ReferralCode              string          `json:"referral_code" gorm:"uniqueIndex"`
	ReferredBy                sql.NullString  `json:"referred_by"`
	DepositBalance            decimal.Decimal `json:"deposit_balance" gorm:"type:numeric(32,2);default:0" validate:"ValidateNonNegative"`
	ReferralEarnings          decimal.Decimal `json:"referral_earnings" gorm:"type:numeric(32,2);default:0" validate:"ValidateNonNegative"`
	ExternalEarningsWithdrawn decimal.Decimal `json:"external_earnings_withdrawn" gorm:"type:numeric(32,2);default:0" validate:"ValidateNonNegative"`
	IsBlocked                 bool            `json:"is_blocked" gorm:"default:false"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

func (a Account) ValidateNonNegative(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(decimal.Zero)
}

func (a *Account) HavingReferrer() bool {
	return a.ReferredBy.Valid && len(a.ReferredBy.String) > 0
}

// AvailableExternal is max(0, totalEarned - ExternalEarningsWithdrawn).
func (a *Account) AvailableExternal(totalEarned decimal.Decimal) decimal.Decimal {
	available := totalEarned.Sub(a.ExternalEarningsWithdrawn)
	if available.IsNegative() {
		return decimal.Zero
	}

	return available
}

func (a *Account) TotalAvailable(totalEarned decimal.Decimal) decimal.Decimal {
	return a.AvailableExternal(totalEarned).Add(a.DepositBalance).Add(a.ReferralEarnings)
}

func (a *Account) IsAdmin() bool {
	return a.Role == "admin" || a.Role == "superadmin"
}

type AccountJSON struct {
	DepositBalance            decimal.Decimal `json:"deposit_balance"`
	ReferralEarnings          decimal.Decimal `json:"referral_earnings"`
	ExternalEarningsWithdrawn decimal.Decimal `json:"external_earnings_withdrawn"`
	AvailableExternal         decimal.Decimal `json:"available_external_earnings"`
	TotalAvailable            decimal.Decimal `json:"total_available"`
}

func (a *Account) ToJSON(totalEarned decimal.Decimal) AccountJSON {
	return AccountJSON{
		DepositBalance:            a.DepositBalance,
		ReferralEarnings:          a.ReferralEarnings,
		ExternalEarningsWithdrawn: a.ExternalEarningsWithdrawn,
		AvailableExternal:         a.AvailableExternal(totalEarned),
		TotalAvailable:            a.TotalAvailable(totalEarned),
	}
}
