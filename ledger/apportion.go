package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/payvest/ledger/models"
	"github.com/payvest/ledger/types"
)

// MinorUnits is the number of decimal places of the ledger currency.
const MinorUnits = 2

// Sources are the balances a withdrawal may draw from, in priority order.
type Sources struct {
	External decimal.Decimal
	Deposit  decimal.Decimal
	Referral decimal.Decimal
}

func (s Sources) Total() decimal.Decimal {
	return s.External.Add(s.Deposit).Add(s.Referral)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}

	return d
}

type Apportionment struct {
	Breakdown models.Breakdown
	Type      types.WithdrawalType
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(MinorUnits)) {
		return ErrInvalidAmount.Withf("amount must have at most %d decimal places", MinorUnits)
	}

	return nil
}

// Apportion splits amount across sources: external earnings first, then the
// deposit balance, then referral earnings. The part not covered by external
// earnings must reach minimum whenever it is non-zero.
func Apportion(amount decimal.Decimal, sources Sources, minimum decimal.Decimal) (*Apportionment, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}

	sources = Sources{
		External: nonNegative(sources.External),
		Deposit:  nonNegative(sources.Deposit),
		Referral: nonNegative(sources.Referral),
	}

	if amount.GreaterThan(sources.Total()) {
		return nil, ErrInsufficientBalance.Withf("requested %s, available %s", amount.StringFixed(MinorUnits), sources.Total().StringFixed(MinorUnits))
	}

	fromOthers := amount.Sub(sources.External)
	if fromOthers.IsPositive() && fromOthers.LessThan(minimum) {
		return nil, ErrBelowMinimum.Withf("at least %s must be drawn from deposit and referral balances, got %s", minimum.StringFixed(MinorUnits), fromOthers.StringFixed(MinorUnits))
	}

	remaining := amount
	take := func(available decimal.Decimal) decimal.Decimal {
		taken := decimal.Min(remaining, available)
		remaining = remaining.Sub(taken)
		return taken
	}

	var breakdown models.Breakdown
	breakdown.External = take(sources.External)
	breakdown.Deposit = take(sources.Deposit)
	breakdown.Referral = take(sources.Referral)

	return &Apportionment{
		Breakdown: breakdown,
		Type:      classify(breakdown),
	}, nil
}

func classify(b models.Breakdown) types.WithdrawalType {
	fromReferral := b.Referral.IsPositive()
	fromInvestment := b.Deposit.Add(b.External).IsPositive()

	switch {
	case fromReferral && fromInvestment:
		return types.WithdrawalTypeBoth
	case fromReferral:
		return types.WithdrawalTypeReferralEarnings
	default:
		return types.WithdrawalTypeInvestmentProfit
	}
}
