package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/payvest/ledger/models"
)

const (
	ReasonCredited        = "credited"
	ReasonNoReferrer      = "no_referrer"
	ReasonSelfReferral    = "self_referral"
	ReasonZeroCommission  = "zero_commission"
	ReasonAlreadyCredited = "already_credited"
)

type CommissionResult struct {
	Credited   bool            `json:"credited"`
	Amount     decimal.Decimal `json:"amount"`
	ReferrerID uint64          `json:"referrer_id,omitempty"`
	Reason     string          `json:"reason"`
}

// CommissionAmount is depositAmount * percentage / 100 rounded to the
// currency's minor unit.
func CommissionAmount(depositAmount, percentage decimal.Decimal) decimal.Decimal {
	return depositAmount.Mul(percentage).Div(decimal.NewFromInt(100)).Round(MinorUnits)
}

// CreditReferralCommission pays the referrer of accountID its share of an
// approved deposit. A missing referral code is a normal outcome, a code that
// matches nobody is ErrReferrerNotFound. Calling it again for the same
// deposit does not pay twice.
func (s *Service) CreditReferralCommission(ctx context.Context, accountID, depositID uint64, depositAmount, percentage decimal.Decimal) (result *CommissionResult, err error) {
	defer observe("credit_commission", time.Now())
	defer func() { commissions.WithLabelValues(commissionOutcome(result, err)).Inc() }()

	if percentage.IsZero() {
		percentage = s.commissionPercentage
	}

	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		return nil, persistence(err)
	}

	if !account.HavingReferrer() {
		return &CommissionResult{Credited: false, Amount: decimal.Zero, Reason: ReasonNoReferrer}, nil
	}

	referrer, err := s.repo.FindAccountByReferralCode(ctx, account.ReferredBy.String)
	if err != nil {
		return nil, persistence(err)
	}

	if referrer.ID == account.ID {
		return &CommissionResult{Credited: false, Amount: decimal.Zero, ReferrerID: referrer.ID, Reason: ReasonSelfReferral}, nil
	}

	amount := CommissionAmount(depositAmount, percentage)
	if !amount.IsPositive() {
		return &CommissionResult{Credited: false, Amount: decimal.Zero, ReferrerID: referrer.ID, Reason: ReasonZeroCommission}, nil
	}

	result = &CommissionResult{Credited: true, Amount: amount, ReferrerID: referrer.ID, Reason: ReasonCredited}

	err = s.repo.Transaction(ctx, func(repo Repository) error {
		existing, err := repo.FindCommissionByDeposit(ctx, depositID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &CommissionResult{Credited: false, Amount: existing.Amount, ReferrerID: existing.ReferrerID, Reason: ReasonAlreadyCredited}
			return nil
		}

		locked, err := repo.LockAccount(ctx, referrer.ID)
		if err != nil {
			return err
		}
		if locked.IsBlocked {
			return ErrAccountBlocked.Withf("referrer account is blocked")
		}

		commission := &models.Commission{
			ReferrerID:    referrer.ID,
			ReferredID:    account.ID,
			DepositID:     depositID,
			DepositAmount: depositAmount,
			Percentage:    percentage,
			Amount:        amount,
		}
		if err := repo.CreateCommission(ctx, commission); err != nil {
			return err
		}

		original := *locked

		// the commission is spendable and also reported as referral earnings
		err = s.applyDelta(ctx, repo, locked, Delta{Deposit: amount, Referral: amount}, models.Reference{
			ID:   commission.ID,
			Type: models.ReferenceCommission,
		})
		if err != nil {
			s.compensate(ctx, "commission", commission.ID,
				func() error { return repo.DeleteCommission(ctx, commission.ID) },
				func() error { return repo.SaveBalances(ctx, &original) },
			)
			return err
		}

		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}

	if result.Credited {
		s.logger.WithFields(logrus.Fields{
			"referrer_id": referrer.ID,
			"referred_id": account.ID,
			"deposit_id":  depositID,
			"amount":      amount.String(),
		}).Info("referral commission credited")

		s.publish(SubjectCommissionCredited, map[string]interface{}{
			"referrer_id": referrer.ID,
			"referred_id": account.ID,
			"deposit_id":  depositID,
			"amount":      amount,
			"percentage":  percentage,
		})
	}

	return result, nil
}

func commissionOutcome(result *CommissionResult, err error) string {
	if err != nil {
		return outcome(err)
	}

	return result.Reason
}
