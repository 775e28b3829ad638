package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/payvest/ledger/models"
	"github.com/payvest/ledger/types"
)

// SubmitDeposit records a deposit claim. Funds are credited only when an
// admin approves it.
func (s *Service) SubmitDeposit(ctx context.Context, accountID uint64, amount decimal.Decimal, method, transactionRef string) (*models.Deposit, error) {
	defer observe("submit_deposit", time.Now())

	if err := validAmount(amount); err != nil {
		return nil, err
	}

	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		return nil, persistence(err)
	}
	if account.IsBlocked {
		return nil, ErrAccountBlocked
	}

	deposit := &models.Deposit{
		UUID:           uuid.New(),
		AccountID:      account.ID,
		Amount:         amount,
		Method:         strings.TrimSpace(method),
		TransactionRef: strings.TrimSpace(transactionRef),
		Status:         types.DepositStatusPending,
	}
	if v := validate.Struct(deposit); !v.Validate() {
		return nil, ErrInvalidAmount.Withf("%s", v.Errors.One())
	}
	if err := s.repo.CreateDeposit(ctx, deposit); err != nil {
		return nil, persistence(err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"deposit_id": deposit.ID,
		"amount":     amount.String(),
	}).Info("deposit submitted")

	return deposit, nil
}

type DepositDecision struct {
	Deposit         *models.Deposit
	NewBalance      decimal.Decimal
	Changed         bool
	Commission      *CommissionResult
	CommissionError string
}

type DepositDecisionJSON struct {
	Success            bool               `json:"success"`
	Deposit            models.DepositJSON `json:"deposit"`
	NewBalance         decimal.Decimal    `json:"new_balance"`
	ReferralCommission *CommissionResult  `json:"referral_commission,omitempty"`
	CommissionError    string             `json:"commission_error,omitempty"`
}

func (d *DepositDecision) ToJSON() DepositDecisionJSON {
	return DepositDecisionJSON{
		Success:            true,
		Deposit:            d.Deposit.ToJSON(),
		NewBalance:         d.NewBalance,
		ReferralCommission: d.Commission,
		CommissionError:    d.CommissionError,
	}
}

// SetDepositStatus decides a pending deposit. Approval credits the deposit
// balance and then pays the referrer; a failed commission never undoes the
// approval and is reported in CommissionError instead.
func (s *Service) SetDepositStatus(ctx context.Context, depositID uint64, status types.DepositStatus) (*DepositDecision, error) {
	defer observe("set_deposit_status", time.Now())

	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	decision := &DepositDecision{}

	err := s.repo.Transaction(ctx, func(repo Repository) error {
		deposit, err := repo.LockDeposit(ctx, depositID)
		if err != nil {
			return err
		}
		decision.Deposit = deposit

		if deposit.Status == status {
			return nil
		}
		if deposit.Status.IsTerminal() || status == types.DepositStatusPending {
			return ErrInvalidTransition.Withf("deposit %d cannot move from %s to %s", deposit.ID, deposit.Status, status)
		}

		original := *deposit
		now := s.now()
		deposit.Status = status
		deposit.UpdatedAt = now
		if status == types.DepositStatusApproved {
			deposit.ApprovedAt = null.TimeFrom(now)
		}

		if status != types.DepositStatusApproved {
			if err := repo.SaveDeposit(ctx, deposit); err != nil {
				return err
			}
			decision.Changed = true
			return nil
		}

		account, err := repo.LockAccount(ctx, deposit.AccountID)
		if err != nil {
			return err
		}

		if err := repo.SaveDeposit(ctx, deposit); err != nil {
			return err
		}

		uncredited := *account
		err = s.applyDelta(ctx, repo, account, Delta{Deposit: deposit.Amount}, models.Reference{
			ID:   deposit.ID,
			Type: models.ReferenceDeposit,
		})
		if err != nil {
			s.compensate(ctx, "deposit", deposit.ID,
				func() error { return repo.SaveDeposit(ctx, &original) },
				func() error { return repo.SaveBalances(ctx, &uncredited) },
			)
			return err
		}

		decision.NewBalance = account.DepositBalance
		decision.Changed = true

		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}

	deposit := decision.Deposit
	if !decision.Changed {
		if deposit.Status == types.DepositStatusApproved {
			if account, err := s.repo.FindAccount(ctx, deposit.AccountID); err == nil {
				decision.NewBalance = account.DepositBalance
			}
		}
		return decision, nil
	}

	depositDecisions.WithLabelValues(string(status)).Inc()

	logger := s.logger.WithFields(logrus.Fields{
		"account_id": deposit.AccountID,
		"deposit_id": deposit.ID,
		"status":     status,
	})
	logger.Info("deposit status changed")

	if status == types.DepositStatusRejected {
		s.publish(SubjectDepositRejected, deposit.ToJSON())
		return decision, nil
	}

	s.publish(SubjectDepositApproved, deposit.ToJSON())

	commission, err := s.CreditReferralCommission(ctx, deposit.AccountID, deposit.ID, deposit.Amount, decimal.Zero)
	if err != nil {
		logger.WithError(err).Error("failed to credit referral commission")
		decision.CommissionError = AsError(err).Message
		return decision, nil
	}
	decision.Commission = commission

	return decision, nil
}

func (s *Service) GetDeposit(ctx context.Context, depositID uint64) (*models.Deposit, error) {
	deposit, err := s.repo.FindDeposit(ctx, depositID)
	if err != nil {
		return nil, persistence(err)
	}

	return deposit, nil
}

// ListDeposits lists newest first. A zero AccountID lists every account.
func (s *Service) ListDeposits(ctx context.Context, filter ListFilter) ([]*models.Deposit, error) {
	if len(filter.Status) > 0 && !types.DepositStatus(filter.Status).IsValid() {
		return nil, ErrInvalidStatus
	}

	deposits, err := s.repo.ListDeposits(ctx, filter)
	if err != nil {
		return nil, persistence(err)
	}

	return deposits, nil
}

// ListCommissions lists the commissions earned by the referrer in
// filter.AccountID.
func (s *Service) ListCommissions(ctx context.Context, filter ListFilter) ([]*models.Commission, error) {
	commissions, err := s.repo.ListCommissions(ctx, filter)
	if err != nil {
		return nil, persistence(err)
	}

	return commissions, nil
}
