package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/payvest/ledger/models"
	"github.com/payvest/ledger/types"
)

type WithdrawalRequest struct {
	AccountID      uint64
	Amount         decimal.Decimal
	Method         types.WithdrawalMethod
	AccountTitle   string
	AccountNumber  string
	BankName       string
	IdempotencyKey string
}

func (s *Service) validateWithdrawal(req *WithdrawalRequest) error {
	req.AccountTitle = strings.TrimSpace(req.AccountTitle)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.BankName = strings.TrimSpace(req.BankName)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	if err := validAmount(req.Amount); err != nil {
		return err
	}
	if !s.methods[req.Method] {
		return ErrInvalidMethod
	}
	if req.Method == types.MethodBank && len(req.BankName) == 0 {
		return ErrBankNameRequired
	}
	if len(req.AccountTitle) == 0 || len(req.AccountNumber) == 0 {
		return ErrAccountDetailsRequired
	}

	return nil
}

// sameRequest reports whether a replayed idempotency key carries the
// payload of the withdrawal it created.
func sameRequest(w *models.Withdrawal, req WithdrawalRequest) bool {
	return w.Amount.Equal(req.Amount) &&
		w.Method == req.Method &&
		w.AccountTitle == req.AccountTitle &&
		w.AccountNumber == req.AccountNumber &&
		w.BankName.String == req.BankName
}

type WithdrawalReceipt struct {
	Withdrawal *models.Withdrawal
	Balances   *Balances
	Replayed   bool
}

type WithdrawalReceiptJSON struct {
	Withdrawal      models.WithdrawalJSON `json:"withdrawal"`
	UpdatedBalances models.AccountJSON    `json:"updated_balances"`
}

func (r *WithdrawalReceipt) ToJSON() WithdrawalReceiptJSON {
	return WithdrawalReceiptJSON{
		Withdrawal:      r.Withdrawal.ToJSON(),
		UpdatedBalances: r.Balances.ToJSON(),
	}
}

// RequestWithdrawal reserves funds for a payout. The amount is drawn from
// external earnings, then the deposit balance, then referral earnings, and
// the withdrawal stays pending until an admin decides it.
func (s *Service) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (receipt *WithdrawalReceipt, err error) {
	defer observe("request_withdrawal", time.Now())
	defer func() { withdrawalRequests.WithLabelValues(outcome(err)).Inc() }()

	if err := s.validateWithdrawal(&req); err != nil {
		return nil, err
	}

	// read outside the transaction so a slow aggregator never holds the row lock
	totalEarned, err := s.earnings.TotalEarned(ctx, req.AccountID)
	if err != nil {
		totalEarned = decimal.Zero
	}

	var (
		withdrawal *models.Withdrawal
		account    *models.Account
		replayed   bool
	)

	err = s.repo.Transaction(ctx, func(repo Repository) error {
		var err error
		account, err = repo.LockAccount(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if account.IsBlocked {
			return ErrAccountBlocked
		}

		if len(req.IdempotencyKey) > 0 {
			existing, err := repo.FindWithdrawalByIdempotencyKey(ctx, account.ID, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if !sameRequest(existing, req) {
					return ErrIdempotencyConflict
				}
				withdrawal, replayed = existing, true
				return nil
			}
		}

		apportionment, err := Apportion(req.Amount, Sources{
			External: account.AvailableExternal(totalEarned),
			Deposit:  account.DepositBalance,
			Referral: account.ReferralEarnings,
		}, s.minimumWithdrawal)
		if err != nil {
			return err
		}

		breakdown := apportionment.Breakdown
		withdrawal = &models.Withdrawal{
			UUID:             uuid.New(),
			AccountID:        account.ID,
			Amount:           req.Amount,
			Method:           req.Method,
			AccountTitle:     req.AccountTitle,
			AccountNumber:    req.AccountNumber,
			BankName:         null.NewString(req.BankName, len(req.BankName) > 0),
			ExternalDeducted: breakdown.External,
			DepositDeducted:  breakdown.Deposit,
			ReferralDeducted: breakdown.Referral,
			WithdrawalType:   apportionment.Type,
			Status:           types.WithdrawalStatusPending,
			IdempotencyKey:   null.NewString(req.IdempotencyKey, len(req.IdempotencyKey) > 0),
		}
		if err := repo.CreateWithdrawal(ctx, withdrawal); err != nil {
			return err
		}

		original := *account
		err = s.applyDelta(ctx, repo, account, Delta{
			Deposit:           breakdown.Deposit.Neg(),
			Referral:          breakdown.Referral.Neg(),
			ExternalWithdrawn: breakdown.External,
		}, models.Reference{ID: withdrawal.ID, Type: models.ReferenceWithdrawal})
		if err != nil {
			s.compensate(ctx, "withdrawal", withdrawal.ID,
				func() error { return repo.DeleteWithdrawal(ctx, withdrawal.ID) },
				func() error { return repo.SaveBalances(ctx, &original) },
			)
			return ErrPersistenceFailure.Wrap(err)
		}

		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}

	balances := &Balances{Account: account, TotalEarned: totalEarned}
	if replayed {
		return &WithdrawalReceipt{Withdrawal: withdrawal, Balances: balances, Replayed: true}, nil
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":    withdrawal.AccountID,
		"withdrawal_id": withdrawal.ID,
		"amount":        withdrawal.Amount.String(),
		"type":          withdrawal.WithdrawalType,
	}).Info("withdrawal requested")

	s.publish(SubjectWithdrawalRequested, withdrawal.ToJSON())

	return &WithdrawalReceipt{Withdrawal: withdrawal, Balances: balances}, nil
}

type StatusOptions struct {
	TransactionID  string
	RejectedReason string
}

type WithdrawalDecision struct {
	Withdrawal *models.Withdrawal
	Refund     *models.Breakdown
	Changed    bool
}

type WithdrawalDecisionJSON struct {
	Success       bool                  `json:"success"`
	Withdrawal    models.WithdrawalJSON `json:"withdrawal"`
	RefundDetails *models.Breakdown     `json:"refund_details,omitempty"`
}

func (d *WithdrawalDecision) ToJSON() WithdrawalDecisionJSON {
	return WithdrawalDecisionJSON{
		Success:       true,
		Withdrawal:    d.Withdrawal.ToJSON(),
		RefundDetails: d.Refund,
	}
}

// SetWithdrawalStatus moves a pending withdrawal to approved or rejected.
// Rejection returns exactly the recorded breakdown to its sources, blocked
// account or not. Repeating a decision already taken changes nothing.
func (s *Service) SetWithdrawalStatus(ctx context.Context, withdrawalID uint64, status types.WithdrawalStatus, opts StatusOptions) (decision *WithdrawalDecision, err error) {
	defer observe("set_withdrawal_status", time.Now())

	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	decision = &WithdrawalDecision{}

	err = s.repo.Transaction(ctx, func(repo Repository) error {
		withdrawal, err := repo.LockWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		decision.Withdrawal = withdrawal

		if withdrawal.Status == status {
			return nil
		}
		if withdrawal.Status != types.WithdrawalStatusPending || status == types.WithdrawalStatusPending {
			return ErrInvalidTransition.Withf("withdrawal %d cannot move from %s to %s", withdrawal.ID, withdrawal.Status, status)
		}

		original := *withdrawal
		now := s.now()
		withdrawal.Status = status
		withdrawal.ProcessedAt = null.TimeFrom(now)
		withdrawal.UpdatedAt = now

		switch status {
		case types.WithdrawalStatusApproved:
			if len(opts.TransactionID) > 0 {
				withdrawal.TransactionID = null.StringFrom(opts.TransactionID)
			}
		case types.WithdrawalStatusRejected:
			if len(opts.RejectedReason) > 0 {
				withdrawal.RejectedReason = null.StringFrom(opts.RejectedReason)
			}
		}

		if status != types.WithdrawalStatusRejected {
			if err := repo.SaveWithdrawal(ctx, withdrawal); err != nil {
				return err
			}
			decision.Changed = true
			return nil
		}

		account, err := repo.LockAccount(ctx, withdrawal.AccountID)
		if err != nil {
			return err
		}

		if err := repo.SaveWithdrawal(ctx, withdrawal); err != nil {
			return err
		}
		decision.Changed = true

		unrefunded := *account
		refund := withdrawal.Breakdown()
		if err := s.applyDelta(ctx, repo, account, Delta{
			Deposit:           refund.Deposit,
			Referral:          refund.Referral,
			ExternalWithdrawn: refund.External.Neg(),
		}, models.Reference{ID: withdrawal.ID, Type: models.ReferenceWithdrawal}); err != nil {
			s.compensate(ctx, "withdrawal", withdrawal.ID,
				func() error { return repo.SaveWithdrawal(ctx, &original) },
				func() error { return repo.SaveBalances(ctx, &unrefunded) },
			)
			decision.Changed = false
			return err
		}
		decision.Refund = &refund

		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}

	if !decision.Changed {
		return decision, nil
	}

	withdrawalDecisions.WithLabelValues(string(status)).Inc()

	s.logger.WithFields(logrus.Fields{
		"account_id":    decision.Withdrawal.AccountID,
		"withdrawal_id": decision.Withdrawal.ID,
		"status":        status,
	}).Info("withdrawal status changed")

	subject := SubjectWithdrawalApproved
	if status == types.WithdrawalStatusRejected {
		subject = SubjectWithdrawalRejected
	}
	s.publish(subject, decision.Withdrawal.ToJSON())

	return decision, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, withdrawalID uint64) (*models.Withdrawal, error) {
	withdrawal, err := s.repo.FindWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, persistence(err)
	}

	return withdrawal, nil
}

// ListWithdrawals lists newest first. A zero AccountID lists every account.
func (s *Service) ListWithdrawals(ctx context.Context, filter ListFilter) ([]*models.Withdrawal, error) {
	if len(filter.Status) > 0 && !types.WithdrawalStatus(filter.Status).IsValid() {
		return nil, ErrInvalidStatus
	}

	withdrawals, err := s.repo.ListWithdrawals(ctx, filter)
	if err != nil {
		return nil, persistence(err)
	}

	return withdrawals, nil
}

// IsInsufficient reports whether err means the account cannot cover a
// withdrawal, either in total or under the minimum rule.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrBelowMinimum)
}
