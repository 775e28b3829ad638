package ledger

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/payvest/ledger/models"
	"github.com/payvest/ledger/types"
)

type Options struct {
	Repository           Repository
	Earnings             EarningsAggregator
	Publisher            Publisher
	Logger               logrus.FieldLogger
	// Unset values fall back to 7% and 500. A set zero is kept: no
	// commission, no minimum.
	CommissionPercentage decimal.NullDecimal
	MinimumWithdrawal    decimal.NullDecimal
	WithdrawalMethods    []types.WithdrawalMethod
	Now                  func() time.Time
}

var (
	DefaultCommissionPercentage = decimal.NewFromInt(7)
	DefaultMinimumWithdrawal    = decimal.NewFromInt(500)
)

// Service is the balance ledger: the balance store, the commission engine,
// the withdrawal ledger and admin adjudication over one Repository.
type Service struct {
	repo                 Repository
	earnings             EarningsAggregator
	publisher            Publisher
	logger               logrus.FieldLogger
	commissionPercentage decimal.Decimal
	minimumWithdrawal    decimal.Decimal
	methods              map[types.WithdrawalMethod]bool
	now                  func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		repo:                 opts.Repository,
		earnings:             opts.Earnings,
		publisher:            opts.Publisher,
		logger:               opts.Logger,
		commissionPercentage: DefaultCommissionPercentage,
		minimumWithdrawal:    DefaultMinimumWithdrawal,
		methods:              make(map[types.WithdrawalMethod]bool),
		now:                  opts.Now,
	}

	if s.earnings == nil {
		s.earnings = ZeroEarnings
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if opts.CommissionPercentage.Valid {
		s.commissionPercentage = opts.CommissionPercentage.Decimal
	}
	if opts.MinimumWithdrawal.Valid {
		s.minimumWithdrawal = opts.MinimumWithdrawal.Decimal
	}
	if s.now == nil {
		s.now = time.Now
	}

	methods := opts.WithdrawalMethods
	if len(methods) == 0 {
		methods = types.WithdrawalMethods
	}
	for _, method := range methods {
		if method.IsValid() {
			s.methods[method] = true
		}
	}

	return s
}

// Delta is a signed change to an account's balance fields.
type Delta struct {
	Deposit           decimal.Decimal
	Referral          decimal.Decimal
	ExternalWithdrawn decimal.Decimal
}

func (d Delta) IsZero() bool {
	return d.Deposit.IsZero() && d.Referral.IsZero() && d.ExternalWithdrawn.IsZero()
}

func (s *Service) GetAccount(ctx context.Context, accountID uint64) (*models.Account, error) {
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		return nil, persistence(err)
	}

	return account, nil
}

// ApplyDelta changes one account's balances atomically with respect to every
// other mutation of the same account.
func (s *Service) ApplyDelta(ctx context.Context, accountID uint64, delta Delta, reference models.Reference) (*models.Account, error) {
	var account *models.Account

	err := s.repo.Transaction(ctx, func(repo Repository) error {
		var err error
		account, err = repo.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.IsBlocked {
			return ErrAccountBlocked
		}

		return s.applyDelta(ctx, repo, account, delta, reference)
	})
	if err != nil {
		return nil, persistence(err)
	}

	return account, nil
}

// applyDelta must run inside a transaction holding the account's row lock.
// Deposit and referral balances may not go negative; the external withdrawn
// counter is floored at zero so refunds never overshoot.
func (s *Service) applyDelta(ctx context.Context, repo Repository, account *models.Account, delta Delta, reference models.Reference) error {
	if delta.IsZero() {
		return nil
	}

	next := *account
	next.DepositBalance = account.DepositBalance.Add(delta.Deposit)
	next.ReferralEarnings = account.ReferralEarnings.Add(delta.Referral)
	next.ExternalEarningsWithdrawn = nonNegative(account.ExternalEarningsWithdrawn.Add(delta.ExternalWithdrawn))

	if v := validate.Struct(&next); !v.Validate() {
		return ErrInsufficientBalance.Withf("account %d: %s", account.ID, v.Errors.One())
	}

	account.DepositBalance = next.DepositBalance
	account.ReferralEarnings = next.ReferralEarnings
	account.ExternalEarningsWithdrawn = next.ExternalEarningsWithdrawn
	account.UpdatedAt = s.now()

	if err := repo.SaveBalances(ctx, account); err != nil {
		return err
	}

	return repo.CreateOperations(ctx, operationsFor(account.ID, delta, reference))
}

func operationsFor(accountID uint64, delta Delta, reference models.Reference) []*models.Operation {
	var operations []*models.Operation

	appendSigned := func(amount decimal.Decimal, kind types.OperationKind) {
		switch {
		case amount.IsPositive():
			operations = append(operations, models.OperationCredit(amount, kind, reference, accountID))
		case amount.IsNegative():
			operations = append(operations, models.OperationDebit(amount.Neg(), kind, reference, accountID))
		}
	}

	appendSigned(delta.Deposit, types.KindDeposit)
	appendSigned(delta.Referral, types.KindReferral)
	// withdrawing external earnings raises the counter, so the sign flips
	appendSigned(delta.ExternalWithdrawn.Neg(), types.KindExternal)

	return operations
}

type Balances struct {
	Account     *models.Account
	TotalEarned decimal.Decimal
}

func (b *Balances) ToJSON() models.AccountJSON {
	return b.Account.ToJSON(b.TotalEarned)
}

// Balances reads an account together with its external earnings total.
func (s *Service) Balances(ctx context.Context, accountID uint64) (*Balances, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	totalEarned, err := s.earnings.TotalEarned(ctx, accountID)
	if err != nil {
		totalEarned = decimal.Zero
	}

	return &Balances{Account: account, TotalEarned: totalEarned}, nil
}

// Identity is what the session provider vouches for.
type Identity struct {
	UID          string
	Email        string
	Role         string
	ReferralCode string
	ReferredBy   string
}

const referralCodeAttempts = 5

// EnsureAccount returns the account of identity, creating it on first sight.
// Email and role follow the latest identity. The referrer and referral code
// are fixed at creation and never changed afterwards.
func (s *Service) EnsureAccount(ctx context.Context, identity Identity) (*models.Account, error) {
	role := identity.Role
	if len(role) == 0 {
		role = types.RoleMember
	}

	account, err := s.repo.FindAccountByUID(ctx, identity.UID)
	if err == nil {
		return s.refreshProfile(ctx, account, identity.Email, role)
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, persistence(err)
	}

	var createErr error
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code := identity.ReferralCode
		if len(code) == 0 || attempt > 0 {
			code = NewReferralCode()
		}

		account = &models.Account{
			UID:                       identity.UID,
			Email:                     identity.Email,
			Role:                      role,
			ReferralCode:              code,
			ReferredBy:                sql.NullString{String: identity.ReferredBy, Valid: len(identity.ReferredBy) > 0},
			DepositBalance:            decimal.Zero,
			ReferralEarnings:          decimal.Zero,
			ExternalEarningsWithdrawn: decimal.Zero,
		}

		createErr = s.repo.CreateAccount(ctx, account)
		if createErr == nil {
			s.logger.WithField("account_id", account.ID).Info("account created")
			return account, nil
		}

		// a concurrent request may have created it first
		if existing, err := s.repo.FindAccountByUID(ctx, identity.UID); err == nil {
			return s.refreshProfile(ctx, existing, identity.Email, role)
		}
	}

	return nil, persistence(fmt.Errorf("create account for %s: %w", identity.UID, createErr))
}

func (s *Service) refreshProfile(ctx context.Context, account *models.Account, email, role string) (*models.Account, error) {
	if len(email) == 0 {
		email = account.Email
	}
	if account.Email == email && account.Role == role {
		return account, nil
	}

	logger := s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       role,
	})
	if account.Role != role {
		logger = logger.WithField("previous_role", account.Role)
	}

	account.Email = email
	account.Role = role
	account.UpdatedAt = s.now()

	if err := s.repo.SaveProfile(ctx, account); err != nil {
		return nil, persistence(err)
	}
	logger.Info("account profile updated")

	return account, nil
}

// NewReferralCode returns a code of two letters and four digits.
func NewReferralCode() string {
	b := uuid.New()

	letters := []byte{'A' + b[0]%26, 'A' + b[1]%26}
	digits := binary.BigEndian.Uint32(b[2:6]) % 10000

	return fmt.Sprintf("%s%04d", letters, digits)
}

// compensate undoes the writes of a failed mutation on stores without
// rollback. Every step runs even if an earlier one fails.
func (s *Service) compensate(ctx context.Context, entity string, id uint64, steps ...func() error) {
	for _, step := range steps {
		if err := step(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"entity": entity,
				"id":     id,
			}).WithError(err).Error("failed to compensate partial write")
		}
	}
}
