package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/ledger/ledgertest"
	"github.com/payvest/ledger/types"
)

func withdrawalRequest(accountID uint64, amount string) ledger.WithdrawalRequest {
	return ledger.WithdrawalRequest{
		AccountID:     accountID,
		Amount:        dec(amount),
		Method:        types.MethodEasypaisa,
		AccountTitle:  "Ali Raza",
		AccountNumber: "03001234567",
	}
}

func TestRequestWithdrawal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})
	f.setEarnings(account.ID, "100")

	receipt, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "600"))
	require.NoError(t, err)

	w := receipt.Withdrawal
	assert.Equal(t, types.WithdrawalStatusPending, w.Status)
	assert.Equal(t, types.WithdrawalTypeInvestmentProfit, w.WithdrawalType)
	assertDecimal(t, "100", w.ExternalDeducted)
	assertDecimal(t, "500", w.DepositDeducted)
	assertDecimal(t, "0", w.ReferralDeducted)

	view := receipt.ToJSON().UpdatedBalances
	assertDecimal(t, "500", view.DepositBalance)
	assertDecimal(t, "100", view.ExternalEarningsWithdrawn)
	assertDecimal(t, "0", view.AvailableExternal)
	assertDecimal(t, "500", view.TotalAvailable)

	stored := f.reload(t, account.ID)
	assertDecimal(t, "500", stored.DepositBalance)
	assertDecimal(t, "100", stored.ExternalEarningsWithdrawn)

	assert.Len(t, f.repo.Operations(account.ID), 2)
	assert.Contains(t, f.publisher.Subjects(), ledger.SubjectWithdrawalRequested)
}

func TestRequestWithdrawal_Rejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		seed   accountSeed
		mutate func(r *ledger.WithdrawalRequest)
		err    error
	}{
		{
			name: "insufficient",
			seed: accountSeed{deposit: "200"},
			mutate: func(r *ledger.WithdrawalRequest) {
				r.Amount = dec("300")
			},
			err: ledger.ErrInsufficientBalance,
		},
		{
			name: "below minimum",
			seed: accountSeed{deposit: "1000"},
			mutate: func(r *ledger.WithdrawalRequest) {
				r.Amount = dec("400")
			},
			err: ledger.ErrBelowMinimum,
		},
		{
			name:   "unknown method",
			seed:   accountSeed{deposit: "1000"},
			mutate: func(r *ledger.WithdrawalRequest) { r.Method = "paypal" },
			err:    ledger.ErrInvalidMethod,
		},
		{
			name:   "bank without bank name",
			seed:   accountSeed{deposit: "1000"},
			mutate: func(r *ledger.WithdrawalRequest) { r.Method = types.MethodBank },
			err:    ledger.ErrBankNameRequired,
		},
		{
			name:   "missing account details",
			seed:   accountSeed{deposit: "1000"},
			mutate: func(r *ledger.WithdrawalRequest) { r.AccountNumber = "  " },
			err:    ledger.ErrAccountDetailsRequired,
		},
		{
			name:   "zero amount",
			seed:   accountSeed{deposit: "1000"},
			mutate: func(r *ledger.WithdrawalRequest) { r.Amount = decimal.Zero },
			err:    ledger.ErrInvalidAmount,
		},
		{
			name:   "blocked",
			seed:   accountSeed{deposit: "1000", blocked: true},
			mutate: func(r *ledger.WithdrawalRequest) {},
			err:    ledger.ErrAccountBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.seed.uid, tt.seed.code = "u1", "AA0001"
			account := f.account(t, tt.seed)

			req := withdrawalRequest(account.ID, "600")
			tt.mutate(&req)

			receipt, err := f.service.RequestWithdrawal(ctx, req)
			assert.Nil(t, receipt)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)

			assert.Zero(t, f.repo.WithdrawalCount())
			assertDecimal(t, account.DepositBalance.String(), f.reload(t, account.ID).DepositBalance)
		})
	}
}

func TestRequestWithdrawal_BankNeedsBankName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	req := withdrawalRequest(account.ID, "500")
	req.Method = types.MethodBank
	req.BankName = "Meezan Bank"

	receipt, err := f.service.RequestWithdrawal(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Meezan Bank", receipt.Withdrawal.BankName.String)
}

func TestRequestWithdrawal_CompensatesFailedDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000", referral: "200"})

	f.repo.FailNext("SaveBalances", errors.New("connection reset"))

	_, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "700"))
	assert.True(t, errors.Is(err, ledger.ErrPersistenceFailure))
	assert.Equal(t, ledger.KindDependency, ledger.KindOf(err))

	assert.Zero(t, f.repo.WithdrawalCount())
	stored := f.reload(t, account.ID)
	assertDecimal(t, "1000", stored.DepositBalance)
	assertDecimal(t, "200", stored.ReferralEarnings)
}

func TestRequestWithdrawal_CompensatesFailedAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	f.repo.FailNext("CreateOperations", errors.New("connection reset"))

	_, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "700"))
	assert.True(t, errors.Is(err, ledger.ErrPersistenceFailure))

	assert.Zero(t, f.repo.WithdrawalCount())
	assertDecimal(t, "1000", f.reload(t, account.ID).DepositBalance)
}

func TestRequestWithdrawal_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "2000"})

	req := withdrawalRequest(account.ID, "600")
	req.IdempotencyKey = "retry-1"

	first, err := f.service.RequestWithdrawal(ctx, req)
	require.NoError(t, err)

	second, err := f.service.RequestWithdrawal(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Withdrawal.ID, second.Withdrawal.ID)

	assert.Equal(t, 1, f.repo.WithdrawalCount())
	assertDecimal(t, "1400", f.reload(t, account.ID).DepositBalance)

	req.Amount = dec("700")
	_, err = f.service.RequestWithdrawal(ctx, req)
	assert.True(t, errors.Is(err, ledger.ErrIdempotencyConflict))
	assert.Equal(t, ledger.KindConflict, ledger.KindOf(err))
}

func TestRequestWithdrawal_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "500")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.True(t, ledger.IsInsufficient(err), "got %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 2, f.repo.WithdrawalCount())
	assertDecimal(t, "0", f.reload(t, account.ID).DepositBalance)
}

func TestRequestWithdrawal_SlowEarningsCountAsZero(t *testing.T) {
	ctx := context.Background()
	repo := ledgertest.NewMemoryRepository()

	slow := ledger.EarningsFunc(func(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
		select {
		case <-time.After(time.Second):
			return dec("10000"), nil
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	})

	service := ledger.NewService(ledger.Options{
		Repository: repo,
		Logger:     quietLogger(),
		Earnings:   ledger.NewBoundedAggregator(slow, 20*time.Millisecond, quietLogger()),
	})

	f := &fixture{repo: repo, service: service}
	created := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "600"})

	receipt, err := service.RequestWithdrawal(ctx, withdrawalRequest(created.ID, "600"))
	require.NoError(t, err)
	assertDecimal(t, "0", receipt.Withdrawal.ExternalDeducted)
	assertDecimal(t, "600", receipt.Withdrawal.DepositDeducted)
}

func TestSetWithdrawalStatus_RejectRefundsExactly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "300", referral: "500", withdrawn: "20"})
	f.setEarnings(account.ID, "70")

	receipt, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "800"))
	require.NoError(t, err)
	assert.Equal(t, types.WithdrawalTypeBoth, receipt.Withdrawal.WithdrawalType)

	decision, err := f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{RejectedReason: "wrong account number"})
	require.NoError(t, err)
	assert.True(t, decision.Changed)
	require.NotNil(t, decision.Refund)
	assertDecimal(t, "50", decision.Refund.External)
	assertDecimal(t, "300", decision.Refund.Deposit)
	assertDecimal(t, "450", decision.Refund.Referral)
	assert.Equal(t, "wrong account number", decision.Withdrawal.RejectedReason.String)
	assert.True(t, decision.Withdrawal.ProcessedAt.Valid)

	restored := f.reload(t, account.ID)
	assertDecimal(t, "300", restored.DepositBalance)
	assertDecimal(t, "500", restored.ReferralEarnings)
	assertDecimal(t, "20", restored.ExternalEarningsWithdrawn)

	// a second rejection is a no-op
	again, err := f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{})
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Nil(t, again.Refund)
	assertDecimal(t, "300", f.reload(t, account.ID).DepositBalance)

	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusApproved, ledger.StatusOptions{})
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	assert.Contains(t, f.publisher.Subjects(), ledger.SubjectWithdrawalRejected)
}

func TestSetWithdrawalStatus_RefundsBlockedAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	receipt, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "600"))
	require.NoError(t, err)

	f.repo.SetBlocked(account.ID, true)

	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{})
	require.NoError(t, err)
	assertDecimal(t, "1000", f.reload(t, account.ID).DepositBalance)
}

func TestSetWithdrawalStatus_Approve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	receipt, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "600"))
	require.NoError(t, err)

	decision, err := f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusApproved, ledger.StatusOptions{TransactionID: "TX-991"})
	require.NoError(t, err)
	assert.True(t, decision.Changed)
	assert.Nil(t, decision.Refund)
	assert.Equal(t, "TX-991", decision.Withdrawal.TransactionID.String)
	assertDecimal(t, "400", f.reload(t, account.ID).DepositBalance)

	again, err := f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusApproved, ledger.StatusOptions{})
	require.NoError(t, err)
	assert.False(t, again.Changed)

	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{})
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))
	assertDecimal(t, "400", f.reload(t, account.ID).DepositBalance)

	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusPending, ledger.StatusOptions{})
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))
}

func TestSetWithdrawalStatus_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.SetWithdrawalStatus(ctx, 1, "done", ledger.StatusOptions{})
	assert.True(t, errors.Is(err, ledger.ErrInvalidStatus))
	assert.Equal(t, ledger.KindValidation, ledger.KindOf(err))

	_, err = f.service.SetWithdrawalStatus(ctx, 404, types.WithdrawalStatusApproved, ledger.StatusOptions{})
	assert.True(t, errors.Is(err, ledger.ErrWithdrawalNotFound))
}

func TestSetWithdrawalStatus_CompensatesFailedRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	receipt, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "600"))
	require.NoError(t, err)

	f.repo.FailNext("CreateOperations", errors.New("connection reset"))
	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{})
	assert.True(t, errors.Is(err, ledger.ErrPersistenceFailure))

	stored, err := f.service.GetWithdrawal(ctx, receipt.Withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WithdrawalStatusPending, stored.Status)
	assertDecimal(t, "400", f.reload(t, account.ID).DepositBalance)

	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{})
	require.NoError(t, err)
	assertDecimal(t, "1000", f.reload(t, account.ID).DepositBalance)
}

func TestSetWithdrawalStatus_LockFailureLeavesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "1000"})

	receipt, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(account.ID, "600"))
	require.NoError(t, err)

	f.repo.FailNext("LockAccount", errors.New("lock timeout"))
	_, err = f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{RejectedReason: "duplicate"})
	assert.True(t, errors.Is(err, ledger.ErrPersistenceFailure))

	stored, err := f.service.GetWithdrawal(ctx, receipt.Withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WithdrawalStatusPending, stored.Status)
	assert.False(t, stored.RejectedReason.Valid)
	assertDecimal(t, "400", f.reload(t, account.ID).DepositBalance)

	decision, err := f.service.SetWithdrawalStatus(ctx, receipt.Withdrawal.ID, types.WithdrawalStatusRejected, ledger.StatusOptions{})
	require.NoError(t, err)
	assert.True(t, decision.Changed)
	assertDecimal(t, "1000", f.reload(t, account.ID).DepositBalance)
}

func TestListWithdrawals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.account(t, accountSeed{uid: "u1", code: "AA0001", deposit: "5000"})
	second := f.account(t, accountSeed{uid: "u2", code: "AA0002", deposit: "5000"})

	for i := 0; i < 3; i++ {
		_, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(first.ID, "500"))
		require.NoError(t, err)
	}
	_, err := f.service.RequestWithdrawal(ctx, withdrawalRequest(second.ID, "500"))
	require.NoError(t, err)

	own, err := f.service.ListWithdrawals(ctx, ledger.ListFilter{AccountID: first.ID})
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Greater(t, own[0].ID, own[1].ID)

	all, err := f.service.ListWithdrawals(ctx, ledger.ListFilter{Status: "pending", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.service.ListWithdrawals(ctx, ledger.ListFilter{Status: "paid"})
	assert.True(t, errors.Is(err, ledger.ErrInvalidStatus))
}
