package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payvest/ledger/ledger"
)

func TestCommissionAmount(t *testing.T) {
	assertDecimal(t, "70", ledger.CommissionAmount(dec("1000"), dec("7")))
	assertDecimal(t, "0.86", ledger.CommissionAmount(dec("12.345"), dec("7")))
	assertDecimal(t, "0", ledger.CommissionAmount(dec("0.07"), dec("7")))
}

func TestCreditReferralCommission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	referrer := f.account(t, accountSeed{uid: "referrer", code: "AB1234"})
	referred := f.account(t, accountSeed{uid: "referred", code: "CD5678", referredBy: "ab1234"})

	result, err := f.service.CreditReferralCommission(ctx, referred.ID, 42, dec("1000"), dec("7"))
	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.Equal(t, ledger.ReasonCredited, result.Reason)
	assert.Equal(t, referrer.ID, result.ReferrerID)
	assertDecimal(t, "70", result.Amount)

	updated := f.reload(t, referrer.ID)
	assertDecimal(t, "70", updated.DepositBalance)
	assertDecimal(t, "70", updated.ReferralEarnings)

	commissions, err := f.service.ListCommissions(ctx, ledger.ListFilter{AccountID: referrer.ID})
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.Equal(t, referred.ID, commissions[0].ReferredID)
	assert.Equal(t, uint64(42), commissions[0].DepositID)

	assert.Contains(t, f.publisher.Subjects(), ledger.SubjectCommissionCredited)
}

func TestCreditReferralCommission_OncePerDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	referrer := f.account(t, accountSeed{uid: "referrer", code: "AB1234"})
	referred := f.account(t, accountSeed{uid: "referred", code: "CD5678", referredBy: "AB1234"})

	_, err := f.service.CreditReferralCommission(ctx, referred.ID, 1, dec("1000"), dec("7"))
	require.NoError(t, err)

	again, err := f.service.CreditReferralCommission(ctx, referred.ID, 1, dec("1000"), dec("7"))
	require.NoError(t, err)
	assert.False(t, again.Credited)
	assert.Equal(t, ledger.ReasonAlreadyCredited, again.Reason)
	assertDecimal(t, "70", again.Amount)

	assertDecimal(t, "70", f.reload(t, referrer.ID).DepositBalance)
}

func TestCreditReferralCommission_NotCredited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	plain := f.account(t, accountSeed{uid: "plain", code: "AA0001"})
	self := f.account(t, accountSeed{uid: "self", code: "SE1111", referredBy: "se1111"})
	f.account(t, accountSeed{uid: "referrer", code: "RF2222"})
	tiny := f.account(t, accountSeed{uid: "tiny", code: "TI3333", referredBy: "RF2222"})

	result, err := f.service.CreditReferralCommission(ctx, plain.ID, 1, dec("1000"), dec("7"))
	require.NoError(t, err)
	assert.False(t, result.Credited)
	assert.Equal(t, ledger.ReasonNoReferrer, result.Reason)
	assertDecimal(t, "0", result.Amount)

	result, err = f.service.CreditReferralCommission(ctx, self.ID, 2, dec("1000"), dec("7"))
	require.NoError(t, err)
	assert.Equal(t, ledger.ReasonSelfReferral, result.Reason)
	assertDecimal(t, "0", f.reload(t, self.ID).DepositBalance)

	result, err = f.service.CreditReferralCommission(ctx, tiny.ID, 3, dec("0.07"), dec("7"))
	require.NoError(t, err)
	assert.Equal(t, ledger.ReasonZeroCommission, result.Reason)
}

func TestCreditReferralCommission_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orphan := f.account(t, accountSeed{uid: "orphan", code: "OR0001", referredBy: "NOPE00"})
	blocked := f.account(t, accountSeed{uid: "blocked", code: "BL0001", blocked: true})
	referred := f.account(t, accountSeed{uid: "referred", code: "RE0001", referredBy: "BL0001"})

	_, err := f.service.CreditReferralCommission(ctx, orphan.ID, 1, dec("1000"), dec("7"))
	assert.True(t, errors.Is(err, ledger.ErrReferrerNotFound))

	_, err = f.service.CreditReferralCommission(ctx, referred.ID, 2, dec("1000"), dec("7"))
	assert.True(t, errors.Is(err, ledger.ErrAccountBlocked))
	assertDecimal(t, "0", f.reload(t, blocked.ID).ReferralEarnings)

	_, err = f.service.CreditReferralCommission(ctx, 999, 3, dec("1000"), dec("7"))
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))
}

func TestCreditReferralCommission_CompensatesPartialWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	referrer := f.account(t, accountSeed{uid: "referrer", code: "AB1234", deposit: "10"})
	referred := f.account(t, accountSeed{uid: "referred", code: "CD5678", referredBy: "AB1234"})

	f.repo.FailNext("CreateOperations", errors.New("disk full"))

	_, err := f.service.CreditReferralCommission(ctx, referred.ID, 7, dec("1000"), dec("7"))
	assert.True(t, errors.Is(err, ledger.ErrPersistenceFailure))

	restored := f.reload(t, referrer.ID)
	assertDecimal(t, "10", restored.DepositBalance)
	assertDecimal(t, "0", restored.ReferralEarnings)

	commissions, err := f.service.ListCommissions(ctx, ledger.ListFilter{AccountID: referrer.ID})
	require.NoError(t, err)
	assert.Empty(t, commissions)

	// the deposit can still be credited once storage recovers
	result, err := f.service.CreditReferralCommission(ctx, referred.ID, 7, dec("1000"), dec("7"))
	require.NoError(t, err)
	assert.True(t, result.Credited)
	assertDecimal(t, "80", f.reload(t, referrer.ID).DepositBalance)
}

func TestCreditReferralCommission_DefaultPercentage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.account(t, accountSeed{uid: "referrer", code: "AB1234"})
	referred := f.account(t, accountSeed{uid: "referred", code: "CD5678", referredBy: "AB1234"})

	result, err := f.service.CreditReferralCommission(ctx, referred.ID, 1, dec("250"), dec("0"))
	require.NoError(t, err)
	assertDecimal(t, "17.5", result.Amount)
}
