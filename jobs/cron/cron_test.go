package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gdb, mock
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	return l, hook
}

func TestReferralSummaryJob_Run(t *testing.T) {
	db, mock := newMockDB(t)
	l, hook := newTestLogger()
	job := &ReferralSummaryJob{DB: db, Logger: l}

	mock.ExpectQuery(`SELECT .*SUM\(amount\) as earned.* FROM "commissions" WHERE CAST\("created_at" AS DATE\) = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"referrer_id", "earned", "friends_deposited"}).AddRow(1, "70.00", 1))
	mock.ExpectQuery(`SELECT LOWER\(referred_by\) as referral_code.* FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows([]string{"referral_code", "friends"}).AddRow("ab1234", 2).AddRow("zz9999", 1))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE LOWER\(referral_code\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "referral_code"}).AddRow(1, "AB1234"))
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE LOWER\(referral_code\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "referral_summaries" .* ON CONFLICT \("account_id","day"\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := job.Run(context.Background(), time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["referral_code"] == "ZZ9999" {
			warned = true
		}
	}
	assert.True(t, warned)
	assert.Equal(t, "2026-10-16", hook.LastEntry().Data["day"])
	assert.Equal(t, 1, hook.LastEntry().Data["referrers"])
}

func TestReferralSummaryJob_RunFailsOnQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	l, _ := newTestLogger()
	job := &ReferralSummaryJob{DB: db, Logger: l}

	mock.ExpectQuery(`FROM "commissions"`).WillReturnError(errors.New("connection refused"))

	err := job.Run(context.Background(), time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralSummaryJob_NothingToWrite(t *testing.T) {
	db, mock := newMockDB(t)
	l, hook := newTestLogger()
	job := &ReferralSummaryJob{DB: db, Logger: l}

	mock.ExpectQuery(`FROM "commissions"`).
		WillReturnRows(sqlmock.NewRows([]string{"referrer_id", "earned", "friends_deposited"}))
	mock.ExpectQuery(`FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows([]string{"referral_code", "friends"}))

	require.NoError(t, job.Run(context.Background(), time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, hook.LastEntry().Data["referrers"])
}

func TestPendingAuditJob_Run(t *testing.T) {
	tests := []struct {
		name        string
		deposits    int
		withdrawals int
		level       logrus.Level
	}{
		{name: "stale requests warn", deposits: 2, withdrawals: 1, level: logrus.WarnLevel},
		{name: "nothing stale", deposits: 0, withdrawals: 0, level: logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			l, hook := newTestLogger()
			job := &PendingAuditJob{DB: db, Logger: l, MaxAge: 24 * time.Hour}

			mock.ExpectQuery(`SELECT count\(\*\) FROM "deposits" WHERE status = \$1 AND created_at < \$2`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.deposits))
			mock.ExpectQuery(`SELECT count\(\*\) FROM "withdrawals" WHERE status = \$1 AND created_at < \$2`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.withdrawals))

			counts, err := job.Run(context.Background(), time.Now())
			require.NoError(t, err)
			assert.Equal(t, int64(tt.deposits), counts.Deposits)
			assert.Equal(t, int64(tt.withdrawals), counts.Withdrawals)
			assert.Equal(t, tt.level, hook.LastEntry().Level)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPendingAuditJob_RunFails(t *testing.T) {
	db, mock := newMockDB(t)
	l, _ := newTestLogger()
	job := &PendingAuditJob{DB: db, Logger: l, MaxAge: time.Hour}

	mock.ExpectQuery(`FROM "deposits"`).WillReturnError(errors.New("timeout"))

	_, err := job.Run(context.Background(), time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
