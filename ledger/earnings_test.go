package ledger

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/payvest/ledger/config"
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

func TestSQLAggregator(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(reward), 0) FROM "email_submissions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("150.50"))

	total, err := NewSQLAggregator(db).TotalEarned(context.Background(), 7)
	require.NoError(t, err)
	assertDecimal(t, "150.50", total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoundedAggregator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		source   EarningsFunc
		expected string
	}{
		{
			name: "passes through",
			source: func(context.Context, uint64) (decimal.Decimal, error) {
				return dec("42.10"), nil
			},
			expected: "42.10",
		},
		{
			name: "error is zero",
			source: func(context.Context, uint64) (decimal.Decimal, error) {
				return dec("42.10"), errors.New("relation does not exist")
			},
			expected: "0",
		},
		{
			name: "negative is zero",
			source: func(context.Context, uint64) (decimal.Decimal, error) {
				return dec("-5"), nil
			},
			expected: "0",
		},
		{
			name: "timeout is zero",
			source: func(ctx context.Context, _ uint64) (decimal.Decimal, error) {
				<-ctx.Done()
				time.Sleep(10 * time.Millisecond)
				return dec("1000"), nil
			},
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator := NewBoundedAggregator(tt.source, 20*time.Millisecond, quietLogger())

			total, err := aggregator.TotalEarned(ctx, 1)
			require.NoError(t, err)
			assertDecimal(t, tt.expected, total)
		})
	}
}

func TestCachedAggregator_FallsThroughWhenCacheIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	calls := 0
	source := EarningsFunc(func(context.Context, uint64) (decimal.Decimal, error) {
		calls++
		return dec("12.5"), nil
	})

	aggregator := NewCachedAggregator(source, config.NewCacheServiceWithClient(client), time.Minute, quietLogger())

	total, err := aggregator.TotalEarned(context.Background(), 3)
	require.NoError(t, err)
	assertDecimal(t, "12.5", total)
	assert.Equal(t, 1, calls)
}

func TestEarningsKey(t *testing.T) {
	assert.Equal(t, "ledger:external_earnings:15", earningsKey(15))
}
