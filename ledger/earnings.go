package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/models"
)

// EarningsAggregator reports the lifetime external earnings of an account.
// The ledger only ever reads this total.
type EarningsAggregator interface {
	TotalEarned(ctx context.Context, accountID uint64) (decimal.Decimal, error)
}

// EarningsFunc adapts a function to EarningsAggregator.
type EarningsFunc func(ctx context.Context, accountID uint64) (decimal.Decimal, error)

func (f EarningsFunc) TotalEarned(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	return f(ctx, accountID)
}

// ZeroEarnings is used when no aggregator is configured.
var ZeroEarnings = EarningsFunc(func(context.Context, uint64) (decimal.Decimal, error) {
	return decimal.Zero, nil
})

// SQLAggregator sums approved email submission rewards.
type SQLAggregator struct {
	db *gorm.DB
}

func NewSQLAggregator(db *gorm.DB) *SQLAggregator {
	return &SQLAggregator{db: db}
}

func (a *SQLAggregator) TotalEarned(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	var total decimal.Decimal

	row := a.db.WithContext(ctx).
		Model(&models.EmailSubmission{}).
		Select("COALESCE(SUM(reward), 0)").
		Where("account_id = ? AND status = ?", accountID, models.SubmissionApproved).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

// CachedAggregator is a read-through redis cache in front of another
// aggregator. Cache failures fall through to the source.
type CachedAggregator struct {
	source EarningsAggregator
	cache  *config.CacheService
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCachedAggregator(source EarningsAggregator, cache *config.CacheService, ttl time.Duration, logger logrus.FieldLogger) *CachedAggregator {
	return &CachedAggregator{source: source, cache: cache, ttl: ttl, logger: logger}
}

func earningsKey(accountID uint64) string {
	return "ledger:external_earnings:" + strconv.FormatUint(accountID, 10)
}

func (a *CachedAggregator) TotalEarned(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	var cached decimal.Decimal

	err := a.cache.GetKey(ctx, earningsKey(accountID), &cached)
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, redis.Nil) {
		a.logger.WithError(err).WithField("account_id", accountID).Warn("external earnings cache read failed")
	}

	total, err := a.source.TotalEarned(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := a.cache.SetKey(ctx, earningsKey(accountID), total, a.ttl); err != nil {
		a.logger.WithError(err).WithField("account_id", accountID).Warn("external earnings cache write failed")
	}

	return total, nil
}

// Invalidate drops the cached total, used after the source changes.
func (a *CachedAggregator) Invalidate(ctx context.Context, accountID uint64) error {
	return a.cache.DeleteKey(ctx, earningsKey(accountID))
}

// BoundedAggregator never fails: an error or a timeout from the source is
// logged and reported as zero earnings.
type BoundedAggregator struct {
	source  EarningsAggregator
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewBoundedAggregator(source EarningsAggregator, timeout time.Duration, logger logrus.FieldLogger) *BoundedAggregator {
	return &BoundedAggregator{source: source, timeout: timeout, logger: logger}
}

func (a *BoundedAggregator) TotalEarned(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		total decimal.Decimal
		err   error
	}

	done := make(chan result, 1)
	go func() {
		total, err := a.source.TotalEarned(ctx, accountID)
		done <- result{total, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			a.fallback(accountID, r.err)
			return decimal.Zero, nil
		}
		if r.total.IsNegative() {
			return decimal.Zero, nil
		}
		return r.total, nil
	case <-ctx.Done():
		a.fallback(accountID, ctx.Err())
		return decimal.Zero, nil
	}
}

func (a *BoundedAggregator) fallback(accountID uint64, err error) {
	earningsFallbacks.Inc()
	a.logger.WithError(err).WithField("account_id", accountID).Warn("external earnings unavailable, treating as zero")
}
