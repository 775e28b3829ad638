package cron

import (
	"context"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/models"
	"github.com/payvest/ledger/types"
)

// PendingAuditJob reports deposits and withdrawals still waiting for an admin
// after MaxAge.
type PendingAuditJob struct {
	DB     *gorm.DB
	Logger logrus.FieldLogger
	MaxAge time.Duration
}

func NewPendingAuditJob() *PendingAuditJob {
	return &PendingAuditJob{DB: config.DataBase, Logger: config.Logger, MaxAge: config.Ledger.PendingAuditAge}
}

func (j *PendingAuditJob) Process() {
	s := gocron.NewScheduler()
	s.Every(1).Hour().Do(func() {
		if _, err := j.Run(context.Background(), time.Now()); err != nil {
			j.Logger.WithError(err).Error("pending audit failed")
		}
	})
	<-s.Start()
}

type PendingCounts struct {
	Deposits    int64
	Withdrawals int64
}

func (j *PendingAuditJob) Run(ctx context.Context, now time.Time) (PendingCounts, error) {
	var counts PendingCounts

	db := j.DB.WithContext(ctx)
	before := now.Add(-j.MaxAge)

	if err := db.Model(&models.Deposit{}).
		Where("status = ? AND created_at < ?", types.DepositStatusPending, before).
		Count(&counts.Deposits).Error; err != nil {
		return counts, err
	}

	if err := db.Model(&models.Withdrawal{}).
		Where("status = ? AND created_at < ?", types.WithdrawalStatusPending, before).
		Count(&counts.Withdrawals).Error; err != nil {
		return counts, err
	}

	entry := j.Logger.WithFields(logrus.Fields{
		"deposits":    counts.Deposits,
		"withdrawals": counts.Withdrawals,
		"older_than":  j.MaxAge.String(),
	})
	if counts.Deposits > 0 || counts.Withdrawals > 0 {
		entry.Warn("stale pending requests")
	} else {
		entry.Debug("no stale pending requests")
	}

	return counts, nil
}
