package cron

import (
	"context"
	"strings"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/payvest/ledger/config"
	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/models"
)

const dayLayout = "2006-01-02"

// ReferralSummaryJob rolls up the previous day's referral activity into
// referral_summaries once a day.
type ReferralSummaryJob struct {
	DB     *gorm.DB
	Logger logrus.FieldLogger
}

func NewReferralSummaryJob() *ReferralSummaryJob {
	return &ReferralSummaryJob{DB: config.DataBase, Logger: config.Logger}
}

func (j *ReferralSummaryJob) Process() {
	s := gocron.NewScheduler()
	s.Every(1).Day().At("00:00:00").Do(func() {
		yesterday := time.Now().AddDate(0, 0, -1)
		if err := j.Run(context.Background(), yesterday); err != nil {
			j.Logger.WithError(err).Error("referral summary rollup failed")
		}
	})
	<-s.Start()
}

type GroupCommission struct {
	ReferrerID       uint64
	Earned           decimal.Decimal
	FriendsDeposited uint64
}

type GroupReferral struct {
	ReferralCode string
	Friends      uint64
}

// Run writes one summary per referrer active on day. Rerunning a day
// overwrites its rows.
func (j *ReferralSummaryJob) Run(ctx context.Context, day time.Time) error {
	db := j.DB.WithContext(ctx)
	date := day.Format(dayLayout)
	midnight, _ := time.Parse(dayLayout, date)

	summaries := make(map[uint64]*models.ReferralSummary)
	summary := func(accountID uint64) *models.ReferralSummary {
		s, ok := summaries[accountID]
		if !ok {
			s = &models.ReferralSummary{AccountID: accountID, Day: midnight, Earned: decimal.Zero}
			summaries[accountID] = s
		}
		return s
	}

	var group_commissions []*GroupCommission
	if err := db.
		Model(&models.Commission{}).
		Select("referrer_id", "SUM(amount) as earned", "COUNT(DISTINCT referred_id) as friends_deposited").
		Where("CAST(\"created_at\" AS DATE) = ?", date).
		Group("referrer_id").
		Find(&group_commissions).Error; err != nil {
		return err
	}

	for _, group_commission := range group_commissions {
		s := summary(group_commission.ReferrerID)
		s.Earned = group_commission.Earned
		s.FriendsDeposited = group_commission.FriendsDeposited
	}

	var group_referrals []*GroupReferral
	if err := db.
		Model(&models.Account{}).
		Select("LOWER(referred_by) as referral_code", "COUNT(*) as friends").
		Where("referred_by IS NOT NULL AND referred_by <> '' AND CAST(\"created_at\" AS DATE) = ?", date).
		Group("LOWER(referred_by)").
		Find(&group_referrals).Error; err != nil {
		return err
	}

	repo := ledger.NewGormRepository(j.DB)
	for _, group_referral := range group_referrals {
		referrer, err := repo.FindAccountByReferralCode(ctx, group_referral.ReferralCode)
		if err != nil {
			j.Logger.WithField("referral_code", strings.ToUpper(group_referral.ReferralCode)).
				WithError(err).Warn("skipping referrals to unknown code")
			continue
		}

		summary(referrer.ID).Friends += group_referral.Friends
	}

	for _, s := range summaries {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"earned", "friends_deposited", "friends", "updated_at"}),
		}).Create(s).Error; err != nil {
			return err
		}
	}

	j.Logger.WithFields(logrus.Fields{"day": date, "referrers": len(summaries)}).Info("referral summaries written")

	return nil
}
