package queries

import (
	"time"

	"github.com/payvest/ledger/controllers/helpers"
)

type ReferralSummaryQueries struct {
	TimeFrom int64 `query:"time_from" validate:"uint"`
	TimeTo   int64 `query:"time_to" validate:"uint|VaildateTimeTo"`
}

func (t ReferralSummaryQueries) VaildateTimeTo(TimeTo int64) bool {
	return TimeTo == 0 || TimeTo >= t.TimeFrom
}

func (t ReferralSummaryQueries) Messages() map[string]string {
	ms := helpers.VaildateMessage("referral.summary")
	ms["VaildateTimeTo"] = "referral.summary.invalid_time_range"

	return ms
}

func (t ReferralSummaryQueries) Translates() map[string]string {
	return helpers.VaildateTranslateFields()
}

// Range defaults to the last 30 days.
func (t ReferralSummaryQueries) Range(now time.Time) (time.Time, time.Time) {
	to := now
	if t.TimeTo > 0 {
		to = time.Unix(t.TimeTo, 0)
	}

	from := to.AddDate(0, 0, -30)
	if t.TimeFrom > 0 {
		from = time.Unix(t.TimeFrom, 0)
	}

	return from, to
}
