package queries

import (
	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/ledger"
)

type CommissionQueries struct {
	Limit int `query:"limit" validate:"uint"`
	Page  int `query:"page" validate:"uint"`
}

func (t CommissionQueries) Messages() map[string]string {
	return helpers.VaildateMessage("referral.commission")
}

func (t CommissionQueries) Translates() map[string]string {
	return helpers.VaildateTranslateFields()
}

func (t CommissionQueries) Filter(accountID uint64) ledger.ListFilter {
	return ledger.ListFilter{AccountID: accountID, Page: t.Page, Limit: t.Limit}
}
