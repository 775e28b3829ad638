package queries

import (
	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/ledger"
)

// ListQueries is shared by the deposit and withdrawal listings.
type ListQueries struct {
	Status string `query:"status" validate:"in:pending,approved,rejected"`
	Limit  int    `query:"limit" validate:"uint"`
	Page   int    `query:"page" validate:"uint"`
}

func (t ListQueries) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.list")
}

func (t ListQueries) Translates() map[string]string {
	return helpers.VaildateTranslateFields()
}

func (t ListQueries) Filter(accountID uint64) ledger.ListFilter {
	return ledger.ListFilter{
		AccountID: accountID,
		Status:    t.Status,
		Page:      t.Page,
		Limit:     t.Limit,
	}
}
