package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lock adds SELECT ... FOR UPDATE to the next query on tx.
func Lock(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

type Reference struct {
	ID   uint64
	Type string
}

var (
	ReferenceDeposit    = "Deposit"
	ReferenceWithdrawal = "Withdrawal"
	ReferenceCommission = "Commission"
)

// All lists every table the ledger owns, in migration order.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Deposit{},
		&Withdrawal{},
		&Commission{},
		&ReferralSummary{},
		&Operation{},
		&EmailSubmission{},
	}
}
