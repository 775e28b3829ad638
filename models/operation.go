package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/payvest/ledger/types"
)

// Operation is one audit row per balance source touched by a mutation.
// Credits increase what the platform owes the account, debits decrease it.
type Operation struct {
	ID            uint64              `json:"id" gorm:"primaryKey"`
	AccountID     uint64              `json:"account_id" gorm:"index"`
	Kind          types.OperationKind `json:"kind"`
	ReferenceType string              `json:"reference_type"`
	ReferenceID   uint64              `json:"reference_id"`
	Debit         decimal.Decimal     `json:"debit" gorm:"type:numeric(32,2);default:0"`
	Credit        decimal.Decimal     `json:"credit" gorm:"type:numeric(32,2);default:0"`
	CreatedAt     time.Time           `json:"created_at"`
}

func OperationCredit(amount decimal.Decimal, kind types.OperationKind, reference Reference, accountID uint64) *Operation {
	return &Operation{
		AccountID:     accountID,
		Kind:          kind,
		ReferenceType: reference.Type,
		ReferenceID:   reference.ID,
		Debit:         decimal.Zero,
		Credit:        amount,
	}
}

func OperationDebit(amount decimal.Decimal, kind types.OperationKind, reference Reference, accountID uint64) *Operation {
	return &Operation{
		AccountID:     accountID,
		Kind:          kind,
		ReferenceType: reference.Type,
		ReferenceID:   reference.ID,
		Debit:         amount,
		Credit:        decimal.Zero,
	}
}
