package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// EmailSubmission is a paid task completed by an account. Approved rewards
// make up the account's external earnings.
type EmailSubmission struct {
	ID        uint64          `json:"id" gorm:"primaryKey"`
	AccountID uint64          `json:"account_id" gorm:"index"`
	Email     string          `json:"email"`
	Reward    decimal.Decimal `json:"reward" gorm:"type:numeric(32,2);default:0"`
	Status    string          `json:"status" gorm:"default:pending"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
