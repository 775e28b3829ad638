package helpers

import (
	"github.com/shopspring/decimal"

	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/models"
	"github.com/payvest/ledger/types"
)

type AccountDetails struct {
	AccountTitle  string `json:"account_title" form:"account_title"`
	AccountNumber string `json:"account_number" form:"account_number"`
}

type WithdrawParams struct {
	Amount         decimal.Decimal        `json:"amount" form:"amount" validate:"VaildateAmount"`
	Method         types.WithdrawalMethod `json:"method" form:"method" validate:"required|VaildateMethod"`
	AccountDetails AccountDetails         `json:"account_details" form:"account_details"`
	BankName       string                 `json:"bank_name" form:"bank_name"`
}

func (p WithdrawParams) Messages() map[string]string {
	return VaildateMessage("account.withdraw")
}

func (p WithdrawParams) Translates() map[string]string {
	return VaildateTranslateFields()
}

func (p WithdrawParams) VaildateAmount(Amount decimal.Decimal) bool {
	return Amount.IsPositive()
}

func (p WithdrawParams) VaildateMethod(Method types.WithdrawalMethod) bool {
	return Method.IsValid()
}

func (p WithdrawParams) ToRequest(account *models.Account, idempotencyKey string) ledger.WithdrawalRequest {
	return ledger.WithdrawalRequest{
		AccountID:      account.ID,
		Amount:         p.Amount,
		Method:         p.Method,
		AccountTitle:   p.AccountDetails.AccountTitle,
		AccountNumber:  p.AccountDetails.AccountNumber,
		BankName:       p.BankName,
		IdempotencyKey: idempotencyKey,
	}
}

type DepositParams struct {
	Amount         decimal.Decimal `json:"amount" form:"amount" validate:"VaildateAmount"`
	Method         string          `json:"method" form:"method" validate:"required"`
	TransactionRef string          `json:"transaction_ref" form:"transaction_ref"`
}

func (p DepositParams) Messages() map[string]string {
	return VaildateMessage("account.deposit")
}

func (p DepositParams) Translates() map[string]string {
	return VaildateTranslateFields()
}

func (p DepositParams) VaildateAmount(Amount decimal.Decimal) bool {
	return Amount.IsPositive()
}

type DepositStatusParams struct {
	Status types.DepositStatus `json:"status" form:"status" validate:"required|VaildateStatus"`
}

func (p DepositStatusParams) Messages() map[string]string {
	return VaildateMessage("admin.deposit")
}

func (p DepositStatusParams) Translates() map[string]string {
	return VaildateTranslateFields()
}

func (p DepositStatusParams) VaildateStatus(Status types.DepositStatus) bool {
	return Status.IsValid()
}

type WithdrawalStatusParams struct {
	Status         types.WithdrawalStatus `json:"status" form:"status" validate:"required|VaildateStatus"`
	TransactionID  string                 `json:"transaction_id" form:"transaction_id"`
	RejectedReason string                 `json:"rejected_reason" form:"rejected_reason"`
}

func (p WithdrawalStatusParams) Messages() map[string]string {
	return VaildateMessage("admin.withdrawal")
}

func (p WithdrawalStatusParams) Translates() map[string]string {
	return VaildateTranslateFields()
}

func (p WithdrawalStatusParams) VaildateStatus(Status types.WithdrawalStatus) bool {
	return Status.IsValid()
}

func (p WithdrawalStatusParams) Options() ledger.StatusOptions {
	return ledger.StatusOptions{
		TransactionID:  p.TransactionID,
		RejectedReason: p.RejectedReason,
	}
}
