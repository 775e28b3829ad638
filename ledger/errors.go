package ledger

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of a ledger failure.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindAuth              Kind = "auth_error"
	KindNotFound          Kind = "not_found_error"
	KindConflict          Kind = "conflict_error"
	KindInsufficientFunds Kind = "insufficient_funds_error"
	KindDependency        Kind = "dependency_error"
	KindInternal          Kind = "internal_error"
)

// Error is returned by every Service operation. Two errors are equal under
// errors.Is when their codes match, so callers compare against the Err*
// values regardless of the wrapped cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}

	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: cause}
}

// Withf returns a copy of e with a more specific message.
func (e *Error) Withf(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), cause: e.cause}
}

var (
	ErrInvalidAmount          = &Error{Kind: KindValidation, Code: "ledger.invalid_amount", Message: "amount must be positive"}
	ErrInvalidMethod          = &Error{Kind: KindValidation, Code: "ledger.invalid_method", Message: "withdrawal method is not supported"}
	ErrBankNameRequired       = &Error{Kind: KindValidation, Code: "ledger.bank_name_required", Message: "bank name is required for bank withdrawals"}
	ErrAccountDetailsRequired = &Error{Kind: KindValidation, Code: "ledger.account_details_required", Message: "account title and number are required"}
	ErrInvalidStatus          = &Error{Kind: KindValidation, Code: "ledger.invalid_status", Message: "status must be one of pending, approved, rejected"}

	ErrAccountBlocked = &Error{Kind: KindAuth, Code: "ledger.account_blocked", Message: "account is blocked"}

	ErrAccountNotFound    = &Error{Kind: KindNotFound, Code: "ledger.account_not_found", Message: "account not found"}
	ErrDepositNotFound    = &Error{Kind: KindNotFound, Code: "ledger.deposit_not_found", Message: "deposit not found"}
	ErrWithdrawalNotFound = &Error{Kind: KindNotFound, Code: "ledger.withdrawal_not_found", Message: "withdrawal not found"}
	ErrReferrerNotFound   = &Error{Kind: KindNotFound, Code: "ledger.referrer_not_found", Message: "referral code does not match any account"}

	ErrInvalidTransition   = &Error{Kind: KindConflict, Code: "ledger.invalid_transition", Message: "status transition is not allowed"}
	ErrIdempotencyConflict = &Error{Kind: KindConflict, Code: "ledger.idempotency_conflict", Message: "idempotency key was used for a different request"}

	ErrInsufficientBalance = &Error{Kind: KindInsufficientFunds, Code: "ledger.insufficient_balance", Message: "insufficient balance"}
	ErrBelowMinimum        = &Error{Kind: KindInsufficientFunds, Code: "ledger.below_minimum", Message: "amount drawn from deposit and referral balances is below the minimum withdrawal"}

	ErrPersistenceFailure = &Error{Kind: KindDependency, Code: "ledger.persistence_failure", Message: "storage is unavailable, try again"}

	ErrInternal = &Error{Kind: KindInternal, Code: "ledger.internal_error", Message: "internal error"}
)

// KindOf classifies err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// AsError returns err as *Error, wrapping unknown errors as ErrInternal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return ErrInternal.Wrap(err)
}

// persistence wraps a storage failure unless it already is a ledger error.
func persistence(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	return ErrPersistenceFailure.Wrap(err)
}
