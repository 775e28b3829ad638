package ledger

import (
	"context"

	"github.com/payvest/ledger/models"
)

// ListFilter narrows list queries. Zero values mean "any".
type ListFilter struct {
	AccountID uint64
	Status    string
	Page      int
	Limit     int
}

func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	return f
}

func (f ListFilter) Offset() int {
	return f.Page*f.Limit - f.Limit
}

// Repository is the persistence port of the ledger. Lock* methods take a
// row lock that is held until the surrounding Transaction ends; outside a
// transaction they behave like Find*.
//
// Optional lookups (FindWithdrawalByIdempotencyKey, FindCommissionByDeposit)
// return nil, nil when nothing matches.
type Repository interface {
	Transaction(ctx context.Context, fn func(repo Repository) error) error

	FindAccount(ctx context.Context, id uint64) (*models.Account, error)
	LockAccount(ctx context.Context, id uint64) (*models.Account, error)
	FindAccountByUID(ctx context.Context, uid string) (*models.Account, error)
	FindAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	SaveBalances(ctx context.Context, account *models.Account) error
	SaveProfile(ctx context.Context, account *models.Account) error

	CreateDeposit(ctx context.Context, deposit *models.Deposit) error
	FindDeposit(ctx context.Context, id uint64) (*models.Deposit, error)
	LockDeposit(ctx context.Context, id uint64) (*models.Deposit, error)
	SaveDeposit(ctx context.Context, deposit *models.Deposit) error
	ListDeposits(ctx context.Context, filter ListFilter) ([]*models.Deposit, error)

	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error
	DeleteWithdrawal(ctx context.Context, id uint64) error
	FindWithdrawal(ctx context.Context, id uint64) (*models.Withdrawal, error)
	LockWithdrawal(ctx context.Context, id uint64) (*models.Withdrawal, error)
	FindWithdrawalByIdempotencyKey(ctx context.Context, accountID uint64, key string) (*models.Withdrawal, error)
	SaveWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error
	ListWithdrawals(ctx context.Context, filter ListFilter) ([]*models.Withdrawal, error)

	CreateCommission(ctx context.Context, commission *models.Commission) error
	DeleteCommission(ctx context.Context, id uint64) error
	FindCommissionByDeposit(ctx context.Context, depositID uint64) (*models.Commission, error)
	ListCommissions(ctx context.Context, filter ListFilter) ([]*models.Commission, error)

	CreateOperations(ctx context.Context, operations []*models.Operation) error
}
