package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/payvest/ledger/models"
)

// GormRepository stores the ledger in Postgres through gorm. Inside
// Transaction every call runs on the same *gorm.DB transaction.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func notFound(err error, target *Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}

	return err
}

func (r *GormRepository) FindAccount(ctx context.Context, id uint64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrAccountNotFound)
	}

	return &account, nil
}

func (r *GormRepository) LockAccount(ctx context.Context, id uint64) (*models.Account, error) {
	var account models.Account
	if err := models.Lock(r.db.WithContext(ctx)).First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrAccountNotFound)
	}

	return &account, nil
}

func (r *GormRepository) FindAccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "uid = ?", uid).Error; err != nil {
		return nil, notFound(err, ErrAccountNotFound)
	}

	return &account, nil
}

// FindAccountByReferralCode matches case-insensitively. When two codes differ
// only by case the oldest account wins.
func (r *GormRepository) FindAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("LOWER(referral_code) = LOWER(?)", code).
		Order("id asc").
		First(&account).Error
	if err != nil {
		return nil, notFound(err, ErrReferrerNotFound)
	}

	return &account, nil
}

func (r *GormRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *GormRepository) SaveBalances(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).
		Model(account).
		Select("deposit_balance", "referral_earnings", "external_earnings_withdrawn", "updated_at").
		Updates(account)
	if result.Error != nil {
		return fmt.Errorf("save balances of account %d: %w", account.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *GormRepository) SaveProfile(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).
		Model(account).
		Select("email", "role", "updated_at").
		Updates(account)
	if result.Error != nil {
		return fmt.Errorf("save profile of account %d: %w", account.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *GormRepository) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	if err := r.db.WithContext(ctx).Create(deposit).Error; err != nil {
		return fmt.Errorf("create deposit: %w", err)
	}

	return nil
}

func (r *GormRepository) FindDeposit(ctx context.Context, id uint64) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.WithContext(ctx).First(&deposit, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrDepositNotFound)
	}

	return &deposit, nil
}

func (r *GormRepository) LockDeposit(ctx context.Context, id uint64) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := models.Lock(r.db.WithContext(ctx)).First(&deposit, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrDepositNotFound)
	}

	return &deposit, nil
}

func (r *GormRepository) SaveDeposit(ctx context.Context, deposit *models.Deposit) error {
	err := r.db.WithContext(ctx).
		Model(deposit).
		Select("status", "approved_at", "updated_at").
		Updates(deposit).Error
	if err != nil {
		return fmt.Errorf("save deposit %d: %w", deposit.ID, err)
	}

	return nil
}

func (r *GormRepository) ListDeposits(ctx context.Context, filter ListFilter) ([]*models.Deposit, error) {
	var deposits []*models.Deposit
	if err := r.list(ctx, filter).Find(&deposits).Error; err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}

	return deposits, nil
}

func (r *GormRepository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}

	return nil
}

func (r *GormRepository) DeleteWithdrawal(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Withdrawal{}, id).Error; err != nil {
		return fmt.Errorf("delete withdrawal %d: %w", id, err)
	}

	return nil
}

func (r *GormRepository) FindWithdrawal(ctx context.Context, id uint64) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).First(&withdrawal, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrWithdrawalNotFound)
	}

	return &withdrawal, nil
}

func (r *GormRepository) LockWithdrawal(ctx context.Context, id uint64) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := models.Lock(r.db.WithContext(ctx)).First(&withdrawal, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrWithdrawalNotFound)
	}

	return &withdrawal, nil
}

func (r *GormRepository) FindWithdrawalByIdempotencyKey(ctx context.Context, accountID uint64, key string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND idempotency_key = ?", accountID, key).
		First(&withdrawal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("find withdrawal by idempotency key: %w", err)
	}

	return &withdrawal, nil
}

func (r *GormRepository) SaveWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	err := r.db.WithContext(ctx).
		Model(withdrawal).
		Select("status", "transaction_id", "rejected_reason", "processed_at", "updated_at").
		Updates(withdrawal).Error
	if err != nil {
		return fmt.Errorf("save withdrawal %d: %w", withdrawal.ID, err)
	}

	return nil
}

func (r *GormRepository) ListWithdrawals(ctx context.Context, filter ListFilter) ([]*models.Withdrawal, error) {
	var withdrawals []*models.Withdrawal
	if err := r.list(ctx, filter).Find(&withdrawals).Error; err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}

	return withdrawals, nil
}

func (r *GormRepository) CreateCommission(ctx context.Context, commission *models.Commission) error {
	if err := r.db.WithContext(ctx).Create(commission).Error; err != nil {
		return fmt.Errorf("create commission: %w", err)
	}

	return nil
}

func (r *GormRepository) DeleteCommission(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Commission{}, id).Error; err != nil {
		return fmt.Errorf("delete commission %d: %w", id, err)
	}

	return nil
}

func (r *GormRepository) FindCommissionByDeposit(ctx context.Context, depositID uint64) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).First(&commission, "deposit_id = ?", depositID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("find commission by deposit: %w", err)
	}

	return &commission, nil
}

func (r *GormRepository) ListCommissions(ctx context.Context, filter ListFilter) ([]*models.Commission, error) {
	filter = filter.Normalize()

	var commissions []*models.Commission
	tx := r.db.WithContext(ctx).Order("id desc").Offset(filter.Offset()).Limit(filter.Limit)
	if filter.AccountID > 0 {
		tx = tx.Where("referrer_id = ?", filter.AccountID)
	}
	if err := tx.Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}

	return commissions, nil
}

func (r *GormRepository) CreateOperations(ctx context.Context, operations []*models.Operation) error {
	if len(operations) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(&operations).Error; err != nil {
		return fmt.Errorf("create operations: %w", err)
	}

	return nil
}

func (r *GormRepository) list(ctx context.Context, filter ListFilter) *gorm.DB {
	filter = filter.Normalize()

	tx := r.db.WithContext(ctx).Order("id desc").Offset(filter.Offset()).Limit(filter.Limit)
	if filter.AccountID > 0 {
		tx = tx.Where("account_id = ?", filter.AccountID)
	}
	if len(filter.Status) > 0 {
		tx = tx.Where("status = ?", filter.Status)
	}

	return tx
}
