// Package ledgertest provides an in-memory ledger.Repository for tests.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/payvest/ledger/ledger"
	"github.com/payvest/ledger/models"
)

var _ ledger.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps the ledger in process memory. Transaction
// serializes callers but does not roll back, like a row store without
// multi-statement transactions; the ledger.Service compensates partial
// writes itself.
type MemoryRepository struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts    map[uint64]*models.Account
	deposits    map[uint64]*models.Deposit
	withdrawals map[uint64]*models.Withdrawal
	commissions map[uint64]*models.Commission
	operations  []*models.Operation
	nextID      uint64

	failures map[string]error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:    make(map[uint64]*models.Account),
		deposits:    make(map[uint64]*models.Deposit),
		withdrawals: make(map[uint64]*models.Withdrawal),
		commissions: make(map[uint64]*models.Commission),
		nextID:      1,
		failures:    make(map[string]error),
	}
}

// FailNext makes the next call of the named method return err.
func (m *MemoryRepository) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[method] = err
}

func (m *MemoryRepository) fail(method string) error {
	if err, ok := m.failures[method]; ok {
		delete(m.failures, method)
		return err
	}

	return nil
}

func (m *MemoryRepository) id() uint64 {
	id := m.nextID
	m.nextID++

	return id
}

func (m *MemoryRepository) Transaction(ctx context.Context, fn func(repo ledger.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(m)
}

func (m *MemoryRepository) FindAccount(ctx context.Context, id uint64) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}

	copied := *account
	return &copied, nil
}

func (m *MemoryRepository) LockAccount(ctx context.Context, id uint64) (*models.Account, error) {
	m.mu.Lock()
	err := m.fail("LockAccount")
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return m.FindAccount(ctx, id)
}

func (m *MemoryRepository) FindAccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, account := range m.accounts {
		if account.UID == uid {
			copied := *account
			return &copied, nil
		}
	}

	return nil, ledger.ErrAccountNotFound
}

func (m *MemoryRepository) FindAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Account
	for _, account := range m.accounts {
		if !strings.EqualFold(account.ReferralCode, code) {
			continue
		}
		if found == nil || account.ID < found.ID {
			found = account
		}
	}
	if found == nil {
		return nil, ledger.ErrReferrerNotFound
	}

	copied := *found
	return &copied, nil
}

func (m *MemoryRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("CreateAccount"); err != nil {
		return err
	}

	for _, existing := range m.accounts {
		if existing.UID == account.UID {
			return fmt.Errorf("create account: duplicate uid %q", account.UID)
		}
		if len(account.ReferralCode) > 0 && existing.ReferralCode == account.ReferralCode {
			return fmt.Errorf("create account: duplicate referral code %q", account.ReferralCode)
		}
	}

	account.ID = m.id()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	m.accounts[account.ID] = &copied

	return nil
}

func (m *MemoryRepository) SaveBalances(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("SaveBalances"); err != nil {
		return err
	}

	stored, ok := m.accounts[account.ID]
	if !ok {
		return ledger.ErrAccountNotFound
	}

	stored.DepositBalance = account.DepositBalance
	stored.ReferralEarnings = account.ReferralEarnings
	stored.ExternalEarningsWithdrawn = account.ExternalEarningsWithdrawn
	stored.UpdatedAt = account.UpdatedAt

	return nil
}

func (m *MemoryRepository) SaveProfile(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("SaveProfile"); err != nil {
		return err
	}

	stored, ok := m.accounts[account.ID]
	if !ok {
		return ledger.ErrAccountNotFound
	}

	stored.Email = account.Email
	stored.Role = account.Role
	stored.UpdatedAt = account.UpdatedAt

	return nil
}

// SetBlocked flips the blocked flag the way an operator would, outside any
// ledger operation.
func (m *MemoryRepository) SetBlocked(id uint64, blocked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if account, ok := m.accounts[id]; ok {
		account.IsBlocked = blocked
	}
}

func (m *MemoryRepository) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("CreateDeposit"); err != nil {
		return err
	}

	deposit.ID = m.id()
	deposit.CreatedAt = time.Now()
	deposit.UpdatedAt = deposit.CreatedAt
	copied := *deposit
	m.deposits[deposit.ID] = &copied

	return nil
}

func (m *MemoryRepository) FindDeposit(ctx context.Context, id uint64) (*models.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	deposit, ok := m.deposits[id]
	if !ok {
		return nil, ledger.ErrDepositNotFound
	}

	copied := *deposit
	return &copied, nil
}

func (m *MemoryRepository) LockDeposit(ctx context.Context, id uint64) (*models.Deposit, error) {
	return m.FindDeposit(ctx, id)
}

func (m *MemoryRepository) SaveDeposit(ctx context.Context, deposit *models.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("SaveDeposit"); err != nil {
		return err
	}

	stored, ok := m.deposits[deposit.ID]
	if !ok {
		return ledger.ErrDepositNotFound
	}

	stored.Status = deposit.Status
	stored.ApprovedAt = deposit.ApprovedAt
	stored.UpdatedAt = deposit.UpdatedAt

	return nil
}

func (m *MemoryRepository) ListDeposits(ctx context.Context, filter ledger.ListFilter) ([]*models.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var deposits []*models.Deposit
	for _, deposit := range m.deposits {
		if filter.AccountID > 0 && deposit.AccountID != filter.AccountID {
			continue
		}
		if len(filter.Status) > 0 && string(deposit.Status) != filter.Status {
			continue
		}
		copied := *deposit
		deposits = append(deposits, &copied)
	}

	sort.Slice(deposits, func(i, j int) bool { return deposits[i].ID > deposits[j].ID })

	return paginate(deposits, filter), nil
}

func (m *MemoryRepository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("CreateWithdrawal"); err != nil {
		return err
	}

	if withdrawal.IdempotencyKey.Valid {
		for _, existing := range m.withdrawals {
			if existing.AccountID == withdrawal.AccountID && existing.IdempotencyKey == withdrawal.IdempotencyKey {
				return fmt.Errorf("create withdrawal: duplicate idempotency key")
			}
		}
	}

	withdrawal.ID = m.id()
	withdrawal.CreatedAt = time.Now()
	withdrawal.UpdatedAt = withdrawal.CreatedAt
	copied := *withdrawal
	m.withdrawals[withdrawal.ID] = &copied

	return nil
}

func (m *MemoryRepository) DeleteWithdrawal(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("DeleteWithdrawal"); err != nil {
		return err
	}

	delete(m.withdrawals, id)

	return nil
}

func (m *MemoryRepository) FindWithdrawal(ctx context.Context, id uint64) (*models.Withdrawal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	withdrawal, ok := m.withdrawals[id]
	if !ok {
		return nil, ledger.ErrWithdrawalNotFound
	}

	copied := *withdrawal
	return &copied, nil
}

func (m *MemoryRepository) LockWithdrawal(ctx context.Context, id uint64) (*models.Withdrawal, error) {
	return m.FindWithdrawal(ctx, id)
}

func (m *MemoryRepository) FindWithdrawalByIdempotencyKey(ctx context.Context, accountID uint64, key string) (*models.Withdrawal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, withdrawal := range m.withdrawals {
		if withdrawal.AccountID == accountID && withdrawal.IdempotencyKey.Valid && withdrawal.IdempotencyKey.String == key {
			copied := *withdrawal
			return &copied, nil
		}
	}

	return nil, nil
}

func (m *MemoryRepository) SaveWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("SaveWithdrawal"); err != nil {
		return err
	}

	stored, ok := m.withdrawals[withdrawal.ID]
	if !ok {
		return ledger.ErrWithdrawalNotFound
	}

	stored.Status = withdrawal.Status
	stored.TransactionID = withdrawal.TransactionID
	stored.RejectedReason = withdrawal.RejectedReason
	stored.ProcessedAt = withdrawal.ProcessedAt
	stored.UpdatedAt = withdrawal.UpdatedAt

	return nil
}

func (m *MemoryRepository) ListWithdrawals(ctx context.Context, filter ledger.ListFilter) ([]*models.Withdrawal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var withdrawals []*models.Withdrawal
	for _, withdrawal := range m.withdrawals {
		if filter.AccountID > 0 && withdrawal.AccountID != filter.AccountID {
			continue
		}
		if len(filter.Status) > 0 && string(withdrawal.Status) != filter.Status {
			continue
		}
		copied := *withdrawal
		withdrawals = append(withdrawals, &copied)
	}

	sort.Slice(withdrawals, func(i, j int) bool { return withdrawals[i].ID > withdrawals[j].ID })

	return paginate(withdrawals, filter), nil
}

func (m *MemoryRepository) CreateCommission(ctx context.Context, commission *models.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("CreateCommission"); err != nil {
		return err
	}

	for _, existing := range m.commissions {
		if existing.DepositID == commission.DepositID {
			return fmt.Errorf("create commission: duplicate deposit %d", commission.DepositID)
		}
	}

	commission.ID = m.id()
	commission.CreatedAt = time.Now()
	copied := *commission
	m.commissions[commission.ID] = &copied

	return nil
}

func (m *MemoryRepository) DeleteCommission(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("DeleteCommission"); err != nil {
		return err
	}

	delete(m.commissions, id)

	return nil
}

func (m *MemoryRepository) FindCommissionByDeposit(ctx context.Context, depositID uint64) (*models.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, commission := range m.commissions {
		if commission.DepositID == depositID {
			copied := *commission
			return &copied, nil
		}
	}

	return nil, nil
}

func (m *MemoryRepository) ListCommissions(ctx context.Context, filter ledger.ListFilter) ([]*models.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var commissions []*models.Commission
	for _, commission := range m.commissions {
		if filter.AccountID > 0 && commission.ReferrerID != filter.AccountID {
			continue
		}
		copied := *commission
		commissions = append(commissions, &copied)
	}

	sort.Slice(commissions, func(i, j int) bool { return commissions[i].ID > commissions[j].ID })

	return paginate(commissions, filter), nil
}

func (m *MemoryRepository) CreateOperations(ctx context.Context, operations []*models.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("CreateOperations"); err != nil {
		return err
	}

	for _, operation := range operations {
		operation.ID = m.id()
		operation.CreatedAt = time.Now()
		copied := *operation
		m.operations = append(m.operations, &copied)
	}

	return nil
}

// Operations returns every operation row written for accountID.
func (m *MemoryRepository) Operations(accountID uint64) []*models.Operation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var operations []*models.Operation
	for _, operation := range m.operations {
		if operation.AccountID == accountID {
			copied := *operation
			operations = append(operations, &copied)
		}
	}

	return operations
}

// WithdrawalCount reports stored withdrawals, for asserting that failed
// requests leave nothing behind.
func (m *MemoryRepository) WithdrawalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.withdrawals)
}

func paginate[T any](rows []T, filter ledger.ListFilter) []T {
	filter = filter.Normalize()

	offset := filter.Offset()
	if offset >= len(rows) {
		return []T{}
	}

	end := offset + filter.Limit
	if end > len(rows) {
		end = len(rows)
	}

	return rows[offset:end]
}
