package repository

import (
	"context"
	"go-bank-withdrawal/common"
	"go-bank-withdrawal/model"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryAccountStore keeps accounts in process. Each account has its own row
// lock, so units of work on different accounts never wait on each other.
type MemoryAccountStore struct {
	mu     sync.RWMutex
	rows   map[int64]*memoryRow
	nextID int64
}

type memoryRow struct {
	lock    sync.Mutex    // held by at most one unit of work
	account model.Account // committed state, guarded by MemoryAccountStore.mu
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{rows: make(map[int64]*memoryRow)}
}

// Create adds an account with the next free id.
func (s *MemoryAccountStore) Create(customerID int64, balance decimal.Decimal, now time.Time) (*model.Account, error) {
	if balance.IsNegative() {
		return nil, common.NewStoreError(common.KindConstraint, "create account", ErrNegativeBalance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	for s.rows[s.nextID] != nil {
		s.nextID++
	}
	acc := model.Account{ID: s.nextID, CustomerID: customerID, Balance: balance, DateCreated: now, DateModified: now}
	s.rows[acc.ID] = &memoryRow{account: acc}
	return &acc, nil
}

// SeedSampleAccounts inserts the demo accounts, skipping ids that already exist.
func (s *MemoryAccountStore) SeedSampleAccounts(_ context.Context, rnd *rand.Rand, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range SampleAccounts(rnd, now) {
		if _, ok := s.rows[acc.ID]; ok {
			continue
		}
		s.rows[acc.ID] = &memoryRow{account: acc}
		if acc.ID > s.nextID {
			s.nextID = acc.ID
		}
	}
	return nil
}

// Get returns the committed state of an account.
func (s *MemoryAccountStore) Get(accountID int64) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[accountID]
	if !ok {
		return nil, common.NewStoreError(common.KindNotFound, "get account", ErrAccountNotFound)
	}
	acc := row.account
	return &acc, nil
}

func (s *MemoryAccountStore) ListAccounts(_ context.Context) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Account, 0, len(s.rows))
	for _, row := range s.rows {
		acc := row.account
		out = append(out, &acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryAccountStore) Begin(_ context.Context) (UnitOfWork, error) {
	return &memoryUnitOfWork{
		store:  s,
		locked: make(map[int64]*memoryRow),
		staged: make(map[int64]model.Account),
	}, nil
}

type memoryUnitOfWork struct {
	store  *MemoryAccountStore
	locked map[int64]*memoryRow
	staged map[int64]model.Account
	closed bool
}

// GetAccountForUpdate blocks until the row lock is free.
func (u *memoryUnitOfWork) GetAccountForUpdate(_ context.Context, accountID int64) (*model.Account, error) {
	if u.closed {
		return nil, common.NewStoreError(common.KindOther, "get account for update", ErrUnitOfWorkClosed)
	}
	if acc, ok := u.staged[accountID]; ok {
		return &acc, nil
	}

	row, ok := u.locked[accountID]
	if !ok {
		u.store.mu.RLock()
		row, ok = u.store.rows[accountID]
		u.store.mu.RUnlock()
		if !ok {
			return nil, common.NewStoreError(common.KindNotFound, "get account for update", ErrAccountNotFound)
		}
		row.lock.Lock()
		u.locked[accountID] = row
	}

	u.store.mu.RLock()
	acc := row.account
	u.store.mu.RUnlock()
	return &acc, nil
}

func (u *memoryUnitOfWork) UpdateAccountBalance(_ context.Context, accountID int64, newBalance decimal.Decimal, modifiedAt time.Time) error {
	if u.closed {
		return common.NewStoreError(common.KindOther, "update account balance", ErrUnitOfWorkClosed)
	}
	row, ok := u.locked[accountID]
	if !ok {
		return common.NewStoreError(common.KindOther, "update account balance", ErrAccountNotLocked)
	}
	if newBalance.IsNegative() {
		return common.NewStoreError(common.KindConstraint, "update account balance", ErrNegativeBalance)
	}

	u.store.mu.RLock()
	acc := row.account
	u.store.mu.RUnlock()
	if staged, ok := u.staged[accountID]; ok {
		acc = staged
	}
	acc.Balance = newBalance
	acc.DateModified = modifiedAt
	u.staged[accountID] = acc
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if u.closed {
		return common.NewStoreError(common.KindOther, "commit", ErrUnitOfWorkClosed)
	}
	u.store.mu.Lock()
	for id, acc := range u.staged {
		u.locked[id].account = acc
	}
	u.store.mu.Unlock()
	u.release()
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.closed {
		return nil
	}
	u.release()
	return nil
}

func (u *memoryUnitOfWork) release() {
	for _, row := range u.locked {
		row.lock.Unlock()
	}
	u.locked = nil
	u.staged = nil
	u.closed = true
}
