package repository

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go-bank-withdrawal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnitOfWorkClosed  = errors.New("unit of work already committed or rolled back")
	ErrAccountNotLocked  = errors.New("account row is not locked by this unit of work")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
)

// AccountStore begins units of work over account rows.
type AccountStore interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is a single transaction. Rows read with GetAccountForUpdate stay
// exclusively locked until Commit or Rollback. Rollback after Commit is a no-op.
type UnitOfWork interface {
	GetAccountForUpdate(ctx context.Context, accountID int64) (*model.Account, error)
	UpdateAccountBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal, modifiedAt time.Time) error
	Commit() error
	Rollback() error
}

// AccountLister returns a snapshot of all accounts ordered by id.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]*model.Account, error)
}

// AccountSeeder inserts the demo accounts used by local runs.
type AccountSeeder interface {
	SeedSampleAccounts(ctx context.Context, rnd *rand.Rand, now time.Time) error
}

// ConditionalDebit locks the account, re-checks the balance under the lock and
// subtracts amount when it is covered. The caller owns Commit/Rollback of uow.
func ConditionalDebit(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal, now time.Time) (*model.Account, error) {
	account, err := uow.GetAccountForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Balance.LessThan(amount) {
		return account, ErrInsufficientFunds
	}

	newBalance := account.Balance.Sub(amount)
	if err := uow.UpdateAccountBalance(ctx, accountID, newBalance, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.DateModified = now
	return account, nil
}

const sampleAccountCount = 5

// SampleAccounts builds the demo accounts: ids 1..5, customer id = id*9099 and
// a whole-unit balance between 100 and 1000.
func SampleAccounts(rnd *rand.Rand, now time.Time) []model.Account {
	accounts := make([]model.Account, 0, sampleAccountCount)
	for id := int64(1); id <= sampleAccountCount; id++ {
		accounts = append(accounts, model.Account{
			ID:           id,
			CustomerID:   id * 9099,
			Balance:      decimal.NewFromInt(int64(100 + rnd.Intn(901))),
			DateCreated:  now,
			DateModified: now,
		})
	}
	return accounts
}
