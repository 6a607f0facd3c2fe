package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"go-bank-withdrawal/common"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/model"
	"math/rand"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccountRepository is the Postgres-backed AccountStore.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// Begin opens a database transaction.
func (r *AccountRepository) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to begin transaction")
		return nil, classify("begin transaction", err)
	}
	return &sqlUnitOfWork{tx: tx}, nil
}

// ListAccounts retrieves all accounts ordered by id.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	log := logger.Log
	log.Info("Executing query to list accounts")

	query := `SELECT id, customer_id, balance, date_created, date_modified FROM accounts ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, classify("list accounts", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.ID, &acc.CustomerID, &acc.Balance, &acc.DateCreated, &acc.DateModified); err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, classify("scan account", err)
		}
		accounts = append(accounts, &acc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list accounts", err)
	}
	return accounts, nil
}

// SeedSampleAccounts inserts the demo accounts, leaving existing ids untouched,
// and moves the id sequence past them.
func (r *AccountRepository) SeedSampleAccounts(ctx context.Context, rnd *rand.Rand, now time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin seed", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO accounts (id, customer_id, balance, date_created, date_modified)
		VALUES ($1, $2, $3, $4, $4) ON CONFLICT (id) DO NOTHING`
	for _, acc := range SampleAccounts(rnd, now) {
		if _, err := tx.ExecContext(ctx, insert, acc.ID, acc.CustomerID, acc.Balance, acc.DateCreated); err != nil {
			logger.Log.WithError(err).WithField("account_id", acc.ID).Error("Failed to insert sample account")
			return classify("seed account", err)
		}
	}

	resync := `SELECT setval(pg_get_serial_sequence('accounts', 'id'), (SELECT MAX(id) FROM accounts))`
	if _, err := tx.ExecContext(ctx, resync); err != nil {
		return classify("resync account id sequence", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit seed", err)
	}
	logger.Log.WithField("count", sampleAccountCount).Info("Sample accounts seeded")
	return nil
}

type sqlUnitOfWork struct {
	tx *sql.Tx
}

func (u *sqlUnitOfWork) GetAccountForUpdate(ctx context.Context, accountID int64) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Debug("Executing query to get account for update")

	account := &model.Account{}
	query := `SELECT id, customer_id, balance, date_created, date_modified FROM accounts WHERE id = $1 FOR UPDATE`
	err := u.tx.QueryRowContext(ctx, query, accountID).Scan(
		&account.ID, &account.CustomerID, &account.Balance, &account.DateCreated, &account.DateModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("Account not found for update")
			return nil, common.NewStoreError(common.KindNotFound, "get account for update", ErrAccountNotFound)
		}
		log.WithError(err).Error("Failed to execute get account for update query")
		return nil, classify("get account for update", err)
	}
	return account, nil
}

func (u *sqlUnitOfWork) UpdateAccountBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal, modifiedAt time.Time) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": newBalance.StringFixed(2),
	})
	log.Debug("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1, date_modified = $2 WHERE id = $3`
	res, err := u.tx.ExecContext(ctx, query, newBalance, modifiedAt, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return classify("update account balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update account balance", err)
	}
	if n == 0 {
		return common.NewStoreError(common.KindNotFound, "update account balance", ErrAccountNotFound)
	}
	return nil
}

func (u *sqlUnitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		logger.Log.WithError(err).Error("Failed to commit transaction")
		return classify("commit", err)
	}
	return nil
}

func (u *sqlUnitOfWork) Rollback() error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Log.WithError(err).Error("Failed to roll back transaction")
		return classify("rollback", err)
	}
	return nil
}

// classify maps driver errors onto common.ErrorKind.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "23":
			return common.NewStoreError(common.KindConstraint, op, err)
		case pqErr.Code.Class() == "08",
			pqErr.Code == "40001", // serialization_failure
			pqErr.Code == "40P01", // deadlock_detected
			pqErr.Code == "55P03": // lock_not_available
			return common.NewStoreError(common.KindTransient, op, err)
		}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return common.NewStoreError(common.KindTransient, op, err)
	}
	return common.NewStoreError(common.KindOther, op, err)
}
