package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the outcome of one withdrawal attempt.
type WithdrawalStatus string

const (
	StatusInvalidAmount     WithdrawalStatus = "invalid_withdrawal_amount"
	StatusAccountNotFound   WithdrawalStatus = "account_not_found"
	StatusInsufficientFunds WithdrawalStatus = "insufficient_funds"
	StatusSuccess           WithdrawalStatus = "withdrawal_successful"
	StatusTransactionFailed WithdrawalStatus = "transaction_failed"
)

// EventTimeLayout is ISO-8601 with microseconds and an explicit numeric offset.
const EventTimeLayout = "2006-01-02T15:04:05.000000-07:00"

// WithdrawalEvent records a committed withdrawal. Amount is exactly the debited amount.
type WithdrawalEvent struct {
	AccountID int64
	Amount    decimal.Decimal
	Status    WithdrawalStatus
	Timestamp time.Time
}

func NewWithdrawalEvent(accountID int64, amount decimal.Decimal, at time.Time) WithdrawalEvent {
	return WithdrawalEvent{
		AccountID: accountID,
		Amount:    amount,
		Status:    StatusSuccess,
		Timestamp: at,
	}
}

// wire field order is fixed by declaration order.
type withdrawalEventWire struct {
	AccountID int64            `json:"account_id"`
	Amount    string           `json:"amount"`
	Status    WithdrawalStatus `json:"status"`
	Timestamp string           `json:"timestamp"`
}

func (e WithdrawalEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(withdrawalEventWire{
		AccountID: e.AccountID,
		Amount:    e.Amount.StringFixed(2),
		Status:    e.Status,
		Timestamp: e.Timestamp.Format(EventTimeLayout),
	})
}
