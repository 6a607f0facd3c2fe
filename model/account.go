package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	Balance      decimal.Decimal `json:"balance"`
	DateCreated  time.Time       `json:"date_created"`
	DateModified time.Time       `json:"date_modified"`
}
