package service

import (
	"context"
	"errors"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/model"
	"go-bank-withdrawal/repository"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EventPublisher is satisfied by EventNotifier.
type EventPublisher interface {
	Publish(ctx context.Context, event model.WithdrawalEvent) PublishResult
}

type WithdrawalService struct {
	store     repository.AccountStore
	publisher EventPublisher
	cache     AccountCache
	location  *time.Location
	now       func() time.Time
}

func NewWithdrawalService(store repository.AccountStore, publisher EventPublisher, location *time.Location) *WithdrawalService {
	if location == nil {
		location = time.UTC
	}
	return &WithdrawalService{
		store:     store,
		publisher: publisher,
		location:  location,
		now:       time.Now,
	}
}

// WithAccountCache registers a cache to invalidate after every committed debit.
func (s *WithdrawalService) WithAccountCache(cache AccountCache) *WithdrawalService {
	s.cache = cache
	return s
}

// Withdraw debits amount from the account and reports exactly one outcome.
// Checks run in order: amount, account existence, balance, commit. Once the
// debit is committed the result is StatusSuccess whatever happens to the
// notification.
func (s *WithdrawalService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) model.WithdrawalStatus {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount.String(),
	})

	if !validAmount(amount) {
		log.Warn("Invalid withdrawal amount")
		return model.StatusInvalidAmount
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		log.WithError(err).Error("Could not begin unit of work")
		return model.StatusTransactionFailed
	}
	defer uow.Rollback()

	if _, err := repository.ConditionalDebit(ctx, uow, accountID, amount, s.now().In(s.location)); err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			log.Error("Account not found")
			return model.StatusAccountNotFound
		case errors.Is(err, repository.ErrInsufficientFunds):
			log.Warn("Insufficient funds")
			return model.StatusInsufficientFunds
		default:
			log.WithError(err).Error("Database error occurred")
			return model.StatusTransactionFailed
		}
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).Error("Database error occurred on commit")
		return model.StatusTransactionFailed
	}
	log.Info("Withdrawal successful")

	if s.cache != nil {
		s.cache.InvalidateAccounts(context.WithoutCancel(ctx))
	}

	if s.publisher != nil {
		event := model.NewWithdrawalEvent(accountID, amount, s.now().In(s.location))
		// the debit is durable; a caller hanging up must not cut delivery short
		if s.publisher.Publish(context.WithoutCancel(ctx), event) == Exhausted {
			log.Warn("Withdrawal committed but its event was not delivered")
		}
	}
	return model.StatusSuccess
}

// validAmount accepts positive amounts with at most two fractional digits,
// matching the NUMERIC(12,2) balance column.
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}
