package service

import (
	"context"
	"encoding/json"
	"errors"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/model"
	"go-bank-withdrawal/repository"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	accountsCacheKey   = "accounts:all"
	defaultAccountsTTL = 10 * time.Minute
)

// AccountService serves the account listing with a cache-aside strategy. A nil
// cache client reads straight through to the store.
type AccountService struct {
	lister repository.AccountLister
	cache  ICacheClient
	ttl    time.Duration
}

func NewAccountService(lister repository.AccountLister, cache ICacheClient, ttl time.Duration) *AccountService {
	if ttl <= 0 {
		ttl = defaultAccountsTTL
	}
	return &AccountService{lister: lister, cache: cache, ttl: ttl}
}

// ListAccounts returns every account ordered by id. Cache failures are logged
// and fall back to the store.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	if s.cache == nil {
		return s.lister.ListAccounts(ctx)
	}

	cached, err := s.cache.Get(ctx, accountsCacheKey).Result()
	switch {
	case err == nil:
		var accounts []*model.Account
		if err := json.Unmarshal([]byte(cached), &accounts); err == nil {
			logger.Log.Debug("Account list served from cache")
			return accounts, nil
		}
		logger.Log.Warn("Discarding unreadable cached account list")
	case !errors.Is(err, redis.Nil):
		logger.Log.WithError(err).Warn("Account cache read failed")
	}

	accounts, err := s.lister.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(accounts)
	if err == nil {
		if err := s.cache.Set(ctx, accountsCacheKey, data, s.ttl).Err(); err != nil {
			logger.Log.WithError(err).Warn("Account cache write failed")
		}
	}
	return accounts, nil
}

// InvalidateAccounts drops the cached listing.
func (s *AccountService) InvalidateAccounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, accountsCacheKey).Err(); err != nil {
		logger.Log.WithError(err).Warn("Account cache invalidation failed")
	}
}
