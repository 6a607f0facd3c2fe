// file: service/account_service_test.go

package service

import (
	"context"
	"encoding/json"
	"errors"
	"go-bank-withdrawal/model"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCacheClient struct{ mock.Mock }

func (m *MockCacheClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockCacheClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

type MockAccountLister struct{ mock.Mock }

func (m *MockAccountLister) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Account), args.Error(1)
}

func sampleAccounts() []*model.Account {
	return []*model.Account{
		{ID: 1, CustomerID: 9099, Balance: decimal.RequireFromString("100.00")},
		{ID: 2, CustomerID: 18198, Balance: decimal.RequireFromString("250.50")},
	}
}

func TestAccountService_ListAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the store", func(t *testing.T) {
		cache := new(MockCacheClient)
		lister := new(MockAccountLister)
		data, err := json.Marshal(sampleAccounts())
		require.NoError(t, err)
		cache.On("Get", ctx, accountsCacheKey).Return(redis.NewStringResult(string(data), nil)).Once()

		accounts, err := NewAccountService(lister, cache, time.Minute).ListAccounts(ctx)

		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.True(t, accounts[1].Balance.Equal(decimal.RequireFromString("250.50")))
		lister.AssertNotCalled(t, "ListAccounts", mock.Anything)
		cache.AssertExpectations(t)
	})

	t.Run("cache miss reads the store and fills the cache", func(t *testing.T) {
		cache := new(MockCacheClient)
		lister := new(MockAccountLister)
		cache.On("Get", ctx, accountsCacheKey).Return(redis.NewStringResult("", redis.Nil)).Once()
		lister.On("ListAccounts", ctx).Return(sampleAccounts(), nil).Once()
		cache.On("Set", ctx, accountsCacheKey, mock.Anything, time.Minute).Return(redis.NewStatusResult("OK", nil)).Once()

		accounts, err := NewAccountService(lister, cache, time.Minute).ListAccounts(ctx)

		require.NoError(t, err)
		assert.Len(t, accounts, 2)
		cache.AssertExpectations(t)
		lister.AssertExpectations(t)
	})

	t.Run("cache outage falls back to the store", func(t *testing.T) {
		cache := new(MockCacheClient)
		lister := new(MockAccountLister)
		cache.On("Get", ctx, accountsCacheKey).Return(redis.NewStringResult("", errors.New("dial tcp: connection refused"))).Once()
		lister.On("ListAccounts", ctx).Return(sampleAccounts(), nil).Once()
		cache.On("Set", ctx, accountsCacheKey, mock.Anything, defaultAccountsTTL).Return(redis.NewStatusResult("", errors.New("connection refused"))).Once()

		accounts, err := NewAccountService(lister, cache, 0).ListAccounts(ctx)

		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		lister := new(MockAccountLister)
		lister.On("ListAccounts", ctx).Return(nil, errors.New("connection refused")).Once()

		_, err := NewAccountService(lister, nil, 0).ListAccounts(ctx)

		assert.Error(t, err)
	})
}

func TestAccountService_InvalidateAccounts(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheClient)
	cache.On("Del", ctx, []string{accountsCacheKey}).Return(redis.NewIntResult(1, nil)).Once()

	NewAccountService(new(MockAccountLister), cache, 0).InvalidateAccounts(ctx)
	NewAccountService(new(MockAccountLister), nil, 0).InvalidateAccounts(ctx)

	cache.AssertExpectations(t)
}
