// file: router/router_test.go

package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"go-bank-withdrawal/app"
	"go-bank-withdrawal/config"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/model"
	"go-bank-withdrawal/repository"
	"go-bank-withdrawal/router"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// recordingChannel accepts every event and keeps the payloads.
type recordingChannel struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (c *recordingChannel) Send(_ context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *recordingChannel) Flush(ctx context.Context) error { return ctx.Err() }
func (c *recordingChannel) Close() error                    { return nil }

func newTestApp(t *testing.T, secret string) (*app.App, *repository.MemoryAccountStore, *recordingChannel) {
	t.Helper()
	config.AppConfig = config.Config{}
	config.AppConfig.Events.Topic = "bank_account_withdrawal"
	config.AppConfig.Events.UTCOffsetHours = 2
	config.AppConfig.Events.ZoneName = "SAST"
	config.AppConfig.JWT.SecretKey = secret

	store := repository.NewMemoryAccountStore()
	ch := &recordingChannel{}
	return app.New(store, ch, nil), store, ch
}

func createAccount(t *testing.T, store *repository.MemoryAccountStore, balance string) *model.Account {
	t.Helper()
	acc, err := store.Create(9099, decimal.RequireFromString(balance), time.Now())
	require.NoError(t, err)
	return acc
}

func bearer(t *testing.T) string {
	t.Helper()
	claims := &model.AppClaims{
		UserID: 1,
		Role:   "teller",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func withdraw(a *app.App, accountID int64, amount, authorization string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"amount":%q}`, amount)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/accounts/%d/withdrawals", accountID), strings.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	r := router.NewRouter(nil, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestSwaggerDocsAreServed(t *testing.T) {
	r := router.NewRouter(nil, "")

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/api/accounts/{accountId}/withdrawals")
}

func TestWithdraw_Integration(t *testing.T) {
	a, store, ch := newTestApp(t, testSecret)
	acc := createAccount(t, store, "500.00")

	t.Run("requires a token", func(t *testing.T) {
		rr := withdraw(a, acc.ID, "10.00", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("successful withdrawal publishes one event", func(t *testing.T) {
		rr := withdraw(a, acc.ID, "250.00", bearer(t))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"withdrawal_successful"}`, rr.Body.String())

		got, err := store.Get(acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "250.00", got.Balance.StringFixed(2))

		require.Len(t, ch.payloads, 1)
		assert.Equal(t, "bank_account_withdrawal", ch.topics[0])
		var event map[string]any
		require.NoError(t, json.Unmarshal(ch.payloads[0], &event))
		assert.Equal(t, "250.00", event["amount"])
		assert.Equal(t, "withdrawal_successful", event["status"])
		assert.True(t, strings.HasSuffix(event["timestamp"].(string), "+02:00"))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		rr := withdraw(a, acc.ID, "250.01", bearer(t))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.JSONEq(t, `{"status":"insufficient_funds"}`, rr.Body.String())
	})

	t.Run("invalid amount", func(t *testing.T) {
		rr := withdraw(a, acc.ID, "-5", bearer(t))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"status":"invalid_withdrawal_amount"}`, rr.Body.String())
	})

	t.Run("unknown account", func(t *testing.T) {
		rr := withdraw(a, 999, "1.00", bearer(t))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"status":"account_not_found"}`, rr.Body.String())
	})

	assert.Len(t, ch.payloads, 1, "only the committed withdrawal produces an event")
}

func TestWithdraw_WithoutSecretIsOpen(t *testing.T) {
	a, store, _ := newTestApp(t, "")
	acc := createAccount(t, store, "20.00")

	rr := withdraw(a, acc.ID, "20.00", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWithdraw_ConcurrentRequests(t *testing.T) {
	a, store, ch := newTestApp(t, "")
	acc := createAccount(t, store, "100.00")

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = withdraw(a, acc.ID, "60.00", "").Code
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusUnprocessableEntity}, codes)
	got, err := store.Get(acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "40.00", got.Balance.StringFixed(2))
	assert.Len(t, ch.payloads, 1)
}

func TestListAccounts_Integration(t *testing.T) {
	a, store, _ := newTestApp(t, testSecret)
	createAccount(t, store, "10.00")
	createAccount(t, store, "20.00")

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var accounts []model.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accounts))
	assert.Len(t, accounts, 2)
}
