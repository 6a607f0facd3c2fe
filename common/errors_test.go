package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("deadlock detected")
	wrapped := fmt.Errorf("debit: %w", NewStoreError(KindTransient, "update balance", base))

	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, KindOther, KindOf(base))
	assert.Equal(t, KindOther, KindOf(nil))
}

func TestAppError_Send(t *testing.T) {
	rr := httptest.NewRecorder()

	NewAppError(http.StatusNotFound, "account_not_found", nil).Send(rr)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "account_not_found", body["message"])
	assert.EqualValues(t, http.StatusNotFound, body["code"])
}
