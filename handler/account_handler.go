package handler

import (
	"context"
	"encoding/json"
	"go-bank-withdrawal/common"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/model"
	"go-bank-withdrawal/repository"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Withdrawer is satisfied by service.WithdrawalService.
type Withdrawer interface {
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) model.WithdrawalStatus
}

type AccountHandler struct {
	withdrawals Withdrawer
	accounts    repository.AccountLister
}

func NewAccountHandler(withdrawals Withdrawer, accounts repository.AccountLister) *AccountHandler {
	return &AccountHandler{withdrawals: withdrawals, accounts: accounts}
}

// Withdraw godoc
// @Summary      Withdraw from an account
// @Description  Debits the account if it holds enough funds and publishes a withdrawal event.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        accountId  path      int                    true  "Account ID"
// @Param        request    body      model.WithdrawRequest  true  "Amount to withdraw"
// @Success      200        {object}  model.WithdrawResponse
// @Failure      400        {object}  model.WithdrawResponse
// @Failure      401        {object}  common.AppError
// @Failure      404        {object}  model.WithdrawResponse
// @Failure      422        {object}  model.WithdrawResponse
// @Failure      500        {object}  model.WithdrawResponse
// @Security     BearerAuth
// @Router       /api/accounts/{accountId}/withdrawals [post]
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, err := strconv.ParseInt(r.PathValue("accountId"), 10, 64)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID", nil)
	}

	var req model.WithdrawRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid amount", nil)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     req.Amount,
	})
	if userID, ok := r.Context().Value(UserIDKey).(int64); ok {
		log = log.WithField("user_id", userID)
	}
	log.Info("Withdrawal request received")

	status := h.withdrawals.Withdraw(r.Context(), accountID, amount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(status))
	json.NewEncoder(w).Encode(model.WithdrawResponse{Status: status})

	return nil
}

// ListAccounts godoc
// @Summary      List accounts
// @Description  Returns every account ordered by id.
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   model.Account
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve accounts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(accounts)

	return nil
}

func httpStatus(status model.WithdrawalStatus) int {
	switch status {
	case model.StatusSuccess:
		return http.StatusOK
	case model.StatusInvalidAmount:
		return http.StatusBadRequest
	case model.StatusAccountNotFound:
		return http.StatusNotFound
	case model.StatusInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
