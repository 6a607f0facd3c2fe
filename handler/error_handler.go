package handler

import (
	"go-bank-withdrawal/common"
	"go-bank-withdrawal/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorHandlingMiddleware adapts handlers that return *common.AppError. Client
// errors without a cause are logged here since AppError.Send only logs causes.
func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := next(w, r)
		if err == nil {
			return
		}
		if err.Err == nil {
			logger.Log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": err.Code,
			}).Warn(err.Message)
		}
		err.Send(w)
	}
}
