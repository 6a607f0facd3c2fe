package router

import (
	"go-bank-withdrawal/handler"
	"net/http"

	_ "go-bank-withdrawal/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter wires the HTTP routes. Withdrawals require a bearer token when
// jwtSecret is set. A nil accountHandler serves only health and docs.
func NewRouter(accountHandler *handler.AccountHandler, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	if accountHandler == nil {
		return mux
	}

	var withdraw http.Handler = handler.ErrorHandlingMiddleware(accountHandler.Withdraw)
	if jwtSecret != "" {
		withdraw = handler.AuthMiddleware(jwtSecret)(withdraw)
	}
	mux.Handle("POST /api/accounts/{accountId}/withdrawals", withdraw)
	mux.Handle("GET /api/accounts", handler.ErrorHandlingMiddleware(accountHandler.ListAccounts))

	return mux
}
