// cmd/main.go
package main

import (
	"go-bank-withdrawal/app"
)

// @title           Go-Bank Withdrawal API
// @version         1.0
// @description     Account withdrawals with row-locked debits and withdrawal event notifications.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
