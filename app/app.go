// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"go-bank-withdrawal/config"
	"go-bank-withdrawal/db"
	"go-bank-withdrawal/handler"
	"go-bank-withdrawal/logger"
	"go-bank-withdrawal/messaging"
	"go-bank-withdrawal/repository"
	"go-bank-withdrawal/router"
	"go-bank-withdrawal/service"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const driverMemory = "memory"

// Store bundles what the application needs from an account backend.
type Store interface {
	repository.AccountStore
	repository.AccountLister
	repository.AccountSeeder
}

// App is the wired application without its process lifecycle, so tests can
// drive the router against any store and channel.
type App struct {
	Router      http.Handler
	Withdrawals *service.WithdrawalService
}

// New wires the notifier, withdrawal service, handlers and router from
// AppConfig. cache may be nil.
func New(store Store, channel messaging.Channel, cache service.ICacheClient) *App {
	cfg := config.AppConfig

	notifier := service.NewEventNotifier(channel, service.NotifierConfig{
		Topic:          cfg.Events.Topic,
		MaxAttempts:    cfg.Events.MaxAttempts,
		InitialBackoff: cfg.Events.InitialBackoff,
	})
	accounts := service.NewAccountService(store, cache, cfg.Cache.TTL)
	withdrawals := service.NewWithdrawalService(store, notifier, cfg.Location()).WithAccountCache(accounts)
	accountHandler := handler.NewAccountHandler(withdrawals, accounts)

	return &App{
		Router:      router.NewRouter(accountHandler, cfg.JWT.SecretKey),
		Withdrawals: withdrawals,
	}
}

func Run() {
	if err := config.LoadConfig("."); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	logger.Init()
	logger.Log.Info("Configuration loaded successfully")

	store, database, err := openStore()
	if err != nil {
		logger.Log.Fatalf("Error opening account store: %v", err)
	}
	if database != nil {
		defer database.Close()
	}

	if config.AppConfig.Seed.SampleAccounts {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		if err := store.SeedSampleAccounts(context.Background(), rnd, time.Now().In(config.AppConfig.Location())); err != nil {
			logger.Log.Fatalf("Error seeding sample accounts: %v", err)
		}
		logger.Log.Info("Sample accounts seeded")
	}

	channel, err := messaging.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the %s event channel: %v", config.AppConfig.Events.Channel, err)
	}
	defer channel.Close()
	logger.Log.Infof("Publishing withdrawal events to %s topic %q", config.AppConfig.Events.Channel, config.AppConfig.Events.Topic)

	var cache service.ICacheClient
	if config.AppConfig.Cache.Enabled {
		client, err := db.ConnectRedis()
		if err != nil {
			logger.Log.Fatalf("Error connecting to the account cache: %v", err)
		}
		defer client.Close()
		cache = client
		logger.Log.Info("Account listing cache enabled")
	}

	application := New(store, channel, cache)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	case err := <-serverErr:
		logger.Log.Errorf("Failed to start server: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// in-flight withdrawals may still be retrying their notification
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Log.Info("Server exited properly")
}

// openStore returns the configured account store. The *sql.DB is nil for the
// memory driver.
func openStore() (Store, *sql.DB, error) {
	if config.AppConfig.Database.Driver == driverMemory {
		logger.Log.Warn("Using the in-memory account store; balances are lost on exit")
		return repository.NewMemoryAccountStore(), nil, nil
	}

	database, err := db.Connect()
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(database, config.AppConfig.Database.MigrationsPath); err != nil {
		database.Close()
		return nil, nil, err
	}
	logger.Log.Info("Database migrations applied")

	return repository.NewAccountRepository(database), database, nil
}
