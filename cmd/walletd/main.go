// Command walletd keeps the wallet session of one user (and optionally one
// administrator) and exposes it over a local HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fedawallet/wallet-client/internal/api"
	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/core/service"
	"github.com/fedawallet/wallet-client/internal/infrastructure/backend"
	"github.com/fedawallet/wallet-client/internal/pkg/config"
	"github.com/fedawallet/wallet-client/pkg/logger"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(ctx)
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "walletd",
	})
	boot := logger.Component("bootstrap")

	store, closeStorage, err := openStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		boot.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage unavailable")
	}
	defer closeStorage()
	boot.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	// --- Backend clients ---
	client := backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger.Component("backend"))
	adminClient := backend.NewAdminClient(cfg.API.BaseURL, cfg.API.AdminTimeout, logger.Component("backend"))

	// --- Services ---
	sessions := service.NewSessionStore(store, logger.Component("session"))
	syncer := service.NewSessionSync(client, client, sessions, logger.Component("session"))
	auth := service.NewAuthService(client, client, sessions, syncer, logger.Component("auth"))

	walletOpts := service.DefaultWalletOptions(logger.Component("poller"))
	walletOpts.RechargePoll.Interval = cfg.Polling.RechargeInterval
	walletOpts.RechargePoll.Timeout = cfg.Polling.RechargeTimeout
	walletOpts.TransactionPoll.Interval = cfg.Polling.TransactionInterval
	walletOpts.TransactionPoll.Timeout = cfg.Polling.TransactionTimeout
	wallet := service.NewWalletService(client, sessions, walletOpts, logger.Component("wallet"))
	defer wallet.Close()

	adminSession := service.NewAdminSession(adminClient, store, logger.Component("admin"))
	adminConsole := service.NewAdminService(adminClient, adminSession, cfg.API.DashboardTimeout, logger.Component("admin"))

	// --- Restore persisted state ---
	if restored := sessions.Load(ctx); restored.Authenticated() {
		if err := syncer.Reconcile(ctx); err != nil {
			boot.Warn().Err(err).Msg("stored session discarded")
		}
	}
	if restored := adminSession.Load(ctx); restored.Authenticated() {
		boot.Info().Msg("admin session restored")
	}
	unwatch, err := adminSession.Watch(ctx, store)
	if err != nil {
		boot.Warn().Err(err).Msg("admin session will not follow other clients")
	} else {
		defer unwatch()
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Sessions:     auth,
		Wallet:       wallet,
		AdminSession: adminSession,
		AdminConsole: adminConsole,
		Health:       map[string]ports.Pinger{"backend": client, "storage": store},
		APIKey:       cfg.APIKey,
		CallbackURL:  cfg.PublicURL + "/fedapay/callback",
		Logger:       logger.Component("http"),
	})

	go func() {
		boot.Info().Str("addr", cfg.Addr()).Str("backend", cfg.API.BaseURL).Msg("walletd listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			boot.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	boot.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
