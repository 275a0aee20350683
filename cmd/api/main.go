package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"creatorsupport/internal/bootstrap"
	"creatorsupport/internal/http/handlers"
	"creatorsupport/internal/http/httpapi"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/infra/geoip"
	"creatorsupport/internal/middleware"
	"creatorsupport/internal/payments"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := bootstrap.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open ledger")
	}
	defer ledger.Close()

	secret, err := bootstrap.CashfreeSecret(ctx, cfg, ledger.Runner)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load gateway credentials")
	}
	gateway, err := bootstrap.NewGateway(cfg, secret, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure cashfree")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	settings := payments.SettingsFromConfig(cfg)
	app := handlers.NewApp(ledger.Store, gateway, settings, logger, handlers.WebhookOptions{
		Secret:          secret,
		VerifySignature: cfg.WebhookVerifySignature,
	})
	app.LedgerPing = ledger.Ping
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		DefaultLocale:      cfg.DefaultLocale,
		CountryLookup:      lookup,
		TrustProxy:         cfg.TrustProxy,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// A memory ledger is private to this process, so its background loops
	// cannot live in the worker.
	if cfg.LedgerDriver == infra.LedgerMemory {
		reconciler := payments.NewReconciler(ledger.Store, app.Setups, settings, &logger)
		reaper := payments.NewReaper(ledger.Store, gateway, reconciler, settings, &logger)
		g.Go(func() error {
			return payments.RunEvery(gctx, "reaper", cfg.WorkerPollInterval, &logger, reaper.SweepPending)
		})
		g.Go(func() error {
			return payments.RunEvery(gctx, "subscription-setups", cfg.WorkerPollInterval, &logger, app.Setups.RetryDueSetups)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("api stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
