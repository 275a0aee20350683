package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"creatorsupport/internal/bootstrap"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/payments"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	if cfg.LedgerDriver != infra.LedgerPostgres {
		logger.Fatal().Str("driver", cfg.LedgerDriver).Msg("worker: requires the postgres ledger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := bootstrap.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer ledger.Close()

	secret, err := bootstrap.CashfreeSecret(ctx, cfg, ledger.Runner)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: load gateway credentials")
	}
	gateway, err := bootstrap.NewGateway(cfg, secret, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: configure cashfree")
	}

	settings := payments.SettingsFromConfig(cfg)
	setups := payments.NewSetupRunner(ledger.Store, gateway, settings, &logger)
	reconciler := payments.NewReconciler(ledger.Store, setups, settings, &logger)
	reaper := payments.NewReaper(ledger.Store, gateway, reconciler, settings, &logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return payments.RunEvery(gctx, "reaper", cfg.WorkerPollInterval, &logger, reaper.SweepPending)
	})
	g.Go(func() error {
		return payments.RunEvery(gctx, "subscription-setups", cfg.WorkerPollInterval, &logger, setups.RetryDueSetups)
	})

	logger.Info().Msg("worker: started")
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("worker: stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("worker: stopped")
}
