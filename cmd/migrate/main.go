package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"creatorsupport/internal/db"
	"creatorsupport/internal/infra"
)

func main() {
	var (
		timeoutFlag time.Duration
		dryRunFlag  bool
	)
	flag.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "maximum time to apply the schema")
	flag.BoolVar(&dryRunFlag, "dry-run", false, "print the schema instead of applying it")
	flag.Parse()

	if dryRunFlag {
		fmt.Print(db.Schema)
		return
	}

	_ = godotenv.Load()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "migrate")

	// The schema is several statements; without arguments pgx sends it over
	// the simple protocol in one round trip.
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		exitWithError(fmt.Errorf("failed to apply schema: %w", err))
	}
	logger.Info().Msg("schema applied")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
