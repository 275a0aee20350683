package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"creatorsupport/internal/infra"
	"creatorsupport/internal/infra/credentials"
)

func main() {
	var (
		secretFlag   string
		clientIDFlag string
	)
	flag.StringVar(&secretFlag, "secret", "", "Cashfree client secret (falls back to CASHFREE_CLIENT_SECRET)")
	flag.StringVar(&clientIDFlag, "client-id", "", "Cashfree client id stored alongside the secret (falls back to CASHFREE_CLIENT_ID)")
	flag.Parse()

	_ = godotenv.Load()

	secret := strings.TrimSpace(secretFlag)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("CASHFREE_CLIENT_SECRET"))
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Cashfree client secret is required via -secret or environment")
		os.Exit(1)
	}
	clientID := strings.TrimSpace(clientIDFlag)
	if clientID == "" {
		clientID = strings.TrimSpace(os.Getenv("CASHFREE_CLIENT_ID"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "cashfreekey")
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	if err := store.SetCashfreeClientSecret(ctxExec, secret, clientID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist cashfree secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Cashfree client secret stored successfully")
}
