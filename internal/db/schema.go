package db

import (
	_ "embed"
)

// Schema is the idempotent DDL for the ledger. Every statement uses
// "if not exists" so it can be applied on each deploy.
//
//go:embed schema.sql
var Schema string
