package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id              TEXT PRIMARY KEY,
		owner_id        TEXT NOT NULL,
		wallet_number   TEXT NOT NULL UNIQUE,
		main_balance    NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (main_balance >= 0),
		bonus_balance   NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (bonus_balance >= 0),
		total_deposited NUMERIC(20,2) NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT 'active',
		version         BIGINT NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallets_owner ON wallets (owner_id)`,

	`CREATE TABLE IF NOT EXISTS deposits (
		id           TEXT PRIMARY KEY,
		wallet_id    TEXT NOT NULL REFERENCES wallets(id),
		amount       NUMERIC(20,2) NOT NULL CHECK (amount > 0),
		method       TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		decided_at   TIMESTAMPTZ,
		decided_by   TEXT,
		reason       TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deposits_wallet ON deposits (wallet_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposits (status)`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id              TEXT PRIMARY KEY,
		wallet_id       TEXT NOT NULL REFERENCES wallets(id),
		kind            TEXT NOT NULL,
		amount          NUMERIC(20,2) NOT NULL,
		resulting_main  NUMERIC(20,2) NOT NULL,
		resulting_bonus NUMERIC(20,2) NOT NULL,
		reference       TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_wallet ON ledger_entries (wallet_id, created_at)`,
	// one debit per bucket per purchase reference: closes the retry race
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_ledger_wallet_ref_kind
		ON ledger_entries (wallet_id, reference, kind)`,

	`CREATE TABLE IF NOT EXISTS interest_batches (
		wallet_id    TEXT NOT NULL REFERENCES wallets(id),
		accrual_date DATE NOT NULL,
		principal    NUMERIC(20,2) NOT NULL,
		credited     NUMERIC(20,2) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (wallet_id, accrual_date)
	)`,
}

// EnsureSchema creates the ledger tables and indexes if they do not exist.
// Runs once at startup before the server accepts traffic.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("[SCHEMA] Ensuring wallet ledger schema...")

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}

	log.Println("[SCHEMA] ✅ Schema ready")
	return nil
}
