package repository

import (
	"context"
	"errors"
	"fmt"

	"wallet-service/internal/domain"
	"wallet-service/pkg/utils"
	"wallet-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository is the single write path for wallet balances. Apply is
// the only place in the codebase that mutates balance columns; everything
// else reads.
type LedgerRepository interface {
	// Apply validates and persists a set of balance changes for one wallet
	// as a single atomic unit: the caller's transaction already holds the
	// wallet row lock, Apply appends one ledger entry per change and writes
	// the new balances. Either the entries and the balances both land, or
	// neither does.
	Apply(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet, changes []domain.BalanceChange, reference string, adminOverride bool) ([]*domain.LedgerEntry, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByReference(ctx context.Context, walletID, reference string) ([]*domain.LedgerEntry, error)
	ListByReferenceTx(ctx context.Context, tx pgx.Tx, walletID, reference string) ([]*domain.LedgerEntry, error)
	// Replay recomputes both balances from the full entry history.
	Replay(ctx context.Context, walletID string) (main, bonus decimal.Decimal, err error)
}

type ledgerRepo struct {
	db         *pgxpool.Pool
	walletRepo WalletRepository
	gen        *utils.RefGenerator
}

func NewLedgerRepo(db *pgxpool.Pool, walletRepo WalletRepository, gen *utils.RefGenerator) LedgerRepository {
	return &ledgerRepo{db: db, walletRepo: walletRepo, gen: gen}
}

const entryColumns = `
	id,
	wallet_id,
	kind,
	amount::text,
	resulting_main::text,
	resulting_bonus::text,
	reference,
	created_at
`

func (r *ledgerRepo) Apply(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet, changes []domain.BalanceChange, reference string, adminOverride bool) ([]*domain.LedgerEntry, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	if len(changes) == 0 {
		return nil, xerrors.ErrInvalidInput
	}
	if err := wallet.CanMutate(adminOverride); err != nil {
		return nil, err
	}

	entries := make([]*domain.LedgerEntry, 0, len(changes))
	for _, ch := range changes {
		entry, err := wallet.ApplyChange(ch, reference)
		if err != nil {
			return nil, err
		}
		entry.ID = r.gen.NewID("LED")
		entries = append(entries, entry)
	}

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries (id, wallet_id, kind, amount, resulting_main, resulting_bonus, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, e.ID, e.WalletID, e.Kind, e.Amount.String(),
			e.ResultingMain.String(), e.ResultingBonus.String(), e.Reference)
		if err != nil {
			return nil, fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}

	if err := r.walletRepo.UpdateBalances(ctx, tx, wallet); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *ledgerRepo) ListByReference(ctx context.Context, walletID, reference string) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE wallet_id = $1 AND reference = $2
		ORDER BY created_at ASC, id ASC
	`, walletID, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries by reference: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *ledgerRepo) ListByReferenceTx(ctx context.Context, tx pgx.Tx, walletID, reference string) ([]*domain.LedgerEntry, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	rows, err := tx.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE wallet_id = $1 AND reference = $2
		ORDER BY created_at ASC, id ASC
	`, walletID, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries by reference: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *ledgerRepo) Replay(ctx context.Context, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at ASC, id ASC
	`, walletID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to read ledger for replay: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	main, bonus := domain.ReplayBalances(entries)
	return main, bonus, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var amount, resMain, resBonus string

		err := rows.Scan(
			&e.ID,
			&e.WalletID,
			&e.Kind,
			&amount,
			&resMain,
			&resBonus,
			&e.Reference,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid entry amount %q: %w", amount, err)
		}
		if e.ResultingMain, err = decimal.NewFromString(resMain); err != nil {
			return nil, fmt.Errorf("invalid resulting_main %q: %w", resMain, err)
		}
		if e.ResultingBonus, err = decimal.NewFromString(resBonus); err != nil {
			return nil, fmt.Errorf("invalid resulting_bonus %q: %w", resBonus, err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
