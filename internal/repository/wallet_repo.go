package repository

import (
	"context"
	"errors"
	"fmt"

	"wallet-service/internal/domain"
	"wallet-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	// GetByIDForUpdate takes the per-wallet row lock (SELECT FOR UPDATE).
	// Every balance mutation serializes on it.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Wallet, error)
	// UpdateBalances persists the in-memory balance state and bumps the
	// version. Fails with ErrVersionConflict if the row moved underneath.
	UpdateBalances(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error
	UpdateStatus(ctx context.Context, id string, status domain.WalletStatus) error
	// ListInterestEligible returns active wallets holding at least one
	// approved, non-reversed deposit at or above the qualification threshold.
	ListInterestEligible(ctx context.Context, threshold decimal.Decimal) ([]*domain.Wallet, error)
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type walletRepo struct {
	db *pgxpool.Pool
}

func NewWalletRepo(db *pgxpool.Pool) WalletRepository {
	return &walletRepo{db: db}
}

const walletColumns = `
	id,
	owner_id,
	wallet_number,
	main_balance::text,
	bonus_balance::text,
	total_deposited::text,
	status,
	version,
	created_at,
	updated_at
`

func (r *walletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *walletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO wallets (id, owner_id, wallet_number, main_balance, bonus_balance, total_deposited, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, now(), now())
	`, w.ID, w.OwnerID, w.WalletNumber,
		w.MainBalance.String(), w.BonusBalance.String(), w.TotalDeposited.String(), w.Status)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	w.Version = 1
	return nil
}

func (r *walletRepo) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

func (r *walletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Wallet, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil for locked query")
	}
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	return scanWallet(row)
}

func (r *walletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET main_balance = $1,
		    bonus_balance = $2,
		    total_deposited = $3,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $4 AND version = $5
	`, w.MainBalance.String(), w.BonusBalance.String(), w.TotalDeposited.String(), w.ID, w.Version)
	if err != nil {
		return fmt.Errorf("failed to update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrVersionConflict
	}

	w.Version++
	return nil
}

func (r *walletRepo) UpdateStatus(ctx context.Context, id string, status domain.WalletStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE wallets SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *walletRepo) ListInterestEligible(ctx context.Context, threshold decimal.Decimal) ([]*domain.Wallet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets w
		WHERE w.status = 'active'
		AND EXISTS (
			SELECT 1 FROM deposits d
			WHERE d.wallet_id = w.id
			AND d.status = 'approved'
			AND d.amount >= $1
		)
		ORDER BY w.created_at ASC
	`, threshold.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list interest-eligible wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var mainBal, bonusBal, totalDep string

	err := row.Scan(
		&w.ID,
		&w.OwnerID,
		&w.WalletNumber,
		&mainBal,
		&bonusBal,
		&totalDep,
		&w.Status,
		&w.Version,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	if w.MainBalance, err = decimal.NewFromString(mainBal); err != nil {
		return nil, fmt.Errorf("invalid main_balance %q: %w", mainBal, err)
	}
	if w.BonusBalance, err = decimal.NewFromString(bonusBal); err != nil {
		return nil, fmt.Errorf("invalid bonus_balance %q: %w", bonusBal, err)
	}
	if w.TotalDeposited, err = decimal.NewFromString(totalDep); err != nil {
		return nil, fmt.Errorf("invalid total_deposited %q: %w", totalDep, err)
	}
	return &w, nil
}
