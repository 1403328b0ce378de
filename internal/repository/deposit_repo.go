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

type DepositRepository interface {
	Create(ctx context.Context, d *domain.Deposit) error
	GetByID(ctx context.Context, id string) (*domain.Deposit, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Deposit, error)
	// MarkDecided moves pending → approved/rejected. The pending guard lives
	// in the WHERE clause, so a lost race surfaces as ErrInvalidTransition.
	MarkDecided(ctx context.Context, tx pgx.Tx, id string, status domain.DepositStatus, adminID string, reason *string) error
	// MarkReversed moves approved → reversed, same guard discipline.
	MarkReversed(ctx context.Context, tx pgx.Tx, id string) error
	ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, int, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Deposit, error)
}

type depositRepo struct {
	db *pgxpool.Pool
}

func NewDepositRepo(db *pgxpool.Pool) DepositRepository {
	return &depositRepo{db: db}
}

const depositColumns = `
	id,
	wallet_id,
	amount::text,
	method,
	status,
	submitted_at,
	decided_at,
	decided_by,
	reason
`

func (r *depositRepo) Create(ctx context.Context, d *domain.Deposit) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO deposits (id, wallet_id, amount, method, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, d.ID, d.WalletID, d.Amount.String(), d.Method, d.Status)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func (r *depositRepo) GetByID(ctx context.Context, id string) (*domain.Deposit, error) {
	row := r.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id)
	return scanDeposit(row)
}

func (r *depositRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Deposit, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil for locked query")
	}
	row := tx.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id)
	return scanDeposit(row)
}

func (r *depositRepo) MarkDecided(ctx context.Context, tx pgx.Tx, id string, status domain.DepositStatus, adminID string, reason *string) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	if status != domain.DepositStatusApproved && status != domain.DepositStatusRejected {
		return xerrors.ErrInvalidTransition
	}

	tag, err := tx.Exec(ctx, `
		UPDATE deposits
		SET status = $1, decided_at = now(), decided_by = $2, reason = $3
		WHERE id = $4 AND status = 'pending'
	`, status, adminID, reason, id)
	if err != nil {
		return fmt.Errorf("failed to decide deposit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrInvalidTransition
	}
	return nil
}

func (r *depositRepo) MarkReversed(ctx context.Context, tx pgx.Tx, id string) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE deposits SET status = 'reversed' WHERE id = $1 AND status = 'approved'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reverse deposit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrInvalidTransition
	}
	return nil
}

func (r *depositRepo) ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM deposits WHERE status = 'pending'`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending deposits: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE status = 'pending'
		ORDER BY submitted_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending deposits: %w", err)
	}
	defer rows.Close()

	deposits, err := collectDeposits(rows)
	if err != nil {
		return nil, 0, err
	}
	return deposits, total, nil
}

func (r *depositRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Deposit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE wallet_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits by wallet: %w", err)
	}
	defer rows.Close()

	return collectDeposits(rows)
}

func collectDeposits(rows pgx.Rows) ([]*domain.Deposit, error) {
	var deposits []*domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var d domain.Deposit
	var amount string

	err := row.Scan(
		&d.ID,
		&d.WalletID,
		&amount,
		&d.Method,
		&d.Status,
		&d.SubmittedAt,
		&d.DecidedAt,
		&d.DecidedBy,
		&d.Reason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan deposit: %w", err)
	}

	if d.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid deposit amount %q: %w", amount, err)
	}
	return &d, nil
}
