package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-service/internal/domain"
	"wallet-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type AccrualRepository interface {
	// Insert writes the idempotency row for one (wallet, day) credit.
	// A key collision means the credit already happened and surfaces as
	// ErrDuplicateAccrual; the sweep treats that as success.
	Insert(ctx context.Context, tx pgx.Tx, batch *domain.InterestAccrualBatch) error
	ListDates(ctx context.Context, walletID string) ([]time.Time, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.InterestAccrualBatch, error)
}

type accrualRepo struct {
	db *pgxpool.Pool
}

func NewAccrualRepo(db *pgxpool.Pool) AccrualRepository {
	return &accrualRepo{db: db}
}

func (r *accrualRepo) Insert(ctx context.Context, tx pgx.Tx, batch *domain.InterestAccrualBatch) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO interest_batches (wallet_id, accrual_date, principal, credited, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (wallet_id, accrual_date) DO NOTHING
	`, batch.WalletID, batch.AccrualDate.Format("2006-01-02"),
		batch.Principal.String(), batch.Credited.String())
	if err != nil {
		return fmt.Errorf("failed to insert accrual batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrDuplicateAccrual
	}
	return nil
}

func (r *accrualRepo) ListDates(ctx context.Context, walletID string) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT accrual_date FROM interest_batches
		WHERE wallet_id = $1
		ORDER BY accrual_date ASC
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accrual dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan accrual date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *accrualRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.InterestAccrualBatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT wallet_id, accrual_date, principal::text, credited::text, created_at
		FROM interest_batches
		WHERE wallet_id = $1
		ORDER BY accrual_date DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accrual batches: %w", err)
	}
	defer rows.Close()

	var batches []*domain.InterestAccrualBatch
	for rows.Next() {
		var b domain.InterestAccrualBatch
		var principal, credited string

		if err := rows.Scan(&b.WalletID, &b.AccrualDate, &principal, &credited, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan accrual batch: %w", err)
		}
		if b.Principal, err = decimal.NewFromString(principal); err != nil {
			return nil, fmt.Errorf("invalid accrual principal %q: %w", principal, err)
		}
		if b.Credited, err = decimal.NewFromString(credited); err != nil {
			return nil, fmt.Errorf("invalid accrual credit %q: %w", credited, err)
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}
