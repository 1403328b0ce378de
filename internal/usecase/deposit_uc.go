package usecase

import (
	"context"
	"fmt"
	"time"

	"wallet-service/internal/domain"
	publisher "wallet-service/internal/pub"
	"wallet-service/internal/repository"
	"wallet-service/pkg/utils"
	"wallet-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// DepositUsecase drives the funding state machine:
// pending → approved | rejected. Approval is the only path that credits the
// main balance; submission and rejection never touch funds.
type DepositUsecase struct {
	depositRepo repository.DepositRepository
	walletRepo  repository.WalletRepository
	ledgerRepo  repository.LedgerRepository
	pub         *publisher.WalletEventPublisher
	kafkaWriter *kafka.Writer
	redisClient *redis.Client
	gen         *utils.RefGenerator

	// deposits at or above this amount make the wallet interest-eligible
	qualifyThreshold decimal.Decimal
}

func NewDepositUsecase(
	depositRepo repository.DepositRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	pub *publisher.WalletEventPublisher,
	kafkaWriter *kafka.Writer,
	redisClient *redis.Client,
	gen *utils.RefGenerator,
	qualifyThreshold decimal.Decimal,
) *DepositUsecase {
	return &DepositUsecase{
		depositRepo:      depositRepo,
		walletRepo:       walletRepo,
		ledgerRepo:       ledgerRepo,
		pub:              pub,
		kafkaWriter:      kafkaWriter,
		redisClient:      redisClient,
		gen:              gen,
		qualifyThreshold: qualifyThreshold,
	}
}

// Submit records a pending funding request. No balance change.
func (uc *DepositUsecase) Submit(ctx context.Context, walletID string, amount decimal.Decimal, method domain.DepositMethod) (*domain.Deposit, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !method.Valid() {
		return nil, xerrors.ErrInvalidMethod
	}

	if _, err := uc.walletRepo.GetByID(ctx, walletID); err != nil {
		return nil, err
	}

	deposit := &domain.Deposit{
		ID:          uc.gen.NewID("DEP"),
		WalletID:    walletID,
		Amount:      amount,
		Method:      method,
		Status:      domain.DepositStatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	if err := uc.depositRepo.Create(ctx, deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

// Approve credits the deposit into the main balance and marks the decision.
// The deposit row, the ledger entry and the balance write land in one
// transaction; notifications go out only after commit.
func (uc *DepositUsecase) Approve(ctx context.Context, depositID, adminID string) (*domain.Deposit, error) {
	if adminID == "" {
		return nil, xerrors.ErrInvalidInput
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	deposit, err := uc.depositRepo.GetByIDForUpdate(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}
	if err := deposit.CanDecide(); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, deposit.WalletID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.Apply(ctx, tx, wallet, []domain.BalanceChange{{
		Kind:      domain.EntryKindDepositCredit,
		DeltaMain: deposit.Amount,
	}}, deposit.ID, false)
	if err != nil {
		return nil, err
	}

	if err := uc.depositRepo.MarkDecided(ctx, tx, depositID, domain.DepositStatusApproved, adminID, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deposit approval: %w", err)
	}

	_ = uc.redisClient.Del(ctx, balanceCacheKey(wallet.ID)).Err()

	if uc.pub != nil {
		_ = uc.pub.PublishDepositApproved(ctx, wallet.ID, deposit.ID,
			deposit.Amount.String(), wallet.MainBalance.String(), wallet.BonusBalance.String())
	}
	publishLedgerEvents(ctx, uc.kafkaWriter, "wallet.deposit.approved", entries)

	if deposit.Qualifies(uc.qualifyThreshold) {
		fmt.Printf("[DEPOSIT] Wallet %s interest-eligible from %s (deposit %s)\n",
			wallet.ID, time.Now().UTC().Format("2006-01-02"), deposit.ID)
	}

	return uc.depositRepo.GetByID(ctx, depositID)
}

// Reject closes the request with a reason. No balance change.
func (uc *DepositUsecase) Reject(ctx context.Context, depositID, adminID, reason string) (*domain.Deposit, error) {
	if adminID == "" {
		return nil, xerrors.ErrInvalidInput
	}
	if reason == "" {
		return nil, xerrors.ErrRejectReasonNeeded
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	deposit, err := uc.depositRepo.GetByIDForUpdate(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}
	if err := deposit.CanDecide(); err != nil {
		return nil, err
	}

	if err := uc.depositRepo.MarkDecided(ctx, tx, depositID, domain.DepositStatusRejected, adminID, &reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deposit rejection: %w", err)
	}

	if uc.pub != nil {
		_ = uc.pub.PublishDepositRejected(ctx, deposit.WalletID, deposit.ID, reason)
	}

	return uc.depositRepo.GetByID(ctx, depositID)
}

// ListPending is the admin review queue, oldest first.
func (uc *DepositUsecase) ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return uc.depositRepo.ListPending(ctx, limit, offset)
}

// ListByWallet returns an investor's own funding requests.
func (uc *DepositUsecase) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Deposit, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return uc.depositRepo.ListByWallet(ctx, walletID, limit, offset)
}
