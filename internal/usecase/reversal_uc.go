package usecase

import (
	"context"
	"fmt"
	"time"

	"wallet-service/internal/domain"
	publisher "wallet-service/internal/pub"
	"wallet-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// ReversalUsecase undoes an approved deposit inside the contractual
// withdrawal window. The debit hits the main balance only; interest already
// credited against the principal stays earned (no clawback).
type ReversalUsecase struct {
	depositRepo repository.DepositRepository
	walletRepo  repository.WalletRepository
	ledgerRepo  repository.LedgerRepository
	contracts   ContractClient
	pub         *publisher.WalletEventPublisher
	kafkaWriter *kafka.Writer
	redisClient *redis.Client
	windowDays  int
}

func NewReversalUsecase(
	depositRepo repository.DepositRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	contracts ContractClient,
	pub *publisher.WalletEventPublisher,
	kafkaWriter *kafka.Writer,
	redisClient *redis.Client,
	windowDays int,
) *ReversalUsecase {
	return &ReversalUsecase{
		depositRepo: depositRepo,
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		contracts:   contracts,
		pub:         pub,
		kafkaWriter: kafkaWriter,
		redisClient: redisClient,
		windowDays:  windowDays,
	}
}

// effectiveDeadline picks the contract service's deadline when a contract
// exists, and falls back to decidedAt + windowDays otherwise.
func effectiveDeadline(deposit *domain.Deposit, contractDeadline time.Time, found bool, windowDays int) time.Time {
	if found {
		return contractDeadline
	}
	decided := deposit.SubmittedAt
	if deposit.DecidedAt != nil {
		decided = *deposit.DecidedAt
	}
	return decided.AddDate(0, 0, windowDays)
}

func (uc *ReversalUsecase) ReverseDeposit(ctx context.Context, depositID string) (*domain.Deposit, error) {
	// Deadline lookup happens before the wallet lock; no external I/O is
	// held open against a locked row.
	contractDeadline, found, err := uc.contracts.WithdrawalDeadline(ctx, depositID)
	if err != nil {
		return nil, err
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

	deadline := effectiveDeadline(deposit, contractDeadline, found, uc.windowDays)
	if err := deposit.CanReverse(time.Now().UTC(), deadline); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, deposit.WalletID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.Apply(ctx, tx, wallet, []domain.BalanceChange{{
		Kind:      domain.EntryKindReversal,
		DeltaMain: deposit.Amount.Neg(),
	}}, deposit.ID, false)
	if err != nil {
		return nil, err
	}

	if err := uc.depositRepo.MarkReversed(ctx, tx, depositID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal: %w", err)
	}

	_ = uc.redisClient.Del(ctx, balanceCacheKey(wallet.ID)).Err()

	if uc.pub != nil {
		_ = uc.pub.PublishDepositReversed(ctx, wallet.ID, deposit.ID,
			deposit.Amount.String(), wallet.MainBalance.String())
	}
	publishLedgerEvents(ctx, uc.kafkaWriter, "wallet.deposit.reversed", entries)

	return uc.depositRepo.GetByID(ctx, depositID)
}
