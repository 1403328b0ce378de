package usecase

import (
	"context"
	"fmt"

	"wallet-service/internal/domain"
	"wallet-service/internal/repository"
	"wallet-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// AllocationUsecase funds purchases out of the wallet, drawing buckets in
// the order the configured policy dictates. One purchase reference maps to
// at most one debit set: retries after a crash return the recorded split
// instead of debiting again.
type AllocationUsecase struct {
	walletRepo  repository.WalletRepository
	ledgerRepo  repository.LedgerRepository
	policy      domain.AllocationPolicy
	kafkaWriter *kafka.Writer
	redisClient *redis.Client
}

func NewAllocationUsecase(
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	policy domain.AllocationPolicy,
	kafkaWriter *kafka.Writer,
	redisClient *redis.Client,
) *AllocationUsecase {
	return &AllocationUsecase{
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		policy:      policy,
		kafkaWriter: kafkaWriter,
		redisClient: redisClient,
	}
}

func (uc *AllocationUsecase) Allocate(ctx context.Context, walletID string, amount decimal.Decimal, reference string) (*domain.PurchaseAllocation, error) {
	if reference == "" {
		return nil, xerrors.ErrInvalidInput
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	// Fast path for retried references: the debits already landed.
	existing, err := uc.ledgerRepo.ListByReference(ctx, walletID, reference)
	if err != nil {
		return nil, err
	}
	if alloc := domain.AllocationFromEntries(walletID, reference, existing); alloc != nil {
		return alloc, nil
	}

	tx, err := uc.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	// Re-check under the wallet lock; a concurrent retry may have won.
	existing, err = uc.ledgerRepo.ListByReferenceTx(ctx, tx, walletID, reference)
	if err != nil {
		return nil, err
	}
	if alloc := domain.AllocationFromEntries(walletID, reference, existing); alloc != nil {
		return alloc, nil
	}

	alloc, err := uc.policy.Split(wallet, amount)
	if err != nil {
		return nil, err
	}
	alloc.Reference = reference

	entries, err := uc.ledgerRepo.Apply(ctx, tx, wallet, alloc.Changes(), reference, false)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			// Lost the race on the (wallet, reference, kind) index: the
			// original attempt committed, return what it recorded.
			_ = tx.Rollback(ctx)
			recorded, lookupErr := uc.ledgerRepo.ListByReference(ctx, walletID, reference)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if a := domain.AllocationFromEntries(walletID, reference, recorded); a != nil {
				return a, nil
			}
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation: %w", err)
	}

	_ = uc.redisClient.Del(ctx, balanceCacheKey(walletID)).Err()
	publishLedgerEvents(ctx, uc.kafkaWriter, "wallet.purchase.allocated", entries)

	return alloc, nil
}

// PolicyName exposes which allocation variant is active (read endpoint).
func (uc *AllocationUsecase) PolicyName() string {
	return uc.policy.Name()
}
