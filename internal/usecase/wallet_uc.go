package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-service/internal/domain"
	"wallet-service/internal/repository"
	"wallet-service/pkg/utils"
	"wallet-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
)

type WalletUsecase struct {
	walletRepo  repository.WalletRepository
	ledgerRepo  repository.LedgerRepository
	accrualRepo repository.AccrualRepository
	redisClient *redis.Client
	gen         *utils.RefGenerator
}

func NewWalletUsecase(
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	accrualRepo repository.AccrualRepository,
	redisClient *redis.Client,
	gen *utils.RefGenerator,
) *WalletUsecase {
	return &WalletUsecase{
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		accrualRepo: accrualRepo,
		redisClient: redisClient,
		gen:         gen,
	}
}

func balanceCacheKey(walletID string) string {
	return fmt.Sprintf("wallet:balance:%s", walletID)
}

// Create opens a fresh active wallet for an investor.
func (uc *WalletUsecase) Create(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if ownerID == "" {
		return nil, xerrors.ErrInvalidInput
	}

	wallet := &domain.Wallet{
		ID:           uc.gen.NewID("WLT"),
		OwnerID:      ownerID,
		WalletNumber: uc.gen.WalletNumber(),
		Status:       domain.WalletStatusActive,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

// GetBalance retrieves a wallet with caching
func (uc *WalletUsecase) GetBalance(ctx context.Context, walletID string) (*domain.Wallet, error) {
	// Try cache first (30 seconds)
	cacheKey := balanceCacheKey(walletID)

	if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		var wallet domain.Wallet
		if jsonErr := json.Unmarshal([]byte(val), &wallet); jsonErr == nil {
			return &wallet, nil
		}
	}

	// Fetch from database
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	// Cache result
	if data, err := json.Marshal(wallet); err == nil {
		_ = uc.redisClient.Set(ctx, cacheKey, data, 30*time.Second).Err()
	}

	return wallet, nil
}

// History retrieves the wallet's ledger entries, newest first.
func (uc *WalletUsecase) History(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	if _, err := uc.walletRepo.GetByID(ctx, walletID); err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.ListByWallet(ctx, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet history: %w", err)
	}
	return entries, nil
}

// Reconcile replays the full ledger and compares it with the cached balance
// columns, and lists accrual days missing between the first and last credit.
// Drift here means the audit trail and the cache fell out of lock-step.
func (uc *WalletUsecase) Reconcile(ctx context.Context, walletID string) (*domain.ReconciliationReport, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	replayedMain, replayedBonus, err := uc.ledgerRepo.Replay(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to replay ledger: %w", err)
	}

	dates, err := uc.accrualRepo.ListDates(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accrual dates: %w", err)
	}

	report := &domain.ReconciliationReport{
		WalletID:      walletID,
		CachedMain:    wallet.MainBalance,
		CachedBonus:   wallet.BonusBalance,
		ReplayedMain:  replayedMain,
		ReplayedBonus: replayedBonus,
		InSync: wallet.MainBalance.Equal(replayedMain) &&
			wallet.BonusBalance.Equal(replayedBonus),
	}
	for _, day := range domain.MissingAccrualDates(dates) {
		report.MissingAccrualDates = append(report.MissingAccrualDates, day.Format("2006-01-02"))
	}
	return report, nil
}

// SetStatus is the administrative freeze/unfreeze/close path. It is the one
// mutation accepted on a non-active wallet.
func (uc *WalletUsecase) SetStatus(ctx context.Context, walletID string, status domain.WalletStatus) (*domain.Wallet, error) {
	if !status.Valid() {
		return nil, xerrors.ErrInvalidInput
	}

	if err := uc.walletRepo.UpdateStatus(ctx, walletID, status); err != nil {
		return nil, err
	}

	uc.invalidateBalanceCache(ctx, walletID)
	return uc.walletRepo.GetByID(ctx, walletID)
}

func (uc *WalletUsecase) invalidateBalanceCache(ctx context.Context, walletID string) {
	_ = uc.redisClient.Del(ctx, balanceCacheKey(walletID)).Err()
}
