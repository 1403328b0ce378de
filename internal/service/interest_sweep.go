package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-service/internal/domain"
	publisher "wallet-service/internal/pub"
	"wallet-service/internal/repository"
	"wallet-service/pkg/utils"
	"wallet-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// InterestSweep credits daily interest into the bonus balance of every
// active, interest-eligible wallet. Eligibility means at least one approved,
// non-reversed deposit at or above the qualification threshold. The
// (wallet, day) batch key makes each credit at-most-once even when the sweep
// is retried or two instances overlap.
type InterestSweep struct {
	walletRepo  repository.WalletRepository
	ledgerRepo  repository.LedgerRepository
	accrualRepo repository.AccrualRepository
	pub         *publisher.WalletEventPublisher
	redisClient *redis.Client
	log         *logrus.Logger

	annualRate decimal.Decimal
	threshold  decimal.Decimal
	sweepHour  int
	interval   time.Duration

	stopChan chan struct{}
}

func NewInterestSweep(
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	accrualRepo repository.AccrualRepository,
	pub *publisher.WalletEventPublisher,
	redisClient *redis.Client,
	log *logrus.Logger,
	annualRate decimal.Decimal,
	threshold decimal.Decimal,
	sweepHour int,
	interval time.Duration,
) *InterestSweep {
	if interval <= 0 {
		interval = time.Hour
	}
	return &InterestSweep{
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		accrualRepo: accrualRepo,
		pub:         pub,
		redisClient: redisClient,
		log:         log,
		annualRate:  annualRate,
		threshold:   threshold,
		sweepHour:   sweepHour,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the sweep loop. Ticks are cheap: a tick before the sweep
// hour or for an already-credited day does nothing, so the interval only
// bounds how quickly a restarted service catches up on the current day.
func (s *InterestSweep) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *InterestSweep) Stop() {
	close(s.stopChan)
}

func (s *InterestSweep) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx, time.Now().UTC())

	for {
		select {
		case <-ticker.C:
			s.tick(ctx, time.Now().UTC())
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *InterestSweep) tick(ctx context.Context, now time.Time) {
	if now.Hour() < s.sweepHour {
		return
	}
	if _, err := s.RunOnce(ctx, now); err != nil {
		s.log.WithError(err).Error("interest sweep failed")
	}
}

// RunOnce sweeps all eligible wallets for the calendar day of `now` and
// returns how many wallets were credited. Wallets that fail are logged and
// skipped; the sweep never aborts mid-batch because one wallet is wedged.
func (s *InterestSweep) RunOnce(ctx context.Context, now time.Time) (int, error) {
	day := domain.AccrualDay(now)

	wallets, err := s.walletRepo.ListInterestEligible(ctx, s.threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to list eligible wallets: %w", err)
	}

	credited := 0
	for _, w := range wallets {
		ok, err := s.sweepWallet(ctx, w.ID, day)
		if err != nil {
			// surfaced, never silently corrected: a skipped day stays a gap
			s.log.WithFields(logrus.Fields{
				"wallet_id": w.ID,
				"day":       day.Format("2006-01-02"),
			}).WithError(err).Error("could not accrue interest for wallet")
			continue
		}
		if ok {
			credited++
		}
	}

	s.log.WithFields(logrus.Fields{
		"day":      day.Format("2006-01-02"),
		"eligible": len(wallets),
		"credited": credited,
	}).Info("interest sweep completed")

	s.reportGaps(ctx, wallets)
	return credited, nil
}

// sweepWallet credits one wallet for one day. Returns false without error
// when the day was already credited or the wallet stopped being active
// mid-sweep.
func (s *InterestSweep) sweepWallet(ctx context.Context, walletID string, day time.Time) (bool, error) {
	tx, err := s.walletRepo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return false, err
	}

	// frozen or closed mid-day accrues nothing for that day
	if !wallet.IsActive() {
		return false, nil
	}

	// bonus funds are already-earned interest and do not compound;
	// the main balance at sweep time is the basis
	principal := wallet.MainBalance
	credit := domain.DailyInterest(principal, s.annualRate)

	batch := &domain.InterestAccrualBatch{
		WalletID:    walletID,
		AccrualDate: day,
		Principal:   principal,
		Credited:    credit,
	}
	if err := s.accrualRepo.Insert(ctx, tx, batch); err != nil {
		if errors.Is(err, xerrors.ErrDuplicateAccrual) {
			// already credited today, no-op success
			return false, nil
		}
		return false, err
	}

	reference := utils.AccrualReference(walletID, day)
	if credit.IsPositive() {
		if _, err := s.ledgerRepo.Apply(ctx, tx, wallet, []domain.BalanceChange{{
			Kind:       domain.EntryKindInterestCredit,
			DeltaBonus: credit,
		}}, reference, false); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit accrual: %w", err)
	}

	_ = s.redisClient.Del(ctx, fmt.Sprintf("wallet:balance:%s", walletID)).Err()

	if credit.IsPositive() && s.pub != nil {
		_ = s.pub.PublishInterestCredited(ctx, walletID, reference,
			credit.String(), wallet.BonusBalance.String())
	}
	return credit.IsPositive(), nil
}

// reportGaps alerts on missed accrual days. Gaps are operator-visible and
// never back-filled: the historical per-day principal is unknowable after
// the fact.
func (s *InterestSweep) reportGaps(ctx context.Context, wallets []*domain.Wallet) {
	for _, w := range wallets {
		dates, err := s.accrualRepo.ListDates(ctx, w.ID)
		if err != nil {
			s.log.WithError(err).WithField("wallet_id", w.ID).Warn("gap check failed")
			continue
		}
		if missing := domain.MissingAccrualDates(dates); len(missing) > 0 {
			s.log.WithFields(logrus.Fields{
				"wallet_id":    w.ID,
				"missing_days": len(missing),
				"first":        missing[0].Format("2006-01-02"),
			}).Error("accrual gap detected; manual review required")
		}
	}
}
