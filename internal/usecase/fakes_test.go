package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"wallet-service/internal/domain"
	"wallet-service/pkg/xerrors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testRedis points at a closed port; cache writes fail fast and are ignored
// the same way they are against a flapping redis in production.
func testRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
}

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

// fakeStore is the in-memory stand-in for the postgres-backed repositories.
// It keeps the same contract the real stores do: locked reads hand out
// copies, Apply stores the mutated wallet back and appends entries.
type fakeStore struct {
	wallets map[string]*domain.Wallet
	entries []*domain.LedgerEntry

	// entries visible only through the in-tx lookup, simulating a competing
	// allocation that committed between the fast-path check and the row lock
	lockedOnly map[string][]*domain.LedgerEntry

	// forces Apply to fail; once tripped, afterConflict becomes visible to
	// ListByReference, simulating the competing attempt's committed rows
	applyErr      error
	afterConflict []*domain.LedgerEntry
	conflicted    bool

	applyCalls int
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets:    make(map[string]*domain.Wallet),
		lockedOnly: make(map[string][]*domain.LedgerEntry),
	}
}

func (s *fakeStore) addWallet(id, main, bonus string) *domain.Wallet {
	w := &domain.Wallet{
		ID:           id,
		OwnerID:      "USR_1",
		WalletNumber: "WLT-" + id,
		MainBalance:  dec(main),
		BonusBalance: dec(bonus),
		Status:       domain.WalletStatusActive,
		Version:      1,
	}
	s.wallets[id] = w
	return w
}

func (s *fakeStore) byReference(walletID, reference string) []*domain.LedgerEntry {
	var out []*domain.LedgerEntry
	for _, e := range s.entries {
		if e.WalletID == walletID && e.Reference == reference {
			out = append(out, e)
		}
	}
	return out
}

type fakeWalletRepo struct{ s *fakeStore }

func (r *fakeWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	cp := *w
	cp.Version = 1
	r.s.wallets[w.ID] = &cp
	w.Version = 1
	return nil
}

func (r *fakeWalletRepo) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeWalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	stored, ok := r.s.wallets[w.ID]
	if !ok || stored.Version != w.Version {
		return xerrors.ErrVersionConflict
	}
	cp := *w
	cp.Version++
	r.s.wallets[w.ID] = &cp
	w.Version++
	return nil
}

func (r *fakeWalletRepo) UpdateStatus(ctx context.Context, id string, status domain.WalletStatus) error {
	w, ok := r.s.wallets[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	w.Status = status
	return nil
}

func (r *fakeWalletRepo) ListInterestEligible(ctx context.Context, threshold decimal.Decimal) ([]*domain.Wallet, error) {
	var out []*domain.Wallet
	for _, w := range r.s.wallets {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeWalletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return fakeTx{}, nil
}

type fakeLedgerRepo struct{ s *fakeStore }

func (r *fakeLedgerRepo) Apply(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet, changes []domain.BalanceChange, reference string, adminOverride bool) ([]*domain.LedgerEntry, error) {
	r.s.applyCalls++
	if r.s.applyErr != nil {
		r.s.conflicted = true
		return nil, r.s.applyErr
	}
	if err := wallet.CanMutate(adminOverride); err != nil {
		return nil, err
	}

	var entries []*domain.LedgerEntry
	for _, ch := range changes {
		entry, err := wallet.ApplyChange(ch, reference)
		if err != nil {
			return nil, err
		}
		r.s.nextID++
		entry.ID = fmt.Sprintf("LED_%04d", r.s.nextID)
		entries = append(entries, entry)
	}

	cp := *wallet
	cp.Version++
	r.s.wallets[wallet.ID] = &cp
	wallet.Version++
	r.s.entries = append(r.s.entries, entries...)
	return entries, nil
}

func (r *fakeLedgerRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	for _, e := range r.s.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListByReference(ctx context.Context, walletID, reference string) ([]*domain.LedgerEntry, error) {
	out := r.s.byReference(walletID, reference)
	if r.s.conflicted {
		for _, e := range r.s.afterConflict {
			if e.WalletID == walletID && e.Reference == reference {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListByReferenceTx(ctx context.Context, tx pgx.Tx, walletID, reference string) ([]*domain.LedgerEntry, error) {
	out := r.s.byReference(walletID, reference)
	for _, e := range r.s.lockedOnly[reference] {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) Replay(ctx context.Context, walletID string) (decimal.Decimal, decimal.Decimal, error) {
	entries, _ := r.ListByWallet(ctx, walletID, 0, 0)
	main, bonus := domain.ReplayBalances(entries)
	return main, bonus, nil
}

type fakeDepositRepo struct {
	deposits  map[string]*domain.Deposit
	lastLimit int
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{deposits: make(map[string]*domain.Deposit)}
}

func (r *fakeDepositRepo) Create(ctx context.Context, d *domain.Deposit) error {
	cp := *d
	r.deposits[d.ID] = &cp
	return nil
}

func (r *fakeDepositRepo) GetByID(ctx context.Context, id string) (*domain.Deposit, error) {
	d, ok := r.deposits[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDepositRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Deposit, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDepositRepo) MarkDecided(ctx context.Context, tx pgx.Tx, id string, status domain.DepositStatus, adminID string, reason *string) error {
	d, ok := r.deposits[id]
	if !ok || d.Status != domain.DepositStatusPending {
		return xerrors.ErrInvalidTransition
	}
	now := time.Now().UTC()
	d.Status = status
	d.DecidedAt = &now
	d.DecidedBy = &adminID
	d.Reason = reason
	return nil
}

func (r *fakeDepositRepo) MarkReversed(ctx context.Context, tx pgx.Tx, id string) error {
	d, ok := r.deposits[id]
	if !ok || d.Status != domain.DepositStatusApproved {
		return xerrors.ErrInvalidTransition
	}
	d.Status = domain.DepositStatusReversed
	return nil
}

func (r *fakeDepositRepo) ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, int, error) {
	r.lastLimit = limit
	var out []*domain.Deposit
	for _, d := range r.deposits {
		if d.Status == domain.DepositStatusPending {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *fakeDepositRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Deposit, error) {
	r.lastLimit = limit
	var out []*domain.Deposit
	for _, d := range r.deposits {
		if d.WalletID == walletID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}
