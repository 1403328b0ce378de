package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/internal/domain"
	"wallet-service/pkg/xerrors"
)

func newAllocationUC(s *fakeStore) *AllocationUsecase {
	return NewAllocationUsecase(&fakeWalletRepo{s}, &fakeLedgerRepo{s}, domain.BonusFirstPolicy{}, nil, testRedis())
}

func TestAllocate_RetrySameReferenceDebitsOnce(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "5000", "100")
	uc := newAllocationUC(s)

	alloc, err := uc.Allocate(context.Background(), w.ID, dec("500"), "ORD-1")
	require.NoError(t, err)
	assert.True(t, alloc.BonusUsed.Equal(dec("100")))
	assert.True(t, alloc.MainUsed.Equal(dec("400")))
	assert.Equal(t, 1, s.applyCalls)
	assert.Len(t, s.byReference(w.ID, "ORD-1"), 2)

	// crash-retry with the same reference returns the recorded split
	again, err := uc.Allocate(context.Background(), w.ID, dec("500"), "ORD-1")
	require.NoError(t, err)
	assert.True(t, again.BonusUsed.Equal(dec("100")))
	assert.True(t, again.MainUsed.Equal(dec("400")))
	assert.Equal(t, 1, s.applyCalls, "retry must not write a second debit set")
	assert.Len(t, s.byReference(w.ID, "ORD-1"), 2)

	stored := s.wallets[w.ID]
	assert.True(t, stored.MainBalance.Equal(dec("4600")))
	assert.True(t, stored.BonusBalance.IsZero())
}

func TestAllocate_ConcurrentWinnerSeenUnderLock(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "5000", "100")
	// a competing allocation committed its debits between our fast-path
	// check and the row lock
	s.lockedOnly["ORD-2"] = []*domain.LedgerEntry{
		{WalletID: w.ID, Reference: "ORD-2", Kind: domain.EntryKindPurchaseDebitBonus, Amount: dec("100")},
		{WalletID: w.ID, Reference: "ORD-2", Kind: domain.EntryKindPurchaseDebitMain, Amount: dec("400")},
	}
	uc := newAllocationUC(s)

	alloc, err := uc.Allocate(context.Background(), w.ID, dec("500"), "ORD-2")
	require.NoError(t, err)
	assert.True(t, alloc.BonusUsed.Equal(dec("100")))
	assert.True(t, alloc.MainUsed.Equal(dec("400")))
	assert.Equal(t, 0, s.applyCalls, "the winner already owns the debit")
	assert.True(t, s.wallets[w.ID].MainBalance.Equal(dec("5000")))
	assert.True(t, s.wallets[w.ID].BonusBalance.Equal(dec("100")))
}

func TestAllocate_UniqueViolationReturnsRecordedSplit(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "5000", "100")
	// the insert loses the race on the (wallet, reference, kind) index;
	// the winner's rows become readable once our tx rolls back
	s.applyErr = fmt.Errorf("failed to append ledger entry: %w", &pgconn.PgError{Code: "23505"})
	s.afterConflict = []*domain.LedgerEntry{
		{WalletID: w.ID, Reference: "ORD-3", Kind: domain.EntryKindPurchaseDebitBonus, Amount: dec("100")},
		{WalletID: w.ID, Reference: "ORD-3", Kind: domain.EntryKindPurchaseDebitMain, Amount: dec("400")},
	}
	uc := newAllocationUC(s)

	alloc, err := uc.Allocate(context.Background(), w.ID, dec("500"), "ORD-3")
	require.NoError(t, err)
	assert.True(t, alloc.BonusUsed.Equal(dec("100")))
	assert.True(t, alloc.MainUsed.Equal(dec("400")))
}

func TestAllocate_InsufficientFundsLeavesNoTrace(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "200", "100")
	uc := newAllocationUC(s)

	_, err := uc.Allocate(context.Background(), w.ID, dec("500"), "ORD-4")
	assert.ErrorIs(t, err, xerrors.ErrInsufficientFunds)
	assert.Empty(t, s.entries)
	assert.True(t, s.wallets[w.ID].MainBalance.Equal(dec("200")))
	assert.True(t, s.wallets[w.ID].BonusBalance.Equal(dec("100")))
}

func TestAllocate_RequiresReference(t *testing.T) {
	s := newFakeStore()
	w := s.addWallet("WLT_1", "5000", "0")
	uc := newAllocationUC(s)

	_, err := uc.Allocate(context.Background(), w.ID, dec("500"), "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
