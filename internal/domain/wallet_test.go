package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/pkg/xerrors"
)

func TestCanMutate(t *testing.T) {
	w := testWallet("0", "0")
	assert.NoError(t, w.CanMutate(false))

	w.Status = WalletStatusFrozen
	assert.ErrorIs(t, w.CanMutate(false), xerrors.ErrWalletNotActive)
	assert.NoError(t, w.CanMutate(true))

	w.Status = WalletStatusClosed
	assert.ErrorIs(t, w.CanMutate(false), xerrors.ErrWalletNotActive)
	assert.NoError(t, w.CanMutate(true))
}

func TestApplyChange_DepositGrowsTotalDeposited(t *testing.T) {
	w := testWallet("0", "0")

	entry, err := w.ApplyChange(BalanceChange{
		Kind:      EntryKindDepositCredit,
		DeltaMain: dec("5000"),
	}, "DEP_1")
	require.NoError(t, err)

	assert.True(t, w.MainBalance.Equal(dec("5000")))
	assert.True(t, w.TotalDeposited.Equal(dec("5000")))
	assert.True(t, entry.Amount.Equal(dec("5000")))
	assert.True(t, entry.ResultingMain.Equal(dec("5000")))
	assert.True(t, entry.ResultingBonus.IsZero())
	assert.Equal(t, "DEP_1", entry.Reference)
}

func TestApplyChange_InterestDoesNotGrowTotalDeposited(t *testing.T) {
	w := testWallet("10000", "0")
	w.TotalDeposited = dec("10000")

	_, err := w.ApplyChange(BalanceChange{
		Kind:       EntryKindInterestCredit,
		DeltaBonus: dec("1.92"),
	}, "ACR_x")
	require.NoError(t, err)

	assert.True(t, w.BonusBalance.Equal(dec("1.92")))
	assert.True(t, w.TotalDeposited.Equal(dec("10000")))
}

func TestApplyChange_RejectsNegativeResult(t *testing.T) {
	w := testWallet("100", "50")

	_, err := w.ApplyChange(BalanceChange{
		Kind:      EntryKindPurchaseDebitMain,
		DeltaMain: dec("-100.01"),
	}, "ORD-1")
	assert.ErrorIs(t, err, xerrors.ErrInsufficientFunds)

	// balances untouched on failure
	assert.True(t, w.MainBalance.Equal(dec("100")))
	assert.True(t, w.BonusBalance.Equal(dec("50")))
}

func TestApplyChange_DebitToExactZero(t *testing.T) {
	w := testWallet("100", "50")

	_, err := w.ApplyChange(BalanceChange{
		Kind:       EntryKindPurchaseDebitBonus,
		DeltaBonus: dec("-50"),
	}, "ORD-1")
	require.NoError(t, err)
	assert.True(t, w.BonusBalance.IsZero())
}

func TestReplayBalances_RoundTrip(t *testing.T) {
	w := testWallet("0", "0")
	var entries []*LedgerEntry

	apply := func(ch BalanceChange, ref string) {
		t.Helper()
		entry, err := w.ApplyChange(ch, ref)
		require.NoError(t, err)
		entries = append(entries, entry)
	}

	apply(BalanceChange{Kind: EntryKindDepositCredit, DeltaMain: dec("5000")}, "DEP_1")
	apply(BalanceChange{Kind: EntryKindInterestCredit, DeltaBonus: dec("0.96")}, "ACR_1")
	apply(BalanceChange{Kind: EntryKindPurchaseDebitBonus, DeltaBonus: dec("-0.96")}, "ORD-1")
	apply(BalanceChange{Kind: EntryKindPurchaseDebitMain, DeltaMain: dec("-499.04")}, "ORD-1")
	apply(BalanceChange{Kind: EntryKindReversal, DeltaMain: dec("-2000")}, "DEP_2")

	main, bonus := ReplayBalances(entries)
	assert.True(t, main.Equal(w.MainBalance), "replayed main %s, cached %s", main, w.MainBalance)
	assert.True(t, bonus.Equal(w.BonusBalance), "replayed bonus %s, cached %s", bonus, w.BonusBalance)
}

// Random walk over the operation mix. Whatever sequence survives validation,
// the replayed history must land exactly on the cached balances and both
// buckets must stay non-negative throughout.
func TestReplayBalances_RandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := testWallet("0", "0")
	var entries []*LedgerEntry

	amount := func(max int) decimal.Decimal {
		cents := rng.Intn(max*100) + 1
		return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
	}

	for i := 0; i < 500; i++ {
		ref := fmt.Sprintf("REF_%d", i)
		var ch BalanceChange
		switch rng.Intn(4) {
		case 0:
			ch = BalanceChange{Kind: EntryKindDepositCredit, DeltaMain: amount(10000)}
		case 1:
			ch = BalanceChange{Kind: EntryKindInterestCredit, DeltaBonus: amount(50)}
		case 2:
			if w.BonusBalance.IsZero() {
				continue
			}
			ch = BalanceChange{Kind: EntryKindPurchaseDebitBonus, DeltaBonus: decimal.Min(w.BonusBalance, amount(2000)).Neg()}
		case 3:
			if w.MainBalance.IsZero() {
				continue
			}
			ch = BalanceChange{Kind: EntryKindPurchaseDebitMain, DeltaMain: decimal.Min(w.MainBalance, amount(2000)).Neg()}
		}

		entry, err := w.ApplyChange(ch, ref)
		require.NoError(t, err)
		entries = append(entries, entry)

		require.False(t, w.MainBalance.IsNegative())
		require.False(t, w.BonusBalance.IsNegative())
	}

	main, bonus := ReplayBalances(entries)
	assert.True(t, main.Equal(w.MainBalance))
	assert.True(t, bonus.Equal(w.BonusBalance))
}
