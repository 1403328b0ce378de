package domain

import (
	"github.com/shopspring/decimal"

	"wallet-service/pkg/xerrors"
)

// PurchaseAllocation is the split of one purchase amount across the two
// buckets. BonusUsed + MainUsed always equals AmountRequested.
type PurchaseAllocation struct {
	WalletID        string          `json:"wallet_id"`
	Reference       string          `json:"reference"`
	AmountRequested decimal.Decimal `json:"amount_requested"`
	BonusUsed       decimal.Decimal `json:"bonus_used"`
	MainUsed        decimal.Decimal `json:"main_used"`
}

// AllocationPolicy decides how a purchase amount is drawn from the two
// buckets. The split is a pure computation; persisting it atomically is the
// ledger store's job.
type AllocationPolicy interface {
	Name() string
	Split(wallet *Wallet, amount decimal.Decimal) (*PurchaseAllocation, error)
}

// BonusFirstPolicy spends earned interest and promotions before principal:
// bonusUsed = min(bonus, amount), mainUsed covers the remainder.
type BonusFirstPolicy struct{}

func (BonusFirstPolicy) Name() string { return "bonus_first" }

func (BonusFirstPolicy) Split(wallet *Wallet, amount decimal.Decimal) (*PurchaseAllocation, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if wallet.TotalBalance().LessThan(amount) {
		return nil, xerrors.ErrInsufficientFunds
	}

	bonusUsed := decimal.Min(wallet.BonusBalance, amount)
	mainUsed := amount.Sub(bonusUsed)

	return &PurchaseAllocation{
		WalletID:        wallet.ID,
		AmountRequested: amount,
		BonusUsed:       bonusUsed,
		MainUsed:        mainUsed,
	}, nil
}

// Changes expands the allocation into the ledger mutations it implies, one
// debit per bucket actually used.
func (a *PurchaseAllocation) Changes() []BalanceChange {
	var changes []BalanceChange
	if a.BonusUsed.IsPositive() {
		changes = append(changes, BalanceChange{
			Kind:       EntryKindPurchaseDebitBonus,
			DeltaBonus: a.BonusUsed.Neg(),
		})
	}
	if a.MainUsed.IsPositive() {
		changes = append(changes, BalanceChange{
			Kind:      EntryKindPurchaseDebitMain,
			DeltaMain: a.MainUsed.Neg(),
		})
	}
	return changes
}

// AllocationFromEntries rebuilds a recorded allocation from the ledger rows
// written under its reference. Used to make retries idempotent: a second
// allocate call with the same reference returns the original split instead
// of debiting again.
func AllocationFromEntries(walletID, reference string, entries []*LedgerEntry) *PurchaseAllocation {
	if len(entries) == 0 {
		return nil
	}

	alloc := &PurchaseAllocation{
		WalletID:        walletID,
		Reference:       reference,
		AmountRequested: decimal.Zero,
		BonusUsed:       decimal.Zero,
		MainUsed:        decimal.Zero,
	}
	for _, e := range entries {
		switch e.Kind {
		case EntryKindPurchaseDebitBonus:
			alloc.BonusUsed = alloc.BonusUsed.Add(e.Amount)
		case EntryKindPurchaseDebitMain:
			alloc.MainUsed = alloc.MainUsed.Add(e.Amount)
		default:
			continue
		}
		alloc.AmountRequested = alloc.AmountRequested.Add(e.Amount)
	}
	return alloc
}
