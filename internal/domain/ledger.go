package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry
type EntryKind string

const (
	EntryKindDepositCredit      EntryKind = "deposit_credit"
	EntryKindInterestCredit     EntryKind = "interest_credit"
	EntryKindPurchaseDebitBonus EntryKind = "purchase_debit_bonus"
	EntryKindPurchaseDebitMain  EntryKind = "purchase_debit_main"
	EntryKindReversal           EntryKind = "reversal"
)

// LedgerEntry is the immutable audit record of one balance change. Entries
// are append-only and never updated or deleted; replaying them from zero
// must reproduce the wallet's cached balances exactly.
type LedgerEntry struct {
	ID             string          `json:"id" db:"id"`
	WalletID       string          `json:"wallet_id" db:"wallet_id"`
	Kind           EntryKind       `json:"kind" db:"kind"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	ResultingMain  decimal.Decimal `json:"resulting_main" db:"resulting_main"`
	ResultingBonus decimal.Decimal `json:"resulting_bonus" db:"resulting_bonus"`
	Reference      string          `json:"reference" db:"reference"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// BalanceChange is one requested mutation against a wallet. Positive deltas
// credit, negative deltas debit.
type BalanceChange struct {
	Kind       EntryKind
	DeltaMain  decimal.Decimal
	DeltaBonus decimal.Decimal
}

// ReplayBalances recomputes the two balances from the entry history alone.
// Entries must be in chronological order. Used as the drift check against
// the cached wallet columns.
func ReplayBalances(entries []*LedgerEntry) (main, bonus decimal.Decimal) {
	main = decimal.Zero
	bonus = decimal.Zero

	for _, e := range entries {
		switch e.Kind {
		case EntryKindDepositCredit:
			main = main.Add(e.Amount)
		case EntryKindInterestCredit:
			bonus = bonus.Add(e.Amount)
		case EntryKindPurchaseDebitBonus:
			bonus = bonus.Sub(e.Amount)
		case EntryKindPurchaseDebitMain:
			main = main.Sub(e.Amount)
		case EntryKindReversal:
			main = main.Sub(e.Amount)
		}
	}
	return main, bonus
}

// ReconciliationReport compares cached balances with a ledger replay and
// lists accrual days missing between the first and last credited day.
type ReconciliationReport struct {
	WalletID            string          `json:"wallet_id"`
	CachedMain          decimal.Decimal `json:"cached_main"`
	CachedBonus         decimal.Decimal `json:"cached_bonus"`
	ReplayedMain        decimal.Decimal `json:"replayed_main"`
	ReplayedBonus       decimal.Decimal `json:"replayed_bonus"`
	InSync              bool            `json:"in_sync"`
	MissingAccrualDates []string        `json:"missing_accrual_dates,omitempty"`
}
