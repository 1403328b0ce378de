package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet-service/pkg/xerrors"
)

// WalletStatus represents the lifecycle state of a wallet
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
	WalletStatusClosed WalletStatus = "closed"
)

func (s WalletStatus) Valid() bool {
	switch s {
	case WalletStatusActive, WalletStatusFrozen, WalletStatusClosed:
		return true
	}
	return false
}

// Wallet holds one investor's funds in two buckets. MainBalance carries
// deposited principal, BonusBalance carries earned interest and promotions.
// Both are invariantly non-negative. TotalDeposited only ever grows.
type Wallet struct {
	ID             string          `json:"id" db:"id"`
	OwnerID        string          `json:"owner_id" db:"owner_id"`
	WalletNumber   string          `json:"wallet_number" db:"wallet_number"`
	MainBalance    decimal.Decimal `json:"main_balance" db:"main_balance"`
	BonusBalance   decimal.Decimal `json:"bonus_balance" db:"bonus_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited" db:"total_deposited"`
	Status         WalletStatus    `json:"status" db:"status"`
	Version        int64           `json:"version" db:"version"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// TotalBalance is the spendable total across both buckets.
func (w *Wallet) TotalBalance() decimal.Decimal {
	return w.MainBalance.Add(w.BonusBalance)
}

// CanMutate rejects balance changes on frozen/closed wallets unless the
// change is an administrative override.
func (w *Wallet) CanMutate(adminOverride bool) error {
	if w.IsActive() || adminOverride {
		return nil
	}
	return xerrors.ErrWalletNotActive
}

// ApplyChange mutates the wallet's balances in memory and returns the
// append-only ledger entry recording the change. The entry carries the
// resulting balances so the full history replays to the cached figures.
// Fails with ErrInsufficientFunds before touching anything if either bucket
// would go negative.
func (w *Wallet) ApplyChange(ch BalanceChange, reference string) (*LedgerEntry, error) {
	newMain := w.MainBalance.Add(ch.DeltaMain)
	newBonus := w.BonusBalance.Add(ch.DeltaBonus)

	if newMain.IsNegative() || newBonus.IsNegative() {
		return nil, xerrors.ErrInsufficientFunds
	}

	w.MainBalance = newMain
	w.BonusBalance = newBonus

	// deposit credits are the only changes that grow the audit figure
	if ch.Kind == EntryKindDepositCredit {
		w.TotalDeposited = w.TotalDeposited.Add(ch.DeltaMain)
	}

	return &LedgerEntry{
		WalletID:       w.ID,
		Kind:           ch.Kind,
		Amount:         ch.DeltaMain.Add(ch.DeltaBonus).Abs(),
		ResultingMain:  newMain,
		ResultingBonus: newBonus,
		Reference:      reference,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
