package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet-service/pkg/xerrors"
)

// DepositMethod enumerates the accepted funding channels
type DepositMethod string

const (
	DepositMethodBankTransfer DepositMethod = "bank_transfer"
	DepositMethodCryptoBTC    DepositMethod = "crypto_btc"
	DepositMethodCryptoETH    DepositMethod = "crypto_eth"
	DepositMethodCryptoUSDT   DepositMethod = "crypto_usdt"
	DepositMethodCryptoOther  DepositMethod = "crypto_other"
)

func (m DepositMethod) Valid() bool {
	switch m {
	case DepositMethodBankTransfer, DepositMethodCryptoBTC, DepositMethodCryptoETH,
		DepositMethodCryptoUSDT, DepositMethodCryptoOther:
		return true
	}
	return false
}

// DepositStatus tracks the review state machine:
// pending → approved | rejected, approved → reversed.
type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
	DepositStatusReversed DepositStatus = "reversed"
)

// Deposit is an investor funding request reviewed by an admin. Balances are
// only touched on approval, never on submission.
type Deposit struct {
	ID          string          `json:"id" db:"id"`
	WalletID    string          `json:"wallet_id" db:"wallet_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Method      DepositMethod   `json:"method" db:"method"`
	Status      DepositStatus   `json:"status" db:"status"`
	SubmittedAt time.Time       `json:"submitted_at" db:"submitted_at"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty" db:"decided_at"`
	DecidedBy   *string         `json:"decided_by,omitempty" db:"decided_by"`
	Reason      *string         `json:"reason,omitempty" db:"reason"`
}

// ValidateAmount enforces a positive amount with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return xerrors.ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return xerrors.ErrInvalidAmount
	}
	return nil
}

// CanDecide guards the admin decision: a deposit is decided exactly once.
func (d *Deposit) CanDecide() error {
	if d.Status != DepositStatusPending {
		return xerrors.ErrInvalidTransition
	}
	return nil
}

// CanReverse guards the refund path: only an approved deposit may be
// reversed, and only while the withdrawal window is open.
func (d *Deposit) CanReverse(now, deadline time.Time) error {
	if d.Status != DepositStatusApproved {
		return xerrors.ErrInvalidTransition
	}
	if now.After(deadline) {
		return xerrors.ErrWithdrawalWindowExpired
	}
	return nil
}

// Qualifies reports whether this deposit makes its wallet interest-eligible.
func (d *Deposit) Qualifies(threshold decimal.Decimal) bool {
	return d.Amount.GreaterThanOrEqual(threshold)
}
