package xerrors

import "errors"
import "github.com/jackc/pgx/v5/pgconn"

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a postgres unique constraint error
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// Wallet / ledger
var (
	ErrInvalidAmount     = errors.New("amount must be positive with at most two decimal places")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotActive   = errors.New("wallet is frozen or closed")
	ErrVersionConflict   = errors.New("wallet modified concurrently")
)

// Deposit workflow
var (
	ErrInvalidMethod      = errors.New("unknown deposit method")
	ErrInvalidTransition  = errors.New("deposit already decided")
	ErrRejectReasonNeeded = errors.New("rejection reason is required")
)

// Withdrawal / reversal
var (
	ErrWithdrawalWindowExpired = errors.New("withdrawal window expired")
)

// Interest accrual
var (
	// ErrDuplicateAccrual means the (wallet, day) credit already happened.
	// Callers treat it as a no-op success, not a failure.
	ErrDuplicateAccrual = errors.New("interest already credited for this wallet and day")
)
