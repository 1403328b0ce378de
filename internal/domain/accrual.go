package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var daysPerYear = decimal.NewFromInt(365)

// InterestAccrualBatch records one daily interest credit per wallet. The
// (WalletID, AccrualDate) key is what makes crediting at-most-once: a sweep
// retry for the same day collides on it and becomes a no-op.
type InterestAccrualBatch struct {
	WalletID    string          `json:"wallet_id" db:"wallet_id"`
	AccrualDate time.Time       `json:"accrual_date" db:"accrual_date"`
	Principal   decimal.Decimal `json:"principal" db:"principal"`
	Credited    decimal.Decimal `json:"credited" db:"credited"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// DailyInterest computes one day of interest on the given principal:
// principal * annualRate / 365, rounded half-up to the currency's minor
// unit. A non-positive principal earns nothing.
func DailyInterest(principal, annualRate decimal.Decimal) decimal.Decimal {
	if !principal.IsPositive() {
		return decimal.Zero
	}
	return principal.Mul(annualRate).Div(daysPerYear).Round(2)
}

// AccrualDay truncates a point in time to its calendar day in UTC.
func AccrualDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MissingAccrualDates lists the calendar days absent between the first and
// last credited day. Gaps are surfaced to operators, never back-filled:
// back-filling would require guessing the historical principal per day.
func MissingAccrualDates(credited []time.Time) []time.Time {
	if len(credited) < 2 {
		return nil
	}

	seen := make(map[string]bool, len(credited))
	first, last := AccrualDay(credited[0]), AccrualDay(credited[0])
	for _, d := range credited {
		day := AccrualDay(d)
		seen[day.Format("2006-01-02")] = true
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	var missing []time.Time
	for day := first.AddDate(0, 0, 1); day.Before(last); day = day.AddDate(0, 0, 1) {
		if !seen[day.Format("2006-01-02")] {
			missing = append(missing, day)
		}
	}
	return missing
}
