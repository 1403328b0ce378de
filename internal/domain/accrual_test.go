package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyInterest_StandardRate(t *testing.T) {
	// 10000 * 0.07 / 365 = 1.9178... -> 1.92
	got := DailyInterest(dec("10000"), dec("0.07"))
	assert.True(t, got.Equal(dec("1.92")), "got %s", got)
}

func TestDailyInterest_RoundsHalfUp(t *testing.T) {
	// 9.125 exactly at the midpoint rounds up to 9.13
	got := DailyInterest(dec("9.125").Mul(decimal.NewFromInt(365)), decimal.NewFromInt(1))
	assert.True(t, got.Equal(dec("9.13")), "got %s", got)
}

func TestDailyInterest_ZeroAndNegativePrincipal(t *testing.T) {
	assert.True(t, DailyInterest(decimal.Zero, dec("0.07")).IsZero())
	assert.True(t, DailyInterest(dec("-100"), dec("0.07")).IsZero())
}

func TestDailyInterest_TinyPrincipalRoundsToZero(t *testing.T) {
	// 10 * 0.07 / 365 = 0.0019... -> 0.00
	got := DailyInterest(dec("10"), dec("0.07"))
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestAccrualDay_TruncatesToUTC(t *testing.T) {
	loc := time.FixedZone("EAT", 3*3600)
	// 01:30 EAT on Mar 2 is still Mar 1 in UTC
	in := time.Date(2026, 3, 2, 1, 30, 0, 0, loc)
	got := AccrualDay(in)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestMissingAccrualDates_FindsGap(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	missing := MissingAccrualDates([]time.Time{day(1), day(2), day(5)})
	require.Len(t, missing, 2)
	assert.Equal(t, day(3), missing[0])
	assert.Equal(t, day(4), missing[1])
}

func TestMissingAccrualDates_NoGap(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	assert.Empty(t, MissingAccrualDates([]time.Time{day(1), day(2), day(3)}))
	assert.Empty(t, MissingAccrualDates([]time.Time{day(1)}))
	assert.Empty(t, MissingAccrualDates(nil))
}

func TestMissingAccrualDates_UnorderedInput(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	missing := MissingAccrualDates([]time.Time{day(5), day(1), day(2)})
	require.Len(t, missing, 2)
	assert.Equal(t, day(3), missing[0])
	assert.Equal(t, day(4), missing[1])
}
