package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RefGenerator issues the identifiers this service persists: wallet ids,
// deposit ids, ledger entry ids, accrual batch references.
type RefGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewRefGenerator() *RefGenerator {
	return &RefGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewID generates a prefixed, sortable identifier.
// Format: PREFIX_{ULID}
// Example: DEP_01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *RefGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), id.String())
}

// WalletNumber generates a human-facing wallet number.
// Format: WLT-{ULID}
// Example: WLT-01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *RefGenerator) WalletNumber() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return "WLT-" + id.String()
}

// AccrualReference builds the ledger reference for a daily interest credit.
// Deterministic so a retried sweep produces the same reference for the same
// (wallet, day).
// Example: ACR_WLT123_2025-03-14
func AccrualReference(walletID string, day time.Time) string {
	return fmt.Sprintf("ACR_%s_%s", walletID, day.Format("2006-01-02"))
}

// ValidateID checks that an identifier matches the PREFIX_{ULID} shape.
func ValidateID(id, prefix string) bool {
	want := strings.ToUpper(prefix) + "_"
	if !strings.HasPrefix(id, want) {
		return false
	}
	_, err := ulid.Parse(strings.TrimPrefix(id, want))
	return err == nil
}
