package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-service/internal/domain"

	"github.com/segmentio/kafka-go"
)

// ===============================
// KAFKA EVENT PUBLISHING
// ===============================

type LedgerEvent struct {
	EventType      string    `json:"event_type"`
	WalletID       string    `json:"wallet_id"`
	EntryID        string    `json:"entry_id"`
	Kind           string    `json:"kind"`
	Amount         string    `json:"amount"`
	ResultingMain  string    `json:"resulting_main"`
	ResultingBonus string    `json:"resulting_bonus"`
	Reference      string    `json:"reference"`
	Timestamp      time.Time `json:"timestamp"`
}

// publishLedgerEvents streams the committed entries to kafka. Runs after
// commit; a broker failure is logged and never rolls back the financial
// change.
func publishLedgerEvents(ctx context.Context, writer *kafka.Writer, eventType string, entries []*domain.LedgerEntry) {
	if writer == nil {
		return
	}

	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		event := LedgerEvent{
			EventType:      eventType,
			WalletID:       e.WalletID,
			EntryID:        e.ID,
			Kind:           string(e.Kind),
			Amount:         e.Amount.String(),
			ResultingMain:  e.ResultingMain.String(),
			ResultingBonus: e.ResultingBonus.String(),
			Reference:      e.Reference,
			Timestamp:      time.Now(),
		}
		eventBytes, _ := json.Marshal(event)
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.WalletID),
			Value: eventBytes,
			Time:  time.Now(),
		})
	}

	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		fmt.Printf("[KAFKA ERROR] Failed to publish %s events: %v\n", eventType, err)
	}
}
