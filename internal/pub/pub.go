// wallet-service/internal/pub/pub.go
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	WalletEventsChannel = "wallet_events"
)

// WalletEventPublisher pushes notification events to the channel the
// (external) notification service listens on. Fire-and-forget: callers
// publish after the financial change has committed and only log failures.
type WalletEventPublisher struct {
	rdb *redis.Client
}

func NewWalletEventPublisher(rdb *redis.Client) *WalletEventPublisher {
	return &WalletEventPublisher{rdb: rdb}
}

type WalletEvent struct {
	EventType    string    `json:"event_type"` // deposit.approved, deposit.rejected, deposit.reversed, interest.credited
	WalletID     string    `json:"wallet_id"`
	DepositID    string    `json:"deposit_id,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	MainBalance  string    `json:"main_balance,omitempty"`
	BonusBalance string    `json:"bonus_balance,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// PublishWalletEvent publishes a wallet event to Redis
func (p *WalletEventPublisher) PublishWalletEvent(ctx context.Context, event *WalletEvent) error {
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, WalletEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[WalletEvent] Published: %s for wallet=%s, ref=%s",
		event.EventType, event.WalletID, event.Reference)

	return nil
}

func (p *WalletEventPublisher) PublishDepositApproved(ctx context.Context, walletID, depositID, amount, mainBalance, bonusBalance string) error {
	return p.PublishWalletEvent(ctx, &WalletEvent{
		EventType:    "deposit.approved",
		WalletID:     walletID,
		DepositID:    depositID,
		Amount:       amount,
		MainBalance:  mainBalance,
		BonusBalance: bonusBalance,
	})
}

func (p *WalletEventPublisher) PublishDepositRejected(ctx context.Context, walletID, depositID, reason string) error {
	return p.PublishWalletEvent(ctx, &WalletEvent{
		EventType: "deposit.rejected",
		WalletID:  walletID,
		DepositID: depositID,
		Reason:    reason,
	})
}

func (p *WalletEventPublisher) PublishDepositReversed(ctx context.Context, walletID, depositID, amount, mainBalance string) error {
	return p.PublishWalletEvent(ctx, &WalletEvent{
		EventType:   "deposit.reversed",
		WalletID:    walletID,
		DepositID:   depositID,
		Amount:      amount,
		MainBalance: mainBalance,
	})
}

func (p *WalletEventPublisher) PublishInterestCredited(ctx context.Context, walletID, reference, credited, bonusBalance string) error {
	return p.PublishWalletEvent(ctx, &WalletEvent{
		EventType:    "interest.credited",
		WalletID:     walletID,
		Reference:    reference,
		Amount:       credited,
		BonusBalance: bonusBalance,
	})
}
