package events

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	BetPlaced      = "bet.placed"
	BetResolved    = "bet.resolved"
	FundsWithdrawn = "funds.withdrawn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event is one step of a bet's lifecycle. Amounts are game units.
type Event struct {
	Type        string    `json:"type"`
	Wallet      string    `json:"wallet"`
	TxHash      string    `json:"txHash,omitempty"`
	Token       string    `json:"token,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Color       string    `json:"color,omitempty"`
	ResultColor string    `json:"resultColor,omitempty"`
	Won         *bool     `json:"won,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes lifecycle events keyed by wallet.
type KafkaPublisher struct {
	writer writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
	}

	return &KafkaPublisher{
		writer: w,
		log:    zap.L(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event - %w", e.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Wallet),
		Value: value,
		Time:  e.Timestamp,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish event", zap.Error(err), zap.String("type", e.Type), zap.String("wallet_addr", e.Wallet))
		return fmt.Errorf("failed to publish %s event - %w", e.Type, err)
	}

	p.log.Debug("published event", zap.String("type", e.Type), zap.String("wallet_addr", e.Wallet))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events, used when no kafka brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
