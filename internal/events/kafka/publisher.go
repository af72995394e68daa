package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/IBM/sarama"

	"ledgerengine/internal/events"
)

// Publisher implements events.Publisher on top of a Sarama synchronous
// producer, keyed by client_id so every client's events land on the same
// partition and are observed in commit order by any one consumer.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string

	mu     sync.RWMutex
	closed bool
}

// New dials the configured brokers and returns a ready-to-use Publisher.
func New(cfg *Config) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, cfg.ToSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return &Publisher{producer: producer, topic: cfg.Topic}, nil
}

// wireEvent is the JSON-on-the-wire shape; events.Event itself stays
// internal to the engine/events packages.
type wireEvent struct {
	Kind      string `json:"kind"`
	ClientID  uint16 `json:"client_id"`
	TxID      uint32 `json:"tx_id"`
	Amount    string `json:"amount"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Locked    bool   `json:"locked"`
}

func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return fmt.Errorf("kafka: publisher is closed")
	}

	payload, err := json.Marshal(wireEvent{
		Kind:      string(evt.Kind),
		ClientID:  evt.ClientID,
		TxID:      evt.TxID,
		Amount:    evt.Amount.String(),
		Available: evt.Available.String(),
		Held:      evt.Held.String(),
		Locked:    evt.Locked,
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.Itoa(int(evt.ClientID))),
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err = p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka: send message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.producer.Close()
}
