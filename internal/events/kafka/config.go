// Package kafka adapts the Sarama-backed publisher the source project used
// for its banking events topic, now publishing ledger events instead.
package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

// Config holds the Sarama producer settings.
type Config struct {
	Brokers  []string
	ClientID string
	Topic    string

	MaxRetries   int
	RetryBackoff time.Duration
}

// ToSaramaConfig builds the underlying Sarama client config. Acks=all and
// synchronous sends trade throughput for the durability the dispute/
// chargeback audit trail needs.
func (c *Config) ToSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = c.MaxRetries
	cfg.Producer.Retry.Backoff = c.RetryBackoff
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.ClientID = c.ClientID
	cfg.Version = sarama.V3_0_0_0
	return cfg
}
