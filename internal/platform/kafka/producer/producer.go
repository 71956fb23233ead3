// Package producer publishes security events to Kafka. The audit recorder
// mirrors login-attempt records here so a SIEM can consume them; the primary
// copy always lives in the attempt store.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer wraps a franz-go client pinned to a single topic.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and ensures the topic exists. Returns nil if no
// brokers are configured (the mirror is optional).
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}
	if r, ok := resp[topic]; ok && r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, r.Err)
	}

	return &Producer{client: client, topic: topic, logger: logger}, nil
}

// Publish sends a record fire-and-forget. Delivery failures are logged, never
// returned: losing a mirrored event must not affect the caller.
func (p *Producer) Publish(ctx context.Context, key string, payload []byte) {
	record := &kgo.Record{Key: []byte(key), Value: payload}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("security event publish failed",
				"topic", p.topic,
				"error", err,
			)
		}
	})
}

// Close flushes pending records and closes the client.
func (p *Producer) Close() {
	p.client.Close()
}
