// Package notify hands completed run summaries to the notification
// collaborator. Delivery content (email rendering etc.) happens downstream;
// this package only publishes the summary.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"dirsync/internal/sync/models"
)

// KafkaNotifier publishes completed run summaries to a Kafka topic keyed by
// run id. The consumer side renders and delivers operator notifications.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// Option configures the KafkaNotifier.
type Option func(*KafkaNotifier)

// WithLogger sets a logger for publish diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *KafkaNotifier) {
		n.logger = logger
	}
}

// NewKafka connects a notifier to the given brokers and topic.
func NewKafka(brokers []string, topic string, opts ...Option) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	n := &KafkaNotifier{client: client, topic: topic}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// notification is the published payload: the summary plus its audience.
type notification struct {
	Recipients []string           `json:"recipients,omitempty"`
	Summary    *models.RunSummary `json:"summary"`
}

// NotifyRunCompleted publishes one summary. Callers treat a failure here as
// best-effort: the sync outcome is already final.
func (n *KafkaNotifier) NotifyRunCompleted(ctx context.Context, summary *models.RunSummary, recipients []string) error {
	payload, err := json.Marshal(notification{Recipients: recipients, Summary: summary})
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(summary.RunID),
		Value: payload,
	}
	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}
	if n.logger != nil {
		n.logger.Debug("run summary published",
			"run_id", summary.RunID,
			"topic", n.topic,
		)
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (n *KafkaNotifier) Close() {
	n.client.Close()
}
