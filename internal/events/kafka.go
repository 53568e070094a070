package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"mobile-gateway/internal/platform/config"
)

// KafkaPublisher emits auth events to the configured topic.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects a producer and makes sure the topics exist.
// Returns nil when no brokers are configured.
func NewKafkaPublisher(cfg config.Kafka, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Brokers...))
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	if err := ensureTopics(context.Background(), client, cfg.AuthEventsTopic, cfg.CoursePublishTopic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: cfg.AuthEventsTopic, logger: logger}, nil
}

// Emit publishes one auth event, keyed by user so per-account ordering holds.
func (p *KafkaPublisher) Emit(ctx context.Context, event AuthEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.UserID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("auth event publish failed",
				"type", event.Type,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes outstanding records and releases the producer.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// ensureTopics creates the gateway's topics when the broker does not have
// them yet. Existing topics are left untouched.
func ensureTopics(ctx context.Context, client *kgo.Client, topics ...string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}
