package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"mobile-gateway/internal/platform/config"
)

// Repackager refreshes packaged mobile content for a republished course.
// internal/content implements it.
type Repackager interface {
	RepackageCourse(ctx context.Context, courseID string) error
}

// CoursePublishWorker consumes course-published notifications and triggers
// content repackaging. One worker per process is enough; the consumer group
// spreads partitions across replicas.
type CoursePublishWorker struct {
	client     *kgo.Client
	repackager Repackager
	logger     *slog.Logger
}

// NewCoursePublishWorker connects a group consumer on the course publish
// topic. Returns nil when no brokers are configured.
func NewCoursePublishWorker(cfg config.Kafka, repackager Repackager, logger *slog.Logger) (*CoursePublishWorker, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.CoursePublishTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer: %w", err)
	}
	return &CoursePublishWorker{client: client, repackager: repackager, logger: logger}, nil
}

// Run polls until the context is canceled. A failed repackage is logged and
// skipped; the next publish of the course retries it.
func (w *CoursePublishWorker) Run(ctx context.Context) error {
	defer w.client.Close()
	for {
		fetches := w.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			w.logger.Warn("course publish fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			var event CoursePublished
			if err := json.Unmarshal(record.Value, &event); err != nil {
				w.logger.Warn("malformed course publish event", "error", err)
				return
			}
			if err := w.repackager.RepackageCourse(ctx, event.CourseID); err != nil {
				w.logger.Error("course repackage failed",
					"course_id", event.CourseID,
					"error", err,
				)
				return
			}
			w.logger.Info("course repackaged", "course_id", event.CourseID)
		})
	}
}
