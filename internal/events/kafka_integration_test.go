//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"mobile-gateway/internal/events"
	"mobile-gateway/internal/platform/config"
	"mobile-gateway/pkg/testutil/containers"
)

// recordingRepackager captures course repackage requests.
type recordingRepackager struct {
	mu      sync.Mutex
	courses []string
}

func (r *recordingRepackager) RepackageCourse(_ context.Context, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses = append(r.courses, courseID)
	return nil
}

func (r *recordingRepackager) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.courses...)
}

type KafkaSuite struct {
	suite.Suite
	broker string
	cfg    config.Kafka
	logger *slog.Logger
}

func TestKafkaSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *KafkaSuite) SetupTest() {
	// Fresh topics per test keep consumers from replaying earlier events.
	run := uuid.NewString()
	s.cfg = config.Kafka{
		Brokers:            []string{s.broker},
		AuthEventsTopic:    "auth-events-" + run,
		CoursePublishTopic: "course-publish-" + run,
		ConsumerGroup:      "gateway-" + run,
	}
}

func (s *KafkaSuite) TestPublisherEmitsAuthEvents() {
	ctx := context.Background()

	pub, err := events.NewKafkaPublisher(s.cfg, s.logger)
	s.Require().NoError(err)
	s.Require().NotNil(pub)
	defer pub.Close()

	event := events.AuthEvent{
		Type:   events.TypeCodeIssued,
		UserID: uuid.NewString(),
		At:     time.Now().UTC(),
	}
	s.Require().NoError(pub.Emit(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(s.cfg.AuthEventsTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	s.Require().Empty(fetches.Errors())

	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal(event.UserID, string(records[0].Key))

	var got events.AuthEvent
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(events.TypeCodeIssued, got.Type)
	s.Equal(event.UserID, got.UserID)
}

func (s *KafkaSuite) TestWorkerRepackagesPublishedCourses() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The publisher also creates the course publish topic.
	pub, err := events.NewKafkaPublisher(s.cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	repackager := &recordingRepackager{}
	worker, err := events.NewCoursePublishWorker(s.cfg, repackager, s.logger)
	s.Require().NoError(err)
	s.Require().NotNil(worker)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	producer, err := kgo.NewClient(kgo.SeedBrokers(s.broker))
	s.Require().NoError(err)
	defer producer.Close()

	payload, err := json.Marshal(events.CoursePublished{
		CourseID:    "course-v1:Org+Num+Run",
		PublishedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	s.Require().NoError(producer.ProduceSync(ctx, &kgo.Record{
		Topic: s.cfg.CoursePublishTopic,
		Value: payload,
	}).FirstErr())

	s.Require().Eventually(func() bool {
		seen := repackager.seen()
		return len(seen) == 1 && seen[0] == "course-v1:Org+Num+Run"
	}, 30*time.Second, 250*time.Millisecond, "worker should repackage the published course")

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.Fail("worker did not stop after cancellation")
	}
}
