package events

import (
	"context"
	"io"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/internal/platform/config"
)

type EventsSuite struct {
	suite.Suite
}

func TestEventsSuite(t *testing.T) {
	suite.Run(t, new(EventsSuite))
}

func (s *EventsSuite) TestNoopPublisher() {
	s.NoError(NoopPublisher{}.Emit(context.Background(), AuthEvent{Type: TypeCodeIssued}))
}

func (s *EventsSuite) TestUnconfiguredBrokers() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.Run("publisher is absent without brokers", func() {
		pub, err := NewKafkaPublisher(config.Kafka{}, logger)
		s.NoError(err)
		s.Nil(pub)
	})

	s.Run("worker is absent without brokers", func() {
		worker, err := NewCoursePublishWorker(config.Kafka{}, nil, logger)
		s.NoError(err)
		s.Nil(worker)
	})
}
