package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/port"
)

// StubPublisher logs events instead of publishing them. Used when no Kafka
// brokers are configured, typically in local development and tests.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging-only event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (s *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	s.logger.Info("event publishing disabled, dropping event",
		zap.String("event_type", "auth.user.registered"),
		zap.String("user_id", event.UserID),
	)
	return nil
}

func (s *StubPublisher) PublishSessionStarted(_ context.Context, event domain.SessionStartedEvent) error {
	s.logger.Info("event publishing disabled, dropping event",
		zap.String("event_type", "auth.session.started"),
		zap.String("user_id", event.UserID),
		zap.String("session_id", event.SessionID),
	)
	return nil
}

func (s *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	s.logger.Info("event publishing disabled, dropping event",
		zap.String("event_type", "auth.session.revoked"),
		zap.String("user_id", event.UserID),
		zap.String("session_id", event.SessionID),
	)
	return nil
}

func (s *StubPublisher) PublishSessionReuseDetected(_ context.Context, event domain.SessionReuseDetectedEvent) error {
	s.logger.Warn("event publishing disabled, dropping event",
		zap.String("event_type", "auth.session.reuse_detected"),
		zap.String("user_id", event.UserID),
		zap.String("session_id", event.SessionID),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
