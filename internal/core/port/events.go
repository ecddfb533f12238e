package port

import (
	"context"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishSessionStarted(ctx context.Context, event domain.SessionStartedEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishSessionReuseDetected(ctx context.Context, event domain.SessionReuseDetectedEvent) error
}
