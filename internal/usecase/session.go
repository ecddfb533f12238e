package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/port"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/repository"
)

var (
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionForbidden indicates that the session is not owned by the caller.
	ErrSessionForbidden = errors.New("session not owned by user")
)

// SessionService answers session listing and targeted revocation requests.
// Revoked sessions stay on record so the history view can show past logins.
type SessionService struct {
	sessions port.SessionRepository
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions port.SessionRepository, events port.EventPublisher, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		sessions: sessions,
		events:   events,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// ListSessions returns the user's sessions newest first. With activeOnly set
// only sessions that can still rotate credentials are included; otherwise the
// full login history is returned, revoked entries carrying their logout time.
func (s *SessionService) ListSessions(ctx context.Context, userID string, activeOnly bool) ([]domain.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sessions, err := s.sessions.ListByUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// GetSession fetches one session and enforces caller ownership.
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if userID != "" && session.UserID != userID {
		return nil, ErrSessionForbidden
	}

	return session, nil
}

// RevokeSession closes one of the caller's sessions, typically a different
// device spotted in the session list. Revoking an already-closed session
// succeeds without effect. Unknown and foreign session ids both fail with
// ErrSessionForbidden so a caller cannot probe which ids exist.
func (s *SessionService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionForbidden
		}
		return err
	}

	if !session.IsActive() {
		return nil
	}

	now := s.now()
	if err := s.sessions.Revoke(ctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionForbidden
		}
		return fmt.Errorf("revoke session: %w", err)
	}

	if s.events != nil {
		event := domain.SessionRevokedEvent{
			EventID:   uuid.NewString(),
			SessionID: sessionID,
			UserID:    session.UserID,
			RevokedAt: now,
			RevokedBy: userID,
			Reason:    "user_revoked",
		}
		if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
			s.logger.Warn("publish session revoked event failed", zap.Error(err))
		}
	}

	s.logger.Info("session revoked",
		zap.String("user_id", session.UserID),
		zap.String("session_id", sessionID),
	)

	return nil
}
