package port

import (
	"context"
	"time"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
)

// SessionRepository deals with session storage. Mutating operations must be
// atomic per call: RotateRefreshHash is a single compare-and-swap guarded by
// the previous hash, and Revoke always wins against a concurrent rotation.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// RotateRefreshHash replaces the stored refresh hash only when it still
	// equals previousHash and the session is not revoked. Returns
	// repository.ErrRotationConflict when a concurrent rotation won the race,
	// repository.ErrSessionRevoked when the session is closed, and
	// repository.ErrNotFound when no such session exists.
	RotateRefreshHash(ctx context.Context, sessionID, previousHash, newHash string) error
	// Revoke closes the session. Revoking an already-revoked session is a
	// no-op success; a missing session yields repository.ErrNotFound.
	Revoke(ctx context.Context, sessionID string, at time.Time) error
	// RevokeAllForUser closes every active session owned by the user and
	// reports how many sessions changed state.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error)
	// ListByUser returns the user's sessions ordered newest-login-first.
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Session, error)
}
