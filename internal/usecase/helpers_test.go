package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/repository"
)

type fakeUserRepository struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	createErr error
}

func newFakeUserRepository(users ...domain.User) *fakeUserRepository {
	repo := &fakeUserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
	for i := range users {
		userCopy := users[i]
		repo.byID[userCopy.ID] = &userCopy
		repo.byEmail[userCopy.Email] = &userCopy
	}
	return repo
}

func (f *fakeUserRepository) Create(_ context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[user.Email]; exists {
		return &pgconn.PgError{Code: pgUniqueViolation}
	}
	userCopy := user
	f.byID[userCopy.ID] = &userCopy
	f.byEmail[userCopy.Email] = &userCopy
	return nil
}

func (f *fakeUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (f *fakeUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (f *fakeUserRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	stamp := at
	user.LastLogin = &stamp
	return nil
}

// fakeSessionRepository mirrors the compare-and-set guarantees of the
// PostgreSQL implementation under a mutex, so rotation races behave the
// same way in tests as a single UPDATE statement does in production.
type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepository(sessions ...domain.Session) *fakeSessionRepository {
	repo := &fakeSessionRepository{sessions: make(map[string]*domain.Session)}
	for i := range sessions {
		sessionCopy := sessions[i]
		repo.sessions[sessionCopy.ID] = &sessionCopy
	}
	return repo
}

func (f *fakeSessionRepository) Create(_ context.Context, session domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sessionCopy := session
	f.sessions[sessionCopy.ID] = &sessionCopy
	return nil
}

func (f *fakeSessionRepository) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sessionCopy := *session
	return &sessionCopy, nil
}

func (f *fakeSessionRepository) RotateRefreshHash(_ context.Context, sessionID, previousHash, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	if session.IsRevoked {
		return repository.ErrSessionRevoked
	}
	if session.RefreshTokenHash != previousHash {
		return repository.ErrRotationConflict
	}
	session.RefreshTokenHash = newHash
	return nil
}

func (f *fakeSessionRepository) Revoke(_ context.Context, sessionID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	session.Revoke(at)
	return nil
}

func (f *fakeSessionRepository) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, session := range f.sessions {
		if session.UserID != userID {
			continue
		}
		if session.Revoke(at) {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionRepository) ListByUser(_ context.Context, userID string, activeOnly bool) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.Session, 0)
	for _, session := range f.sessions {
		if session.UserID != userID {
			continue
		}
		if activeOnly && !session.IsActive() {
			continue
		}
		result = append(result, *session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LoginAt.After(result[j].LoginAt)
	})
	return result, nil
}

// fastHasher stands in for argon2 so tests stay quick. The encoding keeps
// the same contract: hashing is deterministic per input and verification
// compares presented secret against the stored encoding.
type fastHasher struct{}

func (fastHasher) Hash(secret string) (string, error) {
	return "hashed:" + secret, nil
}

func (fastHasher) Verify(secret, encoded string) (bool, error) {
	return encoded == "hashed:"+secret, nil
}

type publishedEvent struct {
	kind    string
	userID  string
	session string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingPublisher) record(kind, userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{kind: kind, userID: userID, session: sessionID})
}

func (r *recordingPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	r.record("user.registered", event.UserID, "")
	return nil
}

func (r *recordingPublisher) PublishSessionStarted(_ context.Context, event domain.SessionStartedEvent) error {
	r.record("session.started", event.UserID, event.SessionID)
	return nil
}

func (r *recordingPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	r.record("session.revoked", event.UserID, event.SessionID)
	return nil
}

func (r *recordingPublisher) PublishSessionReuseDetected(_ context.Context, event domain.SessionReuseDetectedEvent) error {
	r.record("session.reuse_detected", event.UserID, event.SessionID)
	return nil
}

func (r *recordingPublisher) countByKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if strings.EqualFold(event.kind, kind) {
			count++
		}
	}
	return count
}
