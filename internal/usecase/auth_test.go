package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/infra/security"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789"
	testRefreshSecret = "refresh-secret-for-tests-0123456789"
)

func newTestIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	issuer, err := security.NewTokenIssuer("auth-sessions", testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func newTestAuthService(t *testing.T, users *fakeUserRepository, sessions *fakeSessionRepository, events *recordingPublisher) *AuthService {
	t.Helper()

	svc, err := NewAuthService(users, sessions, fastHasher{}, newTestIssuer(t), events, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func seedUser(t *testing.T) (domain.User, *fakeUserRepository) {
	t.Helper()

	hash, err := fastHasher{}.Hash("S3cure-pass!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC().Add(-24 * time.Hour),
	}
	return user, newFakeUserRepository(user)
}

func TestAuthServiceLogin(t *testing.T) {
	user, users := seedUser(t)
	sessions := newFakeSessionRepository()
	events := &recordingPublisher{}
	svc := newTestAuthService(t, users, sessions, events)

	deviceName := "Pixel 8"
	result, err := svc.Login(context.Background(), LoginInput{
		Email:      "Alice@Example.com",
		Password:   "S3cure-pass!",
		DeviceType: "mobile",
		DeviceName: &deviceName,
	})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if result.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, result.User.ID)
	}
	if result.User.PasswordHash != "" {
		t.Fatalf("expected sanitized user in result")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens to be issued")
	}
	if result.Tokens.AccessExpiresIn != 3600 {
		t.Fatalf("expected access expiry of 3600s, got %d", result.Tokens.AccessExpiresIn)
	}

	issuer := newTestIssuer(t)
	accessClaims, err := issuer.Verify(security.TokenKindAccess, result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	refreshClaims, err := issuer.Verify(security.TokenKindRefresh, result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if accessClaims.SessionID != refreshClaims.SessionID || accessClaims.SessionID != result.SessionID {
		t.Fatalf("expected both tokens bound to the new session")
	}

	session, err := sessions.Get(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("expected session to be persisted: %v", err)
	}
	if !session.IsActive() {
		t.Fatalf("expected new session to be active")
	}
	if session.DeviceType != domain.DeviceTypeMobile {
		t.Fatalf("expected mobile device type, got %s", session.DeviceType)
	}
	if matches, _ := (fastHasher{}).Verify(result.Tokens.RefreshToken, session.RefreshTokenHash); !matches {
		t.Fatalf("expected stored hash to anchor the issued refresh token")
	}

	stored, err := users.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatalf("expected last login to be stamped")
	}

	if events.countByKind("session.started") != 1 {
		t.Fatalf("expected one session started event")
	}
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	_, users := seedUser(t)
	svc := newTestAuthService(t, users, newFakeSessionRepository(), &recordingPublisher{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	_, users := seedUser(t)
	svc := newTestAuthService(t, users, newFakeSessionRepository(), &recordingPublisher{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	events := &recordingPublisher{}
	svc := newTestAuthService(t, users, sessions, events)

	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if pair.RefreshToken == login.Tokens.RefreshToken {
		t.Fatalf("expected refresh token to rotate")
	}

	session, err := sessions.Get(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if matches, _ := (fastHasher{}).Verify(pair.RefreshToken, session.RefreshTokenHash); !matches {
		t.Fatalf("expected stored hash to anchor the rotated token")
	}
	if matches, _ := (fastHasher{}).Verify(login.Tokens.RefreshToken, session.RefreshTokenHash); matches {
		t.Fatalf("expected old token to be rotated away")
	}
	if !session.IsActive() {
		t.Fatalf("expected session to stay active after refresh")
	}
}

func TestAuthServiceRefreshReuseRevokesSession(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	events := &recordingPublisher{}
	svc := newTestAuthService(t, users, sessions, events)

	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil)
	if err != nil {
		t.Fatalf("first refresh returned error: %v", err)
	}

	// Replaying the pre-rotation token signals theft.
	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken on replay, got %v", err)
	}

	session, err := sessions.Get(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if session.IsActive() {
		t.Fatalf("expected session to be revoked after reuse")
	}
	if session.LogoutAt == nil {
		t.Fatalf("expected logout time to be stamped on revocation")
	}

	if events.countByKind("session.reuse_detected") != 1 {
		t.Fatalf("expected one reuse event")
	}

	// The freshly rotated token is dead too: the whole session is gone.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken, nil); !errors.Is(err, ErrSessionExpiredOrRevoked) {
		t.Fatalf("expected ErrSessionExpiredOrRevoked after revocation, got %v", err)
	}
}

func TestAuthServiceRefreshMalformedToken(t *testing.T) {
	_, users := seedUser(t)
	svc := newTestAuthService(t, users, newFakeSessionRepository(), &recordingPublisher{})

	if _, err := svc.Refresh(context.Background(), "not-a-token", nil); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "", nil); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for empty token, got %v", err)
	}
}

func TestAuthServiceRefreshAccessTokenRejected(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	svc := newTestAuthService(t, users, sessions, &recordingPublisher{})

	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	// An access token must never pass refresh verification.
	if _, err := svc.Refresh(context.Background(), login.Tokens.AccessToken, nil); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for access token, got %v", err)
	}

	session, err := sessions.Get(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if !session.IsActive() {
		t.Fatalf("kind confusion must not revoke the session")
	}
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	svc := newTestAuthService(t, users, sessions, &recordingPublisher{})

	issuer := newTestIssuer(t)
	past := time.Now().UTC().Add(-48 * time.Hour)
	issuer.WithClock(func() time.Time { return past })

	expired, err := issuer.Issue(security.TokenKindRefresh, "user-1", "session-1")
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), expired, nil); !errors.Is(err, ErrSessionExpiredOrRevoked) {
		t.Fatalf("expected ErrSessionExpiredOrRevoked for expired token, got %v", err)
	}
}

func TestAuthServiceConcurrentRefresh(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	svc := newTestAuthService(t, users, sessions, &recordingPublisher{})

	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	start := make(chan struct{})

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			<-start
			_, results[slot] = svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil)
		}(i)
	}

	close(start)
	wg.Wait()

	var successes, failures int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		failures++
		if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Fatalf("expected losing refresh to fail with ErrInvalidRefreshToken, got %v", err)
		}
	}
	if successes != 1 || failures != 1 {
		t.Fatalf("expected exactly one winner and one loser, got %d/%d", successes, failures)
	}

	// Both callers could never rotate off the same prior hash.
	session, err := sessions.Get(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if matches, _ := (fastHasher{}).Verify(login.Tokens.RefreshToken, session.RefreshTokenHash); matches {
		t.Fatalf("expected stored hash to move off the contested token")
	}
}

func TestAuthServiceLogout(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	events := &recordingPublisher{}
	svc := newTestAuthService(t, users, sessions, events)

	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := svc.Logout(context.Background(), "user-1", login.SessionID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	session, err := sessions.Get(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if session.IsActive() || session.LogoutAt == nil {
		t.Fatalf("expected session closed with logout time")
	}

	// Repeat and unknown-session logouts are no-ops.
	if err := svc.Logout(context.Background(), "user-1", login.SessionID); err != nil {
		t.Fatalf("repeat logout should succeed, got %v", err)
	}
	if err := svc.Logout(context.Background(), "user-1", "missing"); err != nil {
		t.Fatalf("logout of missing session should succeed, got %v", err)
	}

	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken, nil); !errors.Is(err, ErrSessionExpiredOrRevoked) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
}

func TestAuthServiceLogoutAll(t *testing.T) {
	_, users := seedUser(t)
	sessions := newFakeSessionRepository()
	svc := newTestAuthService(t, users, sessions, &recordingPublisher{})

	var tokens []string
	for i := 0; i < 3; i++ {
		login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		tokens = append(tokens, login.Tokens.RefreshToken)
	}

	count, err := svc.LogoutAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LogoutAll returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 revoked sessions, got %d", count)
	}

	for _, token := range tokens {
		if _, err := svc.Refresh(context.Background(), token, nil); !errors.Is(err, ErrSessionExpiredOrRevoked) {
			t.Fatalf("expected all refresh tokens dead after logout-all, got %v", err)
		}
	}

	count, err = svc.LogoutAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("repeat LogoutAll returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected repeat logout-all to revoke nothing, got %d", count)
	}
}

func TestAuthServiceParseAccessToken(t *testing.T) {
	_, users := seedUser(t)
	svc := newTestAuthService(t, users, newFakeSessionRepository(), &recordingPublisher{})

	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "S3cure-pass!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := svc.ParseAccessToken(login.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != login.SessionID {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseAccessToken(login.Tokens.RefreshToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected refresh token to fail access parsing, got %v", err)
	}
	if _, err := svc.ParseAccessToken("garbage"); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}

	issuer := newTestIssuer(t)
	issuer.WithClock(func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) })
	expired, err := issuer.Issue(security.TokenKindAccess, "user-1", "session-1")
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	if _, err := svc.ParseAccessToken(expired); !errors.Is(err, ErrExpiredAccessToken) {
		t.Fatalf("expected ErrExpiredAccessToken, got %v", err)
	}
}
