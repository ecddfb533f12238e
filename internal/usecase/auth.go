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
	"github.com/prasaddsahil07/Auth-System-Backend/internal/infra/logger"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/infra/security"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken indicates the refresh token is malformed, was
	// already rotated away, or lost a rotation race.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrSessionExpiredOrRevoked indicates the session backing the token no
	// longer accepts credential rotation.
	ErrSessionExpiredOrRevoked = errors.New("session expired or revoked")
	// ErrInvalidAccessToken indicates the access token is malformed or its signature failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token is past its expiry.
	ErrExpiredAccessToken = errors.New("access token expired")
)

const (
	revokeReasonLogout    = "logout"
	revokeReasonLogoutAll = "logout_all"
	revokeReasonReuse     = "refresh_token_reuse"
)

// TokenPair bundles the credentials returned by login and refresh.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresIn int64
}

// LoginInput carries credentials plus device metadata captured at the edge.
type LoginInput struct {
	Email      string
	Password   string
	DeviceType string
	DeviceName *string
	UserAgent  *string
	IPAddress  *string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      domain.User
	SessionID string
	Tokens    TokenPair
}

// AuthService owns the login, refresh rotation, and logout flows. Every
// refresh token is single-use: the stored hash rotates atomically on each
// refresh, and a replay of a rotated-away token revokes the whole session.
type AuthService struct {
	users     port.UserRepository
	sessions  port.SessionRepository
	hasher    port.PasswordHasher
	issuer    *security.TokenIssuer
	events    port.EventPublisher
	logger    *zap.Logger
	decoyHash string
	now       func() time.Time
}

// NewAuthService constructs an AuthService. The decoy hash is burned during
// construction so that logins against unknown emails still pay the full
// password verification cost.
func NewAuthService(
	users port.UserRepository,
	sessions port.SessionRepository,
	hasher port.PasswordHasher,
	issuer *security.TokenIssuer,
	events port.EventPublisher,
	log *zap.Logger,
) (*AuthService, error) {
	if users == nil || sessions == nil {
		return nil, fmt.Errorf("user and session repositories are required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		issuer:    issuer,
		events:    events,
		logger:    log,
		decoyHash: decoyHash,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login verifies credentials and opens a new session with a fresh token pair.
// Failed lookups and failed password checks are indistinguishable to callers.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a hash comparison so response timing does not reveal
			// whether the email exists.
			if _, verifyErr := s.hasher.Verify(input.Password, s.decoyHash); verifyErr != nil {
				s.logger.Warn("decoy verification failed", zap.Error(verifyErr))
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sessionID := uuid.NewString()

	refreshToken, err := s.issuer.Issue(security.TokenKindRefresh, user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	refreshHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}

	session := domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		DeviceType:       domain.ParseDeviceType(input.DeviceType),
		DeviceName:       input.DeviceName,
		UserAgent:        input.UserAgent,
		IPAddress:        input.IPAddress,
		LoginAt:          now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accessToken, err := s.issuer.Issue(security.TokenKindAccess, user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	s.publishSessionStarted(ctx, session)

	s.logger.Info("session started",
		zap.String("user_id", user.ID),
		zap.String("session_id", sessionID),
		zap.String("device_type", string(session.DeviceType)),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return &LoginResult{
		User:      user.Sanitized(),
		SessionID: sessionID,
		Tokens: TokenPair{
			AccessToken:     accessToken,
			RefreshToken:    refreshToken,
			AccessExpiresIn: int64(s.issuer.AccessTokenTTL().Seconds()),
		},
	}, nil
}

// Refresh rotates the session's refresh credential and mints a new token
// pair. Presenting a token that no longer matches the stored hash of a live
// session is treated as theft: the session is revoked before the caller is
// rejected. A lost rotation race fails without revoking, since the losing
// request carried a then-valid token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, ip *string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidRefreshToken
	}

	claims, err := s.issuer.Verify(security.TokenKindRefresh, refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrSessionExpiredOrRevoked
		}
		return nil, ErrInvalidRefreshToken
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpiredOrRevoked
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.UserID != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}
	if !session.IsActive() {
		return nil, ErrSessionExpiredOrRevoked
	}

	matches, err := s.hasher.Verify(refreshToken, session.RefreshTokenHash)
	if err != nil {
		return nil, fmt.Errorf("verify refresh token: %w", err)
	}
	if !matches {
		s.handleReuse(ctx, *session, ip)
		return nil, ErrInvalidRefreshToken
	}

	newRefreshToken, err := s.issuer.Issue(security.TokenKindRefresh, session.UserID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	newHash, err := s.hasher.Hash(newRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}

	if err := s.sessions.RotateRefreshHash(ctx, session.ID, session.RefreshTokenHash, newHash); err != nil {
		switch {
		case errors.Is(err, repository.ErrRotationConflict):
			s.logger.Info("refresh rotation lost race",
				zap.String("session_id", session.ID),
			)
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, repository.ErrSessionRevoked), errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionExpiredOrRevoked
		default:
			return nil, fmt.Errorf("rotate refresh hash: %w", err)
		}
	}

	accessToken, err := s.issuer.Issue(security.TokenKindAccess, session.UserID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.logger.Debug("refresh token rotated",
		zap.String("user_id", session.UserID),
		zap.String("session_id", session.ID),
	)

	return &TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    newRefreshToken,
		AccessExpiresIn: int64(s.issuer.AccessTokenTTL().Seconds()),
	}, nil
}

// Logout closes the caller's current session. Logging out twice, or after
// the session was revoked elsewhere, succeeds without effect.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	now := s.now()
	if err := s.sessions.Revoke(ctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("revoke session: %w", err)
	}

	s.publishSessionRevoked(ctx, sessionID, userID, now, userID, revokeReasonLogout)

	s.logger.Info("session logged out",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
	)

	return nil
}

// LogoutAll revokes every active session of the user and reports the count.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("user id is required")
	}

	now := s.now()
	count, err := s.sessions.RevokeAllForUser(ctx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}

	if count > 0 {
		s.publishSessionRevoked(ctx, "", userID, now, userID, revokeReasonLogoutAll)
	}

	s.logger.Info("all sessions logged out",
		zap.String("user_id", userID),
		zap.Int("count", count),
	)

	return count, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *AuthService) ParseAccessToken(token string) (*security.SessionClaims, error) {
	claims, err := s.issuer.Verify(security.TokenKindAccess, token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// handleReuse revokes the session whose rotated-away token was replayed.
// The revocation is best effort: even if it fails the caller is rejected.
func (s *AuthService) handleReuse(ctx context.Context, session domain.Session, ip *string) {
	now := s.now()

	s.logger.Warn("refresh token reuse detected",
		zap.String("user_id", session.UserID),
		zap.String("session_id", session.ID),
	)

	if err := s.sessions.Revoke(ctx, session.ID, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("revoke session after reuse failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	if s.events != nil {
		event := domain.SessionReuseDetectedEvent{
			EventID:    uuid.NewString(),
			SessionID:  session.ID,
			UserID:     session.UserID,
			DetectedAt: now,
			IPAddress:  ip,
		}
		if err := s.events.PublishSessionReuseDetected(ctx, event); err != nil {
			s.logger.Warn("publish reuse event failed", zap.Error(err))
		}
	}

	s.publishSessionRevoked(ctx, session.ID, session.UserID, now, "system", revokeReasonReuse)
}

func (s *AuthService) publishSessionStarted(ctx context.Context, session domain.Session) {
	if s.events == nil {
		return
	}

	event := domain.SessionStartedEvent{
		EventID:    uuid.NewString(),
		SessionID:  session.ID,
		UserID:     session.UserID,
		DeviceType: string(session.DeviceType),
		IPAddress:  session.IPAddress,
		UserAgent:  session.UserAgent,
		LoginAt:    session.LoginAt,
	}
	if err := s.events.PublishSessionStarted(ctx, event); err != nil {
		s.logger.Warn("publish session started event failed", zap.Error(err))
	}
}

func (s *AuthService) publishSessionRevoked(ctx context.Context, sessionID, userID string, at time.Time, revokedBy, reason string) {
	if s.events == nil {
		return
	}

	event := domain.SessionRevokedEvent{
		EventID:   uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		RevokedAt: at,
		RevokedBy: revokedBy,
		Reason:    reason,
	}
	if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
		s.logger.Warn("publish session revoked event failed", zap.Error(err))
	}
}
