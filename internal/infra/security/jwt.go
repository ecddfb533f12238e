package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects which signing secret and lifetime a token uses.
type TokenKind string

const (
	// TokenKindAccess identifies short-lived tokens for ordinary requests.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh identifies rotating tokens used only to mint new pairs.
	TokenKindRefresh TokenKind = "refresh"
)

var (
	// ErrTokenExpired indicates the token is past its expiry. Verification
	// fails closed with no grace window.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates the token is malformed, carries a bad
	// signature, or was signed for the other token kind.
	ErrTokenInvalid = errors.New("token invalid")
)

// SessionClaims bind a token to its owning user and session.
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies signed session tokens. Access and refresh
// tokens are signed with distinct secrets, so neither kind can ever pass
// verification as the other. Purely cryptographic; no side effects.
type TokenIssuer struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer from the two signing secrets.
func NewTokenIssuer(issuer, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(accessSecret) == "" || strings.TrimSpace(refreshSecret) == "" {
		return nil, fmt.Errorf("token issuer: both signing secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("token issuer: access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}

	ti := &TokenIssuer{
		issuer:        issuer,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
	ti.now = func() time.Time { return time.Now().UTC() }
	return ti, nil
}

// WithClock overrides the issuer clock for deterministic tests.
func (t *TokenIssuer) WithClock(clock func() time.Time) {
	if clock != nil {
		t.now = clock
	}
}

// AccessTokenTTL reports the configured access token lifetime.
func (t *TokenIssuer) AccessTokenTTL() time.Duration {
	return t.accessTTL
}

// Issue signs a token of the requested kind asserting (userID, sessionID).
func (t *TokenIssuer) Issue(kind TokenKind, userID, sessionID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}

	secret, ttl, err := t.resolveKind(kind)
	if err != nil {
		return "", err
	}

	now := t.now()
	claims := SessionClaims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, nil
}

// Verify validates a token of the requested kind and returns its claims.
func (t *TokenIssuer) Verify(kind TokenKind, token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	secret, _, err := t.resolveKind(kind)
	if err != nil {
		return nil, err
	}

	claims := &SessionClaims{}
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if t.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(t.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (t *TokenIssuer) resolveKind(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case TokenKindAccess:
		return t.accessSecret, t.accessTTL, nil
	case TokenKindRefresh:
		return t.refreshSecret, t.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
