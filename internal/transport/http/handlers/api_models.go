package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/infra/logger"
)

// ErrorResponse represents a generic error payload with a correlation ID for debugging.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request correlation ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID, _ := c.Request.Context().Value(logger.RequestIDKey{}).(string)
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestID,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the API view of a user. Credential material never
// appears here.
type UserSummary struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

// RegistrationRequest defines the payload for the register endpoint.
type RegistrationRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceType string `json:"device_type"`
	DeviceName string `json:"device_name"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	SessionID    string      `json:"session_id"`
	User         UserSummary `json:"user"`
}

// RefreshRequest represents the payload to rotate a refresh token. The token
// may alternatively arrive in the refresh cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse contains the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LogoutAllResponse reports how many sessions a sign-out-everywhere closed.
type LogoutAllResponse struct {
	Message      string `json:"message"`
	RevokedCount int    `json:"revoked_count"`
}

// SessionSummary is the API view of one session row.
type SessionSummary struct {
	ID         string     `json:"id"`
	DeviceType string     `json:"device_type"`
	DeviceName *string    `json:"device_name,omitempty"`
	UserAgent  *string    `json:"user_agent,omitempty"`
	IPAddress  *string    `json:"ip_address,omitempty"`
	LoginAt    time.Time  `json:"login_at"`
	LogoutAt   *time.Time `json:"logout_at,omitempty"`
	IsRevoked  bool       `json:"is_revoked"`
	Current    bool       `json:"current"`
}

func newSessionSummary(session domain.Session, currentSessionID string) SessionSummary {
	return SessionSummary{
		ID:         session.ID,
		DeviceType: string(session.DeviceType),
		DeviceName: session.DeviceName,
		UserAgent:  session.UserAgent,
		IPAddress:  session.IPAddress,
		LoginAt:    session.LoginAt,
		LogoutAt:   session.LogoutAt,
		IsRevoked:  session.IsRevoked,
		Current:    session.ID == currentSessionID,
	}
}

// SessionListResponse wraps a page of session summaries.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
