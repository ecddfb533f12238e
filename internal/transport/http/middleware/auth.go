package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestIDFromContext(c.Request.Context()),
	}
}

// TokenExtractor resolves the raw access token from a request. The default
// chain checks the Authorization header first and falls back to the
// access token cookie set at login.
type TokenExtractor func(*gin.Context) (string, bool)

// BearerTokenExtractor reads an RFC 6750 bearer token from the Authorization header.
func BearerTokenExtractor() TokenExtractor {
	return func(c *gin.Context) (string, bool) {
		header := c.GetHeader("Authorization")
		if header == "" {
			return "", false
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		token := strings.TrimSpace(parts[1])
		return token, token != ""
	}
}

// CookieTokenExtractor reads the access token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractor {
	return func(c *gin.Context) (string, bool) {
		token, err := c.Cookie(name)
		if err != nil || token == "" {
			return "", false
		}
		return token, true
	}
}

// RequireAuth validates the access token and stores the authenticated
// (user, session) pair on the gin context for downstream handlers.
func RequireAuth(authService *usecase.AuthService, extractors ...TokenExtractor) gin.HandlerFunc {
	if len(extractors) == 0 {
		extractors = []TokenExtractor{BearerTokenExtractor()}
	}

	return func(c *gin.Context) {
		var token string
		for _, extract := range extractors {
			if value, ok := extract(c); ok {
				token = value
				break
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing access token"))
			return
		}

		claims, err := authService.ParseAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredAccessToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "access token expired"))
			case errors.Is(err, usecase.ErrInvalidAccessToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid access token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(SessionIDKey, claims.SessionID)

		c.Next()
	}
}
