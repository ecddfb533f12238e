package middleware

import "github.com/gin-gonic/gin"

const (
	// UserIDKey is the gin context key carrying the authenticated user ID.
	UserIDKey = "user_id"
	// SessionIDKey is the gin context key carrying the authenticated session ID.
	SessionIDKey = "session_id"
)

// AuthenticatedUser returns the (userID, sessionID) pair set by RequireAuth.
func AuthenticatedUser(c *gin.Context) (string, string, bool) {
	userID := c.GetString(UserIDKey)
	sessionID := c.GetString(SessionIDKey)
	if userID == "" || sessionID == "" {
		return "", "", false
	}
	return userID, sessionID, true
}
