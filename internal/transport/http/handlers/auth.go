package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/transport/http/middleware"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/usecase"
)

const (
	// AccessTokenCookie names the cookie carrying the access token for
	// browser clients. API clients use the Authorization header instead.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie names the cookie carrying the refresh token.
	RefreshTokenCookie = "refresh_token"

	tokenTypeBearer = "Bearer"
)

// CookieSettings controls how the token cookies are written.
type CookieSettings struct {
	Secure bool
	Domain string
}

// AuthHandler exposes registration, login, refresh, and logout endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	cookies      CookieSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, registration *usecase.RegistrationService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
		cookies:      cookies,
	}
}

// RegisterRoutes binds authentication routes, applying optional throttling
// middleware ahead of the credential-bearing endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginLimiter, refreshLimiter gin.HandlerFunc) {
	r.POST("/register", h.register)

	if loginLimiter != nil {
		r.POST("/login", loginLimiter, h.login)
	} else {
		r.POST("/login", h.login)
	}

	if refreshLimiter != nil {
		r.POST("/refresh", refreshLimiter, h.refresh)
	} else {
		r.POST("/refresh", h.refresh)
	}

	r.POST("/logout", middleware.RequireAuth(h.auth, middleware.BearerTokenExtractor(), middleware.CookieTokenExtractor(AccessTokenCookie)), h.logout)
	r.POST("/logout-all", middleware.RequireAuth(h.auth, middleware.BearerTokenExtractor(), middleware.CookieTokenExtractor(AccessTokenCookie)), h.logoutAll)
}

func (h *AuthHandler) register(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	user, err := h.registration.RegisterUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet complexity requirements"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, newUserSummary(user))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	input := usecase.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceType: req.DeviceType,
	}
	if name := strings.TrimSpace(req.DeviceName); name != "" {
		input.DeviceName = &name
	}
	if ua := c.Request.UserAgent(); ua != "" {
		input.UserAgent = &ua
	}
	if ip := c.ClientIP(); ip != "" {
		input.IPAddress = &ip
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	h.setTokenCookies(c, result.Tokens)

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    result.Tokens.AccessExpiresIn,
		SessionID:    result.SessionID,
		User:         newUserSummary(result.User),
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	// The body is optional; browser clients rely on the refresh cookie.
	_ = c.ShouldBindJSON(&req)

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookieToken, err := c.Cookie(RefreshTokenCookie); err == nil {
			token = cookieToken
		}
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "refresh token is required"))
		return
	}

	var ip *string
	if value := c.ClientIP(); value != "" {
		ip = &value
	}

	pair, err := h.auth.Refresh(c.Request.Context(), token, ip)
	if err != nil {
		h.clearTokenCookies(c)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrSessionExpiredOrRevoked, Status: http.StatusUnauthorized, Message: "session expired or revoked"},
		}, http.StatusInternalServerError, "token refresh failed")
		return
	}

	h.setTokenCookies(c, *pair)

	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    pair.AccessExpiresIn,
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	userID, sessionID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), userID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) logoutAll(c *gin.Context) {
	userID, _, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	count, err := h.auth.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, LogoutAllResponse{
		Message:      "logged out everywhere",
		RevokedCount: count,
	})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair usecase.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, pair.AccessToken, int(pair.AccessExpiresIn), "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken, 0, "/api/v1/auth", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/api/v1/auth", h.cookies.Domain, h.cookies.Secure, true)
}
