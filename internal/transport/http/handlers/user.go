package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/transport/http/middleware"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/usecase"
)

// UserHandler exposes the authenticated profile endpoint.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes binds user routes. The group is expected to already carry
// RequireAuth.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.me)
}

func (h *UserHandler) me(c *gin.Context) {
	userID, _, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newUserSummary(*user))
}
