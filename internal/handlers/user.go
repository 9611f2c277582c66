package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/dto"
	apierrors "github.com/konbon-dev/konbon-api/internal/errors"
	"github.com/konbon-dev/konbon-api/internal/services"
	"github.com/konbon-dev/konbon-api/internal/utils"
)

// UserHandler serves the user directory used by member pickers.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// ListUsers returns a paginated list of registered users, newest first.
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.authService.ListUsers(params.Offset, params.Limit)
	if err != nil {
		apierrors.StorageError(c, "Failed to fetch users")
		return
	}

	userDTOs := make([]dto.UserDTO, 0, len(users))
	for _, user := range users {
		userDTOs = append(userDTOs, dto.ToUserDTO(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": userDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}
