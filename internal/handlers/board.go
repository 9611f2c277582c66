package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/dto"
	apierrors "github.com/konbon-dev/konbon-api/internal/errors"
	"github.com/konbon-dev/konbon-api/internal/middleware"
	"github.com/konbon-dev/konbon-api/internal/services"
)

// BoardHandler serves board CRUD and the membership roster.
type BoardHandler struct {
	boardService  *services.BoardService
	accessService *services.AccessService
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(boardService *services.BoardService, accessService *services.AccessService) *BoardHandler {
	return &BoardHandler{
		boardService:  boardService,
		accessService: accessService,
	}
}

// ListBoards returns boards visible to the caller: boards they are an
// explicit member of plus boards where they are assigned to a task.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	boards, err := h.boardService.ListBoards(userID)
	if err != nil {
		apierrors.StorageError(c, "Failed to fetch boards")
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTOs(boards))
}

// CreateBoard creates a board; the caller becomes its owner in the same
// transaction.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateBoardRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(services.CreateBoardInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidBoardName) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.StorageError(c, "Failed to create board")
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardDTO(*board))
}

// GetBoard returns a single board. Working members can read the board even
// without an explicit membership row; everyone else gets 404 rather than 403
// so board existence is not leaked.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	board, err := h.boardService.GetBoard(boardID)
	if err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			apierrors.NotFound(c, "Board not found")
			return
		}
		apierrors.StorageError(c, "Failed to fetch board")
		return
	}

	visible, err := h.accessService.CanView(userID, boardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to check board access")
		return
	}
	if !visible {
		apierrors.NotFound(c, "Board not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(*board))
}

// DeleteBoard removes a board and everything on it.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return
	}

	if err := h.boardService.DeleteBoard(boardID); err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			apierrors.NotFound(c, "Board not found")
			return
		}
		apierrors.StorageError(c, "Failed to delete board")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Board deleted successfully",
	})
}

// ListMembers returns the explicit membership roster.
func (h *BoardHandler) ListMembers(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return
	}

	members, err := h.boardService.ListMembers(boardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to fetch board members")
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardMemberDTOs(members))
}

// AddMember adds a user to the roster with role member. Adding an existing
// member is a no-op that reports "already a member".
func (h *BoardHandler) AddMember(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"userId" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "User ID is required")
		return
	}

	result, err := h.boardService.AddMember(boardID, req.UserID)
	if err != nil {
		if errors.Is(err, services.ErrMemberUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		apierrors.StorageError(c, "Failed to add board member")
		return
	}

	if result.Already {
		c.JSON(http.StatusOK, gin.H{
			"message": "User is already a member",
		})
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardMemberDTO(*result.Member))
}

// RemoveMember removes a user from the roster. The delete is idempotent:
// non-members and the caller's own membership are both fine to remove.
func (h *BoardHandler) RemoveMember(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return
	}

	type RemoveMemberRequest struct {
		UserID uint64 `json:"userId" binding:"required"`
	}

	var req RemoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "User ID is required")
		return
	}

	if err := h.boardService.RemoveMember(boardID, req.UserID); err != nil {
		apierrors.StorageError(c, "Failed to remove board member")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

// AvailableUsers returns users who can still be invited: not explicit
// members and not working members through a task assignment.
func (h *BoardHandler) AvailableUsers(c *gin.Context) {
	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return
	}

	users, err := h.boardService.AvailableUsers(boardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to fetch candidate users")
		return
	}

	dtos := make([]dto.UserDTO, len(users))
	for i, u := range users {
		dtos[i] = dto.ToUserDTO(u)
	}
	c.JSON(http.StatusOK, dtos)
}
