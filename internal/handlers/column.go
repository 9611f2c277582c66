package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/dto"
	apierrors "github.com/konbon-dev/konbon-api/internal/errors"
	"github.com/konbon-dev/konbon-api/internal/middleware"
	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/services"
)

// ColumnHandler serves column CRUD. Mutations require explicit board
// membership; reads are open to working members as well.
type ColumnHandler struct {
	columnService *services.ColumnService
	accessService *services.AccessService
}

// NewColumnHandler creates a new ColumnHandler.
func NewColumnHandler(columnService *services.ColumnService, accessService *services.AccessService) *ColumnHandler {
	return &ColumnHandler{
		columnService: columnService,
		accessService: accessService,
	}
}

// ListColumns returns a board's columns in board order.
func (h *ColumnHandler) ListColumns(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	boardID, err := strconv.ParseUint(c.Query("boardId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "boardId is required")
		return
	}

	ok, err := h.accessService.CanView(userID, boardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to check board access")
		return
	}
	if !ok {
		apierrors.Forbidden(c, "You do not have access to this board")
		return
	}

	columns, err := h.columnService.ListColumns(boardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to fetch columns")
		return
	}

	c.JSON(http.StatusOK, dto.ToColumnDTOs(columns))
}

// CreateColumn appends a column at the end of the board.
func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateColumnRequest struct {
		BoardID uint64 `json:"board_id" binding:"required"`
		Name    string `json:"name" binding:"required"`
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ok, err := h.accessService.CanMutate(userID, req.BoardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to check board access")
		return
	}
	if !ok {
		apierrors.Forbidden(c, "You are not a member of this board")
		return
	}

	column, err := h.columnService.CreateColumn(services.CreateColumnInput{
		BoardID: req.BoardID,
		Name:    req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBoardNotFound):
			apierrors.NotFound(c, "Board not found")
		case errors.Is(err, services.ErrInvalidColumnName):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.StorageError(c, "Failed to create column")
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToColumnDTO(*column))
}

// UpdateColumn renames and/or repositions a column.
func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	column, ok := h.authorizeColumnMutation(c)
	if !ok {
		return
	}

	type UpdateColumnRequest struct {
		Name  *string `json:"name"`
		Order *int    `json:"order"`
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Name == nil && req.Order == nil {
		apierrors.BadRequest(c, "No fields to update")
		return
	}

	updated, err := h.columnService.UpdateColumn(column.ID, services.UpdateColumnInput{
		Name:     req.Name,
		Position: req.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrColumnNotFound):
			apierrors.NotFound(c, "Column not found")
		case errors.Is(err, services.ErrInvalidColumnName):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.StorageError(c, "Failed to update column")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToColumnDTO(*updated))
}

// DeleteColumn removes a column and every task in it.
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	column, ok := h.authorizeColumnMutation(c)
	if !ok {
		return
	}

	if err := h.columnService.DeleteColumn(column.ID); err != nil {
		if errors.Is(err, services.ErrColumnNotFound) {
			apierrors.NotFound(c, "Column not found")
			return
		}
		apierrors.StorageError(c, "Failed to delete column")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column deleted successfully",
	})
}

// authorizeColumnMutation resolves the column from the path and verifies the
// caller may mutate its board. Responds and returns ok=false on any failure.
func (h *ColumnHandler) authorizeColumnMutation(c *gin.Context) (column *models.Column, ok bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return nil, false
	}

	columnID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid column ID")
		return nil, false
	}

	found, err := h.columnService.GetColumn(columnID)
	if err != nil {
		if errors.Is(err, services.ErrColumnNotFound) {
			apierrors.NotFound(c, "Column not found")
			return nil, false
		}
		apierrors.StorageError(c, "Failed to fetch column")
		return nil, false
	}

	allowed, err := h.accessService.CanMutate(userID, found.BoardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to check board access")
		return nil, false
	}
	if !allowed {
		// 404 instead of 403 to avoid leaking column existence
		apierrors.NotFound(c, "Column not found")
		return nil, false
	}

	return found, true
}
