package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/constants"
	"github.com/konbon-dev/konbon-api/internal/dto"
	apierrors "github.com/konbon-dev/konbon-api/internal/errors"
	"github.com/konbon-dev/konbon-api/internal/middleware"
	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/services"
)

// TaskHandler serves task CRUD, including the partial PATCH that carries
// drag-and-drop column reassignments.
type TaskHandler struct {
	taskService   *services.TaskService
	columnService *services.ColumnService
	accessService *services.AccessService
	authService   *services.AuthService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, columnService *services.ColumnService, accessService *services.AccessService, authService *services.AuthService) *TaskHandler {
	return &TaskHandler{
		taskService:   taskService,
		columnService: columnService,
		accessService: accessService,
		authService:   authService,
	}
}

// ListTasks returns tasks for a column or a whole board, in stable order.
// scope=assigned restricts the list to tasks where the caller is assigned
// (the my-work view); the default returns every task on the board.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	scope := services.ScopeAll
	if c.Query("scope") == string(services.ScopeAssigned) {
		scope = services.ScopeAssigned
	}

	columnIDStr := c.Query("columnId")
	boardIDStr := c.Query("boardId")

	switch {
	case columnIDStr != "":
		columnID, err := strconv.ParseUint(columnIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid columnId")
			return
		}

		column, err := h.columnService.GetColumn(columnID)
		if err != nil {
			if errors.Is(err, services.ErrColumnNotFound) {
				apierrors.NotFound(c, "Column not found")
				return
			}
			apierrors.StorageError(c, "Failed to fetch column")
			return
		}

		if !h.requireView(c, userID, column.BoardID) {
			return
		}

		tasks, err := h.taskService.ListColumnTasks(userID, columnID, scope)
		if err != nil {
			apierrors.StorageError(c, "Failed to fetch tasks")
			return
		}
		c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))

	case boardIDStr != "":
		boardID, err := strconv.ParseUint(boardIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid boardId")
			return
		}

		if !h.requireView(c, userID, boardID) {
			return
		}

		tasks, err := h.taskService.ListBoardTasks(userID, boardID, scope)
		if err != nil {
			apierrors.StorageError(c, "Failed to fetch tasks")
			return
		}
		c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))

	default:
		apierrors.BadRequest(c, "columnId or boardId is required")
	}
}

// GetTask returns a task. Access is checked by RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskInterface, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	task, ok := taskInterface.(models.Task)
	if !ok {
		apierrors.InternalError(c, "Invalid task data")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask appends a task to a column. The caller is recorded in the
// assigned-member set so the new task shows up in their filtered views.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		ColumnID    uint64             `json:"column_id" binding:"required"`
		Title       string             `json:"title" binding:"required"`
		Description string             `json:"description"`
		Labels      []models.Label     `json:"labels"`
		Subtasks    []models.Subtask   `json:"subtasks"`
		Members     []models.MemberRef `json:"members"`
		DueDate     *time.Time         `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	column, err := h.columnService.GetColumn(req.ColumnID)
	if err != nil {
		if errors.Is(err, services.ErrColumnNotFound) {
			apierrors.NotFound(c, "Column not found")
			return
		}
		apierrors.StorageError(c, "Failed to fetch column")
		return
	}

	allowed, err := h.accessService.CanMutate(userID, column.BoardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to check board access")
		return
	}
	if !allowed {
		apierrors.Forbidden(c, "You are not a member of this board")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to resolve current user")
		return
	}
	creator := user.Ref()

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Labels:      req.Labels,
		Subtasks:    req.Subtasks,
		Members:     req.Members,
		DueDate:     req.DueDate,
		Creator:     &creator,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired):
			apierrors.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrColumnNotFound):
			apierrors.NotFound(c, "Column not found")
		default:
			apierrors.StorageError(c, "Failed to create task")
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. A members update recomputes
// member_count server-side; a supplied member_count is ignored when both are
// present. column_id/order changes run through the move path so sibling
// ordering stays contiguous.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskInterface, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	task, ok := taskInterface.(models.Task)
	if !ok {
		apierrors.InternalError(c, "Invalid task data")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		ColumnID    *uint64             `json:"column_id"`
		Order       *int                `json:"order"`
		Labels      *[]models.Label     `json:"labels"`
		Subtasks    *[]models.Subtask   `json:"subtasks"`
		Members     *[]models.MemberRef `json:"members"`
		MemberCount *int                `json:"member_count"`
		// Raw so an explicit null (clear the date) is distinguishable
		// from an absent field.
		DueDate json.RawMessage `json:"due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Title == nil && req.Description == nil && req.ColumnID == nil &&
		req.Order == nil && req.Labels == nil && req.Subtasks == nil &&
		req.Members == nil && req.MemberCount == nil && len(req.DueDate) == 0 {
		apierrors.BadRequest(c, "No fields to update")
		return
	}

	var dueDate *time.Time
	clearDueDate := false
	if len(req.DueDate) > 0 {
		if string(req.DueDate) == "null" {
			clearDueDate = true
		} else {
			var due time.Time
			if err := json.Unmarshal(req.DueDate, &due); err != nil {
				apierrors.BadRequest(c, "Invalid due_date")
				return
			}
			dueDate = &due
		}
	}

	updated, err := h.taskService.UpdateTask(task.ID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Labels:       req.Labels,
		Subtasks:     req.Subtasks,
		Members:      req.Members,
		MemberCount:  req.MemberCount,
		DueDate:      dueDate,
		ClearDueDate: clearDueDate,
		ColumnID:     req.ColumnID,
		Position:     req.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			apierrors.NotFound(c, "Task not found")
		case errors.Is(err, services.ErrColumnNotFound):
			apierrors.NotFound(c, "Target column not found")
		case errors.Is(err, services.ErrTitleEmpty):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.StorageError(c, "Failed to update task")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskInterface, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	task, ok := taskInterface.(models.Task)
	if !ok {
		apierrors.InternalError(c, "Invalid task data")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			apierrors.NotFound(c, "Task not found")
			return
		}
		apierrors.StorageError(c, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// requireView responds with 403 and returns false when the user may not view
// the board.
func (h *TaskHandler) requireView(c *gin.Context, userID, boardID uint64) bool {
	ok, err := h.accessService.CanView(userID, boardID)
	if err != nil {
		apierrors.StorageError(c, "Failed to check board access")
		return false
	}
	if !ok {
		apierrors.Forbidden(c, "You do not have access to this board")
		return false
	}
	return true
}
