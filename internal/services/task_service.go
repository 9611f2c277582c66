package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTitleRequired = errors.New("title is required")
	ErrTitleEmpty    = errors.New("title cannot be empty")
)

// TaskService owns task ordering and the assigned-member set. New tasks
// append at the end of their column; moves renumber both affected columns;
// member_count is recomputed whenever the member set changes.
type TaskService struct {
	taskRepo   repository.TaskRepository
	columnRepo repository.ColumnRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, columnRepo repository.ColumnRepository) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		columnRepo: columnRepo,
	}
}

// ListColumnTasks returns a column's tasks in column order, optionally
// filtered to tasks assigned to the user.
func (s *TaskService) ListColumnTasks(userID, columnID uint64, scope TaskScope) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByColumn(columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return VisibleTasks(userID, tasks, scope), nil
}

// ListBoardTasks returns a board's tasks in board reading order, optionally
// filtered to tasks assigned to the user.
func (s *TaskService) ListBoardTasks(userID, boardID uint64, scope TaskScope) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByBoard(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return VisibleTasks(userID, tasks, scope), nil
}

// GetTask returns a task by id.
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	ColumnID    uint64
	Title       string
	Description string
	Labels      []models.Label
	Subtasks    []models.Subtask
	Members     []models.MemberRef
	DueDate     *time.Time
	Creator     *models.MemberRef
}

// CreateTask appends a task at the end of its column. The creator snapshot,
// when provided, joins the assigned-member set so the task is visible to its
// author from the first read.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	if _, err := s.columnRepo.FindByID(input.ColumnID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find column: %w", err)
	}

	count, err := s.taskRepo.CountByColumn(input.ColumnID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	task := &models.Task{
		ColumnID:    input.ColumnID,
		Title:       input.Title,
		Description: input.Description,
		Position:    int(count),
		Labels:      "[]",
		Subtasks:    "[]",
		Members:     "[]",
	}

	if input.DueDate != nil {
		due := normalizeDueDate(*input.DueDate)
		task.DueDate = &due
	}
	if err := setEncodedLabels(task, input.Labels); err != nil {
		return nil, err
	}
	if err := setEncodedSubtasks(task, input.Subtasks); err != nil {
		return nil, err
	}

	members := input.Members
	if input.Creator != nil {
		members = append(members, *input.Creator)
	}
	if err := task.SetMembers(members); err != nil {
		return nil, fmt.Errorf("failed to encode members: %w", err)
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// UpdateTaskInput represents a partial task update. A nil field is left
// untouched. MemberCount is accepted for wire compatibility but ignored when
// Members is present: the count is always recomputed from the set.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Labels       *[]models.Label
	Subtasks     *[]models.Subtask
	Members      *[]models.MemberRef
	MemberCount  *int
	DueDate      *time.Time
	ClearDueDate bool
	ColumnID     *uint64
	Position     *int
}

// UpdateTask applies a partial update. A column or position change is routed
// through the move path so sibling ordering stays contiguous in both columns.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Labels != nil {
		if err := setEncodedLabels(task, *input.Labels); err != nil {
			return nil, err
		}
	}
	if input.Subtasks != nil {
		if err := setEncodedSubtasks(task, *input.Subtasks); err != nil {
			return nil, err
		}
	}
	if input.Members != nil {
		if err := task.SetMembers(*input.Members); err != nil {
			return nil, fmt.Errorf("failed to encode members: %w", err)
		}
	} else if input.MemberCount != nil {
		task.MemberCount = *input.MemberCount
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		due := normalizeDueDate(*input.DueDate)
		task.DueDate = &due
	}

	if input.ColumnID == nil && input.Position == nil {
		if err := s.taskRepo.Update(task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		return s.taskRepo.FindByID(taskID)
	}

	targetColumn := task.ColumnID
	if input.ColumnID != nil {
		targetColumn = *input.ColumnID
	}

	targetIndex := task.Position
	if input.Position != nil {
		targetIndex = *input.Position
	} else if targetColumn != task.ColumnID {
		// Column reassignment without an explicit index appends to
		// the target; exact order among new siblings is best-effort.
		count, err := s.taskRepo.CountByColumn(targetColumn)
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks: %w", err)
		}
		targetIndex = int(count)
	}

	// Field changes and the move commit together; nothing is persisted
	// when the target column turns out to be gone.
	if err := s.taskRepo.UpdateAndMove(task, targetColumn, targetIndex); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(taskID)
}

// MoveTask reassigns a task to a column at the given index.
func (s *TaskService) MoveTask(taskID, targetColumnID uint64, targetIndex int) error {
	if err := s.taskRepo.Move(taskID, targetColumnID, targetIndex); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Either the task or the target column is gone.
			if _, findErr := s.taskRepo.FindByID(taskID); errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return ErrColumnNotFound
		}
		return fmt.Errorf("failed to move task: %w", err)
	}
	return nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(taskID uint64) error {
	if err := s.taskRepo.Delete(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// normalizeDueDate truncates a due date to its calendar day. Clients send
// full RFC3339 timestamps; only the date part is meaningful.
func normalizeDueDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func setEncodedLabels(task *models.Task, labels []models.Label) error {
	encoded, err := encodeJSONList(labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}
	task.Labels = encoded
	return nil
}

func setEncodedSubtasks(task *models.Task, subtasks []models.Subtask) error {
	encoded, err := encodeJSONList(subtasks)
	if err != nil {
		return fmt.Errorf("failed to encode subtasks: %w", err)
	}
	task.Subtasks = encoded
	return nil
}

// encodeJSONList marshals a slice, mapping nil to the empty list so the
// stored default stays "[]".
func encodeJSONList[T any](items []T) (string, error) {
	if items == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
