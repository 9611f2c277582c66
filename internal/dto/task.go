package dto

import (
	"time"

	"github.com/konbon-dev/konbon-api/internal/models"
)

// TaskDTO represents a task in API responses. Labels, subtasks, and members
// are returned decoded; the stored JSON text never leaks to clients.
type TaskDTO struct {
	ID          uint64             `json:"id"`
	ColumnID    uint64             `json:"column_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Order       int                `json:"order"`
	Labels      []models.Label     `json:"labels"`
	Subtasks    []models.Subtask   `json:"subtasks"`
	Members     []models.MemberRef `json:"members"`
	MemberCount int                `json:"member_count"`
	DueDate     *time.Time         `json:"due_date"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		ColumnID:    task.ColumnID,
		Title:       task.Title,
		Description: task.Description,
		Order:       task.Position,
		Labels:      task.DecodedLabels(),
		Subtasks:    task.DecodedSubtasks(),
		Members:     task.DecodedMembers(),
		MemberCount: task.MemberCount,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = ToTaskDTO(t)
	}
	return dtos
}
