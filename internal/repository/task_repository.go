package repository

import (
	"github.com/konbon-dev/konbon-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByColumn lists a column's tasks sorted by position then id
func (r *GormTaskRepository) ListByColumn(columnID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("column_id = ?", columnID).
		Order("position ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByBoard lists every task on a board, sorted by column position first so
// the client receives tasks in board reading order.
func (r *GormTaskRepository) ListByBoard(boardID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Joins("JOIN kanban_columns ON kanban_columns.id = tasks.column_id AND kanban_columns.deleted_at IS NULL").
		Where("kanban_columns.board_id = ?", boardID).
		Order("kanban_columns.position ASC, tasks.position ASC, tasks.id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountByColumn counts a column's tasks
func (r *GormTaskRepository) CountByColumn(columnID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("column_id = ?", columnID).
		Count(&count).Error
	return count, err
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Move reassigns a task to the target column at the target index and leaves
// both the source and target columns contiguously numbered. Everything happens
// in one transaction; a failure rolls the whole move back.
func (r *GormTaskRepository) Move(taskID, targetColumnID uint64, targetIndex int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return moveTask(tx, taskID, targetColumnID, targetIndex)
	})
}

// UpdateAndMove saves a task's field changes and moves it in the same
// transaction. A failing move rolls the field changes back with it, so a
// combined edit-and-move request never leaves a half-applied task behind.
func (r *GormTaskRepository) UpdateAndMove(task *models.Task, targetColumnID uint64, targetIndex int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		return moveTask(tx, task.ID, targetColumnID, targetIndex)
	})
}

func moveTask(tx *gorm.DB, taskID, targetColumnID uint64, targetIndex int) error {
	var task models.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		return err
	}

	var target models.Column
	if err := tx.First(&target, targetColumnID).Error; err != nil {
		return err
	}

	sourceColumnID := task.ColumnID

	var siblings []models.Task
	if err := tx.Where("column_id = ? AND id != ?", targetColumnID, taskID).
		Order("position ASC, id ASC").
		Find(&siblings).Error; err != nil {
		return err
	}

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(siblings) {
		targetIndex = len(siblings)
	}

	if err := tx.Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"column_id": targetColumnID,
			"position":  targetIndex,
		}).Error; err != nil {
		return err
	}

	for i, sibling := range siblings {
		position := i
		if i >= targetIndex {
			position = i + 1
		}
		if sibling.Position == position {
			continue
		}
		if err := tx.Model(&models.Task{}).
			Where("id = ?", sibling.ID).
			Update("position", position).Error; err != nil {
			return err
		}
	}

	if sourceColumnID != targetColumnID {
		return renumberTasks(tx, sourceColumnID)
	}
	return nil
}

// Delete removes a task and renumbers its former siblings
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Task{}, id).Error; err != nil {
			return err
		}

		return renumberTasks(tx, task.ColumnID)
	})
}

// renumberTasks reassigns contiguous positions (0..n-1) to a column's tasks,
// keeping their current relative order.
func renumberTasks(tx *gorm.DB, columnID uint64) error {
	var tasks []models.Task
	if err := tx.Where("column_id = ?", columnID).
		Order("position ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return err
	}

	for i, task := range tasks {
		if task.Position == i {
			continue
		}
		if err := tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
