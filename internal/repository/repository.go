package repository

import (
	"github.com/konbon-dev/konbon-api/internal/models"
)

// BoardRepository defines the interface for board and membership data access
type BoardRepository interface {
	// CreateWithOwner creates a board and its owner membership atomically.
	// A board must never exist without an owner row.
	CreateWithOwner(board *models.Board, ownerID uint64) error

	// FindByID finds a board by ID
	FindByID(id uint64) (*models.Board, error)

	// ListVisibleTo lists boards where the user holds a membership row or
	// appears in the assigned-member set of at least one task on the board
	ListVisibleTo(userID uint64) ([]models.Board, error)

	// Delete removes a board and cascades tasks, columns, and memberships
	Delete(id uint64) error

	// AddMember adds a member to a board
	AddMember(member *models.BoardMember) error

	// RemoveMember removes a member from a board; removing a non-member is a no-op
	RemoveMember(boardID, userID uint64) error

	// FindMember finds a specific board membership
	FindMember(boardID, userID uint64) (*models.BoardMember, error)

	// ListMembers lists all explicit members of a board with user data
	ListMembers(boardID uint64) ([]models.BoardMember, error)

	// ListMembersByUserID lists all memberships a user holds
	ListMembersByUserID(userID uint64) ([]models.BoardMember, error)
}

// ColumnRepository defines the interface for column data access
type ColumnRepository interface {
	// Create creates a new column
	Create(column *models.Column) error

	// FindByID finds a column by ID
	FindByID(id uint64) (*models.Column, error)

	// ListByBoard lists a board's columns sorted by position then id
	ListByBoard(boardID uint64) ([]models.Column, error)

	// CountByBoard counts a board's columns
	CountByBoard(boardID uint64) (int64, error)

	// Update updates a column
	Update(column *models.Column) error

	// Reorder moves a column to targetIndex among its board's columns and
	// renumbers the whole set contiguously
	Reorder(id uint64, targetIndex int) error

	// Delete removes a column, cascades its tasks, and renumbers the
	// remaining sibling columns contiguously
	Delete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// ListByColumn lists a column's tasks sorted by position then id
	ListByColumn(columnID uint64) ([]models.Task, error)

	// ListByBoard lists a board's tasks sorted by column position, task
	// position, then id
	ListByBoard(boardID uint64) ([]models.Task, error)

	// CountByColumn counts a column's tasks
	CountByColumn(columnID uint64) (int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Move reassigns a task to targetColumn at targetIndex and renumbers
	// both affected columns contiguously within one transaction
	Move(taskID, targetColumnID uint64, targetIndex int) error

	// UpdateAndMove saves field changes and moves the task in one
	// transaction; a failing move rolls the field changes back too
	UpdateAndMove(task *models.Task, targetColumnID uint64, targetIndex int) error

	// Delete removes a task and renumbers its former siblings
	Delete(id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List lists users, newest first
	List(offset, limit int) ([]models.User, int64, error)
}
