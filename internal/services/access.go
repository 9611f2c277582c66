package services

import (
	"errors"
	"fmt"

	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"gorm.io/gorm"
)

// TaskScope selects which tasks on a board the caller should see.
type TaskScope string

const (
	// ScopeAll returns every task on the board (team board view).
	ScopeAll TaskScope = "all"
	// ScopeAssigned restricts the list to tasks where the caller is in the
	// assigned-member set (my-work view).
	ScopeAssigned TaskScope = "assigned"
)

// AccessService decides what a user may see or mutate. A user may mutate a
// board only with an explicit membership row; a user may additionally view a
// board as a "working member" when assigned to at least one of its tasks.
// Working membership is always computed from task assignments, never stored.
type AccessService struct {
	boardRepo repository.BoardRepository
	taskRepo  repository.TaskRepository
}

// NewAccessService creates a new AccessService.
func NewAccessService(boardRepo repository.BoardRepository, taskRepo repository.TaskRepository) *AccessService {
	return &AccessService{
		boardRepo: boardRepo,
		taskRepo:  taskRepo,
	}
}

// CanMutate reports whether the user holds an explicit membership on the
// board. Working members cannot mutate board structure.
func (s *AccessService) CanMutate(userID, boardID uint64) (bool, error) {
	_, err := s.boardRepo.FindMember(boardID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check board membership: %w", err)
	}
	return true, nil
}

// CanView reports whether the user may see the board, either through an
// explicit membership or as a working member.
func (s *AccessService) CanView(userID, boardID uint64) (bool, error) {
	ok, err := s.CanMutate(userID, boardID)
	if err != nil || ok {
		return ok, err
	}

	tasks, err := s.taskRepo.ListByBoard(boardID)
	if err != nil {
		return false, fmt.Errorf("failed to scan board tasks: %w", err)
	}
	return isWorkingMember(userID, tasks), nil
}

// VisibleTasks filters a board's task list for the given scope. ScopeAll
// passes the list through; ScopeAssigned keeps only tasks where the user is
// assigned.
func VisibleTasks(userID uint64, tasks []models.Task, scope TaskScope) []models.Task {
	if scope != ScopeAssigned {
		return tasks
	}

	visible := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.HasMember(userID) {
			visible = append(visible, task)
		}
	}
	return visible
}

// WorkingMemberIDs collects the ids of every user assigned to at least one of
// the given tasks.
func WorkingMemberIDs(tasks []models.Task) map[uint64]struct{} {
	ids := make(map[uint64]struct{})
	for _, task := range tasks {
		for _, m := range task.DecodedMembers() {
			ids[m.ID] = struct{}{}
		}
	}
	return ids
}

func isWorkingMember(userID uint64, tasks []models.Task) bool {
	for _, task := range tasks {
		if task.HasMember(userID) {
			return true
		}
	}
	return false
}
