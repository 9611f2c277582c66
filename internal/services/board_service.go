package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrBoardNotFound       = errors.New("board not found")
	ErrInvalidBoardName    = errors.New("board name cannot be empty")
	ErrNotBoardMember      = errors.New("user is not a member of the board")
	ErrBoardMemberNotFound = errors.New("board member not found")
	ErrMemberUserNotFound  = errors.New("user does not exist")
)

// AddMemberResult reports the outcome of an add-member call. Adding a user
// who is already a member is a benign no-op, not a failure.
type AddMemberResult struct {
	Member  *models.BoardMember
	Already bool
}

// BoardService provides business logic for boards and their membership
// roster.
type BoardService struct {
	boardRepo repository.BoardRepository
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
}

// NewBoardService creates a new BoardService.
func NewBoardService(boardRepo repository.BoardRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		taskRepo:  taskRepo,
		userRepo:  userRepo,
	}
}

// CreateBoardInput represents parameters to create a new board.
type CreateBoardInput struct {
	Name    string
	OwnerID uint64
}

// CreateBoard creates a board and its owner membership atomically.
func (s *BoardService) CreateBoard(input CreateBoardInput) (*models.Board, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidBoardName
	}

	board := &models.Board{
		Name: input.Name,
	}

	if err := s.boardRepo.CreateWithOwner(board, input.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	return board, nil
}

// ListBoards returns every board visible to the user: boards with an explicit
// membership plus boards where the user is assigned to a task.
func (s *BoardService) ListBoards(userID uint64) ([]models.Board, error) {
	boards, err := s.boardRepo.ListVisibleTo(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// GetBoard returns a board by id.
func (s *BoardService) GetBoard(boardID uint64) (*models.Board, error) {
	board, err := s.boardRepo.FindByID(boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return board, nil
}

// DeleteBoard removes a board with all its columns, tasks, and memberships.
func (s *BoardService) DeleteBoard(boardID uint64) error {
	if _, err := s.boardRepo.FindByID(boardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBoardNotFound
		}
		return fmt.Errorf("failed to find board: %w", err)
	}

	if err := s.boardRepo.Delete(boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

// ListMembers returns the explicit membership roster of a board.
func (s *BoardService) ListMembers(boardID uint64) ([]models.BoardMember, error) {
	members, err := s.boardRepo.ListMembers(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}
	return members, nil
}

// AddMember adds a user to the board roster with role member. Adding an
// existing member reports Already instead of failing.
func (s *BoardService) AddMember(boardID, userID uint64) (*AddMemberResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if member, err := s.boardRepo.FindMember(boardID, userID); err == nil {
		return &AddMemberResult{Member: member, Already: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.BoardMember{
		BoardID:  boardID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}

	if err := s.boardRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add board member: %w", err)
	}

	// Carry the user snapshot so callers can render the roster entry
	// without another lookup.
	member.User = *user
	return &AddMemberResult{Member: member}, nil
}

// RemoveMember removes a user from the board roster. The delete is
// idempotent: removing a user who is not a member, or removing yourself,
// both succeed.
func (s *BoardService) RemoveMember(boardID, targetID uint64) error {
	if err := s.boardRepo.RemoveMember(boardID, targetID); err != nil {
		return fmt.Errorf("failed to remove board member: %w", err)
	}
	return nil
}

// AvailableUsers returns users who could still be invited to the board: not
// an explicit member and not already a working member through an assignment.
func (s *BoardService) AvailableUsers(boardID uint64) ([]models.User, error) {
	members, err := s.boardRepo.ListMembers(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}

	tasks, err := s.taskRepo.ListByBoard(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board tasks: %w", err)
	}

	excluded := WorkingMemberIDs(tasks)
	for _, m := range members {
		excluded[m.UserID] = struct{}{}
	}

	users, _, err := s.userRepo.List(0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	candidates := make([]models.User, 0, len(users))
	for _, u := range users {
		if _, skip := excluded[u.ID]; skip {
			continue
		}
		candidates = append(candidates, u)
	}
	return candidates, nil
}
