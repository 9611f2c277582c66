package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrColumnNotFound    = errors.New("column not found")
	ErrInvalidColumnName = errors.New("column name cannot be empty")
)

// ColumnService owns column ordering: new columns append at the end and every
// structural mutation leaves the board's columns contiguously numbered.
type ColumnService struct {
	columnRepo repository.ColumnRepository
	boardRepo  repository.BoardRepository
}

// NewColumnService creates a new ColumnService.
func NewColumnService(columnRepo repository.ColumnRepository, boardRepo repository.BoardRepository) *ColumnService {
	return &ColumnService{
		columnRepo: columnRepo,
		boardRepo:  boardRepo,
	}
}

// CreateColumnInput represents parameters to create a column.
type CreateColumnInput struct {
	BoardID uint64
	Name    string
}

// CreateColumn appends a column at the end of the board.
func (s *ColumnService) CreateColumn(input CreateColumnInput) (*models.Column, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidColumnName
	}

	if _, err := s.boardRepo.FindByID(input.BoardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}

	count, err := s.columnRepo.CountByBoard(input.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to count columns: %w", err)
	}

	column := &models.Column{
		BoardID:  input.BoardID,
		Name:     input.Name,
		Position: int(count),
	}

	if err := s.columnRepo.Create(column); err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}
	return column, nil
}

// ListColumns returns a board's columns in board order.
func (s *ColumnService) ListColumns(boardID uint64) ([]models.Column, error) {
	columns, err := s.columnRepo.ListByBoard(boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

// GetColumn returns a column by id.
func (s *ColumnService) GetColumn(columnID uint64) (*models.Column, error) {
	column, err := s.columnRepo.FindByID(columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find column: %w", err)
	}
	return column, nil
}

// UpdateColumnInput represents a partial column update.
type UpdateColumnInput struct {
	Name     *string
	Position *int
}

// UpdateColumn renames and/or repositions a column.
func (s *ColumnService) UpdateColumn(columnID uint64, input UpdateColumnInput) (*models.Column, error) {
	column, err := s.columnRepo.FindByID(columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find column: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidColumnName
		}
		column.Name = *input.Name
		if err := s.columnRepo.Update(column); err != nil {
			return nil, fmt.Errorf("failed to update column: %w", err)
		}
	}

	if input.Position != nil {
		if err := s.columnRepo.Reorder(columnID, *input.Position); err != nil {
			return nil, fmt.Errorf("failed to reorder column: %w", err)
		}
		column, err = s.columnRepo.FindByID(columnID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload column: %w", err)
		}
	}

	return column, nil
}

// DeleteColumn removes a column together with every task in it.
func (s *ColumnService) DeleteColumn(columnID uint64) error {
	if _, err := s.columnRepo.FindByID(columnID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrColumnNotFound
		}
		return fmt.Errorf("failed to find column: %w", err)
	}

	if err := s.columnRepo.Delete(columnID); err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	return nil
}
