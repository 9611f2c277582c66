package repository

import (
	"time"

	"github.com/konbon-dev/konbon-api/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// CreateWithOwner creates the board and the owner membership in one
// transaction. If either insert fails both roll back.
func (r *GormBoardRepository) CreateWithOwner(board *models.Board, ownerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}

		member := &models.BoardMember{
			BoardID:  board.ID,
			UserID:   ownerID,
			Role:     models.RoleOwner,
			JoinedAt: time.Now(),
		}

		return tx.Create(member).Error
	})
}

// FindByID finds a board by ID
func (r *GormBoardRepository) FindByID(id uint64) (*models.Board, error) {
	var board models.Board
	if err := r.db.First(&board, id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// ListVisibleTo lists boards visible to a user: explicit memberships plus
// boards where the user appears in a task's assigned-member set. The working
// member set is synthesized here by scanning task member JSON; it is never
// stored, so it cannot drift from the assignments it is derived from.
func (r *GormBoardRepository) ListVisibleTo(userID uint64) ([]models.Board, error) {
	var memberships []models.BoardMember
	if err := r.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	visible := make(map[uint64]struct{}, len(memberships))
	for _, m := range memberships {
		visible[m.BoardID] = struct{}{}
	}

	type assignmentRow struct {
		BoardID uint64
		Members string
	}
	var rows []assignmentRow
	err := r.db.Model(&models.Task{}).
		Select("kanban_columns.board_id AS board_id, tasks.members AS members").
		Joins("JOIN kanban_columns ON kanban_columns.id = tasks.column_id AND kanban_columns.deleted_at IS NULL").
		Where("tasks.members != '' AND tasks.members != '[]'").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if _, ok := visible[row.BoardID]; ok {
			continue
		}
		probe := models.Task{Members: row.Members}
		if probe.HasMember(userID) {
			visible[row.BoardID] = struct{}{}
		}
	}

	if len(visible) == 0 {
		return []models.Board{}, nil
	}

	ids := make([]uint64, 0, len(visible))
	for id := range visible {
		ids = append(ids, id)
	}

	var boards []models.Board
	if err := r.db.Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// Delete removes a board and all dependent rows in dependency order:
// tasks, then columns, then memberships, then the board itself.
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		columnIDs := tx.Model(&models.Column{}).Select("id").Where("board_id = ?", id)

		if err := tx.Where("column_id IN (?)", columnIDs).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.Column{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Board{}, id).Error
	})
}

// AddMember adds a member to a board
func (r *GormBoardRepository) AddMember(member *models.BoardMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a board. Removing a user who is not a
// member deletes zero rows and reports success.
func (r *GormBoardRepository) RemoveMember(boardID, userID uint64) error {
	return r.db.Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&models.BoardMember{}).Error
}

// FindMember finds a specific board membership
func (r *GormBoardRepository) FindMember(boardID, userID uint64) (*models.BoardMember, error) {
	var member models.BoardMember
	if err := r.db.Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all explicit members of a board
func (r *GormBoardRepository) ListMembers(boardID uint64) ([]models.BoardMember, error) {
	var members []models.BoardMember
	if err := r.db.Preload("User").
		Where("board_id = ?", boardID).
		Order("joined_at ASC, user_id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembersByUserID lists all memberships a user holds
func (r *GormBoardRepository) ListMembersByUserID(userID uint64) ([]models.BoardMember, error) {
	var memberships []models.BoardMember
	if err := r.db.Preload("Board").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
