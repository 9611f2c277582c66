package repository

import (
	"github.com/konbon-dev/konbon-api/internal/models"
	"gorm.io/gorm"
)

// GormColumnRepository is a GORM implementation of ColumnRepository
type GormColumnRepository struct {
	db *gorm.DB
}

// NewColumnRepository creates a new ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &GormColumnRepository{db: db}
}

// Create creates a new column
func (r *GormColumnRepository) Create(column *models.Column) error {
	return r.db.Create(column).Error
}

// FindByID finds a column by ID
func (r *GormColumnRepository) FindByID(id uint64) (*models.Column, error) {
	var column models.Column
	if err := r.db.First(&column, id).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// ListByBoard lists a board's columns. The sort is always position then id;
// insertion order of the backing store is never trusted.
func (r *GormColumnRepository) ListByBoard(boardID uint64) ([]models.Column, error) {
	var columns []models.Column
	if err := r.db.Where("board_id = ?", boardID).
		Order("position ASC, id ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

// CountByBoard counts a board's columns
func (r *GormColumnRepository) CountByBoard(boardID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Column{}).
		Where("board_id = ?", boardID).
		Count(&count).Error
	return count, err
}

// Update updates a column
func (r *GormColumnRepository) Update(column *models.Column) error {
	return r.db.Save(column).Error
}

// Reorder moves a column to targetIndex among its board's columns. The whole
// set is renumbered so positions stay contiguous regardless of what the
// caller asked for.
func (r *GormColumnRepository) Reorder(id uint64, targetIndex int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var column models.Column
		if err := tx.First(&column, id).Error; err != nil {
			return err
		}

		var siblings []models.Column
		if err := tx.Where("board_id = ? AND id <> ?", column.BoardID, id).
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

		ordered := make([]models.Column, 0, len(siblings)+1)
		ordered = append(ordered, siblings[:targetIndex]...)
		ordered = append(ordered, column)
		ordered = append(ordered, siblings[targetIndex:]...)

		for i, col := range ordered {
			if col.Position == i {
				continue
			}
			if err := tx.Model(&models.Column{}).
				Where("id = ?", col.ID).
				Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a column, its tasks, and renumbers the surviving siblings
// so their positions stay contiguous.
func (r *GormColumnRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var column models.Column
		if err := tx.First(&column, id).Error; err != nil {
			return err
		}

		if err := tx.Where("column_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Column{}, id).Error; err != nil {
			return err
		}

		return renumberColumns(tx, column.BoardID)
	})
}

// renumberColumns reassigns contiguous positions (0..n-1) to a board's
// columns, keeping their current relative order.
func renumberColumns(tx *gorm.DB, boardID uint64) error {
	var columns []models.Column
	if err := tx.Where("board_id = ?", boardID).
		Order("position ASC, id ASC").
		Find(&columns).Error; err != nil {
		return err
	}

	for i, column := range columns {
		if column.Position == i {
			continue
		}
		if err := tx.Model(&models.Column{}).
			Where("id = ?", column.ID).
			Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
