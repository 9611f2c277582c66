package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database. The existence
// check reads pg_indexes, so this only runs against postgres; other drivers
// rely on the indexes declared in the model tags.
func AddIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Column and task ordering indexes: every kanban read sorts by these
		{"kanban_columns", "idx_kanban_columns_board_position", "board_id, position, id"},
		{"tasks", "idx_tasks_column_position", "column_id, position, id"},

		// Board member lookups
		{"board_members", "idx_board_members_board_id", "board_id"},
		{"board_members", "idx_board_members_user_id", "user_id"},

		// Task due date filtering
		{"tasks", "idx_tasks_due_date", "due_date"},
	}

	for _, idx := range indexes {
		// Check if index already exists
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			fmt.Printf("Index %s already exists, skipping\n", idx.name)
			continue
		}

		// Create index
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		fmt.Printf("Created index %s on %s(%s)\n", idx.name, idx.table, idx.columns)
	}

	return nil
}
