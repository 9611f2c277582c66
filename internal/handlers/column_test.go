package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/database"
	"github.com/konbon-dev/konbon-api/internal/dto"
	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"github.com/konbon-dev/konbon-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type columnTestEnv struct {
	db      *gorm.DB
	handler *ColumnHandler
}

func setupColumnTestEnv(t *testing.T) columnTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardMember{},
		&models.Column{},
		&models.Task{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	boardRepo := repository.NewBoardRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	columnService := services.NewColumnService(columnRepo, boardRepo)
	accessService := services.NewAccessService(boardRepo, taskRepo)
	handler := NewColumnHandler(columnService, accessService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return columnTestEnv{db: db, handler: handler}
}

func (env columnTestEnv) createBoardWithOwner(t *testing.T, name string) (*models.Board, *models.User) {
	t.Helper()

	user := &models.User{Name: name + " owner", Email: name + "@example.com", PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(user).Error)

	board := &models.Board{Name: name}
	require.NoError(t, env.db.Create(board).Error)
	require.NoError(t, env.db.Create(&models.BoardMember{
		BoardID: board.ID,
		UserID:  user.ID,
		Role:    models.RoleOwner,
	}).Error)

	return board, user
}

func TestColumnHandler_CreateColumn_SequentialPositions(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, owner := env.createBoardWithOwner(t, "Project")

	for i, name := range []string{"Todo", "Doing", "Done"} {
		payload, err := json.Marshal(map[string]interface{}{
			"board_id": board.ID,
			"name":     name,
		})
		require.NoError(t, err)

		c, w := boardTestContext(http.MethodPost, "/api/columns", payload, owner.ID)

		env.handler.CreateColumn(c)

		require.Equal(t, http.StatusCreated, w.Code)

		var response dto.ColumnDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, name, response.Name)
		require.Equal(t, i, response.Order)
	}
}

func TestColumnHandler_CreateColumn_NotMember(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, _ := env.createBoardWithOwner(t, "Project")

	stranger := &models.User{Name: "stranger", Email: "stranger@example.com", PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(stranger).Error)

	payload, err := json.Marshal(map[string]interface{}{
		"board_id": board.ID,
		"name":     "Sneaky",
	})
	require.NoError(t, err)

	c, w := boardTestContext(http.MethodPost, "/api/columns", payload, stranger.ID)

	env.handler.CreateColumn(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestColumnHandler_CreateColumn_WorkingMemberCannotMutate(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, _ := env.createBoardWithOwner(t, "Project")

	worker := &models.User{Name: "worker", Email: "worker@example.com", PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(worker).Error)

	column := &models.Column{BoardID: board.ID, Name: "Todo"}
	require.NoError(t, env.db.Create(column).Error)
	task := &models.Task{ColumnID: column.ID, Title: "Task", Labels: "[]", Subtasks: "[]", Members: "[]"}
	require.NoError(t, task.SetMembers([]models.MemberRef{worker.Ref()}))
	require.NoError(t, env.db.Create(task).Error)

	payload, err := json.Marshal(map[string]interface{}{
		"board_id": board.ID,
		"name":     "New Column",
	})
	require.NoError(t, err)

	c, w := boardTestContext(http.MethodPost, "/api/columns", payload, worker.ID)

	env.handler.CreateColumn(c)

	// visibility through an assignment never grants structural rights
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestColumnHandler_ListColumns_SortedByPosition(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, owner := env.createBoardWithOwner(t, "Project")

	// inserted out of order on purpose
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Done", Position: 2}).Error)
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Todo", Position: 0}).Error)
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Doing", Position: 1}).Error)

	url := fmt.Sprintf("/api/columns?boardId=%d", board.ID)
	c, w := boardTestContext(http.MethodGet, url, nil, owner.ID)

	env.handler.ListColumns(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response []dto.ColumnDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 3)
	require.Equal(t, "Todo", response[0].Name)
	require.Equal(t, "Doing", response[1].Name)
	require.Equal(t, "Done", response[2].Name)
}

func TestColumnHandler_UpdateColumn_Reorder(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, owner := env.createBoardWithOwner(t, "Project")

	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Todo", Position: 0}).Error)
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Doing", Position: 1}).Error)
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Done", Position: 2}).Error)

	// move "Done" to the front
	payload := []byte(`{"order": 0}`)
	c, w := boardTestContext(http.MethodPatch, "/api/columns/3", payload, owner.ID)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	env.handler.UpdateColumn(c)

	require.Equal(t, http.StatusOK, w.Code)

	var columns []models.Column
	env.db.Where("board_id = ?", board.ID).Order("position ASC, id ASC").Find(&columns)
	require.Len(t, columns, 3)
	require.Equal(t, "Done", columns[0].Name)
	require.Equal(t, "Todo", columns[1].Name)
	require.Equal(t, "Doing", columns[2].Name)
	for i, column := range columns {
		require.Equal(t, i, column.Position)
	}
}

func TestColumnHandler_DeleteColumn_CascadesAndRenumbers(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, owner := env.createBoardWithOwner(t, "Project")

	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Todo", Position: 0}).Error)
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Doing", Position: 1}).Error)
	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Done", Position: 2}).Error)
	require.NoError(t, env.db.Create(&models.Task{ColumnID: 2, Title: "In flight", Labels: "[]", Subtasks: "[]", Members: "[]"}).Error)

	c, w := boardTestContext(http.MethodDelete, "/api/columns/2", nil, owner.ID)
	c.Params = gin.Params{{Key: "id", Value: "2"}}

	env.handler.DeleteColumn(c)

	require.Equal(t, http.StatusOK, w.Code)

	var taskCount int64
	env.db.Model(&models.Task{}).Count(&taskCount)
	require.Zero(t, taskCount)

	var columns []models.Column
	env.db.Where("board_id = ?", board.ID).Order("position ASC, id ASC").Find(&columns)
	require.Len(t, columns, 2)
	require.Equal(t, "Todo", columns[0].Name)
	require.Equal(t, 0, columns[0].Position)
	require.Equal(t, "Done", columns[1].Name)
	require.Equal(t, 1, columns[1].Position)
}

func TestColumnHandler_UpdateColumn_NonMemberGets404(t *testing.T) {
	env := setupColumnTestEnv(t)
	board, _ := env.createBoardWithOwner(t, "Project")

	stranger := &models.User{Name: "stranger", Email: "stranger@example.com", PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(stranger).Error)

	require.NoError(t, env.db.Create(&models.Column{BoardID: board.ID, Name: "Todo", Position: 0}).Error)

	payload := []byte(`{"name": "Hijacked"}`)
	c, w := boardTestContext(http.MethodPatch, "/api/columns/1", payload, stranger.ID)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	env.handler.UpdateColumn(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
