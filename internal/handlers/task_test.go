package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/konbon-dev/konbon-api/internal/constants"
	"github.com/konbon-dev/konbon-api/internal/database"
	"github.com/konbon-dev/konbon-api/internal/dto"
	"github.com/konbon-dev/konbon-api/internal/models"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"github.com/konbon-dev/konbon-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.BoardMember{},
		&models.Column{},
		&models.Task{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	userRepo := repository.NewUserRepository(suite.db)
	boardRepo := repository.NewBoardRepository(suite.db)
	columnRepo := repository.NewColumnRepository(suite.db)
	taskRepo := repository.NewTaskRepository(suite.db)

	authService := services.NewAuthService(userRepo)
	accessService := services.NewAccessService(boardRepo, taskRepo)
	columnService := services.NewColumnService(columnRepo, boardRepo)
	taskService := services.NewTaskService(taskRepo, columnRepo)

	suite.handler = NewTaskHandler(taskService, columnService, accessService, authService)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to create test data
func (suite *TaskHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) createTestBoard(name string, ownerID uint64) *models.Board {
	board := &models.Board{Name: name}
	suite.db.Create(board)
	suite.db.Create(&models.BoardMember{
		BoardID: board.ID,
		UserID:  ownerID,
		Role:    models.RoleOwner,
	})
	return board
}

func (suite *TaskHandlerTestSuite) createTestColumn(boardID uint64, name string, position int) *models.Column {
	column := &models.Column{
		BoardID:  boardID,
		Name:     name,
		Position: position,
	}
	suite.db.Create(column)
	return column
}

func (suite *TaskHandlerTestSuite) createTestTask(columnID uint64, title string, position int, members ...models.MemberRef) *models.Task {
	task := &models.Task{
		ColumnID: columnID,
		Title:    title,
		Position: position,
		Labels:   "[]",
		Subtasks: "[]",
		Members:  "[]",
	}
	if len(members) > 0 {
		suite.Require().NoError(task.SetMembers(members))
	}
	suite.db.Create(task)
	return task
}

// Helper function to create authenticated context
func (suite *TaskHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

// Helper function to set task context (simulates RequireTaskAccess middleware)
func (suite *TaskHandlerTestSuite) setTaskContext(c *gin.Context, task models.Task) {
	c.Set(constants.ContextKeyTask, task)
}

// TestListTasks_ByColumn tests listing a single column in position order
func (suite *TaskHandlerTestSuite) TestListTasks_ByColumn() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)

	// created out of order on purpose; listing must sort by position
	suite.createTestTask(column.ID, "Second", 1)
	suite.createTestTask(column.ID, "First", 0)

	c, w := suite.createAuthContext("GET", "/api/tasks?columnId=1", nil, user.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response []dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), response, 2)
	assert.Equal(suite.T(), "First", response[0].Title)
	assert.Equal(suite.T(), "Second", response[1].Title)
}

// TestListTasks_ByBoardAssignedScope tests the my-work filter
func (suite *TaskHandlerTestSuite) TestListTasks_ByBoardAssignedScope() {
	owner := suite.createTestUser("owner@example.com")
	worker := suite.createTestUser("worker@example.com")
	board := suite.createTestBoard("Board", owner.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)

	suite.createTestTask(column.ID, "Mine", 0, worker.Ref())
	suite.createTestTask(column.ID, "Not mine", 1)

	c, w := suite.createAuthContext("GET", "/api/tasks?boardId=1&scope=assigned", nil, worker.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response []dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), response, 1)
	assert.Equal(suite.T(), "Mine", response[0].Title)
}

// TestListTasks_WorkingMemberSeesBoard tests that an assignment alone grants
// read access to the full board list
func (suite *TaskHandlerTestSuite) TestListTasks_WorkingMemberSeesBoard() {
	owner := suite.createTestUser("owner@example.com")
	worker := suite.createTestUser("worker@example.com")
	board := suite.createTestBoard("Board", owner.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)

	suite.createTestTask(column.ID, "Assigned", 0, worker.Ref())
	suite.createTestTask(column.ID, "Other", 1)

	c, w := suite.createAuthContext("GET", "/api/tasks?boardId=1", nil, worker.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response []dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), response, 2)
}

// TestListTasks_Forbidden tests listing without any relationship to the board
func (suite *TaskHandlerTestSuite) TestListTasks_Forbidden() {
	owner := suite.createTestUser("owner@example.com")
	stranger := suite.createTestUser("stranger@example.com")
	board := suite.createTestBoard("Board", owner.ID)
	suite.createTestColumn(board.ID, "Todo", 0)

	c, w := suite.createAuthContext("GET", "/api/tasks?boardId=1", nil, stranger.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestListTasks_MissingQuery tests listing without columnId or boardId
func (suite *TaskHandlerTestSuite) TestListTasks_MissingQuery() {
	user := suite.createTestUser("owner@example.com")

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, user.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTask_Success tests successful task creation
func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	suite.createTestTask(column.ID, "Existing", 0)

	requestBody := map[string]interface{}{
		"column_id":   column.ID,
		"title":       "New Task",
		"description": "Task Description",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "New Task", response.Title)
	// appended after the existing task
	assert.Equal(suite.T(), 1, response.Order)
	// the creator joins the assigned-member set
	assert.Len(suite.T(), response.Members, 1)
	assert.Equal(suite.T(), user.ID, response.Members[0].ID)
	assert.Equal(suite.T(), 1, response.MemberCount)
}

// TestCreateTask_InvalidRequest tests task creation with a missing title
func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidRequest() {
	user := suite.createTestUser("owner@example.com")

	requestBody := map[string]interface{}{
		"column_id": 1,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateTask_NotBoardMember tests creation by a non-member
func (suite *TaskHandlerTestSuite) TestCreateTask_NotBoardMember() {
	owner := suite.createTestUser("owner@example.com")
	stranger := suite.createTestUser("stranger@example.com")
	board := suite.createTestBoard("Board", owner.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)

	requestBody := map[string]interface{}{
		"column_id": column.ID,
		"title":     "New Task",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, stranger.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestGetTask_Success tests successful task retrieval
func (suite *TaskHandlerTestSuite) TestGetTask_Success() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	task := suite.createTestTask(column.ID, "Test Task", 0)

	c, w := suite.createAuthContext("GET", "/api/tasks/1", nil, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.GetTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), task.ID, response.ID)
	assert.Equal(suite.T(), task.Title, response.Title)
}

// TestGetTask_NotFoundInContext tests when task is not in context
func (suite *TaskHandlerTestSuite) TestGetTask_NotFoundInContext() {
	user := suite.createTestUser("owner@example.com")
	c, w := suite.createAuthContext("GET", "/api/tasks/1", nil, user.ID)

	suite.handler.GetTask(c)

	assert.Equal(suite.T(), http.StatusInternalServerError, w.Code)
}

// TestUpdateTask_Fields tests a plain field update
func (suite *TaskHandlerTestSuite) TestUpdateTask_Fields() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	task := suite.createTestTask(column.ID, "Old Title", 0)

	requestBody := map[string]interface{}{
		"title":       "Updated Title",
		"description": "Updated Description",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Updated Title", response.Title)
	assert.Equal(suite.T(), "Updated Description", response.Description)
}

// TestUpdateTask_MembersRecomputeCount tests that member_count is recomputed
// from the member set, not taken from the request
func (suite *TaskHandlerTestSuite) TestUpdateTask_MembersRecomputeCount() {
	user := suite.createTestUser("owner@example.com")
	other := suite.createTestUser("other@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	task := suite.createTestTask(column.ID, "Task", 0)

	requestBody := map[string]interface{}{
		"members": []map[string]interface{}{
			{"id": user.ID, "name": user.Name},
			{"id": other.ID, "name": other.Name},
		},
		"member_count": 99,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), response.Members, 2)
	assert.Equal(suite.T(), 2, response.MemberCount)
}

// TestUpdateTask_MoveAcrossColumns tests the drag-and-drop persistence call:
// a column reassignment renumbers both the source and the target column
func (suite *TaskHandlerTestSuite) TestUpdateTask_MoveAcrossColumns() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	doing := suite.createTestColumn(board.ID, "Doing", 1)

	fixBug := suite.createTestTask(todo.ID, "Fix bug", 0)
	suite.createTestTask(todo.ID, "Write docs", 1)
	suite.createTestTask(doing.ID, "Ship", 0)

	requestBody := map[string]interface{}{
		"column_id": doing.ID,
		"order":     0,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	suite.setTaskContext(c, *fixBug)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), doing.ID, response.ColumnID)
	assert.Equal(suite.T(), 0, response.Order)

	// target column: moved task at 0, former occupant shifted to 1
	var doingTasks []models.Task
	suite.db.Where("column_id = ?", doing.ID).Order("position ASC, id ASC").Find(&doingTasks)
	suite.Require().Len(doingTasks, 2)
	assert.Equal(suite.T(), "Fix bug", doingTasks[0].Title)
	assert.Equal(suite.T(), 0, doingTasks[0].Position)
	assert.Equal(suite.T(), "Ship", doingTasks[1].Title)
	assert.Equal(suite.T(), 1, doingTasks[1].Position)

	// source column closed the gap
	var todoTasks []models.Task
	suite.db.Where("column_id = ?", todo.ID).Order("position ASC, id ASC").Find(&todoTasks)
	suite.Require().Len(todoTasks, 1)
	assert.Equal(suite.T(), "Write docs", todoTasks[0].Title)
	assert.Equal(suite.T(), 0, todoTasks[0].Position)
}

// TestUpdateTask_MoveWithoutIndexAppends tests a column change with no order
func (suite *TaskHandlerTestSuite) TestUpdateTask_MoveWithoutIndexAppends() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	todo := suite.createTestColumn(board.ID, "Todo", 0)
	doing := suite.createTestColumn(board.ID, "Doing", 1)

	task := suite.createTestTask(todo.ID, "Fix bug", 0)
	suite.createTestTask(doing.ID, "Ship", 0)

	requestBody := map[string]interface{}{
		"column_id": doing.ID,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), doing.ID, response.ColumnID)
	assert.Equal(suite.T(), 1, response.Order)
}

// TestUpdateTask_FailedMoveRollsBackFields tests that a combined field edit
// and move commits atomically: when the target column does not exist, the
// field changes are rolled back along with the move
func (suite *TaskHandlerTestSuite) TestUpdateTask_FailedMoveRollsBackFields() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	task := suite.createTestTask(column.ID, "Old Title", 0)

	requestBody := map[string]interface{}{
		"title":     "New Title",
		"column_id": 9999,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	assert.Equal(suite.T(), "Old Title", stored.Title)
	assert.Equal(suite.T(), column.ID, stored.ColumnID)
}

// TestUpdateTask_ClearDueDate tests that an explicit null due_date clears a
// previously set date
func (suite *TaskHandlerTestSuite) TestUpdateTask_ClearDueDate() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	task := suite.createTestTask(column.ID, "Task", 0)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", []byte(`{"due_date":"2026-03-01T12:00:00Z"}`), user.ID)
	suite.setTaskContext(c, *task)
	suite.handler.UpdateTask(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.DueDate)

	c, w = suite.createAuthContext("PATCH", "/api/tasks/1", []byte(`{"due_date":null}`), user.ID)
	suite.setTaskContext(c, stored)
	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), response.DueDate)

	// Read into a fresh struct: GORM leaves a reused destination field
	// untouched when the column is NULL.
	var cleared models.Task
	suite.Require().NoError(suite.db.First(&cleared, task.ID).Error)
	assert.Nil(suite.T(), cleared.DueDate)
}

// TestUpdateTask_EmptyBody tests an update without any fields
func (suite *TaskHandlerTestSuite) TestUpdateTask_EmptyBody() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)
	task := suite.createTestTask(column.ID, "Task", 0)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", []byte("{}"), user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestDeleteTask_Success tests that deletion renumbers the survivors
func (suite *TaskHandlerTestSuite) TestDeleteTask_Success() {
	user := suite.createTestUser("owner@example.com")
	board := suite.createTestBoard("Board", user.ID)
	column := suite.createTestColumn(board.ID, "Todo", 0)

	first := suite.createTestTask(column.ID, "First", 0)
	suite.createTestTask(column.ID, "Second", 1)
	suite.createTestTask(column.ID, "Third", 2)

	c, w := suite.createAuthContext("DELETE", "/api/tasks/1", nil, user.ID)
	suite.setTaskContext(c, *first)

	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// soft deleted
	var deleted models.Task
	err := suite.db.First(&deleted, first.ID).Error
	assert.Error(suite.T(), err)

	// survivors renumbered to 0..n-1
	var remaining []models.Task
	suite.db.Where("column_id = ?", column.ID).Order("position ASC, id ASC").Find(&remaining)
	suite.Require().Len(remaining, 2)
	assert.Equal(suite.T(), "Second", remaining[0].Title)
	assert.Equal(suite.T(), 0, remaining[0].Position)
	assert.Equal(suite.T(), "Third", remaining[1].Title)
	assert.Equal(suite.T(), 1, remaining[1].Position)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
