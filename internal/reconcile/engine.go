// Package reconcile implements the client-side optimistic mutation engine
// behind drag interactions and structural board edits. Hover events mutate an
// in-memory copy of the board immediately; releasing a drag persists only the
// final column reassignment. When a persistence call fails the engine throws
// its speculative state away and refetches ground truth; there is no partial
// rollback.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/konbon-dev/konbon-api/internal/models"
)

var (
	ErrNoActiveDrag = errors.New("no drag gesture in progress")
	ErrDragActive   = errors.New("drag gesture already in progress")
	ErrUnknownTask  = errors.New("task not present in board state")
)

// Gateway is the persistence contract the engine consumes. Implementations
// are expected to return lists already sorted by position then id.
type Gateway interface {
	Columns(ctx context.Context, boardID uint64) ([]models.Column, error)
	Tasks(ctx context.Context, boardID uint64) ([]models.Task, error)
	MoveTask(ctx context.Context, taskID, columnID uint64) error
	CreateColumn(ctx context.Context, boardID uint64, name string, position int) (*models.Column, error)
	RenameColumn(ctx context.Context, columnID uint64, name string) (*models.Column, error)
	DeleteColumn(ctx context.Context, columnID uint64) error
	CreateTask(ctx context.Context, task models.Task) (*models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID uint64) error
}

// DragState is the gesture state machine: Idle or Dragging.
type DragState int

const (
	Idle DragState = iota
	Dragging
)

// Engine holds one board's in-memory columns and tasks and applies user
// gestures to them optimistically. It is driven by a single event loop and is
// not safe for concurrent use.
type Engine struct {
	gw      Gateway
	boardID uint64

	columns []models.Column
	tasks   []models.Task

	state    DragState
	activeID uint64
	ghost    *models.Task
	hovered  bool
}

// NewEngine creates an engine for one board. Call Refresh before first use.
func NewEngine(gw Gateway, boardID uint64) *Engine {
	return &Engine{
		gw:      gw,
		boardID: boardID,
	}
}

// Refresh replaces the in-memory state with the authoritative lists from the
// gateway. It is both the initial load and the rollback mechanism.
func (e *Engine) Refresh(ctx context.Context) error {
	columns, err := e.gw.Columns(ctx, e.boardID)
	if err != nil {
		return fmt.Errorf("failed to fetch columns: %w", err)
	}
	tasks, err := e.gw.Tasks(ctx, e.boardID)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	e.columns = columns
	e.tasks = tasks
	return nil
}

// State returns the current gesture state.
func (e *Engine) State() DragState {
	return e.state
}

// Columns returns the current in-memory column list.
func (e *Engine) Columns() []models.Column {
	return e.columns
}

// Tasks returns the current in-memory task list in its speculative order.
func (e *Engine) Tasks() []models.Task {
	return e.tasks
}

// ColumnTasks returns the tasks currently assigned to a column, in list
// order.
func (e *Engine) ColumnTasks(columnID uint64) []models.Task {
	var tasks []models.Task
	for _, t := range e.tasks {
		if t.ColumnID == columnID {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Ghost returns the snapshot of the task picked up at drag start, for
// rendering a drag overlay. Nil while idle.
func (e *Engine) Ghost() *models.Task {
	return e.ghost
}

// BeginDrag starts a gesture on the given task.
func (e *Engine) BeginDrag(taskID uint64) error {
	if e.state == Dragging {
		return ErrDragActive
	}

	i := taskIndex(e.tasks, taskID)
	if i < 0 {
		return ErrUnknownTask
	}

	snapshot := e.tasks[i]
	e.state = Dragging
	e.activeID = taskID
	e.ghost = &snapshot
	e.hovered = false
	return nil
}

// DragOverTask records a hover over another task. Crossing into a different
// column reassigns the active task's column and splices it into the hovered
// task's position; within the same column it is a pure array move. Hovering
// over itself exits immediately.
func (e *Engine) DragOverTask(overID uint64) error {
	if e.state != Dragging {
		return ErrNoActiveDrag
	}
	if overID == e.activeID {
		return nil
	}

	activeIndex := taskIndex(e.tasks, e.activeID)
	overIndex := taskIndex(e.tasks, overID)
	if activeIndex < 0 || overIndex < 0 {
		return ErrUnknownTask
	}

	e.hovered = true

	if e.tasks[activeIndex].ColumnID != e.tasks[overIndex].ColumnID {
		e.tasks[activeIndex].ColumnID = e.tasks[overIndex].ColumnID
	}
	e.tasks = arrayMove(e.tasks, activeIndex, overIndex)
	return nil
}

// DragOverColumn records a hover over a column's empty area. Only the column
// reference changes; the numeric position is a same-index move.
func (e *Engine) DragOverColumn(columnID uint64) error {
	if e.state != Dragging {
		return ErrNoActiveDrag
	}

	activeIndex := taskIndex(e.tasks, e.activeID)
	if activeIndex < 0 {
		return ErrUnknownTask
	}

	e.hovered = true
	e.tasks[activeIndex].ColumnID = columnID
	e.tasks = arrayMove(e.tasks, activeIndex, activeIndex)
	return nil
}

// EndDrag releases the gesture. If at least one valid hover target was seen,
// exactly one persistence call is issued carrying the task's final column
// reference. A gateway failure triggers a full refetch that overwrites the
// speculative state, and the failure is returned to the caller.
func (e *Engine) EndDrag(ctx context.Context) error {
	if e.state != Dragging {
		return ErrNoActiveDrag
	}

	activeID := e.activeID
	hovered := e.hovered
	e.state = Idle
	e.activeID = 0
	e.ghost = nil
	e.hovered = false

	if !hovered {
		return nil
	}

	i := taskIndex(e.tasks, activeID)
	if i < 0 {
		return ErrUnknownTask
	}

	if err := e.gw.MoveTask(ctx, activeID, e.tasks[i].ColumnID); err != nil {
		if refreshErr := e.Refresh(ctx); refreshErr != nil {
			return errors.Join(err, refreshErr)
		}
		return fmt.Errorf("failed to persist move: %w", err)
	}
	return nil
}

// CancelDrag abandons the gesture without a persistence call. The speculative
// state stands until the next Refresh.
func (e *Engine) CancelDrag() {
	e.state = Idle
	e.activeID = 0
	e.ghost = nil
	e.hovered = false
}

// AddColumn creates a column at the end of the board and appends it to local
// state once the gateway confirms it.
func (e *Engine) AddColumn(ctx context.Context, name string) (*models.Column, error) {
	column, err := e.gw.CreateColumn(ctx, e.boardID, name, len(e.columns))
	if err != nil {
		return nil, err
	}
	e.columns = append(e.columns, *column)
	return column, nil
}

// RenameColumn applies the rename locally first, then persists it. On failure
// the error is surfaced; the caller decides whether to refetch.
func (e *Engine) RenameColumn(ctx context.Context, columnID uint64, name string) error {
	for i := range e.columns {
		if e.columns[i].ID == columnID {
			e.columns[i].Name = name
			break
		}
	}
	if _, err := e.gw.RenameColumn(ctx, columnID, name); err != nil {
		return err
	}
	return nil
}

// RemoveColumn drops the column and its tasks from local state, then
// persists the deletion.
func (e *Engine) RemoveColumn(ctx context.Context, columnID uint64) error {
	columns := e.columns[:0]
	for _, c := range e.columns {
		if c.ID != columnID {
			columns = append(columns, c)
		}
	}
	e.columns = columns

	tasks := e.tasks[:0]
	for _, t := range e.tasks {
		if t.ColumnID != columnID {
			tasks = append(tasks, t)
		}
	}
	e.tasks = tasks

	return e.gw.DeleteColumn(ctx, columnID)
}

// AddTask creates a task at the end of a column and appends it to local
// state once the gateway confirms it.
func (e *Engine) AddTask(ctx context.Context, task models.Task) (*models.Task, error) {
	task.Position = len(e.ColumnTasks(task.ColumnID))
	created, err := e.gw.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	e.tasks = append(e.tasks, *created)
	return created, nil
}

// UpdateTask replaces the task locally, then persists it.
func (e *Engine) UpdateTask(ctx context.Context, task models.Task) error {
	if i := taskIndex(e.tasks, task.ID); i >= 0 {
		e.tasks[i] = task
	}
	if _, err := e.gw.UpdateTask(ctx, task); err != nil {
		return err
	}
	return nil
}

// RemoveTask drops the task from local state, then persists the deletion.
func (e *Engine) RemoveTask(ctx context.Context, taskID uint64) error {
	if i := taskIndex(e.tasks, taskID); i >= 0 {
		e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
	}
	return e.gw.DeleteTask(ctx, taskID)
}
