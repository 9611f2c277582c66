package reconcile

import "github.com/konbon-dev/konbon-api/internal/models"

// arrayMove removes the task at from and reinserts it at to, preserving the
// relative order of every other task. Out-of-range indexes are clamped.
// A same-index move returns an unchanged copy; callers still use it when only
// the column reference changed, because the splice itself is the no-op, not
// the gesture.
func arrayMove(tasks []models.Task, from, to int) []models.Task {
	result := make([]models.Task, len(tasks))
	copy(result, tasks)

	if len(result) == 0 {
		return result
	}
	if from < 0 || from >= len(result) {
		return result
	}
	if to < 0 {
		to = 0
	}
	if to >= len(result) {
		to = len(result) - 1
	}
	if from == to {
		return result
	}

	moved := result[from]
	result = append(result[:from], result[from+1:]...)

	result = append(result, models.Task{})
	copy(result[to+1:], result[to:])
	result[to] = moved

	return result
}

func taskIndex(tasks []models.Task, id uint64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
