package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Label is a colored tag attached to a task.
type Label struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Subtask is a checklist entry inside a task.
type Subtask struct {
	ID   uint64 `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// MemberRef is a snapshot of an assigned user. It is denormalized on purpose:
// assignment survives profile renames, and the working-member visibility check
// only needs the id.
type MemberRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	ColumnID    uint64         `gorm:"not null;index" json:"column_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Position    int            `gorm:"not null;default:0" json:"order"`
	Labels      string         `gorm:"type:text;default:'[]'" json:"labels"`
	Subtasks    string         `gorm:"type:text;default:'[]'" json:"subtasks"`
	Members     string         `gorm:"type:text;default:'[]'" json:"members"`
	MemberCount int            `gorm:"not null;default:0" json:"member_count"`
	DueDate     *time.Time     `gorm:"type:date" json:"due_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Column Column `gorm:"foreignKey:ColumnID" json:"column,omitempty"`
}

// DecodedLabels parses the labels JSON. Malformed data decodes to an empty
// slice instead of failing the whole read.
func (t *Task) DecodedLabels() []Label {
	var labels []Label
	if err := json.Unmarshal([]byte(t.Labels), &labels); err != nil {
		return []Label{}
	}
	return labels
}

// DecodedSubtasks parses the subtasks JSON, falling back to empty on error.
func (t *Task) DecodedSubtasks() []Subtask {
	var subtasks []Subtask
	if err := json.Unmarshal([]byte(t.Subtasks), &subtasks); err != nil {
		return []Subtask{}
	}
	return subtasks
}

// DecodedMembers parses the assigned-member snapshots, falling back to empty
// on error.
func (t *Task) DecodedMembers() []MemberRef {
	var members []MemberRef
	if err := json.Unmarshal([]byte(t.Members), &members); err != nil {
		return []MemberRef{}
	}
	return members
}

// SetMembers replaces the assigned-member set. Duplicates are dropped and
// MemberCount is recomputed in the same step so the cache can never drift
// from the set it summarizes.
func (t *Task) SetMembers(members []MemberRef) error {
	seen := make(map[uint64]struct{}, len(members))
	deduped := make([]MemberRef, 0, len(members))
	for _, m := range members {
		if _, exists := seen[m.ID]; exists {
			continue
		}
		seen[m.ID] = struct{}{}
		deduped = append(deduped, m)
	}

	encoded, err := json.Marshal(deduped)
	if err != nil {
		return err
	}

	t.Members = string(encoded)
	t.MemberCount = len(deduped)
	return nil
}

// HasMember reports whether the user appears in the assigned-member set.
func (t *Task) HasMember(userID uint64) bool {
	for _, m := range t.DecodedMembers() {
		if m.ID == userID {
			return true
		}
	}
	return false
}
