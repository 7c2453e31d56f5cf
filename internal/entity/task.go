package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// TaskState is the production workflow state of a task. Values are the
// wire strings the kanban board and reports filter on.
type TaskState string

const (
	TaskOpen      TaskState = "ABIERTO"
	TaskInProcess TaskState = "EN_PROCESO"
	TaskWaiting   TaskState = "EN_ESPERA"
	TaskPackaging TaskState = "EMBALAJE"
	TaskLogistics TaskState = "LOGISTICA"
	TaskDelivered TaskState = "ENTREGADO"
	TaskCancelled TaskState = "CANCELADO"
)

// Valid reports whether s is a known task state.
func (s TaskState) Valid() bool {
	switch s {
	case TaskOpen, TaskInProcess, TaskWaiting, TaskPackaging, TaskLogistics, TaskDelivered, TaskCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s TaskState) Terminal() bool {
	return s == TaskDelivered || s == TaskCancelled
}

// CommentKind classifies a task comment.
type CommentKind string

const (
	CommentGeneral CommentKind = "GENERAL"
	CommentWaiting CommentKind = "ESPERA"
	CommentProblem CommentKind = "PROBLEMA"
)

// Valid reports whether k is a known comment kind.
func (k CommentKind) Valid() bool {
	switch k {
	case CommentGeneral, CommentWaiting, CommentProblem:
		return true
	}
	return false
}

// Task is the production workflow instance bound 1:1 to an order. It
// is created the instant its order is created and lives until a
// terminal state, or is removed together with a still-open order.
type Task struct {
	bun.BaseModel `bun:"table:tasks"`

	ID             string    `bun:",pk"`
	OrderID        string    `bun:"order_id,notnull,unique"`
	State          TaskState `bun:"state,notnull"`
	AssignedUserID *string   `bun:"assigned_user_id"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero"`

	Order        *Order `bun:"rel:belongs-to,join:order_id=id"`
	AssignedUser *User  `bun:"rel:belongs-to,join:assigned_user_id=id"`
}

// StateChange is one append-only entry in a task's state history.
// PreviousState is nil for the creation event.
type StateChange struct {
	bun.BaseModel `bun:"table:task_state_changes"`

	ID            string     `bun:",pk"`
	TaskID        string     `bun:"task_id,notnull"`
	PreviousState *TaskState `bun:"previous_state"`
	NewState      TaskState  `bun:"new_state,notnull"`
	UserID        string     `bun:"user_id,notnull"`
	Comment       *string    `bun:"comment"`
	At            time.Time  `bun:"at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// TaskComment is an append-only user note on a task.
type TaskComment struct {
	bun.BaseModel `bun:"table:task_comments"`

	ID       string      `bun:",pk"`
	TaskID   string      `bun:"task_id,notnull"`
	AuthorID string      `bun:"author_id,notnull"`
	Text     string      `bun:"text,notnull"`
	Kind     CommentKind `bun:"kind,notnull"`
	At       time.Time   `bun:"at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
