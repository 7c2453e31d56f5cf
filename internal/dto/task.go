package dto

import (
	"time"

	"github.com/obradorsoft/hornada/internal/entity"
	"github.com/obradorsoft/hornada/internal/service/task"
)

// TaskResponse represents a task as exposed via transport layers.
type TaskResponse struct {
	ID             string           `json:"id"`
	OrderID        string           `json:"order_id"`
	State          entity.TaskState `json:"state"`
	AssignedUserID *string          `json:"assigned_user_id,omitempty"`
	AssignedUser   *NamedRef        `json:"assigned_user,omitempty"`
	Order          *OrderResponse   `json:"order,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewTaskResponse maps a task entity onto its transport shape.
func NewTaskResponse(t *entity.Task) TaskResponse {
	resp := TaskResponse{
		ID:             t.ID,
		OrderID:        t.OrderID,
		State:          t.State,
		AssignedUserID: t.AssignedUserID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.AssignedUser != nil {
		resp.AssignedUser = &NamedRef{ID: t.AssignedUser.ID, Name: t.AssignedUser.Name}
	}
	if t.Order != nil {
		order := NewOrderResponse(t.Order)
		resp.Order = &order
	}
	return resp
}

// UserResponse represents a directory user on the wire.
type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  entity.Role `json:"role"`
}

// NewUserResponse maps a user entity onto its transport shape.
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// CommentResponse represents a task comment on the wire.
type CommentResponse struct {
	ID       string             `json:"id"`
	TaskID   string             `json:"task_id"`
	AuthorID string             `json:"author_id"`
	Text     string             `json:"text"`
	Kind     entity.CommentKind `json:"kind"`
	At       time.Time          `json:"at"`
}

// NewCommentResponse maps a comment entity onto its transport shape.
func NewCommentResponse(c *entity.TaskComment) CommentResponse {
	return CommentResponse{
		ID:       c.ID,
		TaskID:   c.TaskID,
		AuthorID: c.AuthorID,
		Text:     c.Text,
		Kind:     c.Kind,
		At:       c.At,
	}
}

// StateChangeResponse represents one state-history record on the wire.
type StateChangeResponse struct {
	ID            string            `json:"id"`
	TaskID        string            `json:"task_id"`
	PreviousState *entity.TaskState `json:"previous_state,omitempty"`
	NewState      entity.TaskState  `json:"new_state"`
	UserID        string            `json:"user_id"`
	Comment       *string           `json:"comment,omitempty"`
	At            time.Time         `json:"at"`
}

// ActivityEvent is one entry of the merged audit feed, tagged by kind.
type ActivityEvent struct {
	Type        string               `json:"type"`
	At          time.Time            `json:"at"`
	UserID      string               `json:"user_id"`
	StateChange *StateChangeResponse `json:"state_change,omitempty"`
	Comment     *CommentResponse     `json:"comment,omitempty"`
}

// NewActivityEvents maps a service history feed onto the wire shape.
func NewActivityEvents(events []task.Event) []ActivityEvent {
	out := make([]ActivityEvent, 0, len(events))
	for _, ev := range events {
		item := ActivityEvent{Type: ev.Type, At: ev.At, UserID: ev.UserID}
		if ev.StateChange != nil {
			item.StateChange = &StateChangeResponse{
				ID:            ev.StateChange.ID,
				TaskID:        ev.StateChange.TaskID,
				PreviousState: ev.StateChange.PreviousState,
				NewState:      ev.StateChange.NewState,
				UserID:        ev.StateChange.UserID,
				Comment:       ev.StateChange.Comment,
				At:            ev.StateChange.At,
			}
		}
		if ev.Comment != nil {
			comment := NewCommentResponse(ev.Comment)
			item.Comment = &comment
		}
		out = append(out, item)
	}
	return out
}
