package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/config"
	"github.com/obradorsoft/hornada/internal/entity"
	"github.com/obradorsoft/hornada/internal/messaging"
	directoryrepo "github.com/obradorsoft/hornada/internal/repository/directory"
	repo "github.com/obradorsoft/hornada/internal/repository/task"
	"github.com/obradorsoft/hornada/internal/timepolicy"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/obradorsoft/hornada/service/task")

// recentLimit bounds the per-kind record count in the quick view.
const recentLimit = 5

// store is the persistence surface the service needs from the task
// repository. Kept narrow so tests can substitute an in-memory fake.
type store interface {
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	List(ctx context.Context, f repo.Filter) ([]entity.Task, error)
	Update(ctx context.Context, task *entity.Task) error
	InsertStateChange(ctx context.Context, change *entity.StateChange) error
	InsertComment(ctx context.Context, comment *entity.TaskComment) error
	StateChanges(ctx context.Context, taskID string, limit int) ([]entity.StateChange, error)
	Comments(ctx context.Context, taskID string, limit int) ([]entity.TaskComment, error)
}

// users resolves assignment targets against the user directory.
type users interface {
	UserByID(ctx context.Context, id string) (*entity.User, error)
	UsersByRole(ctx context.Context, role entity.Role) ([]entity.User, error)
}

// TransitionPolicy decides whether a state jump is allowed beyond the
// terminal and role/time gates the engine always enforces. The default
// permits any jump, matching the kanban's drag-anywhere behavior; a
// stricter adjacency graph can be swapped in here.
type TransitionPolicy func(from, to entity.TaskState) error

// PermissiveTransitions allows every non-terminal jump.
func PermissiveTransitions(entity.TaskState, entity.TaskState) error { return nil }

// Filter re-exports the repository listing filter.
type Filter = repo.Filter

// Event is one entry of the merged audit feed.
type Event struct {
	Type        string              `json:"type"`
	At          time.Time           `json:"at"`
	UserID      string              `json:"user_id"`
	StateChange *entity.StateChange `json:"state_change,omitempty"`
	Comment     *entity.TaskComment `json:"comment,omitempty"`
}

// Feed tags for Event.Type.
const (
	EventHistory = "historial"
	EventComment = "comentario"
)

// Service runs the task state machine and owns the append-only audit
// trail behind it.
type Service struct {
	store       store
	users       users
	clock       timepolicy.Clock
	transitions TransitionPolicy
	logger      *zap.Logger
	publisher   messaging.Client
	messaging   messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Directory  *directoryrepo.Repository
	Clock      timepolicy.Clock
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:       p.Repository,
		users:       p.Directory,
		clock:       p.Clock,
		transitions: PermissiveTransitions,
		logger:      p.Logger,
		publisher:   p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Get retrieves a task with its order context.
func (s *Service) Get(ctx context.Context, id string) (*entity.Task, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.Get", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("task not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load task", errorbank.WithCause(err))
	}
	return task, nil
}

// List returns tasks matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]entity.Task, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.List")
	defer span.End()

	if f.State != "" && !f.State.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown task state %q", f.State))
	}
	tasks, err := s.store.List(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list tasks", errorbank.WithCause(err))
	}
	return tasks, nil
}

// ChangeState moves a task to newState after the terminal, role/time,
// and transition-policy gates pass. Every successful move appends one
// state-history record.
func (s *Service) ChangeState(ctx context.Context, id string, newState entity.TaskState, comment *string, userID string, role entity.Role) (*entity.Task, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.ChangeState", trace.WithAttributes(
		attribute.String("task.id", id),
		attribute.String("task.new_state", string(newState)),
	))
	defer span.End()

	if !newState.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown task state %q", newState))
	}

	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("task not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load task", errorbank.WithCause(err))
	}

	if task.State == entity.TaskDelivered {
		return nil, errorbank.BadRequest("cannot change the state of a task that was already delivered")
	}
	if task.State == entity.TaskCancelled && newState != entity.TaskCancelled {
		return nil, errorbank.BadRequest("cannot change the state of a cancelled task")
	}

	now := s.clock.Now()
	if !timepolicy.CanEditTask(now, role) {
		return nil, errorbank.Forbidden(fmt.Sprintf(
			"role %s may not edit tasks at %s; ASISTENTE and PRODUCCION edit between 06:00 and 11:30",
			role, now.Format("15:04"),
		))
	}

	if err := s.transitions(task.State, newState); err != nil {
		return nil, errorbank.BadRequest(err.Error())
	}

	previous := task.State
	task.State = newState
	task.UpdatedAt = now
	if err := s.store.Update(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update task", errorbank.WithCause(err))
	}

	s.appendStateChange(ctx, task, previous, newState, userID, comment, now)
	s.publishStateChanged(ctx, task, previous, userID, now)
	return task, nil
}

// Cancel moves a task to CANCELADO regardless of the edit window. Used
// by the explicit cancel action rather than the kanban drag.
func (s *Service) Cancel(ctx context.Context, id, userID string) (*entity.Task, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.Cancel", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("task not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load task", errorbank.WithCause(err))
	}

	if task.State == entity.TaskDelivered {
		return nil, errorbank.BadRequest("cannot cancel a task that was already delivered")
	}
	if task.State == entity.TaskCancelled {
		return nil, errorbank.BadRequest("task is already cancelled")
	}

	now := s.clock.Now()
	previous := task.State
	task.State = entity.TaskCancelled
	task.UpdatedAt = now
	if err := s.store.Update(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to cancel task", errorbank.WithCause(err))
	}

	s.appendStateChange(ctx, task, previous, entity.TaskCancelled, userID, nil, now)
	s.publishStateChanged(ctx, task, previous, userID, now)
	return task, nil
}

// Assign binds a task to a PRODUCCION user and records the assignment
// as a general comment authored by the acting user.
func (s *Service) Assign(ctx context.Context, id, targetUserID, actorID string) (*entity.Task, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.Assign", trace.WithAttributes(
		attribute.String("task.id", id),
		attribute.String("task.assignee_id", targetUserID),
	))
	defer span.End()

	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("task not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load task", errorbank.WithCause(err))
	}

	user, err := s.users.UserByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, directoryrepo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to resolve user", errorbank.WithCause(err))
	}
	if user.Role != entity.RoleProduction {
		return nil, errorbank.BadRequest("tasks can only be assigned to PRODUCCION users")
	}

	now := s.clock.Now()
	task.AssignedUserID = &user.ID
	task.UpdatedAt = now
	if err := s.store.Update(ctx, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to assign task", errorbank.WithCause(err))
	}
	task.AssignedUser = user

	note := &entity.TaskComment{
		ID:       uuid.NewString(),
		TaskID:   task.ID,
		AuthorID: actorID,
		Text:     fmt.Sprintf("Tarea asignada a %s", user.Name),
		Kind:     entity.CommentGeneral,
		At:       now,
	}
	if err := s.store.InsertComment(ctx, note); err != nil {
		s.logger.Error("record assignment comment", zap.String("task_id", task.ID), zap.Error(err))
	}

	return task, nil
}

// Assignees lists the PRODUCCION users a task can be assigned to.
func (s *Service) Assignees(ctx context.Context) ([]entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.Assignees")
	defer span.End()

	assignees, err := s.users.UsersByRole(ctx, entity.RoleProduction)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list assignees", errorbank.WithCause(err))
	}
	return assignees, nil
}

// AddComment appends a user comment to the task's audit trail.
func (s *Service) AddComment(ctx context.Context, id, text string, kind entity.CommentKind, authorID string) (*entity.TaskComment, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.AddComment", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	if text == "" {
		return nil, errorbank.BadRequest("comment text is required")
	}
	if kind == "" {
		kind = entity.CommentGeneral
	}
	if !kind.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown comment kind %q", kind))
	}

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("task not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load task", errorbank.WithCause(err))
	}

	comment := &entity.TaskComment{
		ID:       uuid.NewString(),
		TaskID:   id,
		AuthorID: authorID,
		Text:     text,
		Kind:     kind,
		At:       s.clock.Now(),
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to add comment", errorbank.WithCause(err))
	}
	return comment, nil
}

// RecentActivity merges the latest state changes and comments into one
// feed for the quick view.
func (s *Service) RecentActivity(ctx context.Context, id string) ([]Event, error) {
	return s.history(ctx, id, recentLimit)
}

// FullHistory merges every state change and comment into the complete
// audit view.
func (s *Service) FullHistory(ctx context.Context, id string) ([]Event, error) {
	return s.history(ctx, id, 0)
}

func (s *Service) history(ctx context.Context, id string, limit int) ([]Event, error) {
	ctx, span := serviceTracer.Start(ctx, "TaskService.History", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("task not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load task", errorbank.WithCause(err))
	}

	changes, err := s.store.StateChanges(ctx, id, limit)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load state history", errorbank.WithCause(err))
	}
	comments, err := s.store.Comments(ctx, id, limit)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load comments", errorbank.WithCause(err))
	}

	events := make([]Event, 0, len(changes)+len(comments))
	for i := range changes {
		c := changes[i]
		events = append(events, Event{Type: EventHistory, At: c.At, UserID: c.UserID, StateChange: &c})
	}
	for i := range comments {
		c := comments[i]
		events = append(events, Event{Type: EventComment, At: c.At, UserID: c.AuthorID, Comment: &c})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})
	return events, nil
}

func (s *Service) appendStateChange(ctx context.Context, task *entity.Task, previous, next entity.TaskState, userID string, comment *string, at time.Time) {
	change := &entity.StateChange{
		ID:            uuid.NewString(),
		TaskID:        task.ID,
		PreviousState: &previous,
		NewState:      next,
		UserID:        userID,
		Comment:       comment,
		At:            at,
	}
	if err := s.store.InsertStateChange(ctx, change); err != nil {
		s.logger.Error("record state change", zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (s *Service) publishStateChanged(ctx context.Context, task *entity.Task, previous entity.TaskState, userID string, at time.Time) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := TaskStateChangedEvent{
		TaskID:        task.ID,
		OrderID:       task.OrderID,
		PreviousState: previous,
		NewState:      task.State,
		UserID:        userID,
		At:            at,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal task state changed", zap.Error(err))
		return
	}
	payload, err := json.Marshal(messaging.Envelope{Type: messaging.EventTaskStateChanged, Payload: raw})
	if err != nil {
		s.logger.Error("marshal task state changed", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("task-%s", task.ID)), payload); err != nil {
		s.logger.Error("publish task state changed", zap.Error(err))
	}
}

// TaskStateChangedEvent is emitted after every successful transition.
type TaskStateChangedEvent struct {
	TaskID        string           `json:"task_id"`
	OrderID       string           `json:"order_id"`
	PreviousState entity.TaskState `json:"previous_state"`
	NewState      entity.TaskState `json:"new_state"`
	UserID        string           `json:"user_id"`
	At            time.Time        `json:"at"`
}
