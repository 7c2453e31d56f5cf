package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obradorsoft/hornada/internal/database"
	"github.com/obradorsoft/hornada/internal/entity"
)

var repoTracer = otel.Tracer("github.com/obradorsoft/hornada/repository/task")

// ErrNotFound is returned when a task is missing.
var ErrNotFound = errors.New("task not found")

// Filter narrows task listings.
type Filter struct {
	State      entity.TaskState
	AssigneeID string
	RouteID    string
	Date       *time.Time
}

// Repository encapsulates read/write access for tasks and their
// append-only history.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetByID fetches a task with its order context and assignee.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.GetByID", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	task := new(entity.Task)
	err := r.reader.NewSelect().Model(task).
		Relation("Order").
		Relation("Order.Branch").
		Relation("Order.Branch.Client").
		Relation("Order.Branch.Route").
		Relation("AssignedUser").
		Where("task.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return task, nil
}

// List returns tasks matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]entity.Task, error) {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.List")
	defer span.End()

	var tasks []entity.Task
	q := r.reader.NewSelect().Model(&tasks).
		Relation("Order").
		Relation("Order.Branch").
		Relation("Order.Branch.Client").
		Relation("Order.Branch.Route").
		Relation("AssignedUser").
		Order("task.created_at DESC")

	if f.State != "" {
		q = q.Where("task.state = ?", f.State)
	}
	if f.AssigneeID != "" {
		q = q.Where("task.assigned_user_id = ?", f.AssigneeID)
	}
	if f.RouteID != "" {
		q = q.Where("task.order_id IN (SELECT o.id FROM orders o JOIN branches b ON b.id = o.branch_id WHERE b.route_id = ?)", f.RouteID)
	}
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		q = q.Where("task.order_id IN (SELECT id FROM orders WHERE production_date >= ? AND production_date < ?)", day, day.AddDate(0, 0, 1))
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tasks, nil
}

// Update persists the task's state and assignee.
func (r *Repository) Update(ctx context.Context, task *entity.Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	ctx, span := repoTracer.Start(ctx, "TaskRepository.Update", trace.WithAttributes(
		attribute.String("task.id", task.ID),
		attribute.String("task.state", string(task.State)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(task).
		Column("state", "assigned_user_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertStateChange appends one state-history record.
func (r *Repository) InsertStateChange(ctx context.Context, change *entity.StateChange) error {
	if change == nil {
		return errors.New("nil state change")
	}
	ctx, span := repoTracer.Start(ctx, "TaskRepository.InsertStateChange", trace.WithAttributes(attribute.String("task.id", change.TaskID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(change).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// InsertComment appends one comment record.
func (r *Repository) InsertComment(ctx context.Context, comment *entity.TaskComment) error {
	if comment == nil {
		return errors.New("nil comment")
	}
	ctx, span := repoTracer.Start(ctx, "TaskRepository.InsertComment", trace.WithAttributes(attribute.String("task.id", comment.TaskID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(comment).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// StateChanges returns a task's state history, newest first. A limit
// of zero returns everything.
func (r *Repository) StateChanges(ctx context.Context, taskID string, limit int) ([]entity.StateChange, error) {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.StateChanges", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	var changes []entity.StateChange
	q := r.reader.NewSelect().Model(&changes).
		Where("task_id = ?", taskID).
		Order("at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return changes, nil
}

// Comments returns a task's comments, newest first. A limit of zero
// returns everything.
func (r *Repository) Comments(ctx context.Context, taskID string, limit int) ([]entity.TaskComment, error) {
	ctx, span := repoTracer.Start(ctx, "TaskRepository.Comments", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	var comments []entity.TaskComment
	q := r.reader.NewSelect().Model(&comments).
		Where("task_id = ?", taskID).
		Order("at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return comments, nil
}
