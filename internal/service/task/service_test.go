package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/entity"
	directoryrepo "github.com/obradorsoft/hornada/internal/repository/directory"
	repo "github.com/obradorsoft/hornada/internal/repository/task"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeStore struct {
	tasks    map[string]*entity.Task
	changes  []entity.StateChange
	comments []entity.TaskComment
}

func newFakeStore(tasks ...*entity.Task) *fakeStore {
	f := &fakeStore{tasks: map[string]*entity.Task{}}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return f
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return task, nil
}

func (f *fakeStore) List(ctx context.Context, filter repo.Filter) ([]entity.Task, error) {
	out := make([]entity.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, task *entity.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return repo.ErrNotFound
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeStore) InsertStateChange(ctx context.Context, change *entity.StateChange) error {
	f.changes = append(f.changes, *change)
	return nil
}

func (f *fakeStore) InsertComment(ctx context.Context, comment *entity.TaskComment) error {
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeStore) StateChanges(ctx context.Context, taskID string, limit int) ([]entity.StateChange, error) {
	out := make([]entity.StateChange, 0, len(f.changes))
	for i := len(f.changes) - 1; i >= 0; i-- {
		if f.changes[i].TaskID != taskID {
			continue
		}
		out = append(out, f.changes[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Comments(ctx context.Context, taskID string, limit int) ([]entity.TaskComment, error) {
	out := make([]entity.TaskComment, 0, len(f.comments))
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].TaskID != taskID {
			continue
		}
		out = append(out, f.comments[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeUsers struct {
	known map[string]*entity.User
}

func (f *fakeUsers) UserByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := f.known[id]
	if !ok {
		return nil, directoryrepo.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) UsersByRole(ctx context.Context, role entity.Role) ([]entity.User, error) {
	out := make([]entity.User, 0, len(f.known))
	for _, u := range f.known {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.Local)
}

func newTestService(store *fakeStore, now time.Time) *Service {
	return &Service{
		store: store,
		users: &fakeUsers{known: map[string]*entity.User{
			"baker-1": {ID: "baker-1", Name: "Maestro Panadero", Role: entity.RoleProduction},
			"clerk-1": {ID: "clerk-1", Name: "Asistente", Role: entity.RoleAssistant},
		}},
		clock:       fixedClock{t: now},
		transitions: PermissiveTransitions,
		logger:      zap.NewNop(),
	}
}

func openTask(id string) *entity.Task {
	return &entity.Task{ID: id, OrderID: "order-" + id, State: entity.TaskOpen}
}

func TestChangeStateAppendsHistory(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	updated, err := svc.ChangeState(context.Background(), "t1", entity.TaskInProcess, nil, "user-1", entity.RoleProduction)
	require.NoError(t, err)

	assert.Equal(t, entity.TaskInProcess, updated.State)
	require.Len(t, store.changes, 1)
	change := store.changes[0]
	require.NotNil(t, change.PreviousState)
	assert.Equal(t, entity.TaskOpen, *change.PreviousState)
	assert.Equal(t, entity.TaskInProcess, change.NewState)
	assert.Equal(t, "user-1", change.UserID)
}

func TestChangeStateAllowsJumps(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.ChangeState(context.Background(), "t1", entity.TaskLogistics, nil, "user-1", entity.RoleProduction)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskLogistics, store.tasks["t1"].State)
}

func TestChangeStateRejectsDelivered(t *testing.T) {
	task := openTask("t1")
	task.State = entity.TaskDelivered
	store := newFakeStore(task)
	svc := newTestService(store, at(9, 0))

	_, err := svc.ChangeState(context.Background(), "t1", entity.TaskOpen, nil, "user-1", entity.RoleAdmin)
	assert.ErrorContains(t, err, "delivered")
	assert.Empty(t, store.changes)
}

func TestChangeStateRejectsCancelled(t *testing.T) {
	task := openTask("t1")
	task.State = entity.TaskCancelled
	store := newFakeStore(task)
	svc := newTestService(store, at(9, 0))

	_, err := svc.ChangeState(context.Background(), "t1", entity.TaskInProcess, nil, "user-1", entity.RoleAdmin)
	assert.ErrorContains(t, err, "cancelled")
}

func TestChangeStateEditWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		role    entity.Role
		wantErr bool
	}{
		{"production inside window", at(6, 0), entity.RoleProduction, false},
		{"production at close", at(11, 30), entity.RoleProduction, false},
		{"production before open", at(5, 59), entity.RoleProduction, true},
		{"assistant after close", at(11, 31), entity.RoleAssistant, true},
		{"admin after close", at(23, 0), entity.RoleAdmin, false},
		{"admin before open", at(3, 0), entity.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(openTask("t1"))
			svc := newTestService(store, tt.now)

			_, err := svc.ChangeState(context.Background(), "t1", entity.TaskInProcess, nil, "user-1", tt.role)
			if tt.wantErr {
				assert.ErrorContains(t, err, "06:00 and 11:30")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChangeStateUnknownState(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.ChangeState(context.Background(), "t1", entity.TaskState("HORNEANDO"), nil, "user-1", entity.RoleAdmin)
	assert.ErrorContains(t, err, "unknown task state")
}

func TestCancelIgnoresEditWindow(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(23, 0))

	cancelled, err := svc.Cancel(context.Background(), "t1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, entity.TaskCancelled, cancelled.State)
	require.Len(t, store.changes, 1)
	assert.Equal(t, entity.TaskCancelled, store.changes[0].NewState)
}

func TestCancelRejectsDelivered(t *testing.T) {
	task := openTask("t1")
	task.State = entity.TaskDelivered
	store := newFakeStore(task)
	svc := newTestService(store, at(9, 0))

	_, err := svc.Cancel(context.Background(), "t1", "user-1")
	assert.ErrorContains(t, err, "delivered")
}

func TestCancelRejectsAlreadyCancelled(t *testing.T) {
	task := openTask("t1")
	task.State = entity.TaskCancelled
	store := newFakeStore(task)
	svc := newTestService(store, at(9, 0))

	_, err := svc.Cancel(context.Background(), "t1", "user-1")
	assert.ErrorContains(t, err, "already cancelled")
}

func TestAssignToProductionUser(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	assigned, err := svc.Assign(context.Background(), "t1", "baker-1", "admin-1")
	require.NoError(t, err)

	require.NotNil(t, assigned.AssignedUserID)
	assert.Equal(t, "baker-1", *assigned.AssignedUserID)
	require.Len(t, store.comments, 1)
	assert.Equal(t, "Tarea asignada a Maestro Panadero", store.comments[0].Text)
	assert.Equal(t, "admin-1", store.comments[0].AuthorID)
	assert.Equal(t, entity.CommentGeneral, store.comments[0].Kind)
}

func TestAssignRejectsNonProductionUser(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.Assign(context.Background(), "t1", "clerk-1", "admin-1")
	assert.ErrorContains(t, err, "PRODUCCION")
	assert.Empty(t, store.comments)
}

func TestAssignRejectsUnknownUser(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.Assign(context.Background(), "t1", "nobody", "admin-1")
	assert.ErrorContains(t, err, "user not found")
}

func TestAssigneesListsProductionUsers(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	assignees, err := svc.Assignees(context.Background())
	require.NoError(t, err)

	require.Len(t, assignees, 1)
	assert.Equal(t, "baker-1", assignees[0].ID)
}

func TestAddCommentDefaultsKind(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	comment, err := svc.AddComment(context.Background(), "t1", "masa lista", "", "user-1")
	require.NoError(t, err)

	assert.Equal(t, entity.CommentGeneral, comment.Kind)
	assert.Equal(t, "masa lista", comment.Text)
	require.Len(t, store.comments, 1)
}

func TestAddCommentRejectsEmptyText(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.AddComment(context.Background(), "t1", "", entity.CommentGeneral, "user-1")
	assert.ErrorContains(t, err, "required")
}

func TestAddCommentRejectsUnknownKind(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.AddComment(context.Background(), "t1", "hola", entity.CommentKind("URGENTE"), "user-1")
	assert.ErrorContains(t, err, "unknown comment kind")
}

func TestHistoryMergesAndOrders(t *testing.T) {
	store := newFakeStore(openTask("t1"))
	svc := newTestService(store, at(9, 0))

	_, err := svc.ChangeState(context.Background(), "t1", entity.TaskInProcess, nil, "user-1", entity.RoleProduction)
	require.NoError(t, err)

	later := newTestService(store, at(9, 30))
	_, err = later.AddComment(context.Background(), "t1", "en el horno", entity.CommentGeneral, "user-2")
	require.NoError(t, err)

	events, err := svc.FullHistory(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventComment, events[0].Type)
	assert.Equal(t, "user-2", events[0].UserID)
	assert.Equal(t, EventHistory, events[1].Type)
	assert.Equal(t, "user-1", events[1].UserID)
	assert.True(t, events[0].At.After(events[1].At))
}

func TestRecentActivityLimitsPerKind(t *testing.T) {
	store := newFakeStore(openTask("t1"))

	for i := 0; i < 8; i++ {
		svc := newTestService(store, at(9, i))
		_, err := svc.AddComment(context.Background(), "t1", "nota", entity.CommentGeneral, "user-1")
		require.NoError(t, err)
	}

	svc := newTestService(store, at(10, 0))
	events, err := svc.RecentActivity(context.Background(), "t1")
	require.NoError(t, err)

	assert.Len(t, events, 5)
	for _, ev := range events {
		assert.Equal(t, EventComment, ev.Type)
	}
}

func TestHistoryUnknownTask(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	_, err := svc.FullHistory(context.Background(), "missing")
	assert.ErrorContains(t, err, "task not found")
}
