package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/entity"
	catalogrepo "github.com/obradorsoft/hornada/internal/repository/catalog"
	repo "github.com/obradorsoft/hornada/internal/repository/order"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeStore struct {
	orders  map[string]*entity.Order
	tasks   map[string]*entity.Task
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: map[string]*entity.Order{},
		tasks:  map[string]*entity.Task{},
	}
}

func (f *fakeStore) Create(ctx context.Context, order *entity.Order, task *entity.Task) error {
	f.orders[order.ID] = order
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return order, nil
}

func (f *fakeStore) List(ctx context.Context, filter repo.Filter) ([]entity.Order, error) {
	out := make([]entity.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, order *entity.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return repo.ErrNotFound
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.orders[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeBranches struct {
	known map[string]*entity.Branch
}

func (f *fakeBranches) BranchByID(ctx context.Context, id string) (*entity.Branch, error) {
	branch, ok := f.known[id]
	if !ok {
		return nil, catalogrepo.ErrNotFound
	}
	return branch, nil
}

func newTestService(store *fakeStore, now time.Time) *Service {
	return &Service{
		store: store,
		branches: &fakeBranches{known: map[string]*entity.Branch{
			"branch-1": {ID: "branch-1", Name: "Casa Matriz"},
		}},
		clock:  fixedClock{t: now},
		logger: zap.NewNop(),
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.Local)
}

func items(pairs ...entity.LineItem) []entity.LineItem { return pairs }

func TestCreateComputesTotal(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID: "branch-1",
		LineItems: items(
			entity.LineItem{Product: "Pan Integral", Quantity: 3, UnitPrice: decimal.NewFromInt(4500)},
			entity.LineItem{Product: "Baguette", Quantity: 2, UnitPrice: decimal.NewFromInt(6000)},
		),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(25500)),
		"got total %s", order.TotalAmount)
}

func TestCreateSchedulesSameDayBeforeCutoff(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(11, 30))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	assert.Equal(t, at(0, 0), order.ProductionDate)
	assert.False(t, order.OutOfWindow)
}

func TestCreateShiftsNextDayAfterCutoff(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(11, 31))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	assert.Equal(t, at(0, 0).AddDate(0, 0, 1), order.ProductionDate)
	assert.True(t, order.OutOfWindow)
}

func TestCreateAdminKeepsSameDayAfterCutoff(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(15, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "admin-1", entity.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, at(0, 0), order.ProductionDate)
	assert.False(t, order.OutOfWindow)
}

func TestCreateOpensTask(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	require.NotNil(t, order.Task)
	assert.Equal(t, entity.TaskOpen, order.Task.State)
	assert.Equal(t, order.ID, order.Task.OrderID)
	assert.Len(t, store.tasks, 1)
}

func TestCreateRejectsUnknownBranch(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	_, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "no-such-branch",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	assert.ErrorContains(t, err, "branch not found")
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	_, err := svc.Create(context.Background(), CreateInput{BranchID: "branch-1"}, "user-1", entity.RoleAssistant)
	assert.ErrorContains(t, err, "line item")
}

func TestUpdateRecomputesTotal(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), order.ID, UpdateInput{
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 5, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", false)
	require.NoError(t, err)

	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(500)),
		"got total %s", updated.TotalAmount)
}

func TestUpdateRejectsDeliveredOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)
	order.Task.State = entity.TaskDelivered

	notes := "too late"
	_, err = svc.Update(context.Background(), order.ID, UpdateInput{Notes: &notes}, "user-1", true)
	assert.ErrorContains(t, err, "delivered")
}

func TestUpdateProductionDateRequiresAdminWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		isAdmin bool
		wantErr bool
	}{
		{"admin inside late window", at(11, 0), true, false},
		{"admin early morning", at(5, 0), true, false},
		{"admin outside window", at(9, 0), true, true},
		{"non admin inside window", at(15, 0), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			created := newTestService(store, at(9, 0))
			order, err := created.Create(context.Background(), CreateInput{
				BranchID:  "branch-1",
				LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
			}, "user-1", entity.RoleAssistant)
			require.NoError(t, err)

			svc := newTestService(store, tt.now)
			target := at(0, 0).AddDate(0, 0, 3)
			_, err = svc.Update(context.Background(), order.ID, UpdateInput{ProductionDate: &target}, "user-1", tt.isAdmin)
			if tt.wantErr {
				assert.ErrorContains(t, err, "production date")
			} else {
				require.NoError(t, err)
				assert.Equal(t, target, store.orders[order.ID].ProductionDate)
			}
		})
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), order.ID, false)
	assert.ErrorContains(t, err, "ADMIN")
	assert.Empty(t, store.deleted)
}

func TestDeleteRejectsStartedProduction(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)
	order.Task.State = entity.TaskInProcess

	err = svc.Delete(context.Background(), order.ID, true)
	assert.ErrorContains(t, err, "production already started")
	assert.Empty(t, store.deleted)
}

func TestDeleteOpenOrderAsAdmin(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	order, err := svc.Create(context.Background(), CreateInput{
		BranchID:  "branch-1",
		LineItems: items(entity.LineItem{Product: "Pan", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}),
	}, "user-1", entity.RoleAssistant)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID, true))
	assert.Equal(t, []string{order.ID}, store.deleted)

	_, err = svc.Get(context.Background(), order.ID)
	assert.ErrorContains(t, err, "not found")
}
