package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/entity"
	repo "github.com/obradorsoft/hornada/internal/repository/catalog"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeStore struct {
	routes   map[string]*entity.Route
	clients  map[string]*entity.Client
	branches map[string]*entity.Branch
	products map[string]*entity.Product
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		routes:   map[string]*entity.Route{},
		clients:  map[string]*entity.Client{},
		branches: map[string]*entity.Branch{},
		products: map[string]*entity.Product{},
	}
}

func (f *fakeStore) RouteByID(ctx context.Context, id string) (*entity.Route, error) {
	if r, ok := f.routes[id]; ok {
		return r, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) Routes(ctx context.Context) ([]entity.Route, error) {
	out := make([]entity.Route, 0, len(f.routes))
	for _, r := range f.routes {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) CreateRoute(ctx context.Context, route *entity.Route) error {
	f.routes[route.ID] = route
	return nil
}

func (f *fakeStore) UpdateRoute(ctx context.Context, route *entity.Route) error {
	f.routes[route.ID] = route
	return nil
}

func (f *fakeStore) ClientByID(ctx context.Context, id string) (*entity.Client, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) ClientByTaxID(ctx context.Context, taxID string) (*entity.Client, error) {
	for _, c := range f.clients {
		if c.TaxID == taxID {
			return c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) Clients(ctx context.Context) ([]entity.Client, error) {
	out := make([]entity.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) CreateClient(ctx context.Context, client *entity.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeStore) UpdateClient(ctx context.Context, client *entity.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeStore) BranchByID(ctx context.Context, id string) (*entity.Branch, error) {
	if b, ok := f.branches[id]; ok {
		return b, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) Branches(ctx context.Context, clientID string) ([]entity.Branch, error) {
	out := make([]entity.Branch, 0, len(f.branches))
	for _, b := range f.branches {
		if clientID != "" && b.ClientID != clientID {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) CreateBranch(ctx context.Context, branch *entity.Branch) error {
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeStore) UpdateBranch(ctx context.Context, branch *entity.Branch) error {
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeStore) ProductByID(ctx context.Context, id string) (*entity.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) Products(ctx context.Context) ([]entity.Product, error) {
	out := make([]entity.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, product *entity.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, product *entity.Product) error {
	f.products[product.ID] = product
	return nil
}

func newTestService(store *fakeStore) *Service {
	return &Service{
		repo:   store,
		clock:  fixedClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.Local)},
		logger: zap.NewNop(),
	}
}

func TestCreateClientRejectsDuplicateTaxID(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	first, err := svc.CreateClient(context.Background(), ClientInput{
		BusinessName: "La Espiga",
		TaxID:        "80012345-6",
		Address:      "Av. Principal 1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	_, err = svc.CreateClient(context.Background(), ClientInput{
		BusinessName: "Otra Panificadora",
		TaxID:        "80012345-6",
		Address:      "Calle Segunda 55",
	})
	assert.ErrorContains(t, err, "already exists")
}

func TestCreateBranchValidatesReferences(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	client, err := svc.CreateClient(context.Background(), ClientInput{
		BusinessName: "La Espiga",
		TaxID:        "80012345-6",
		Address:      "Av. Principal 1234",
	})
	require.NoError(t, err)

	_, err = svc.CreateBranch(context.Background(), BranchInput{
		ClientID: client.ID,
		RouteID:  "no-such-route",
		Name:     "Casa Matriz",
	})
	assert.ErrorContains(t, err, "not found")

	route, err := svc.CreateRoute(context.Background(), RouteInput{Name: "Ruta Centro"})
	require.NoError(t, err)

	branch, err := svc.CreateBranch(context.Background(), BranchInput{
		ClientID: client.ID,
		RouteID:  route.ID,
		Name:     "Casa Matriz",
	})
	require.NoError(t, err)
	assert.Equal(t, client.ID, branch.ClientID)
	assert.Equal(t, route.ID, branch.RouteID)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:      "Pan Integral",
		UnitPrice: decimal.NewFromInt(-1),
	})
	assert.ErrorContains(t, err, "negative")
}

func TestUpdateClientKeepsTaxID(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	client, err := svc.CreateClient(context.Background(), ClientInput{
		BusinessName: "La Espiga",
		TaxID:        "80012345-6",
		Address:      "Av. Principal 1234",
	})
	require.NoError(t, err)

	_, err = svc.UpdateClient(context.Background(), client.ID, ClientInput{TaxID: "99999999-9"})
	assert.ErrorContains(t, err, "cannot be changed")

	updated, err := svc.UpdateClient(context.Background(), client.ID, ClientInput{City: "Luque"})
	require.NoError(t, err)
	assert.Equal(t, "Luque", updated.City)
	assert.Equal(t, "80012345-6", updated.TaxID)
}

func TestDeactivateRouteClearsActive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	route, err := svc.CreateRoute(context.Background(), RouteInput{Name: "Ruta Centro"})
	require.NoError(t, err)
	require.True(t, route.Active)

	require.NoError(t, svc.DeactivateRoute(context.Background(), route.ID))
	assert.False(t, store.routes[route.ID].Active)
}
