package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obradorsoft/hornada/internal/database"
	"github.com/obradorsoft/hornada/internal/entity"
)

var repoTracer = otel.Tracer("github.com/obradorsoft/hornada/repository/catalog")

// ErrNotFound is returned when a catalog record is missing.
var ErrNotFound = errors.New("catalog record not found")

// Repository provides access to routes, clients, branches, and products.
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

func (r *Repository) insert(ctx context.Context, span trace.Span, model any) error {
	_, err := r.writer.NewInsert().Model(model).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

func (r *Repository) update(ctx context.Context, span trace.Span, model any, columns ...string) error {
	res, err := r.writer.NewUpdate().Model(model).Column(columns...).WherePK().Exec(ctx)
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

// RouteByID fetches a route by primary key.
func (r *Repository) RouteByID(ctx context.Context, id string) (*entity.Route, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.RouteByID", trace.WithAttributes(attribute.String("route.id", id)))
	defer span.End()

	route := new(entity.Route)
	err := r.reader.NewSelect().Model(route).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return route, nil
}

// Routes lists active routes by name.
func (r *Repository) Routes(ctx context.Context) ([]entity.Route, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.Routes")
	defer span.End()

	var routes []entity.Route
	err := r.reader.NewSelect().Model(&routes).Where("active").Order("name ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return routes, nil
}

// CreateRoute persists a new route.
func (r *Repository) CreateRoute(ctx context.Context, route *entity.Route) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateRoute")
	defer span.End()
	return r.insert(ctx, span, route)
}

// UpdateRoute persists mutable route fields.
func (r *Repository) UpdateRoute(ctx context.Context, route *entity.Route) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateRoute", trace.WithAttributes(attribute.String("route.id", route.ID)))
	defer span.End()
	return r.update(ctx, span, route, "name", "description", "active", "updated_at")
}

// ClientByID fetches a client by primary key.
func (r *Repository) ClientByID(ctx context.Context, id string) (*entity.Client, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ClientByID", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	client := new(entity.Client)
	err := r.reader.NewSelect().Model(client).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return client, nil
}

// ClientByTaxID fetches a client by its unique tax id.
func (r *Repository) ClientByTaxID(ctx context.Context, taxID string) (*entity.Client, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ClientByTaxID")
	defer span.End()

	client := new(entity.Client)
	err := r.reader.NewSelect().Model(client).Where("tax_id = ?", taxID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return client, nil
}

// Clients lists active clients by business name.
func (r *Repository) Clients(ctx context.Context) ([]entity.Client, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.Clients")
	defer span.End()

	var clients []entity.Client
	err := r.reader.NewSelect().Model(&clients).Where("active").Order("business_name ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return clients, nil
}

// CreateClient persists a new client.
func (r *Repository) CreateClient(ctx context.Context, client *entity.Client) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateClient")
	defer span.End()
	return r.insert(ctx, span, client)
}

// UpdateClient persists mutable client fields.
func (r *Repository) UpdateClient(ctx context.Context, client *entity.Client) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateClient", trace.WithAttributes(attribute.String("client.id", client.ID)))
	defer span.End()
	return r.update(ctx, span, client, "business_name", "tax_id", "address", "city", "phone", "email", "location", "active", "updated_at")
}

// BranchByID fetches a branch with its client and route resolved.
func (r *Repository) BranchByID(ctx context.Context, id string) (*entity.Branch, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.BranchByID", trace.WithAttributes(attribute.String("branch.id", id)))
	defer span.End()

	branch := new(entity.Branch)
	err := r.reader.NewSelect().Model(branch).
		Relation("Client").
		Relation("Route").
		Where("branch.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return branch, nil
}

// Branches lists active branches. A non-empty clientID narrows to one client.
func (r *Repository) Branches(ctx context.Context, clientID string) ([]entity.Branch, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.Branches")
	defer span.End()

	var branches []entity.Branch
	q := r.reader.NewSelect().Model(&branches).
		Relation("Client").
		Relation("Route").
		Where("branch.active").
		Order("branch.name ASC")
	if clientID != "" {
		q = q.Where("branch.client_id = ?", clientID)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return branches, nil
}

// CreateBranch persists a new branch.
func (r *Repository) CreateBranch(ctx context.Context, branch *entity.Branch) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateBranch")
	defer span.End()
	return r.insert(ctx, span, branch)
}

// UpdateBranch persists mutable branch fields.
func (r *Repository) UpdateBranch(ctx context.Context, branch *entity.Branch) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateBranch", trace.WithAttributes(attribute.String("branch.id", branch.ID)))
	defer span.End()
	return r.update(ctx, span, branch, "client_id", "route_id", "name", "address", "location", "phone", "active", "updated_at")
}

// ProductByID fetches a product by primary key.
func (r *Repository) ProductByID(ctx context.Context, id string) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ProductByID", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return product, nil
}

// Products lists active products by name.
func (r *Repository) Products(ctx context.Context) ([]entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.Products")
	defer span.End()

	var products []entity.Product
	err := r.reader.NewSelect().Model(&products).Where("active").Order("name ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return products, nil
}

// CreateProduct persists a new product.
func (r *Repository) CreateProduct(ctx context.Context, product *entity.Product) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateProduct")
	defer span.End()
	return r.insert(ctx, span, product)
}

// UpdateProduct persists mutable product fields.
func (r *Repository) UpdateProduct(ctx context.Context, product *entity.Product) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateProduct", trace.WithAttributes(attribute.String("product.id", product.ID)))
	defer span.End()
	return r.update(ctx, span, product, "name", "unit_price", "active", "updated_at")
}
