package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/entity"
	repo "github.com/obradorsoft/hornada/internal/repository/catalog"
	"github.com/obradorsoft/hornada/internal/timepolicy"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/obradorsoft/hornada/service/catalog")

// store is the persistence surface the service needs from the catalog
// repository. Kept narrow so tests can substitute an in-memory fake.
type store interface {
	RouteByID(ctx context.Context, id string) (*entity.Route, error)
	Routes(ctx context.Context) ([]entity.Route, error)
	CreateRoute(ctx context.Context, route *entity.Route) error
	UpdateRoute(ctx context.Context, route *entity.Route) error
	ClientByID(ctx context.Context, id string) (*entity.Client, error)
	ClientByTaxID(ctx context.Context, taxID string) (*entity.Client, error)
	Clients(ctx context.Context) ([]entity.Client, error)
	CreateClient(ctx context.Context, client *entity.Client) error
	UpdateClient(ctx context.Context, client *entity.Client) error
	BranchByID(ctx context.Context, id string) (*entity.Branch, error)
	Branches(ctx context.Context, clientID string) ([]entity.Branch, error)
	CreateBranch(ctx context.Context, branch *entity.Branch) error
	UpdateBranch(ctx context.Context, branch *entity.Branch) error
	ProductByID(ctx context.Context, id string) (*entity.Product, error)
	Products(ctx context.Context) ([]entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) error
	UpdateProduct(ctx context.Context, product *entity.Product) error
}

// Service manages the reference data orders resolve against: routes,
// clients, branches, and products. Records are soft-deleted by
// clearing the active flag so historical orders keep their context.
type Service struct {
	repo   store
	clock  timepolicy.Clock
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Clock      timepolicy.Clock
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{repo: p.Repository, clock: p.Clock, logger: p.Logger}
}

// RouteInput carries route creation/update fields.
type RouteInput struct {
	Name        string
	Description string
}

// CreateRoute persists a new delivery route.
func (s *Service) CreateRoute(ctx context.Context, input RouteInput) (*entity.Route, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateRoute")
	defer span.End()

	if input.Name == "" {
		return nil, errorbank.BadRequest("route name is required")
	}
	now := s.clock.Now()
	route := &entity.Route{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateRoute(ctx, route); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to create route", errorbank.WithCause(err))
	}
	return route, nil
}

// Route fetches a single route.
func (s *Service) Route(ctx context.Context, id string) (*entity.Route, error) {
	route, err := s.repo.RouteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("route not found")
		}
		return nil, errorbank.Internal("failed to load route", errorbank.WithCause(err))
	}
	return route, nil
}

// Routes lists active routes.
func (s *Service) Routes(ctx context.Context) ([]entity.Route, error) {
	routes, err := s.repo.Routes(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list routes", errorbank.WithCause(err))
	}
	return routes, nil
}

// UpdateRoute applies a partial route patch.
func (s *Service) UpdateRoute(ctx context.Context, id string, input RouteInput) (*entity.Route, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateRoute", trace.WithAttributes(attribute.String("route.id", id)))
	defer span.End()

	route, err := s.repo.RouteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("route not found")
		}
		return nil, errorbank.Internal("failed to load route", errorbank.WithCause(err))
	}
	if input.Name != "" {
		route.Name = input.Name
	}
	if input.Description != "" {
		route.Description = input.Description
	}
	route.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateRoute(ctx, route); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to update route", errorbank.WithCause(err))
	}
	return route, nil
}

// DeactivateRoute soft-deletes a route.
func (s *Service) DeactivateRoute(ctx context.Context, id string) error {
	route, err := s.repo.RouteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("route not found")
		}
		return errorbank.Internal("failed to load route", errorbank.WithCause(err))
	}
	route.Active = false
	route.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateRoute(ctx, route); err != nil {
		return errorbank.Internal("failed to deactivate route", errorbank.WithCause(err))
	}
	return nil
}

// ClientInput carries client creation/update fields.
type ClientInput struct {
	BusinessName string
	TaxID        string
	Address      string
	City         string
	Phone        string
	Email        string
	Location     string
}

// CreateClient persists a new client; duplicate tax ids conflict.
func (s *Service) CreateClient(ctx context.Context, input ClientInput) (*entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateClient")
	defer span.End()

	if input.BusinessName == "" || input.TaxID == "" || input.Address == "" {
		return nil, errorbank.BadRequest("business name, tax id, and address are required")
	}
	if existing, err := s.repo.ClientByTaxID(ctx, input.TaxID); err == nil && existing != nil {
		return nil, errorbank.Conflict(fmt.Sprintf("a client with tax id %s already exists", input.TaxID))
	} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.Internal("failed to check tax id", errorbank.WithCause(err))
	}

	now := s.clock.Now()
	client := &entity.Client{
		ID:           uuid.NewString(),
		BusinessName: input.BusinessName,
		TaxID:        input.TaxID,
		Address:      input.Address,
		City:         input.City,
		Phone:        input.Phone,
		Email:        input.Email,
		Location:     input.Location,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to create client", errorbank.WithCause(err))
	}
	return client, nil
}

// Client fetches a single client.
func (s *Service) Client(ctx context.Context, id string) (*entity.Client, error) {
	client, err := s.repo.ClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("client not found")
		}
		return nil, errorbank.Internal("failed to load client", errorbank.WithCause(err))
	}
	return client, nil
}

// UpdateClient applies a partial client patch. The tax id is fixed at
// creation and cannot change.
func (s *Service) UpdateClient(ctx context.Context, id string, input ClientInput) (*entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateClient", trace.WithAttributes(attribute.String("client.id", id)))
	defer span.End()

	client, err := s.repo.ClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("client not found")
		}
		return nil, errorbank.Internal("failed to load client", errorbank.WithCause(err))
	}
	if input.TaxID != "" && input.TaxID != client.TaxID {
		return nil, errorbank.BadRequest("tax id cannot be changed")
	}
	if input.BusinessName != "" {
		client.BusinessName = input.BusinessName
	}
	if input.Address != "" {
		client.Address = input.Address
	}
	if input.City != "" {
		client.City = input.City
	}
	if input.Phone != "" {
		client.Phone = input.Phone
	}
	if input.Email != "" {
		client.Email = input.Email
	}
	if input.Location != "" {
		client.Location = input.Location
	}
	client.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateClient(ctx, client); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to update client", errorbank.WithCause(err))
	}
	return client, nil
}

// Clients lists active clients.
func (s *Service) Clients(ctx context.Context) ([]entity.Client, error) {
	clients, err := s.repo.Clients(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list clients", errorbank.WithCause(err))
	}
	return clients, nil
}

// DeactivateClient soft-deletes a client.
func (s *Service) DeactivateClient(ctx context.Context, id string) error {
	client, err := s.repo.ClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("client not found")
		}
		return errorbank.Internal("failed to load client", errorbank.WithCause(err))
	}
	client.Active = false
	client.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateClient(ctx, client); err != nil {
		return errorbank.Internal("failed to deactivate client", errorbank.WithCause(err))
	}
	return nil
}

// BranchInput carries branch creation fields.
type BranchInput struct {
	ClientID string
	RouteID  string
	Name     string
	Address  string
	Location string
	Phone    string
}

// CreateBranch persists a new branch after validating its client and route.
func (s *Service) CreateBranch(ctx context.Context, input BranchInput) (*entity.Branch, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateBranch")
	defer span.End()

	if input.ClientID == "" || input.RouteID == "" || input.Name == "" {
		return nil, errorbank.BadRequest("client id, route id, and name are required")
	}
	client, err := s.repo.ClientByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("client %s not found", input.ClientID))
		}
		return nil, errorbank.Internal("failed to resolve client", errorbank.WithCause(err))
	}
	route, err := s.repo.RouteByID(ctx, input.RouteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("route %s not found", input.RouteID))
		}
		return nil, errorbank.Internal("failed to resolve route", errorbank.WithCause(err))
	}

	now := s.clock.Now()
	branch := &entity.Branch{
		ID:        uuid.NewString(),
		ClientID:  input.ClientID,
		RouteID:   input.RouteID,
		Name:      input.Name,
		Address:   input.Address,
		Location:  input.Location,
		Phone:     input.Phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to create branch", errorbank.WithCause(err))
	}
	branch.Client = client
	branch.Route = route
	return branch, nil
}

// Branch fetches a single branch with its client and route resolved.
func (s *Service) Branch(ctx context.Context, id string) (*entity.Branch, error) {
	branch, err := s.repo.BranchByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("branch not found")
		}
		return nil, errorbank.Internal("failed to load branch", errorbank.WithCause(err))
	}
	return branch, nil
}

// UpdateBranch applies a partial branch patch; a new client or route
// reference must resolve.
func (s *Service) UpdateBranch(ctx context.Context, id string, input BranchInput) (*entity.Branch, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateBranch", trace.WithAttributes(attribute.String("branch.id", id)))
	defer span.End()

	branch, err := s.repo.BranchByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("branch not found")
		}
		return nil, errorbank.Internal("failed to load branch", errorbank.WithCause(err))
	}
	if input.ClientID != "" && input.ClientID != branch.ClientID {
		if _, err := s.repo.ClientByID(ctx, input.ClientID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.NotFound(fmt.Sprintf("client %s not found", input.ClientID))
			}
			return nil, errorbank.Internal("failed to resolve client", errorbank.WithCause(err))
		}
		branch.ClientID = input.ClientID
	}
	if input.RouteID != "" && input.RouteID != branch.RouteID {
		if _, err := s.repo.RouteByID(ctx, input.RouteID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.NotFound(fmt.Sprintf("route %s not found", input.RouteID))
			}
			return nil, errorbank.Internal("failed to resolve route", errorbank.WithCause(err))
		}
		branch.RouteID = input.RouteID
	}
	if input.Name != "" {
		branch.Name = input.Name
	}
	if input.Address != "" {
		branch.Address = input.Address
	}
	if input.Location != "" {
		branch.Location = input.Location
	}
	if input.Phone != "" {
		branch.Phone = input.Phone
	}
	branch.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateBranch(ctx, branch); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to update branch", errorbank.WithCause(err))
	}
	return branch, nil
}

// Branches lists active branches, optionally narrowed to one client.
func (s *Service) Branches(ctx context.Context, clientID string) ([]entity.Branch, error) {
	branches, err := s.repo.Branches(ctx, clientID)
	if err != nil {
		return nil, errorbank.Internal("failed to list branches", errorbank.WithCause(err))
	}
	return branches, nil
}

// DeactivateBranch soft-deletes a branch.
func (s *Service) DeactivateBranch(ctx context.Context, id string) error {
	branch, err := s.repo.BranchByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("branch not found")
		}
		return errorbank.Internal("failed to load branch", errorbank.WithCause(err))
	}
	branch.Active = false
	branch.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateBranch(ctx, branch); err != nil {
		return errorbank.Internal("failed to deactivate branch", errorbank.WithCause(err))
	}
	return nil
}

// ProductInput carries product creation fields.
type ProductInput struct {
	Name      string
	UnitPrice decimal.Decimal
}

// CreateProduct persists a new catalog product.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if input.Name == "" {
		return nil, errorbank.BadRequest("product name is required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, errorbank.BadRequest("unit price cannot be negative")
	}
	now := s.clock.Now()
	product := &entity.Product{
		ID:        uuid.NewString(),
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}
	return product, nil
}

// Product fetches a single product.
func (s *Service) Product(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}
	return product, nil
}

// UpdateProduct applies a partial product patch.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateProduct", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}
	if input.UnitPrice.IsNegative() {
		return nil, errorbank.BadRequest("unit price cannot be negative")
	}
	if input.Name != "" {
		product.Name = input.Name
	}
	if !input.UnitPrice.IsZero() {
		product.UnitPrice = input.UnitPrice
	}
	product.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}
	return product, nil
}

// Products lists active products.
func (s *Service) Products(ctx context.Context) ([]entity.Product, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}
	return products, nil
}

// DeactivateProduct soft-deletes a product.
func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	product, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("product not found")
		}
		return errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}
	product.Active = false
	product.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return errorbank.Internal("failed to deactivate product", errorbank.WithCause(err))
	}
	return nil
}
