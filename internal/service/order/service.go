package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/cache"
	"github.com/obradorsoft/hornada/internal/config"
	"github.com/obradorsoft/hornada/internal/entity"
	"github.com/obradorsoft/hornada/internal/messaging"
	catalogrepo "github.com/obradorsoft/hornada/internal/repository/catalog"
	repo "github.com/obradorsoft/hornada/internal/repository/order"
	"github.com/obradorsoft/hornada/internal/timepolicy"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/obradorsoft/hornada/service/order")

// store is the persistence surface the service needs from the order
// repository. Kept narrow so tests can substitute an in-memory fake.
type store interface {
	Create(ctx context.Context, order *entity.Order, task *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, f repo.Filter) ([]entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id string) error
}

// branches resolves order branch references.
type branches interface {
	BranchByID(ctx context.Context, id string) (*entity.Branch, error)
}

// CreateInput is the intake payload for a new order.
type CreateInput struct {
	BranchID     string
	LineItems    []entity.LineItem
	Consignments []entity.Consignment
	Notes        string
}

// UpdateInput is a partial order patch; nil fields are left untouched.
type UpdateInput struct {
	BranchID       *string
	LineItems      []entity.LineItem
	Consignments   []entity.Consignment
	Notes          *string
	ProductionDate *time.Time
}

// Filter re-exports the repository listing filter.
type Filter = repo.Filter

// Service owns the order lifecycle: intake scheduling, totals, the 1:1
// task binding, and the edit/delete guards.
type Service struct {
	store     store
	branches  branches
	clock     timepolicy.Clock
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
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
	Catalog    *catalogrepo.Repository
	Clock      timepolicy.Clock
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Repository,
		branches:  p.Catalog,
		clock:     p.Clock,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Create validates the branch, schedules the production date from the
// intake cutoff, computes the total, and persists the order with its
// ABIERTO task in a single transaction.
func (s *Service) Create(ctx context.Context, input CreateInput, userID string, role entity.Role) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.branch_id", input.BranchID)))
	defer span.End()

	if input.BranchID == "" {
		return nil, errorbank.BadRequest("branch id is required")
	}
	if len(input.LineItems) == 0 {
		return nil, errorbank.BadRequest("at least one line item is required")
	}

	branch, err := s.branches.BranchByID(ctx, input.BranchID)
	if err != nil {
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return nil, errorbank.NotFound("branch not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "branch lookup failed")
		return nil, errorbank.Internal("failed to resolve branch", errorbank.WithCause(err))
	}

	now := s.clock.Now()
	pastCutoff := timepolicy.PastOrderCutoff(now)
	isAdmin := role.IsAdmin()

	order := &entity.Order{
		ID:           uuid.NewString(),
		BranchID:     input.BranchID,
		LineItems:    input.LineItems,
		Consignments: input.Consignments,
		Notes:        input.Notes,
		// The flag is only set when lateness actually moved the
		// schedule; admin orders are never flagged.
		OutOfWindow:    pastCutoff && !isAdmin,
		ReceivedAt:     now,
		ProductionDate: timepolicy.ProductionDate(now, pastCutoff, isAdmin),
		CreatedByID:    userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	order.TotalAmount = order.Total()

	task := &entity.Task{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		State:     entity.TaskOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, order, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	order.Branch = branch
	order.Task = task

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.publishEvent(ctx, order.ID, OrderCreatedEvent{
		ID:             order.ID,
		BranchID:       order.BranchID,
		TotalAmount:    order.TotalAmount,
		OutOfWindow:    order.OutOfWindow,
		ProductionDate: order.ProductionDate,
		TaskID:         task.ID,
		CreatedAt:      order.CreatedAt,
	})

	return order, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
	}

	return order, nil
}

// List returns orders matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.store.List(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Update applies a partial patch. Delivered orders are immutable, and
// only admins inside the late window may move the production date.
func (s *Service) Update(ctx context.Context, id string, patch UpdateInput, userID string, isAdmin bool) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if order.Task != nil && order.Task.State == entity.TaskDelivered {
		return nil, errorbank.BadRequest("cannot modify an order that was already delivered")
	}

	now := s.clock.Now()
	if patch.ProductionDate != nil {
		if !timepolicy.CanModifyProductionDate(now, isAdmin) {
			return nil, errorbank.Forbidden(
				fmt.Sprintf("only ADMIN may change the production date between 11:00 and 06:00 (current time %s)", now.Format("15:04")),
			)
		}
		d := *patch.ProductionDate
		order.ProductionDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	}
	if patch.BranchID != nil {
		if _, err := s.branches.BranchByID(ctx, *patch.BranchID); err != nil {
			if errors.Is(err, catalogrepo.ErrNotFound) {
				return nil, errorbank.NotFound("branch not found")
			}
			return nil, errorbank.Internal("failed to resolve branch", errorbank.WithCause(err))
		}
		order.BranchID = *patch.BranchID
	}
	if patch.LineItems != nil {
		order.LineItems = patch.LineItems
		order.TotalAmount = order.Total()
	}
	if patch.Consignments != nil {
		order.Consignments = patch.Consignments
	}
	if patch.Notes != nil {
		order.Notes = *patch.Notes
	}
	order.UpdatedAt = now

	if err := s.store.Update(ctx, order); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	s.dropFromCache(ctx, id)

	updated, err := s.store.GetByID(ctx, id)
	if err != nil {
		return order, nil
	}
	return updated, nil
}

// Delete removes an order and its task. Admin only, and only while the
// task is still ABIERTO.
func (s *Service) Delete(ctx context.Context, id string, isAdmin bool) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if !isAdmin {
		return errorbank.Forbidden("only ADMIN may delete orders")
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		return errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if order.Task != nil && order.Task.State != entity.TaskOpen {
		return errorbank.BadRequest("cannot delete an order whose production already started")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.dropFromCache(ctx, id)
	return nil
}

func (s *Service) publishEvent(ctx context.Context, orderID string, event OrderCreatedEvent) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(messaging.Envelope{Type: messaging.EventOrderCreated, Payload: mustRaw(event)})
	if err != nil {
		s.logger.Error("marshal order created", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%s", orderID)), payload); err != nil {
		s.logger.Error("publish order created", zap.Error(err))
	}
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("orders:%s", id)
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) dropFromCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache delete failed", zap.String("id", id), zap.Error(err))
	}
}

// OrderCreatedEvent is emitted when an order and its task are persisted.
type OrderCreatedEvent struct {
	ID             string          `json:"id"`
	BranchID       string          `json:"branch_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	OutOfWindow    bool            `json:"out_of_window"`
	ProductionDate time.Time       `json:"production_date"`
	TaskID         string          `json:"task_id"`
	CreatedAt      time.Time       `json:"created_at"`
}
