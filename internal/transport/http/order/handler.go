package order

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obradorsoft/hornada/internal/dto"
	"github.com/obradorsoft/hornada/internal/entity"
	"github.com/obradorsoft/hornada/internal/presentation/http/response"
	service "github.com/obradorsoft/hornada/internal/service/order"
	"github.com/obradorsoft/hornada/internal/transport/http/identity"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/obradorsoft/hornada/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type lineItemPayload struct {
	Product   string          `json:"product"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ProductID string          `json:"product_id"`
}

type consignmentPayload struct {
	Product  string `json:"product"`
	Quantity int64  `json:"quantity"`
}

func parseLineItems(payload []lineItemPayload) ([]entity.LineItem, error) {
	items := make([]entity.LineItem, 0, len(payload))
	for _, p := range payload {
		if p.Product == "" {
			return nil, errorbank.BadRequest("line item product name is required")
		}
		if p.Quantity <= 0 {
			return nil, errorbank.BadRequest("line item quantity must be positive")
		}
		if p.UnitPrice.IsNegative() {
			return nil, errorbank.BadRequest("line item unit price cannot be negative")
		}
		items = append(items, entity.LineItem{
			Product:   p.Product,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			ProductID: p.ProductID,
		})
	}
	return items, nil
}

func parseConsignments(payload []consignmentPayload) ([]entity.Consignment, error) {
	items := make([]entity.Consignment, 0, len(payload))
	for _, p := range payload {
		if p.Product == "" {
			return nil, errorbank.BadRequest("consignment product name is required")
		}
		if p.Quantity <= 0 {
			return nil, errorbank.BadRequest("consignment quantity must be positive")
		}
		items = append(items, entity.Consignment{Product: p.Product, Quantity: p.Quantity})
	}
	return items, nil
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		BranchID     string               `json:"branch_id"`
		LineItems    []lineItemPayload    `json:"line_items"`
		Consignments []consignmentPayload `json:"consignments"`
		Notes        string               `json:"notes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	lineItems, err := parseLineItems(payload.LineItems)
	if err != nil {
		return b.WithError(err).Build()
	}
	consignments, err := parseConsignments(payload.Consignments)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.String("order.branch_id", payload.BranchID),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, service.CreateInput{
		BranchID:     payload.BranchID,
		LineItems:    lineItems,
		Consignments: consignments,
		Notes:        payload.Notes,
	}, actor.UserID, actor.Role)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := service.Filter{
		BranchID: c.QueryParam("branch_id"),
		RouteID:  c.QueryParam("route_id"),
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return b.WithError(errorbank.BadRequest("date must be formatted YYYY-MM-DD", errorbank.WithCause(err))).Build()
		}
		filter.Date = &date
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, dto.NewOrderResponse(&orders[i]))
	}
	return b.WithData(out).WithMeta("count", len(out)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id := c.Param("id")

	var payload struct {
		BranchID       *string              `json:"branch_id"`
		LineItems      []lineItemPayload    `json:"line_items"`
		Consignments   []consignmentPayload `json:"consignments"`
		Notes          *string              `json:"notes"`
		ProductionDate *string              `json:"production_date"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	patch := service.UpdateInput{
		BranchID: payload.BranchID,
		Notes:    payload.Notes,
	}
	if payload.LineItems != nil {
		items, err := parseLineItems(payload.LineItems)
		if err != nil {
			return b.WithError(err).Build()
		}
		patch.LineItems = items
	}
	if payload.Consignments != nil {
		items, err := parseConsignments(payload.Consignments)
		if err != nil {
			return b.WithError(err).Build()
		}
		patch.Consignments = items
	}
	if payload.ProductionDate != nil {
		date, err := time.ParseInLocation("2006-01-02", *payload.ProductionDate, time.Local)
		if err != nil {
			return b.WithError(errorbank.BadRequest("production_date must be formatted YYYY-MM-DD", errorbank.WithCause(err))).Build()
		}
		patch.ProductionDate = &date
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.Update(ctx, id, patch, actor.UserID, actor.IsAdmin())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id, actor.IsAdmin()); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}
