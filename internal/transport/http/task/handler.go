package task

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obradorsoft/hornada/internal/dto"
	"github.com/obradorsoft/hornada/internal/entity"
	"github.com/obradorsoft/hornada/internal/presentation/http/response"
	service "github.com/obradorsoft/hornada/internal/service/task"
	"github.com/obradorsoft/hornada/internal/transport/http/identity"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/obradorsoft/hornada/transport/http/task")

// Handler exposes task endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a task Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/tasks")
	g.GET("", h.list)
	g.GET("/assignees", h.assignees)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/state", h.changeState)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/assign", h.assign)
	g.POST("/:id/comments", h.addComment)
	g.GET("/:id/activity", h.recentActivity)
	g.GET("/:id/history", h.fullHistory)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := service.Filter{
		State:      entity.TaskState(c.QueryParam("state")),
		AssigneeID: c.QueryParam("assignee_id"),
		RouteID:    c.QueryParam("route_id"),
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return b.WithError(errorbank.BadRequest("date must be formatted YYYY-MM-DD", errorbank.WithCause(err))).Build()
		}
		filter.Date = &date
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.list")
	defer span.End()

	tasks, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, dto.NewTaskResponse(&tasks[i]))
	}
	return b.WithData(out).WithMeta("count", len(out)).Build()
}

func (h *Handler) assignees(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.assignees")
	defer span.End()

	users, err := h.svc.Assignees(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.getByID", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	task, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTaskResponse(task)).Build()
}

func (h *Handler) changeState(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id := c.Param("id")

	var payload struct {
		NewState entity.TaskState `json:"new_state"`
		Comment  *string          `json:"comment"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.NewState == "" {
		return b.WithError(errorbank.BadRequest("new_state is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.changeState", trace.WithAttributes(
		attribute.String("task.id", id),
		attribute.String("task.new_state", string(payload.NewState)),
	))
	defer span.End()

	task, err := h.svc.ChangeState(ctx, id, payload.NewState, payload.Comment, actor.UserID, actor.Role)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTaskResponse(task)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.cancel", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	task, err := h.svc.Cancel(ctx, id, actor.UserID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTaskResponse(task)).Build()
}

func (h *Handler) assign(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id := c.Param("id")

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.UserID == "" {
		return b.WithError(errorbank.BadRequest("user_id is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.assign", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	task, err := h.svc.Assign(ctx, id, payload.UserID, actor.UserID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTaskResponse(task)).Build()
}

func (h *Handler) addComment(c echo.Context) error {
	b := response.New(c)

	actor, err := identity.FromRequest(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id := c.Param("id")

	var payload struct {
		Text string             `json:"text"`
		Kind entity.CommentKind `json:"kind"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.addComment", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	comment, err := h.svc.AddComment(ctx, id, payload.Text, payload.Kind, actor.UserID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewCommentResponse(comment)).Build()
}

func (h *Handler) recentActivity(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.recentActivity", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	events, err := h.svc.RecentActivity(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewActivityEvents(events)).Build()
}

func (h *Handler) fullHistory(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "tasks.fullHistory", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	events, err := h.svc.FullHistory(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewActivityEvents(events)).WithMeta("count", len(events)).Build()
}
