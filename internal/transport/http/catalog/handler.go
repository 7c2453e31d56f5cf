package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/obradorsoft/hornada/internal/presentation/http/response"
	service "github.com/obradorsoft/hornada/internal/service/catalog"
	"github.com/obradorsoft/hornada/internal/transport/http/identity"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

// Handler exposes catalog CRUD endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	routes := e.Group("/routes")
	routes.POST("", h.createRoute)
	routes.GET("", h.listRoutes)
	routes.GET("/:id", h.getRoute)
	routes.PATCH("/:id", h.updateRoute)
	routes.DELETE("/:id", h.deleteRoute)

	clients := e.Group("/clients")
	clients.POST("", h.createClient)
	clients.GET("", h.listClients)
	clients.GET("/:id", h.getClient)
	clients.PATCH("/:id", h.updateClient)
	clients.DELETE("/:id", h.deleteClient)

	branches := e.Group("/branches")
	branches.POST("", h.createBranch)
	branches.GET("", h.listBranches)
	branches.GET("/:id", h.getBranch)
	branches.PATCH("/:id", h.updateBranch)
	branches.DELETE("/:id", h.deleteBranch)

	products := e.Group("/products")
	products.POST("", h.createProduct)
	products.GET("", h.listProducts)
	products.GET("/:id", h.getProduct)
	products.PATCH("/:id", h.updateProduct)
	products.DELETE("/:id", h.deleteProduct)
}

// requireAdmin gates catalog mutations to administrators.
func requireAdmin(c echo.Context) error {
	actor, err := identity.FromRequest(c)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return errorbank.Forbidden("only ADMIN may manage catalog records")
	}
	return nil
}

func (h *Handler) createRoute(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	route, err := h.svc.CreateRoute(c.Request().Context(), service.RouteInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(route).Build()
}

func (h *Handler) listRoutes(c echo.Context) error {
	b := response.New(c)
	routes, err := h.svc.Routes(c.Request().Context())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(routes).Build()
}

func (h *Handler) updateRoute(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	route, err := h.svc.UpdateRoute(c.Request().Context(), c.Param("id"), service.RouteInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(route).Build()
}

func (h *Handler) getRoute(c echo.Context) error {
	b := response.New(c)
	route, err := h.svc.Route(c.Request().Context(), c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(route).Build()
}

func (h *Handler) deleteRoute(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}
	if err := h.svc.DeactivateRoute(c.Request().Context(), c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) createClient(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		BusinessName string `json:"business_name"`
		TaxID        string `json:"tax_id"`
		Address      string `json:"address"`
		City         string `json:"city"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
		Location     string `json:"location"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	client, err := h.svc.CreateClient(c.Request().Context(), service.ClientInput{
		BusinessName: payload.BusinessName,
		TaxID:        payload.TaxID,
		Address:      payload.Address,
		City:         payload.City,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Location:     payload.Location,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(client).Build()
}

func (h *Handler) listClients(c echo.Context) error {
	b := response.New(c)
	clients, err := h.svc.Clients(c.Request().Context())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(clients).Build()
}

func (h *Handler) getClient(c echo.Context) error {
	b := response.New(c)
	client, err := h.svc.Client(c.Request().Context(), c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(client).Build()
}

func (h *Handler) updateClient(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		BusinessName string `json:"business_name"`
		TaxID        string `json:"tax_id"`
		Address      string `json:"address"`
		City         string `json:"city"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
		Location     string `json:"location"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	client, err := h.svc.UpdateClient(c.Request().Context(), c.Param("id"), service.ClientInput{
		BusinessName: payload.BusinessName,
		TaxID:        payload.TaxID,
		Address:      payload.Address,
		City:         payload.City,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Location:     payload.Location,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(client).Build()
}

func (h *Handler) deleteClient(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}
	if err := h.svc.DeactivateClient(c.Request().Context(), c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) createBranch(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		ClientID string `json:"client_id"`
		RouteID  string `json:"route_id"`
		Name     string `json:"name"`
		Address  string `json:"address"`
		Location string `json:"location"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	branch, err := h.svc.CreateBranch(c.Request().Context(), service.BranchInput{
		ClientID: payload.ClientID,
		RouteID:  payload.RouteID,
		Name:     payload.Name,
		Address:  payload.Address,
		Location: payload.Location,
		Phone:    payload.Phone,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(branch).Build()
}

func (h *Handler) listBranches(c echo.Context) error {
	b := response.New(c)
	branches, err := h.svc.Branches(c.Request().Context(), c.QueryParam("client_id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(branches).Build()
}

func (h *Handler) getBranch(c echo.Context) error {
	b := response.New(c)
	branch, err := h.svc.Branch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(branch).Build()
}

func (h *Handler) updateBranch(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		ClientID string `json:"client_id"`
		RouteID  string `json:"route_id"`
		Name     string `json:"name"`
		Address  string `json:"address"`
		Location string `json:"location"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	branch, err := h.svc.UpdateBranch(c.Request().Context(), c.Param("id"), service.BranchInput{
		ClientID: payload.ClientID,
		RouteID:  payload.RouteID,
		Name:     payload.Name,
		Address:  payload.Address,
		Location: payload.Location,
		Phone:    payload.Phone,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(branch).Build()
}

func (h *Handler) deleteBranch(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}
	if err := h.svc.DeactivateBranch(c.Request().Context(), c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) createProduct(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Name      string          `json:"name"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	product, err := h.svc.CreateProduct(c.Request().Context(), service.ProductInput{
		Name:      payload.Name,
		UnitPrice: payload.UnitPrice,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(product).Build()
}

func (h *Handler) listProducts(c echo.Context) error {
	b := response.New(c)
	products, err := h.svc.Products(c.Request().Context())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(products).Build()
}

func (h *Handler) getProduct(c echo.Context) error {
	b := response.New(c)
	product, err := h.svc.Product(c.Request().Context(), c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(product).Build()
}

func (h *Handler) updateProduct(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Name      string          `json:"name"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	product, err := h.svc.UpdateProduct(c.Request().Context(), c.Param("id"), service.ProductInput{
		Name:      payload.Name,
		UnitPrice: payload.UnitPrice,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(product).Build()
}

func (h *Handler) deleteProduct(c echo.Context) error {
	b := response.New(c)
	if err := requireAdmin(c); err != nil {
		return b.WithError(err).Build()
	}
	if err := h.svc.DeactivateProduct(c.Request().Context(), c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}
