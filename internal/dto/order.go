package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/obradorsoft/hornada/internal/entity"
)

// NamedRef is a compact id/name pair for resolved context.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BranchContext is the branch with its client and route resolved, as
// order views display it.
type BranchContext struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Client *NamedRef `json:"client,omitempty"`
	Route  *NamedRef `json:"route,omitempty"`
}

// TaskRef is the bound task as shown on order listings.
type TaskRef struct {
	ID    string           `json:"id"`
	State entity.TaskState `json:"state"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID             string               `json:"id"`
	BranchID       string               `json:"branch_id"`
	LineItems      []entity.LineItem    `json:"line_items"`
	Consignments   []entity.Consignment `json:"consignments,omitempty"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Notes          string               `json:"notes,omitempty"`
	OutOfWindow    bool                 `json:"out_of_window"`
	ReceivedAt     time.Time            `json:"received_at"`
	ProductionDate time.Time            `json:"production_date"`
	CreatedByID    string               `json:"created_by_id"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Branch         *BranchContext       `json:"branch,omitempty"`
	Task           *TaskRef             `json:"task,omitempty"`
}

// NewOrderResponse maps an order entity onto its transport shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:             order.ID,
		BranchID:       order.BranchID,
		LineItems:      order.LineItems,
		Consignments:   order.Consignments,
		TotalAmount:    order.TotalAmount,
		Notes:          order.Notes,
		OutOfWindow:    order.OutOfWindow,
		ReceivedAt:     order.ReceivedAt,
		ProductionDate: order.ProductionDate,
		CreatedByID:    order.CreatedByID,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if order.Branch != nil {
		ctx := &BranchContext{ID: order.Branch.ID, Name: order.Branch.Name}
		if order.Branch.Client != nil {
			ctx.Client = &NamedRef{ID: order.Branch.Client.ID, Name: order.Branch.Client.BusinessName}
		}
		if order.Branch.Route != nil {
			ctx.Route = &NamedRef{ID: order.Branch.Route.ID, Name: order.Branch.Route.Name}
		}
		resp.Branch = ctx
	}
	if order.Task != nil {
		resp.Task = &TaskRef{ID: order.Task.ID, State: order.Task.State}
	}
	return resp
}
