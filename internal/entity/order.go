package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// LineItem is a single ordered product. Items are stored inline on the
// order as jsonb, mirroring how intake forms submit them.
type LineItem struct {
	Product   string          `json:"product"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ProductID string          `json:"product_id,omitempty"`
}

// Subtotal returns quantity times unit price for the item.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// Consignment is a replacement good that requires no production run.
type Consignment struct {
	Product  string `json:"product"`
	Quantity int64  `json:"quantity"`
}

// Order represents a branch's sales order scheduled for production.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID             string          `bun:",pk"`
	BranchID       string          `bun:"branch_id,notnull"`
	LineItems      []LineItem      `bun:"line_items,type:jsonb"`
	Consignments   []Consignment   `bun:"consignments,type:jsonb"`
	TotalAmount    decimal.Decimal `bun:"total_amount,notnull"`
	Notes          string          `bun:"notes"`
	OutOfWindow    bool            `bun:"out_of_window,notnull"`
	ReceivedAt     time.Time       `bun:"received_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	ProductionDate time.Time       `bun:"production_date,notnull"`
	CreatedByID    string          `bun:"created_by_id,notnull"`
	CreatedAt      time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero"`

	Branch *Branch `bun:"rel:belongs-to,join:branch_id=id"`
	Task   *Task   `bun:"rel:has-one,join:id=order_id"`
}

// Total recomputes the order total from its line items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.LineItems {
		total = total.Add(li.Subtotal())
	}
	return total
}
