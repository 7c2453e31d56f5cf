package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Route is a delivery route grouping branches.
type Route struct {
	bun.BaseModel `bun:"table:routes"`

	ID          string    `bun:",pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	Active      bool      `bun:"active,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}

// Client is a customer company owning one or more branches.
type Client struct {
	bun.BaseModel `bun:"table:clients"`

	ID           string    `bun:",pk"`
	BusinessName string    `bun:"business_name,notnull"`
	TaxID        string    `bun:"tax_id,notnull,unique"`
	Address      string    `bun:"address,notnull"`
	City         string    `bun:"city"`
	Phone        string    `bun:"phone"`
	Email        string    `bun:"email"`
	Location     string    `bun:"location"`
	Active       bool      `bun:"active,notnull,default:true"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}

// Branch is a client delivery point on a route; orders belong to it.
type Branch struct {
	bun.BaseModel `bun:"table:branches"`

	ID        string    `bun:",pk"`
	ClientID  string    `bun:"client_id,notnull"`
	RouteID   string    `bun:"route_id,notnull"`
	Name      string    `bun:"name,notnull"`
	Address   string    `bun:"address"`
	Location  string    `bun:"location"`
	Phone     string    `bun:"phone"`
	Active    bool      `bun:"active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`

	Client *Client `bun:"rel:belongs-to,join:client_id=id"`
	Route  *Route  `bun:"rel:belongs-to,join:route_id=id"`
}

// Product is a catalog item orders can reference by id.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID        string          `bun:",pk"`
	Name      string          `bun:"name,notnull"`
	UnitPrice decimal.Decimal `bun:"unit_price,notnull"`
	Active    bool            `bun:"active,notnull,default:true"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero"`
}
