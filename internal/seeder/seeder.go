package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/database"
	"github.com/obradorsoft/hornada/internal/entity"
)

// Module registers the seeder with Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All seeds a minimal working dataset: one route, one client with a
// branch on it, the three user roles, and a few products.
func (s *Seeder) All(ctx context.Context) error {
	now := time.Now()

	route := entity.Route{
		ID:        uuid.NewString(),
		Name:      "Ruta Centro",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(&route).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	client := entity.Client{
		ID:           uuid.NewString(),
		BusinessName: "Supermercados La Espiga",
		TaxID:        "80012345-6",
		Address:      "Av. Principal 1234",
		City:         "Asunción",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(&client).
		On("CONFLICT (tax_id) DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	branch := entity.Branch{
		ID:        uuid.NewString(),
		ClientID:  client.ID,
		RouteID:   route.ID,
		Name:      "Casa Matriz",
		Address:   "Av. Principal 1234",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(&branch).
		On("CONFLICT DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	users := []entity.User{
		{ID: uuid.NewString(), Name: "Admin", Email: "admin@hornada.local", Role: entity.RoleAdmin, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Asistente de Ventas", Email: "ventas@hornada.local", Role: entity.RoleAssistant, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Maestro Panadero", Email: "produccion@hornada.local", Role: entity.RoleProduction, Active: true, CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range users {
		user := sample
		if _, err := s.db.NewInsert().Model(&user).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	products := []entity.Product{
		{ID: uuid.NewString(), Name: "Pan Integral", UnitPrice: decimal.NewFromInt(4500), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Baguette", UnitPrice: decimal.NewFromInt(6000), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "Medialunas x12", UnitPrice: decimal.NewFromInt(18000), Active: true, CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range products {
		product := sample
		if _, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded catalog and users",
			zap.Int("users", len(users)),
			zap.Int("products", len(products)),
		)
	}
	return nil
}
