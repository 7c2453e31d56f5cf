package directory

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

var repoTracer = otel.Tracer("github.com/obradorsoft/hornada/repository/directory")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// Repository reads the user directory. Accounts are managed by the
// external auth system; this service only looks them up.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// UserByID fetches a user by primary key.
func (r *Repository) UserByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "DirectoryRepository.UserByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// UsersByRole lists active users holding the given role.
func (r *Repository) UsersByRole(ctx context.Context, role entity.Role) ([]entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "DirectoryRepository.UsersByRole", trace.WithAttributes(attribute.String("user.role", string(role))))
	defer span.End()

	var users []entity.User
	err := r.reader.NewSelect().Model(&users).
		Where("role = ?", role).
		Where("active").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return users, nil
}
