// Package identity resolves the acting user from request headers. The
// upstream gateway authenticates calls and forwards the verified
// subject and role claims; this service trusts that pair as-is.
package identity

import (
	"github.com/labstack/echo/v4"

	"github.com/obradorsoft/hornada/internal/entity"
	"github.com/obradorsoft/hornada/pkg/errorbank"
)

// Header names set by the auth gateway.
const (
	HeaderUserID = "X-User-Id"
	HeaderRole   = "X-User-Role"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID string
	Role   entity.Role
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool { return a.Role.IsAdmin() }

// FromRequest extracts the actor or fails when the identity headers
// are missing or carry an unknown role.
func FromRequest(c echo.Context) (Actor, error) {
	userID := c.Request().Header.Get(HeaderUserID)
	if userID == "" {
		return Actor{}, errorbank.Forbidden("missing identity context")
	}
	role, ok := entity.ParseRole(c.Request().Header.Get(HeaderRole))
	if !ok {
		return Actor{}, errorbank.Forbidden("missing or unknown role claim")
	}
	return Actor{UserID: userID, Role: role}, nil
}
