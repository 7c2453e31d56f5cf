package entity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Role is a closed user role. Parsing happens once at the transport
// boundary; everything past it compares typed constants.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAssistant  Role = "ASISTENTE"
	RoleProduction Role = "PRODUCCION"
)

// ParseRole normalizes a role claim from the auth layer. Unknown
// values are rejected rather than defaulted.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleAssistant:
		return RoleAssistant, true
	case RoleProduction:
		return RoleProduction, true
	}
	return "", false
}

// IsAdmin reports whether the role carries administrator privileges.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User is a directory entry; authentication lives outside this service.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:",pk"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Role      Role      `bun:"role,notnull"`
	Active    bool      `bun:"active,notnull,default:true"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
