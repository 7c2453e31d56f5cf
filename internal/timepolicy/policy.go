// Package timepolicy holds the wall-clock business rules that gate
// order intake and task editing. All checks are pure functions over a
// timestamp so they can be exercised deterministically in tests; the
// process-local clock is authoritative, there is no timezone handling.
package timepolicy

import (
	"time"

	"go.uber.org/fx"

	"github.com/obradorsoft/hornada/internal/entity"
)

// Order intake closes at 11:30; afterwards non-admin orders roll over
// to the next production day.
const (
	cutoffHour   = 11
	cutoffMinute = 30
	editOpenHour = 6
)

// Clock supplies the current time. Services take it injected so tests
// can pin arbitrary instants.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process-local wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// Module provides the system clock to the Fx graph.
var Module = fx.Provide(func() Clock { return SystemClock{} })

// PastOrderCutoff reports whether t falls strictly after the 11:30
// sales-order cutoff.
func PastOrderCutoff(t time.Time) bool {
	return t.Hour() > cutoffHour || (t.Hour() == cutoffHour && t.Minute() > cutoffMinute)
}

// CanEditTask reports whether the role may move tasks at time t.
// ADMIN edits at any hour; ASISTENTE and PRODUCCION only between
// 06:00 and 11:30 inclusive. Every other role is read-only.
func CanEditTask(t time.Time, role entity.Role) bool {
	switch role {
	case entity.RoleAdmin:
		return true
	case entity.RoleAssistant, entity.RoleProduction:
		afterOpen := t.Hour() >= editOpenHour
		beforeClose := t.Hour() < cutoffHour || (t.Hour() == cutoffHour && t.Minute() <= cutoffMinute)
		return afterOpen && beforeClose
	default:
		return false
	}
}

// CanModifyProductionDate reports whether an already-scheduled
// production date may be changed at time t. Only admins, and only in
// the late window from 11:00 through 05:59 the next day. The boundary
// deliberately differs from the intake cutoff.
func CanModifyProductionDate(t time.Time, isAdmin bool) bool {
	if !isAdmin {
		return false
	}
	return t.Hour() >= cutoffHour || t.Hour() < editOpenHour
}

// ProductionDate computes the scheduled production day for an order
// received at t: today at midnight, or tomorrow when a non-admin
// submits past the cutoff. Admin orders always enter the same day.
func ProductionDate(t time.Time, pastCutoff, isAdmin bool) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if pastCutoff && !isAdmin {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
