package timepolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obradorsoft/hornada/internal/entity"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.Local)
}

func TestPastOrderCutoff(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"early morning", at(6, 0), false},
		{"just before cutoff", at(11, 29), false},
		{"exactly at cutoff", at(11, 30), false},
		{"one minute past", at(11, 31), true},
		{"afternoon", at(14, 0), true},
		{"just before midnight", at(23, 59), true},
		{"midnight", at(0, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PastOrderCutoff(tc.t))
		})
	}
}

func TestCanEditTask(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		role entity.Role
		want bool
	}{
		{"admin at 3am", at(3, 0), entity.RoleAdmin, true},
		{"admin at 23pm", at(23, 0), entity.RoleAdmin, true},
		{"production inside window", at(7, 0), entity.RoleProduction, true},
		{"assistant inside window", at(10, 45), entity.RoleAssistant, true},
		{"production at window open", at(6, 0), entity.RoleProduction, true},
		{"assistant during hour six", at(6, 59), entity.RoleAssistant, true},
		{"production at window close", at(11, 30), entity.RoleProduction, true},
		{"production one minute late", at(11, 31), entity.RoleProduction, false},
		{"assistant before window", at(5, 59), entity.RoleAssistant, false},
		{"assistant in the afternoon", at(13, 0), entity.RoleAssistant, false},
		{"unknown role inside window", at(8, 0), entity.Role("VENTAS"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanEditTask(tc.t, tc.role))
		})
	}
}

func TestCanModifyProductionDate(t *testing.T) {
	cases := []struct {
		name    string
		t       time.Time
		isAdmin bool
		want    bool
	}{
		{"non-admin anytime", at(12, 0), false, false},
		{"admin mid-morning", at(10, 59), true, false},
		{"admin at eleven", at(11, 0), true, true},
		{"admin late evening", at(23, 30), true, true},
		{"admin before dawn", at(5, 59), true, true},
		{"admin at six", at(6, 0), true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanModifyProductionDate(tc.t, tc.isAdmin))
		})
	}
}

func TestProductionDate(t *testing.T) {
	now := at(14, 20)
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	tomorrow := today.AddDate(0, 0, 1)

	t.Run("admin past cutoff stays today", func(t *testing.T) {
		require.Equal(t, today, ProductionDate(now, true, true))
	})
	t.Run("non-admin past cutoff rolls over", func(t *testing.T) {
		require.Equal(t, tomorrow, ProductionDate(now, true, false))
	})
	t.Run("non-admin before cutoff stays today", func(t *testing.T) {
		require.Equal(t, today, ProductionDate(at(9, 0), false, false))
	})
	t.Run("time of day is zeroed", func(t *testing.T) {
		got := ProductionDate(at(11, 29), false, false)
		require.Zero(t, got.Hour())
		require.Zero(t, got.Minute())
	})
}
