package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"order-dispatch/pkg/constants"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
}

func TestIsOpenHours(t *testing.T) {
	cases := map[int]bool{
		0: true, 1: true, 2: true,
		3: false, 5: false, 9: false, 13: false,
		14: true, 17: true, 23: true,
	}
	for hour, want := range cases {
		assert.Equal(t, want, IsOpenHours(at(hour, 30)), "hour %d", hour)
	}
	assert.False(t, IsOpenHours(at(13, 59)))
	assert.True(t, IsOpenHours(at(2, 59)))
}

func TestIsRushHour(t *testing.T) {
	cases := map[int]bool{
		0: true, 1: false, 14: false, 16: false, 17: true, 20: true, 23: true,
	}
	for hour, want := range cases {
		assert.Equal(t, want, IsRushHour(at(hour, 0)), "hour %d", hour)
	}
}

func TestNextInterval(t *testing.T) {
	never := time.Time{}

	tests := []struct {
		name         string
		role         constants.Role
		now          time.Time
		newOrders    int
		visible      int
		lastActivity time.Time
		want         time.Duration
	}{
		{"kitchen rush with new order", constants.RoleKitchenA, at(20, 0), 1, 1, never, 3 * time.Second},
		{"cashier closed ignores counts", constants.RoleCashier, at(5, 0), 5, 10, at(4, 59), 120 * time.Second},
		{"station closed", constants.RoleKitchenB, at(10, 0), 3, 3, never, 60 * time.Second},
		{"new order outside rush", constants.RoleDelivery, at(15, 0), 2, 2, never, 5 * time.Second},
		{"recent activity outside rush", constants.RoleCashier, at(15, 0), 0, 0, at(14, 59), 5 * time.Second},
		{"activity too old", constants.RoleCashier, at(15, 0), 0, 0, at(14, 57), 60 * time.Second},
		{"cashier rush idle", constants.RoleCashier, at(18, 0), 0, 4, never, 15 * time.Second},
		{"station rush idle", constants.RoleKitchenA, at(0, 30), 0, 0, never, 10 * time.Second},
		{"cashier busy", constants.RoleCashier, at(15, 0), 0, 4, never, 30 * time.Second},
		{"station busy", constants.RoleKitchenB, at(15, 0), 0, 1, never, 20 * time.Second},
		{"cashier empty", constants.RoleCashier, at(16, 0), 0, 0, never, 60 * time.Second},
		{"station empty", constants.RoleDelivery, at(16, 0), 0, 0, never, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextInterval(tt.role, tt.newOrders, tt.visible, tt.lastActivity, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, 120*time.Second, CacheTTL(constants.RoleCashier, at(6, 0)))
	assert.Equal(t, 120*time.Second, CacheTTL(constants.RoleKitchenA, at(6, 0)))
	assert.Equal(t, 10*time.Second, CacheTTL(constants.RoleCashier, at(21, 0)))
	assert.Equal(t, 30*time.Second, CacheTTL(constants.RoleCashier, at(15, 0)))
	assert.Equal(t, 20*time.Second, CacheTTL(constants.RoleDelivery, at(15, 0)))
}
