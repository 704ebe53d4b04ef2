// Package schedule отвечает на вопросы "открыто ли заведение", "час ли пик"
// и выбирает частоту опроса и TTL кеша для дашборда.
package schedule

import (
	"time"

	"order-dispatch/pkg/constants"
)

const (
	// Окно, в течение которого после последней активности опрашиваем часто.
	ActivityWindow = 120 * time.Second

	ActiveInterval     = 5 * time.Second
	ActiveRushInterval = 3 * time.Second

	ClosedTTL = 120 * time.Second
	RushTTL   = 10 * time.Second
)

// Table - интервалы опроса одной роли.
type Table struct {
	Closed time.Duration // заведение закрыто
	Rush   time.Duration // час пик без новых заказов
	Busy   time.Duration // есть видимые заказы
	Empty  time.Duration // экран пуст
	TTL    time.Duration // TTL кеша вне часа пик
}

var (
	CashierTable = Table{
		Closed: 120 * time.Second,
		Rush:   15 * time.Second,
		Busy:   30 * time.Second,
		Empty:  60 * time.Second,
		TTL:    30 * time.Second,
	}
	StationTable = Table{
		Closed: 60 * time.Second,
		Rush:   10 * time.Second,
		Busy:   20 * time.Second,
		Empty:  30 * time.Second,
		TTL:    20 * time.Second,
	}
)

// TableFor: у кассы своя таблица, кухни и доставка делят общую.
func TableFor(role constants.Role) Table {
	if role == constants.RoleCashier {
		return CashierTable
	}
	return StationTable
}

// IsOpenHours: закрыто только с 03:00 до 13:59 включительно.
func IsOpenHours(now time.Time) bool {
	h := now.Hour()
	return h >= 14 || h < 3
}

// IsRushHour: с 17:00 до 00:59.
func IsRushHour(now time.Time) bool {
	h := now.Hour()
	return h >= 17 || h == 0
}

// Next вычисляет задержку до следующего опроса.
// Порядок проверок важен: каждая следующая ветка достигается только если предыдущие не сработали.
func (t Table) Next(newOrders, visibleOrders int, lastActivity, now time.Time) time.Duration {
	if !IsOpenHours(now) {
		return t.Closed
	}
	if newOrders > 0 || recentActivity(lastActivity, now) {
		if IsRushHour(now) {
			return ActiveRushInterval
		}
		return ActiveInterval
	}
	if IsRushHour(now) {
		return t.Rush
	}
	if visibleOrders > 0 {
		return t.Busy
	}
	return t.Empty
}

// TTL пересчитывается при каждом обращении, а не фиксируется при записи в кеш.
func (t Table) CacheTTL(now time.Time) time.Duration {
	if !IsOpenHours(now) {
		return ClosedTTL
	}
	if IsRushHour(now) {
		return RushTTL
	}
	return t.TTL
}

func NextInterval(role constants.Role, newOrders, visibleOrders int, lastActivity, now time.Time) time.Duration {
	return TableFor(role).Next(newOrders, visibleOrders, lastActivity, now)
}

func CacheTTL(role constants.Role, now time.Time) time.Duration {
	return TableFor(role).CacheTTL(now)
}

func recentActivity(lastActivity, now time.Time) bool {
	if lastActivity.IsZero() {
		return false
	}
	return now.Sub(lastActivity) < ActivityWindow
}
