// Package cache хранит последний успешно загруженный и спроецированный список заказов одной сессии.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"order-dispatch/internal/entities"
	"order-dispatch/internal/projection"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/metrics"
)

// Fetcher - внешний источник заказов (реляционное хранилище).
type Fetcher interface {
	FetchOrders(ctx context.Context, role constants.Role, filter sq.Sqlizer) ([]entities.Order, error)
}

type Entry struct {
	View        projection.View
	Fingerprint uint64
	// Seq растёт при каждой записи в кеш; по нему потребитель отбрасывает устаревшие результаты.
	Seq         uint64
	FetchedAt   time.Time
	TTL         time.Duration
}

type Outcome int

const (
	// OutcomeCached - запись свежая, запроса не было.
	OutcomeCached Outcome = iota
	// OutcomeUnchanged - запрос был, но отпечаток совпал; проекция не пересчитывалась.
	OutcomeUnchanged
	// OutcomeRefreshed - проекция пересчитана, запись заменена.
	OutcomeRefreshed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeRefreshed:
		return "refreshed"
	}
	return "unknown"
}

type FetchCache struct {
	fetcher Fetcher
	cfg     projection.RoleConfig
	logger  *zap.Logger
	now     func() time.Time

	// fetchMu сериализует обращения к источнику в пределах сессии.
	fetchMu sync.Mutex

	mu          sync.RWMutex
	entry       *Entry
	seq         uint64
	projections int
}

func New(fetcher Fetcher, cfg projection.RoleConfig, logger *zap.Logger) *FetchCache {
	return &FetchCache{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock подменяет часы (используется в тестах и сессией).
func (c *FetchCache) WithClock(now func() time.Time) *FetchCache {
	c.now = now
	return c
}

// GetOrRefresh возвращает спроецированный список роли, обращаясь к источнику только при необходимости.
// force обходит TTL, но совпадение отпечатка всё равно избавляет от повторной проекции.
func (c *FetchCache) GetOrRefresh(ctx context.Context, force bool) (Entry, Outcome, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	role := c.cfg.Role.String()

	if !force {
		if entry, ok := c.validEntry(c.now()); ok {
			metrics.CacheHitsTotal.WithLabelValues(role, "ttl").Inc()
			return entry, OutcomeCached, nil
		}
	}

	orders, err := c.fetcher.FetchOrders(ctx, c.cfg.Role, c.cfg.Filter)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(role, "error").Inc()
		return Entry{}, OutcomeCached, fmt.Errorf("%w: %w", apperrors.ErrFetchFailed, err)
	}
	metrics.FetchTotal.WithLabelValues(role, "ok").Inc()

	fp := Fingerprint(orders)
	now := c.now()
	ttl := c.cfg.Intervals.CacheTTL(now)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if c.entry != nil && c.entry.Fingerprint == fp {
		c.entry.FetchedAt = now
		c.entry.TTL = ttl
		c.entry.Seq = c.seq
		metrics.CacheHitsTotal.WithLabelValues(role, "fingerprint").Inc()
		c.logger.Debug("Данные не изменились, проекция не пересчитывается",
			zap.String("role", role), zap.Uint64("fingerprint", fp), zap.Bool("force", force))
		return *c.entry, OutcomeUnchanged, nil
	}

	view := c.cfg.Project(orders)
	c.projections++
	c.entry = &Entry{View: view, Fingerprint: fp, Seq: c.seq, FetchedAt: now, TTL: ttl}

	return *c.entry, OutcomeRefreshed, nil
}

// IsValid: запись есть и её возраст меньше TTL, вычисленного на текущий момент.
func (c *FetchCache) IsValid(now time.Time) bool {
	_, ok := c.validEntry(now)
	return ok
}

// Age возвращает возраст записи; false, если загрузок ещё не было.
func (c *FetchCache) Age(now time.Time) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return 0, false
	}
	return now.Sub(c.entry.FetchedAt), true
}

// Entry возвращает копию текущей записи.
func (c *FetchCache) Entry() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}

// Projections - сколько раз пересчитывалась проекция.
func (c *FetchCache) Projections() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projections
}

func (c *FetchCache) validEntry(now time.Time) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	if now.Sub(c.entry.FetchedAt) >= c.cfg.Intervals.CacheTTL(now) {
		return Entry{}, false
	}
	return *c.entry, true
}
