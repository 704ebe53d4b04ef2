// Package poller держит таймер опроса одной сессии дашборда.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "order-dispatch/pkg/errors"
)

// Refresher выполняет один цикл загрузки и сообщает задержку до следующего тика.
// NextInterval вызывается под блокировкой драйвера после каждого цикла; 0 оставляет текущую задержку.
type Refresher interface {
	Refresh(ctx context.Context, force bool) error
	NextInterval() time.Duration
}

type State int

const (
	StateIdle State = iota
	StateArmed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type Driver struct {
	refresher Refresher
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	interval   time.Duration
	timer      *time.Timer
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	inflight   bool
}

func NewDriver(refresher Refresher, interval time.Duration, logger *zap.Logger) *Driver {
	return &Driver{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
		state:     StateIdle,
	}
}

// Start: Idle -> Armed с немедленной загрузкой.
func (d *Driver) Start() error {
	d.mu.Lock()
	switch d.state {
	case StateClosed:
		d.mu.Unlock()
		d.logger.Warn("Попытка запустить опрос закрытой сессии")
		return apperrors.ErrSessionClosed
	case StateArmed:
		d.mu.Unlock()
		return nil
	}
	d.enableLocked()
	d.inflight = true
	ctx, gen := d.ctx, d.generation
	d.mu.Unlock()

	go func() { _ = d.cycle(ctx, gen, false) }()
	return nil
}

// Stop: -> Idle. Таймер отменяется, результат загрузки "в полёте" будет проигнорирован.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateArmed {
		return
	}
	d.disableLocked()
	d.state = StateIdle
}

// Close окончательно останавливает драйвер; дальнейшие вызовы - no-op с ошибкой.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return
	}
	if d.state == StateArmed {
		d.disableLocked()
	}
	d.state = StateClosed
}

// ForceRefresh немедленно выполняет принудительную загрузку и перевзводит таймер.
// Из Idle драйвер переходит в Armed.
func (d *Driver) ForceRefresh() error {
	d.mu.Lock()
	switch d.state {
	case StateClosed:
		d.mu.Unlock()
		d.logger.Warn("forceRefresh для закрытой сессии проигнорирован")
		return apperrors.ErrSessionClosed
	case StateIdle:
		d.enableLocked()
	}
	ctx, gen := d.ctx, d.generation
	d.mu.Unlock()

	return d.cycle(ctx, gen, true)
}

// SetInterval меняет задержку следующего тика, не запуская загрузку.
func (d *Driver) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.interval == interval {
		return
	}
	d.interval = interval
	if d.state == StateArmed && !d.inflight {
		d.armLocked()
	}
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

func (d *Driver) tick(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.state != StateArmed {
		d.mu.Unlock()
		return
	}
	if d.inflight {
		d.mu.Unlock()
		d.logger.Debug("Предыдущая загрузка ещё не завершилась, тик пропущен")
		return
	}
	d.inflight = true
	ctx := d.ctx
	d.mu.Unlock()

	_ = d.cycle(ctx, gen, false)
}

func (d *Driver) cycle(ctx context.Context, gen uint64, force bool) error {
	err := d.refresher.Refresh(ctx, force)
	if err != nil {
		d.logger.Warn("Цикл опроса завершился ошибкой", zap.Bool("force", force), zap.Error(err))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation || d.state != StateArmed {
		return err
	}
	if !force {
		d.inflight = false
	}
	if next := d.refresher.NextInterval(); next > 0 {
		d.interval = next
	}
	d.armLocked()
	return err
}

func (d *Driver) enableLocked() {
	d.generation++
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.inflight = false
	d.state = StateArmed
}

func (d *Driver) disableLocked() {
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.inflight = false
}

func (d *Driver) armLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.generation
	d.timer = time.AfterFunc(d.interval, func() { d.tick(gen) })
}
