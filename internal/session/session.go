// Package session собирает кеш, таймер опроса, realtime-мост и звуковое оповещение
// в одну сессию дашборда конкретной роли.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"order-dispatch/internal/alert"
	"order-dispatch/internal/cache"
	"order-dispatch/internal/entities"
	"order-dispatch/internal/poller"
	"order-dispatch/internal/projection"
	"order-dispatch/internal/realtime"
	"order-dispatch/internal/schedule"
	"order-dispatch/pkg/metrics"
)

const fetchFailedMessage = "Не удалось загрузить заказы, показаны последние полученные данные"

// Notifier - всплывающее сообщение для человека за экраном.
type Notifier interface {
	Notify(sessionID, message string)
}

// SnapshotSink получает состояние сессии после каждого применённого обновления.
type SnapshotSink interface {
	PublishSnapshot(sessionID string, snap Snapshot)
}

type Dependencies struct {
	Fetcher  cache.Fetcher
	Feed     realtime.Feed
	Notifier Notifier
	Sink     SnapshotSink
	Signals  func(sessionID string) alert.Signal
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

type DebugInfo struct {
	CurrentIntervalSeconds float64      `json:"currentIntervalSeconds"`
	NewOrdersCount         int          `json:"newOrdersCount"`
	IsOpenHours            bool         `json:"isOpenHours"`
	IsRushHour             bool         `json:"isRushHour"`
	CacheAgeSeconds        null.Float64 `json:"cacheAgeSeconds"`
	Role                   string       `json:"role"`
}

type Snapshot struct {
	SessionID     string           `json:"session_id"`
	Role          string           `json:"role"`
	CourierID     string           `json:"courier_id,omitempty"`
	Commandes     []entities.Order `json:"commandes"`
	MesLivraisons []entities.Order `json:"mes_livraisons,omitempty"`
	IsLoading     bool             `json:"is_loading"`
	LastError     string           `json:"last_error,omitempty"`
	AlertPlaying  bool             `json:"alert_playing"`
	DebugInfo     DebugInfo        `json:"debug_info"`
}

type Session struct {
	ID  string
	cfg projection.RoleConfig

	cache    *cache.FetchCache
	driver   *poller.Driver
	alerts   *alert.Driver
	bridge   *realtime.Bridge
	notifier Notifier
	sink     SnapshotSink
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time

	mu           sync.RWMutex
	view         projection.View
	applied      uint64
	loaded       bool
	lastActivity time.Time
	failing      bool
	lastError    string
	closed       bool
	CreatedAt    time.Time
}

func New(id string, cfg projection.RoleConfig, deps Dependencies) *Session {
	s := &Session{
		ID:       id,
		cfg:      cfg,
		notifier: deps.Notifier,
		sink:     deps.Sink,
		location: deps.Location,
		now:      deps.Now,
		logger:   deps.Logger.With(zap.String("session", id), zap.String("role", cfg.Role.String())),
		view:     projection.View{Visible: []entities.Order{}},
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.location == nil {
		s.location = time.Local
	}

	var signal alert.Signal = silent{}
	if deps.Signals != nil {
		signal = deps.Signals(id)
	}

	s.CreatedAt = s.clock()
	s.cache = cache.New(deps.Fetcher, cfg, s.logger).WithClock(s.clock)
	s.alerts = alert.NewDriver(signal, s.logger)
	s.driver = poller.NewDriver(s, cfg.Intervals.Next(0, 0, time.Time{}, s.CreatedAt), s.logger)
	if deps.Feed != nil {
		s.bridge = realtime.NewBridge(deps.Feed, s, s.logger)
	}
	return s
}

// Open подписывает сессию на изменения и запускает опрос с немедленной загрузкой.
// Недоступный realtime-канал не мешает работе: остаётся чистый опрос.
func (s *Session) Open(ctx context.Context) error {
	if s.bridge != nil {
		if err := s.bridge.Start(ctx); err != nil {
			s.logger.Warn("Realtime недоступен, работаем только на опросе", zap.Error(err))
		}
	}
	return s.driver.Start()
}

// Pause отключает опрос (экран скрыт); кеш и подписка сохраняются.
func (s *Session) Pause() {
	s.driver.Stop()
}

// Resume снова включает опрос с немедленной загрузкой.
func (s *Session) Resume() error {
	return s.driver.Start()
}

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.bridge != nil {
		s.bridge.Stop()
	}
	s.driver.Close()
	s.alerts.Reset()
	s.logger.Info("Сессия дашборда закрыта")
}

// ForceRefresh - ручное обновление, также вызывается realtime-мостом.
func (s *Session) ForceRefresh() error {
	return s.driver.ForceRefresh()
}

// MarkActivity фиксирует активность и сразу пересчитывает интервал опроса.
func (s *Session) MarkActivity(at time.Time) {
	s.mu.Lock()
	if at.After(s.lastActivity) {
		s.lastActivity = at
	}
	interval := s.nextIntervalLocked(s.clock())
	s.mu.Unlock()

	s.driver.SetInterval(interval)
}

// Refresh - один цикл опроса: кеш, проекция, оповещение.
func (s *Session) Refresh(ctx context.Context, force bool) error {
	// Отключение сессии не прерывает запрос, а только отбрасывает его результат.
	entry, outcome, err := s.cache.GetOrRefresh(context.WithoutCancel(ctx), force)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.reportFailure(err)
		return err
	}

	recovered, ok := s.apply(entry)
	if !ok {
		s.logger.Debug("Результат опроса устарел, уже показан более свежий", zap.Uint64("seq", entry.Seq))
		return nil
	}
	view := entry.View

	if recovered {
		s.logger.Info("Загрузка заказов восстановлена")
	}
	metrics.NewOrders.WithLabelValues(s.cfg.Role.String()).Set(float64(view.NewCount))

	if s.sink != nil && (outcome == cache.OutcomeRefreshed || recovered) {
		s.sink.PublishSnapshot(s.ID, s.Snapshot())
	}
	return nil
}

// apply сохраняет результат, если он не старше уже показанного.
// Принудительное обновление, завершившееся позже, не перетирается запоздавшим тиком.
func (s *Session) apply(entry cache.Entry) (recovered bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Seq < s.applied {
		return false, false
	}
	recovered = s.failing
	s.failing = false
	s.lastError = ""
	s.view = entry.View
	s.applied = entry.Seq
	s.loaded = true
	// Оповещение видит счётчики в том же порядке, что и список.
	s.alerts.Observe(entry.View.NewCount)
	return recovered, true
}

// NextInterval выбирает задержку следующего опроса по текущему состоянию.
func (s *Session) NextInterval() time.Duration {
	s.mu.RLock()
	interval := s.nextIntervalLocked(s.clock())
	s.mu.RUnlock()

	metrics.PollInterval.WithLabelValues(s.cfg.Role.String()).Set(interval.Seconds())
	return interval
}

func (s *Session) reportFailure(err error) {
	s.mu.Lock()
	first := !s.failing
	s.failing = true
	s.lastError = err.Error()
	s.mu.Unlock()

	if !first {
		return
	}
	s.logger.Error("Ошибка загрузки заказов, оставляем прежний список", zap.Error(err))
	if s.notifier != nil {
		s.notifier.Notify(s.ID, fetchFailedMessage)
	}
}

func (s *Session) Role() string { return s.cfg.Role.String() }

// AlertPlaying - включено ли сейчас оповещение о новых заказах.
func (s *Session) AlertPlaying() bool {
	return s.alerts.Playing()
}

// ReplayAlert сообщает только что подключившемуся экрану, что оповещение уже играет.
func (s *Session) ReplayAlert(target alert.Signal) {
	s.alerts.Replay(target)
}

func (s *Session) Commandes() []entities.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Visible
}

func (s *Session) MesLivraisons() []entities.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Mine
}

// IsLoading истинно до первой успешной загрузки.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded
}

func (s *Session) State() poller.State {
	return s.driver.State()
}

// DebugInfo - только для отображения, на поведение не влияет.
func (s *Session) DebugInfo() DebugInfo {
	now := s.clock()

	s.mu.RLock()
	newCount := s.view.NewCount
	s.mu.RUnlock()

	info := DebugInfo{
		CurrentIntervalSeconds: s.driver.Interval().Seconds(),
		NewOrdersCount:         newCount,
		IsOpenHours:            schedule.IsOpenHours(now),
		IsRushHour:             schedule.IsRushHour(now),
		Role:                   s.cfg.Role.String(),
	}
	if age, ok := s.cache.Age(now); ok {
		info.CacheAgeSeconds = null.Float64From(age.Seconds())
	}
	return info
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		SessionID:     s.ID,
		Role:          s.cfg.Role.String(),
		CourierID:     s.cfg.CourierID,
		Commandes:     s.view.Visible,
		MesLivraisons: s.view.Mine,
		IsLoading:     !s.loaded,
		LastError:     s.lastError,
	}
	s.mu.RUnlock()

	snap.AlertPlaying = s.AlertPlaying()
	snap.DebugInfo = s.DebugInfo()
	return snap
}

func (s *Session) nextIntervalLocked(now time.Time) time.Duration {
	visible := len(s.view.Visible) + len(s.view.Mine)
	return s.cfg.Intervals.Next(s.view.NewCount, visible, s.lastActivity, now)
}

func (s *Session) clock() time.Time {
	return s.now().In(s.location)
}

type silent struct{}

func (silent) Start() {}
func (silent) Stop()  {}
