package realtime

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"order-dispatch/internal/events"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/metrics"
)

// Target - то, что мост "будит" при важном событии (сессия дашборда).
type Target interface {
	MarkActivity(at time.Time)
	ForceRefresh() error
}

// IsCritical: вставка, или обновление с изменением любого из статусов.
func IsCritical(ev events.ChangeEvent) bool {
	switch ev.Kind {
	case events.KindInsert:
		return true
	case events.KindUpdate:
		return ev.StatusChanged()
	}
	return false
}

// Bridge связывает поток изменений таблицы заказов с одной сессией.
type Bridge struct {
	feed   Feed
	target Target
	logger *zap.Logger
	now    func() time.Time

	mu  sync.Mutex
	sub Subscription
}

func NewBridge(feed Feed, target Target, logger *zap.Logger) *Bridge {
	return &Bridge{feed: feed, target: target, logger: logger, now: time.Now}
}

// Start подписывается на таблицу заказов. Повторный вызов не создаёт вторую подписку.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		return nil
	}
	sub, err := b.feed.Subscribe(ctx, constants.OrdersTable, b.handle)
	if err != nil {
		return errors.Join(apperrors.ErrRealtimeUnavailable, err)
	}
	b.sub = sub
	return nil
}

// Stop снимает подписку; после Stop мост можно запустить заново.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub == nil {
		return
	}
	b.sub.Unsubscribe()
	b.sub = nil
}

func (b *Bridge) Subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sub != nil
}

func (b *Bridge) handle(ev events.ChangeEvent) {
	critical := IsCritical(ev)
	metrics.RealtimeEventsTotal.WithLabelValues(strconv.FormatBool(critical)).Inc()
	if !critical {
		return
	}

	b.target.MarkActivity(b.now())
	if err := b.target.ForceRefresh(); err != nil {
		b.logger.Debug("Принудительное обновление по событию не выполнено",
			zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}
