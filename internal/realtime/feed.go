// Package realtime доставляет события изменения заказов до сессий дашбордов.
package realtime

import (
	"context"

	"go.uber.org/zap"

	"order-dispatch/internal/events"
	"order-dispatch/pkg/eventbus"
)

// Feed - поток событий изменения одной таблицы.
type Feed interface {
	Subscribe(ctx context.Context, table string, onEvent func(events.ChangeEvent)) (Subscription, error)
}

type Subscription interface {
	Unsubscribe()
}

// Publisher отправляет событие всем экземплярам сервиса.
type Publisher interface {
	Publish(ctx context.Context, ev events.ChangeEvent) error
}

// Relay читает события из внешнего брокера и перекладывает их в локальную шину.
type Relay interface {
	Run(ctx context.Context) error
}

// BusFeed - подписка сессий на внутрипроцессную шину.
type BusFeed struct {
	bus *eventbus.Bus
}

func NewBusFeed(bus *eventbus.Bus) *BusFeed {
	return &BusFeed{bus: bus}
}

type busSubscription struct {
	unsubscribe func()
}

func (s busSubscription) Unsubscribe() { s.unsubscribe() }

func (f *BusFeed) Subscribe(_ context.Context, table string, onEvent func(events.ChangeEvent)) (Subscription, error) {
	unsubscribe := f.bus.Subscribe(events.OrderChangedEvent{}.Name(), func(ctx context.Context, e eventbus.Event) error {
		changed, ok := e.(events.OrderChangedEvent)
		if !ok || changed.Change.Table != table {
			return nil
		}
		onEvent(changed.Change)
		return nil
	})
	return busSubscription{unsubscribe: unsubscribe}, nil
}

// BusPublisher публикует событие только внутри процесса.
type BusPublisher struct {
	bus *eventbus.Bus
}

func NewBusPublisher(bus *eventbus.Bus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

func (p *BusPublisher) Publish(ctx context.Context, ev events.ChangeEvent) error {
	p.bus.Publish(ctx, events.OrderChangedEvent{Change: ev})
	return nil
}

// forwarder - общая часть всех Relay: декодирует тело и публикует в шину.
type forwarder struct {
	bus    *eventbus.Bus
	logger *zap.Logger
	source string
}

func (f forwarder) forward(ctx context.Context, body []byte) {
	ev, err := Decode(body)
	if err != nil {
		f.logger.Warn("Пропущено некорректное событие", zap.String("source", f.source), zap.Error(err))
		return
	}
	f.bus.Publish(ctx, events.OrderChangedEvent{Change: ev})
}
