package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event представляет собой любое событие в системе.
type Event interface {
	Name() string
}

// Listener - это обработчик (слушатель) событий.
type Listener func(ctx context.Context, event Event) error

type subscription struct {
	id       uint64
	listener Listener
}

// Bus - внутрипроцессная шина событий.
type Bus struct {
	listeners map[string][]subscription
	nextID    uint64
	mu        sync.RWMutex
	logger    *zap.Logger
	timeout   time.Duration
}

// New создает новую шину событий.
func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]subscription),
		logger:    logger,
		timeout:   time.Minute,
	}
}

// Subscribe подписывает слушателя на событие и возвращает функцию отписки.
// Повторный вызов функции отписки ничего не делает.
func (b *Bus) Subscribe(eventName string, listener Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[eventName] = append(b.listeners[eventName], subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(eventName, id) })
	}
}

func (b *Bus) unsubscribe(eventName string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.listeners[eventName]
	for i, s := range subs {
		if s.id == id {
			b.listeners[eventName] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.listeners[eventName]) == 0 {
		delete(b.listeners, eventName)
	}
}

// Listeners - количество подписчиков события.
func (b *Bus) Listeners(eventName string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventName])
}

// Publish публикует событие. Каждый подписчик вызывается в своей горутине.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventName := event.Name()
	for _, s := range b.listeners[eventName] {
		go func(l Listener) {
			// Ограничиваем время обработки, чтобы не копить "вечные" горутины.
			ctxWithTimeout, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
			defer cancel()

			if err := l(ctxWithTimeout, event); err != nil {
				b.logger.Error("Ошибка в обработчике события",
					zap.String("event", eventName),
					zap.Error(err),
				)
			}
		}(s.listener)
	}
}
