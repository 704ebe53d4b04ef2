package realtime

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"order-dispatch/internal/events"
	"order-dispatch/pkg/eventbus"
)

// RedisPublisher рассылает события через Redis Pub/Sub.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev events.ChangeEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

type RedisRelay struct {
	client  *redis.Client
	channel string
	forwarder
}

func NewRedisRelay(client *redis.Client, channel string, bus *eventbus.Bus, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client:    client,
		channel:   channel,
		forwarder: forwarder{bus: bus, logger: logger, source: "redis"},
	}
}

func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Ждём подтверждения подписки, чтобы сразу увидеть недоступный Redis.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %q: %w", r.channel, err)
	}
	r.logger.Info("Подписка на Redis-канал оформлена", zap.String("channel", r.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.forward(ctx, []byte(msg.Payload))
		}
	}
}
