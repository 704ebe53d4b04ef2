package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"order-dispatch/internal/events"
	"order-dispatch/pkg/eventbus"
)

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil)
}

// AMQPPublisher рассылает события через fanout-обменник RabbitMQ.
type AMQPPublisher struct {
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("amqp exchange %q: %w", exchange, err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev events.ChangeEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

// AMQPRelay держит эксклюзивную очередь экземпляра, привязанную к обменнику.
type AMQPRelay struct {
	conn     *amqp.Connection
	exchange string
	forwarder
}

func NewAMQPRelay(conn *amqp.Connection, exchange string, bus *eventbus.Bus, logger *zap.Logger) *AMQPRelay {
	return &AMQPRelay{
		conn:      conn,
		exchange:  exchange,
		forwarder: forwarder{bus: bus, logger: logger, source: "rabbitmq"},
	}
}

func (r *AMQPRelay) Run(ctx context.Context) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, r.exchange); err != nil {
		return fmt.Errorf("amqp exchange %q: %w", r.exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("amqp queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", r.exchange, false, nil); err != nil {
		return fmt.Errorf("amqp bind: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	r.logger.Info("Очередь RabbitMQ привязана к обменнику", zap.String("queue", q.Name), zap.String("exchange", r.exchange))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp: канал доставки закрыт")
			}
			r.forward(ctx, d.Body)
		}
	}
}
