package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"order-dispatch/internal/events"
	"order-dispatch/pkg/eventbus"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev events.ChangeEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	var key []byte
	switch {
	case ev.New != nil:
		key = []byte(ev.New.ID)
	case ev.Old != nil:
		key = []byte(ev.Old.ID)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: body}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaRelay читает топик в своей consumer group: у каждого экземпляра сервиса должен быть свой GroupID.
type KafkaRelay struct {
	reader *kafka.Reader
	forwarder
}

func NewKafkaRelay(brokers []string, groupID, topic string, bus *eventbus.Bus, logger *zap.Logger) *KafkaRelay {
	return &KafkaRelay{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
			MaxWait:        500 * time.Millisecond,
			StartOffset:    kafka.LastOffset,
		}),
		forwarder: forwarder{bus: bus, logger: logger, source: "kafka"},
	}
}

func (r *KafkaRelay) Run(ctx context.Context) error {
	defer func() {
		if err := r.reader.Close(); err != nil {
			r.logger.Warn("Ошибка закрытия Kafka reader", zap.Error(err))
		}
	}()

	for {
		m, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("Ошибка чтения из Kafka", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}
		r.forward(ctx, m.Value)
	}
}
