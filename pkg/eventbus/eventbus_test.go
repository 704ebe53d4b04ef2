package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := New(zap.NewNop())
	var hits atomic.Int32

	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		hits.Add(1)
		return nil
	})
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		hits.Add(1)
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})
	require.Eventually(t, func() bool { return hits.Load() == 2 }, time.Second, time.Millisecond)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New(zap.NewNop())
	var hits atomic.Int32

	unsubscribe := bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		hits.Add(1)
		return nil
	})
	assert.Equal(t, 1, bus.Listeners("ping"))

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, bus.Listeners("ping"))

	bus.Publish(context.Background(), pingEvent{})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), hits.Load())
}
