package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recorder struct {
	starts int
	stops  int
}

func (r *recorder) Start() { r.starts++ }
func (r *recorder) Stop()  { r.stops++ }

func TestObserve_StartsOnFirstNewOrder(t *testing.T) {
	rec := &recorder{}
	d := NewDriver(rec, zap.NewNop())

	d.Observe(0)
	assert.Equal(t, 0, rec.starts)
	assert.Equal(t, 0, rec.stops, "stop while already stopped is a no-op")

	d.Observe(1)
	assert.Equal(t, 1, rec.starts)
	assert.True(t, d.Playing())

	d.Observe(3)
	d.Observe(2)
	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 0, rec.stops)
}

func TestObserve_DropToZeroStopsOnce(t *testing.T) {
	rec := &recorder{}
	d := NewDriver(rec, zap.NewNop())

	d.Observe(2)
	rec.starts = 0

	d.Observe(0)
	d.Observe(0)

	assert.Equal(t, 0, rec.starts)
	assert.Equal(t, 1, rec.stops)
	assert.False(t, d.Playing())
}

func TestObserve_RestartsAfterStop(t *testing.T) {
	rec := &recorder{}
	d := NewDriver(rec, zap.NewNop())

	d.Observe(1)
	d.Observe(0)
	d.Observe(4)

	assert.Equal(t, 2, rec.starts)
	assert.Equal(t, 1, rec.stops)
}

func TestReset(t *testing.T) {
	rec := &recorder{}
	d := NewDriver(rec, zap.NewNop())

	d.Reset()
	assert.Equal(t, 0, rec.stops)

	d.Observe(5)
	d.Reset()
	d.Reset()
	assert.Equal(t, 1, rec.stops)

	d.Observe(1)
	assert.Equal(t, 2, rec.starts)
}

func TestReplay_OnlyWhilePlaying(t *testing.T) {
	rec := &recorder{}
	d := NewDriver(rec, zap.NewNop())

	late := &recorder{}
	d.Replay(late)
	assert.Equal(t, 0, late.starts)

	d.Observe(1)
	d.Replay(late)
	assert.Equal(t, 1, late.starts)
	assert.Equal(t, 1, rec.starts, "replay does not touch the session signal")

	d.Observe(0)
	d.Replay(late)
	assert.Equal(t, 1, late.starts)
	assert.Equal(t, 0, late.stops)
}
