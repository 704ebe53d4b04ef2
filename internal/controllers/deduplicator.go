package controllers

import (
	"context"
	"sync"
	"time"
)

// RequestDeduplicator не даёт повторить одно и то же действие чаще, чем раз в ttl.
type RequestDeduplicator struct {
	locks sync.Map
	now   func() time.Time
}

func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{now: time.Now}
}

func (d *RequestDeduplicator) TryAcquire(key string, ttl time.Duration) bool {
	now := d.now()
	expiry := now.Add(ttl)

	for {
		val, loaded := d.locks.LoadOrStore(key, expiry)
		if !loaded {
			return true
		}
		current := val.(time.Time)
		if now.Before(current) {
			return false
		}
		if d.locks.CompareAndSwap(key, current, expiry) {
			return true
		}
	}
}

func (d *RequestDeduplicator) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := d.now()
			d.locks.Range(func(key, value interface{}) bool {
				expiry := value.(time.Time)
				if now.After(expiry) {
					d.locks.Delete(key)
				}
				return true
			})
		}
	}
}
