// Package alert переводит изменения счётчика новых заказов в сигналы start/stop звукового оповещения.
package alert

import (
	"sync"

	"go.uber.org/zap"
)

// Signal - внешний источник звука. Реализация передаётся явно, глобального плеера нет.
type Signal interface {
	Start()
	Stop()
}

type Driver struct {
	signal Signal
	logger *zap.Logger

	mu       sync.Mutex
	previous int
	playing  bool
}

func NewDriver(signal Signal, logger *zap.Logger) *Driver {
	return &Driver{signal: signal, logger: logger}
}

// Observe принимает очередное значение счётчика после проекции.
// 0 -> >0 включает оповещение, переход в 0 выключает. Повторы ничего не делают.
func (d *Driver) Observe(newCount int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.previous
	d.previous = newCount

	switch {
	case newCount > 0 && previous == 0:
		d.start()
	case newCount == 0:
		d.stop()
	}
}

// Reset выключает звук и забывает предыдущее значение (закрытие сессии).
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previous = 0
	d.stop()
}

func (d *Driver) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Replay повторяет текущее состояние для нового получателя: если звук уже играет, вызывает target.Start.
// Выполняется под тем же замком, что и Observe, поэтому не пересекается с переключением.
func (d *Driver) Replay(target Signal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		target.Start()
	}
}

func (d *Driver) start() {
	if d.playing {
		return
	}
	d.playing = true
	d.logger.Debug("Включаем звуковое оповещение о новых заказах")
	d.signal.Start()
}

func (d *Driver) stop() {
	if !d.playing {
		return
	}
	d.playing = false
	d.logger.Debug("Выключаем звуковое оповещение")
	d.signal.Stop()
}
