package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStopped возвращается из Wait, если воркер остановили во время паузы
var ErrStopped = errors.New("worker stopped")

// BaseWorker - общее состояние воркеров стрима запросов на разрешение координат:
// имя, consumer group, логгер с полем worker и однократно закрываемый канал остановки.
type BaseWorker struct {
	name          string
	logger        *zap.Logger
	stopChan      chan struct{}
	stopped       bool
	mu            sync.Mutex
	consumerGroup string
}

// NewBaseWorker создает новый BaseWorker
func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
		consumerGroup: consumerGroup,
	}
}

// Name - имя воркера в логах и в WorkerManager
func (w *BaseWorker) Name() string {
	return w.name
}

// Stop закрывает канал остановки; повторный вызов ничего не делает
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true

	return nil
}

// IsStopped сообщает, вызывался ли Stop
func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan закрывается при остановке воркера
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// Wait выдерживает паузу d между повторами. Возвращает ctx.Err() при отмене
// контекста и ErrStopped, если воркер остановили раньше, чем пауза истекла.
func (w *BaseWorker) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopChan:
		return ErrStopped
	}
}

// ConsumerGroup - группа, в которой воркер читает стрим запросов
func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

// Logger возвращает логгер с полем worker
func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}
