package worker

import (
	"context"
)

// Worker - фоновый обработчик стрима, которым управляет WorkerManager
type Worker interface {
	// Start блокируется до остановки воркера или отмены ctx
	Start(ctx context.Context) error

	// Stop просит воркер завершиться; должен быть идемпотентным
	Stop() error

	// Name идентифицирует воркер в логах менеджера
	Name() string
}
