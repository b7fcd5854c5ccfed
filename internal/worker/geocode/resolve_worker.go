package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
	"github.com/Starfish-122/CNX-sub000/internal/worker"
)

const defaultRetryDelay = 500 * time.Millisecond

// ResolveWorker читает запросы из stream:places:resolve, разрешает координаты
// заведений и публикует итог в stream:places:resolved.
type ResolveWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	source       repository.PlaceSourceRepository
	store        repository.CoordinateRepository
	resolver     *usecase.CachedResolver
	concurrency  int
	consumerName string
	maxRetries   int
	retryDelay   time.Duration
}

// NewResolveWorker - store может быть nil, тогда предварительной выборки нет
func NewResolveWorker(
	streamRepo repository.StreamRepository,
	source repository.PlaceSourceRepository,
	store repository.CoordinateRepository,
	resolver *usecase.CachedResolver,
	consumerGroup string,
	concurrency int,
	maxRetries int,
	logger *zap.Logger,
) *ResolveWorker {
	hostname, _ := os.Hostname()
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &ResolveWorker{
		BaseWorker:   worker.NewBaseWorker("place-resolve", consumerGroup, logger),
		streamRepo:   streamRepo,
		source:       source,
		store:        store,
		resolver:     resolver,
		concurrency:  concurrency,
		consumerName: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		maxRetries:   maxRetries,
		retryDelay:   defaultRetryDelay,
	}
}

// Start блокируется до Stop или отмены ctx
func (w *ResolveWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting ResolveWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("concurrency", w.concurrency))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamPlacesResolve, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := w.streamRepo.ConsumeStream(ctx, domain.StreamPlacesResolve, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *ResolveWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger()

	var event domain.PlacesResolveEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		logger.Warn("Failed to parse message, skipping",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		metrics.WorkerRequests.WithLabelValues("invalid").Inc()
		// ACK битое сообщение чтобы не застревало
		_ = w.streamRepo.AckMessage(ctx, domain.StreamPlacesResolve, w.ConsumerGroup(), msg.ID)
		return
	}

	done := w.Process(ctx, event)
	if ctx.Err() != nil {
		// без ACK сообщение останется в PEL и будет перечитано
		return
	}

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamPlacesResolved, done); err != nil {
		logger.Error("Failed to publish resolved event",
			zap.String("request_id", event.RequestID.String()),
			zap.Error(err))
	}
	if err := w.streamRepo.AckMessage(ctx, domain.StreamPlacesResolve, w.ConsumerGroup(), msg.ID); err != nil {
		logger.Error("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// Process выполняет один запрос и возвращает итог для публикации
func (w *ResolveWorker) Process(ctx context.Context, event domain.PlacesResolveEvent) domain.PlacesResolvedEvent {
	logger := w.Logger().With(zap.String("request_id", event.RequestID.String()))
	start := time.Now()
	done := domain.PlacesResolvedEvent{RequestID: event.RequestID}

	places, err := w.listPlaces(ctx)
	if err != nil {
		logger.Error("Failed to load places", zap.Error(err))
		metrics.WorkerRequests.WithLabelValues("error").Inc()
		done.Error = err.Error()
		done.DurationMs = time.Since(start).Milliseconds()
		return done
	}

	var pending []domain.PlaceRecord
	for _, p := range places {
		if !event.Wants(p.ID) {
			continue
		}
		done.Total++
		if p.IsOnline() {
			done.Skipped++
			continue
		}
		pending = append(pending, p)
	}

	var mu sync.Mutex
	record := func(place domain.PlaceRecord, found, flagged bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case !found:
			done.Missing = append(done.Missing, place.ID)
		case flagged:
			done.Resolved++
			done.Flagged = append(done.Flagged, place.ID)
		default:
			done.Resolved++
		}
	}

	if !event.Force {
		pending = w.dropStored(ctx, pending, func(p domain.PlaceRecord, rc domain.ResolvedCoordinates) {
			record(p, true, rc.Flagged)
		})
	}

	var resolver usecase.CoordinateResolver = w.resolver
	if event.Force {
		resolver = usecase.RefreshResolver{CachedResolver: w.resolver}
	}
	queue := usecase.NewResolveQueue(resolver, w.concurrency)
	if err := queue.Run(ctx, pending, nil, func(_ int, place domain.PlaceRecord, res usecase.ResolveResult) {
		record(place, res.Found(), res.Flagged)
	}); err != nil {
		done.Error = err.Error()
	}

	sort.Strings(done.Missing)
	sort.Strings(done.Flagged)
	done.DurationMs = time.Since(start).Milliseconds()

	result := "ok"
	if done.Error != "" {
		result = "error"
	}
	metrics.WorkerRequests.WithLabelValues(result).Inc()

	logger.Info("Resolve request processed",
		zap.Int("total", done.Total),
		zap.Int("resolved", done.Resolved),
		zap.Int("missing", len(done.Missing)),
		zap.Int("flagged", len(done.Flagged)),
		zap.Int("skipped", done.Skipped),
		zap.Bool("force", event.Force),
		zap.Int64("duration_ms", done.DurationMs))

	return done
}

// listPlaces повторяет запрос к контент-бэкенду до maxRetries раз
func (w *ResolveWorker) listPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		places, err := w.source.ListPlaces(ctx)
		if err == nil {
			return places, nil
		}
		lastErr = err
		w.Logger().Warn("Place source request failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", w.maxRetries),
			zap.Error(err))

		if attempt == w.maxRetries {
			break
		}
		if err := w.Wait(ctx, time.Duration(attempt)*w.retryDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("place source unavailable after %d attempts: %w", w.maxRetries, lastErr)
}

// dropStored убирает места, чьи координаты уже лежат в хранилище с тем же отпечатком.
// Одна выборка вместо запроса на каждое место.
func (w *ResolveWorker) dropStored(
	ctx context.Context,
	places []domain.PlaceRecord,
	onStored func(domain.PlaceRecord, domain.ResolvedCoordinates),
) []domain.PlaceRecord {
	if w.store == nil || len(places) == 0 {
		return places
	}

	ids := make([]string, 0, len(places))
	for _, p := range places {
		if p.ID != "" && p.Coordinates == nil {
			ids = append(ids, p.ID)
		}
	}

	stored, err := w.store.GetMany(ctx, ids)
	if err != nil {
		w.Logger().Warn("Coordinate store batch read failed", zap.Error(err))
		return places
	}

	out := make([]domain.PlaceRecord, 0, len(places))
	for _, p := range places {
		rc, ok := stored[p.ID]
		if ok && rc.Fingerprint == p.Fingerprint() {
			onStored(p, rc)
			continue
		}
		out = append(out, p)
	}
	return out
}
