package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/geo"
)

// DistanceEnricher дописывает координаты и расстояние до опорной точки.
// Исходные записи не меняются: каждое обновление - новый срез с новыми записями.
type DistanceEnricher struct {
	queue  *ResolveQueue
	logger *zap.Logger
}

func NewDistanceEnricher(queue *ResolveQueue, logger *zap.Logger) *DistanceEnricher {
	return &DistanceEnricher{
		queue:  queue,
		logger: logger,
	}
}

// Enrich разрешает координаты places и вызывает onUpdate после каждого нового расстояния.
// onUpdate может быть nil. Возвращает итоговый срез; места без координат остаются без distance.
func (e *DistanceEnricher) Enrich(
	ctx context.Context,
	places []domain.PlaceRecord,
	reference domain.Coordinates,
	onUpdate func([]domain.PlaceRecord),
) []domain.PlaceRecord {
	var mu sync.Mutex
	current := append([]domain.PlaceRecord(nil), places...)

	pending := make([]domain.PlaceRecord, 0, len(places))
	index := make([]int, 0, len(places))
	for i, p := range places {
		if p.IsOnline() {
			continue
		}
		pending = append(pending, p)
		index = append(index, i)
	}

	err := e.queue.Run(ctx, pending, nil, func(i int, place domain.PlaceRecord, res ResolveResult) {
		if !res.Found() {
			return
		}
		c := *res.Coordinates
		enriched := place.WithCoordinates(c).WithDistance(geo.DistanceMeters(reference, c))

		mu.Lock()
		next := append([]domain.PlaceRecord(nil), current...)
		next[index[i]] = enriched
		current = next
		mu.Unlock()

		if onUpdate != nil {
			onUpdate(next)
		}
	})
	if err != nil {
		e.logger.Debug("Distance enrichment interrupted", zap.Error(err))
	}

	mu.Lock()
	defer mu.Unlock()
	return current
}
