package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
)

// CachedResolver оборачивает цепочку: координаты из записи, затем Redis,
// затем PostgreSQL, и только потом внешние запросы. Найденное сохраняется в оба хранилища.
type CachedResolver struct {
	inner  CoordinateResolver
	cache  repository.CacheRepository
	store  repository.CoordinateRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedResolver - cache и store могут быть nil
func NewCachedResolver(
	inner CoordinateResolver,
	cache repository.CacheRepository,
	store repository.CoordinateRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *CachedResolver {
	return &CachedResolver{
		inner:  inner,
		cache:  cache,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, place domain.PlaceRecord) ResolveResult {
	if place.IsOnline() {
		return ResolveResult{}
	}

	if place.Coordinates != nil {
		return r.fromRecord(place)
	}

	if place.ID == "" {
		return r.inner.Resolve(ctx, place)
	}

	fingerprint := place.Fingerprint()

	if rc := r.fromCache(ctx, place.ID, fingerprint); rc != nil {
		return fromStored(*rc)
	}

	if rc := r.fromStore(ctx, place.ID, fingerprint); rc != nil {
		r.toCache(ctx, *rc)
		return fromStored(*rc)
	}

	return r.resolveAndStore(ctx, place, fingerprint)
}

// Refresh игнорирует сохранённые координаты и заново проходит цепочку.
// Используется воркером по запросу с force.
func (r *CachedResolver) Refresh(ctx context.Context, place domain.PlaceRecord) ResolveResult {
	if place.IsOnline() {
		return ResolveResult{}
	}
	if place.Coordinates != nil {
		return r.fromRecord(place)
	}
	if place.ID == "" {
		return r.inner.Resolve(ctx, place)
	}
	return r.resolveAndStore(ctx, place, place.Fingerprint())
}

func (r *CachedResolver) resolveAndStore(ctx context.Context, place domain.PlaceRecord, fingerprint string) ResolveResult {
	res := r.inner.Resolve(ctx, place)
	if !res.Found() {
		return res
	}

	rc := domain.ResolvedCoordinates{
		PlaceID:               place.ID,
		Coordinates:           *res.Coordinates,
		Strategy:              res.Strategy,
		Flagged:               res.Flagged,
		DistanceFromReference: res.DistanceFromReference,
		Fingerprint:           fingerprint,
		ResolvedAt:            time.Now().UTC(),
	}
	r.toCache(ctx, rc)
	if r.store != nil {
		if err := r.store.Save(ctx, rc); err != nil {
			r.logger.Warn("Failed to store resolved coordinates",
				zap.String("place_id", place.ID), zap.Error(err))
		}
	}

	return res
}

// fromRecord - координаты из самой записи; порог проверяет цепочка, если умеет
func (r *CachedResolver) fromRecord(place domain.PlaceRecord) ResolveResult {
	c := *place.Coordinates
	if sc, ok := r.inner.(SanityChecker); ok {
		return sc.Check(place, domain.StrategyRecord, c)
	}
	return ResolveResult{Coordinates: &c, Strategy: domain.StrategyRecord}
}

// RefreshResolver - CoordinateResolver поверх Refresh
type RefreshResolver struct {
	*CachedResolver
}

func (r RefreshResolver) Resolve(ctx context.Context, place domain.PlaceRecord) ResolveResult {
	return r.Refresh(ctx, place)
}

func (r *CachedResolver) fromCache(ctx context.Context, placeID, fingerprint string) *domain.ResolvedCoordinates {
	if r.cache == nil {
		return nil
	}
	rc, err := r.cache.GetCoordinates(ctx, placeID)
	if err != nil {
		r.logger.Debug("Coordinate cache read failed", zap.String("place_id", placeID), zap.Error(err))
		return nil
	}
	if rc == nil || rc.Fingerprint != fingerprint {
		metrics.CacheMisses.WithLabelValues("coordinates").Inc()
		return nil
	}
	metrics.CacheHits.WithLabelValues("coordinates").Inc()
	return rc
}

func (r *CachedResolver) fromStore(ctx context.Context, placeID, fingerprint string) *domain.ResolvedCoordinates {
	if r.store == nil {
		return nil
	}
	rc, err := r.store.Get(ctx, placeID)
	if err != nil {
		r.logger.Warn("Coordinate store read failed", zap.String("place_id", placeID), zap.Error(err))
		return nil
	}
	if rc == nil || rc.Fingerprint != fingerprint {
		return nil
	}
	return rc
}

func (r *CachedResolver) toCache(ctx context.Context, rc domain.ResolvedCoordinates) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetCoordinates(ctx, rc, r.ttl); err != nil {
		r.logger.Debug("Coordinate cache write failed", zap.String("place_id", rc.PlaceID), zap.Error(err))
	}
}

func fromStored(rc domain.ResolvedCoordinates) ResolveResult {
	c := rc.Coordinates
	return ResolveResult{
		Coordinates:           &c,
		Strategy:              rc.Strategy,
		Flagged:               rc.Flagged,
		DistanceFromReference: rc.DistanceFromReference,
	}
}
