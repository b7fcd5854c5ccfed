package usecase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/errors"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/geo"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
	"github.com/Starfish-122/CNX-sub000/internal/usecase/dto"
)

type PlaceUseCase struct {
	source    repository.PlaceSourceRepository
	cache     repository.CacheRepository
	enricher  *DistanceEnricher
	reference domain.Coordinates
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewPlaceUseCase - cache может быть nil
func NewPlaceUseCase(
	source repository.PlaceSourceRepository,
	cache repository.CacheRepository,
	enricher *DistanceEnricher,
	reference domain.Coordinates,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *PlaceUseCase {
	return &PlaceUseCase{
		source:    source,
		cache:     cache,
		enricher:  enricher,
		reference: reference,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// All - полный список из контент-бэкенда, с коротким кешем в Redis
func (uc *PlaceUseCase) All(ctx context.Context) ([]domain.PlaceRecord, error) {
	if uc.cache != nil {
		places, err := uc.cache.GetPlaces(ctx)
		if err != nil {
			uc.logger.Debug("Place list cache read failed", zap.Error(err))
		}
		if places != nil {
			metrics.CacheHits.WithLabelValues("places").Inc()
			return places, nil
		}
		metrics.CacheMisses.WithLabelValues("places").Inc()
	}

	places, err := uc.source.ListPlaces(ctx)
	if err != nil {
		uc.logger.Error("Failed to load places from content backend", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrContentBackend, err)
	}

	if uc.cache != nil {
		if err := uc.cache.SetPlaces(ctx, places, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to cache place list", zap.Error(err))
		}
	}

	return places, nil
}

// List - фильтрация, расстояния и сортировка
func (uc *PlaceUseCase) List(ctx context.Context, req dto.ListPlacesRequest) (*dto.PlaceListResponse, error) {
	ref := uc.reference
	if req.Lat != nil && req.Lng != nil {
		ref = domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
		if !geo.ValidateCoordinates(ref) {
			return nil, errors.ErrInvalidCoordinates
		}
	}
	if req.Region != "" && !domain.IsRegionName(req.Region) {
		return nil, errors.ErrInvalidRegion
	}

	all, err := uc.All(ctx)
	if err != nil {
		return nil, err
	}

	filtered := FilterPlaces(all, req)
	enriched := uc.enricher.Enrich(ctx, filtered, ref, nil)
	SortPlaces(enriched, req.Sort)

	if req.Limit > 0 && len(enriched) > req.Limit {
		enriched = enriched[:req.Limit]
	}

	items := make([]dto.PlaceItem, 0, len(enriched))
	for _, p := range enriched {
		items = append(items, toPlaceItem(p))
	}

	return &dto.PlaceListResponse{
		Places:    items,
		Total:     len(filtered),
		Reference: ref,
	}, nil
}

// GetByName - страница заведения. Имя приходит из пути и может быть URL-кодированным.
func (uc *PlaceUseCase) GetByName(ctx context.Context, name string) (*dto.PlaceItem, error) {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ErrInvalidRequest
	}

	all, err := uc.All(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range all {
		if p.Name != name {
			continue
		}
		enriched := uc.enricher.Enrich(ctx, []domain.PlaceRecord{p}, uc.reference, nil)
		item := toPlaceItem(enriched[0])
		return &item, nil
	}

	return nil, errors.ErrPlaceNotFound
}

// FilterPlaces применяет фильтры запроса; порядок сохраняется
func FilterPlaces(places []domain.PlaceRecord, req dto.ListPlacesRequest) []domain.PlaceRecord {
	q := strings.ToLower(strings.TrimSpace(req.Query))

	out := make([]domain.PlaceRecord, 0, len(places))
	for _, p := range places {
		if req.Region != "" && !domain.MatchesRegion(p.Location, domain.LocationKey(req.Region)) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if !p.HasTag("status", req.Status) ||
			!p.HasTag("mood", req.Mood) ||
			!p.HasTag("service", req.Service) ||
			!p.HasTag("party_size", req.PartySize) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortPlaces: distance - неизвестные расстояния в конце; rating - по убыванию; name - по алфавиту.
// Пустой ключ оставляет порядок бэкенда.
func SortPlaces(places []domain.PlaceRecord, key string) {
	switch key {
	case "distance":
		sort.SliceStable(places, func(i, j int) bool {
			a, b := places[i].Distance, places[j].Distance
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return *a < *b
		})
	case "rating":
		sort.SliceStable(places, func(i, j int) bool {
			return places[i].Rating > places[j].Rating
		})
	case "name":
		sort.SliceStable(places, func(i, j int) bool {
			return places[i].Name < places[j].Name
		})
	}
}

func toPlaceItem(p domain.PlaceRecord) dto.PlaceItem {
	item := dto.PlaceItem{PlaceRecord: p}
	if p.Distance != nil {
		walk := geo.EstimateWalkMinutes(*p.Distance)
		drive := geo.EstimateDriveMinutes(*p.Distance)
		item.WalkMinutes = &walk
		item.DriveMinutes = &drive
	}
	return item
}
