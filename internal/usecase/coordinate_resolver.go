package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/geo"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/utils"
)

const keywordSearchSize = 15

// CoordinateResolver превращает запись места в координаты.
// Никогда не возвращает ошибку: промах это пустой ResolveResult.
type CoordinateResolver interface {
	Resolve(ctx context.Context, place domain.PlaceRecord) ResolveResult
}

// ResolveResult - результат разрешения координат.
// Flagged выставляется, если точка дальше порога от опорной; вызывающий решает сам.
type ResolveResult struct {
	Coordinates           *domain.Coordinates
	Strategy              domain.ResolveStrategy
	Flagged               bool
	DistanceFromReference float64
}

// Found - удалось ли получить координаты
func (r ResolveResult) Found() bool {
	return r.Coordinates != nil
}

// ResolverOptions - параметры цепочки
type ResolverOptions struct {
	Reference        domain.Coordinates
	RegionHint       string
	SanityThresholdM float64
}

// ChainResolver - цепочка стратегий с выходом на первом успехе:
// ссылка Kakao Map -> адрес -> поле location -> поиск по названию.
type ChainResolver struct {
	search repository.PlaceSearchRepository
	opts   ResolverOptions
	logger *zap.Logger
}

// NewChainResolver - создание нового ChainResolver
func NewChainResolver(
	search repository.PlaceSearchRepository,
	opts ResolverOptions,
	logger *zap.Logger,
) *ChainResolver {
	return &ChainResolver{
		search: search,
		opts:   opts,
		logger: logger,
	}
}

type resolveStep struct {
	strategy domain.ResolveStrategy
	run      func(ctx context.Context, place domain.PlaceRecord) *domain.Coordinates
}

// SanityChecker проверяет готовые координаты тем же порогом, что и цепочка
type SanityChecker interface {
	Check(place domain.PlaceRecord, strategy domain.ResolveStrategy, c domain.Coordinates) ResolveResult
}

// Resolve проходит цепочку по порядку. Онлайн-места не резолвятся вовсе.
func (r *ChainResolver) Resolve(ctx context.Context, place domain.PlaceRecord) ResolveResult {
	if place.IsOnline() {
		return ResolveResult{}
	}
	if place.Coordinates != nil {
		return r.Check(place, domain.StrategyRecord, *place.Coordinates)
	}

	steps := []resolveStep{
		{domain.StrategyKakaoURL, r.byKakaoURL},
		{domain.StrategyAddress, r.byAddress},
		{domain.StrategyLocation, r.byLocation},
		{domain.StrategyKeyword, r.byKeyword},
	}

	for _, step := range steps {
		if ctx.Err() != nil {
			break
		}
		c := step.run(ctx, place)
		if c == nil {
			continue
		}
		return r.Check(place, step.strategy, *c)
	}

	metrics.ResolveTotal.WithLabelValues("none").Inc()
	r.logger.Warn("No coordinates found for place",
		zap.String("place_id", place.ID),
		zap.String("name", place.Name))

	return ResolveResult{}
}

// Check - проверка расстояния до опорной точки, только предупреждение
func (r *ChainResolver) Check(place domain.PlaceRecord, strategy domain.ResolveStrategy, c domain.Coordinates) ResolveResult {
	dist := geo.DistanceMeters(r.opts.Reference, c)
	flagged := r.opts.SanityThresholdM > 0 && dist > r.opts.SanityThresholdM

	metrics.ResolveTotal.WithLabelValues(string(strategy)).Inc()
	if flagged {
		metrics.ResolveFlagged.Inc()
		r.logger.Warn("Resolved coordinates are far from reference point",
			zap.String("place_id", place.ID),
			zap.String("name", place.Name),
			zap.String("strategy", string(strategy)),
			zap.Float64("distance_m", dist),
			zap.Float64("threshold_m", r.opts.SanityThresholdM))
	}

	return ResolveResult{
		Coordinates:           &c,
		Strategy:              strategy,
		Flagged:               flagged,
		DistanceFromReference: dist,
	}
}

// byKakaoURL ищет место по названию и принимает документ с тем же id, что в ссылке
func (r *ChainResolver) byKakaoURL(ctx context.Context, place domain.PlaceRecord) *domain.Coordinates {
	id := utils.KakaoPlaceID(place.KakaoMapURL)
	if id == "" || strings.TrimSpace(place.Name) == "" {
		return nil
	}

	queries := []string{place.Name, place.Name + " " + r.regionLabel(place)}
	for _, q := range queries {
		for _, res := range r.keywordSearch(ctx, q) {
			if res.ID == id || utils.KakaoPlaceID(res.PlaceURL) == id {
				c := res.Coordinates
				return &c
			}
		}
	}

	r.logger.Debug("Kakao map id did not match any search result",
		zap.String("place_id", place.ID),
		zap.String("kakao_id", id))
	return nil
}

func (r *ChainResolver) byAddress(ctx context.Context, place domain.PlaceRecord) *domain.Coordinates {
	if strings.TrimSpace(place.Address) == "" {
		return nil
	}
	return r.geocode(ctx, place.Address)
}

// byLocation геокодирует поле location, если это не название региона
func (r *ChainResolver) byLocation(ctx context.Context, place domain.PlaceRecord) *domain.Coordinates {
	loc := strings.TrimSpace(place.Location)
	if loc == "" || domain.IsRegionName(loc) {
		return nil
	}
	return r.geocode(ctx, loc)
}

func (r *ChainResolver) byKeyword(ctx context.Context, place domain.PlaceRecord) *domain.Coordinates {
	name := strings.TrimSpace(place.Name)
	if name == "" {
		return nil
	}

	queries := []string{name + " " + r.opts.RegionHint, name}
	for _, q := range queries {
		if results := r.keywordSearch(ctx, q); len(results) > 0 {
			c := results[0].Coordinates
			return &c
		}
	}
	return nil
}

func (r *ChainResolver) regionLabel(place domain.PlaceRecord) string {
	if region, ok := domain.RegionByKey(place.Location); ok && !region.IsOnline() {
		return string(region.Key)
	}
	return r.opts.RegionHint
}

func (r *ChainResolver) keywordSearch(ctx context.Context, query string) []domain.PlaceSearchResult {
	ref := r.opts.Reference
	results, err := r.search.KeywordSearch(ctx, strings.TrimSpace(query), domain.SearchOptions{
		Near: &ref,
		Size: keywordSearchSize,
	})
	if err != nil {
		r.logger.Warn("Keyword search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return results
}

func (r *ChainResolver) geocode(ctx context.Context, query string) *domain.Coordinates {
	results, err := r.search.AddressSearch(ctx, query)
	if err != nil {
		r.logger.Warn("Address search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(results) == 0 {
		return nil
	}
	c := results[0].Coordinates
	return &c
}
