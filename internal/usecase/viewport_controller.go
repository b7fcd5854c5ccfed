package usecase

import (
	"time"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/geo"
)

const (
	defaultBoundsPadding = 50
	defaultRelayoutDelay = 100 * time.Millisecond
)

// ViewportController двигает вид карты под выбранный регион или центр.
type ViewportController struct {
	padding       int
	relayoutDelay time.Duration
	schedule      func(d time.Duration, f func())
	logger        *zap.Logger
}

// NewViewportController - padding в пикселях, relayoutDelay для отложенного пересчёта размеров
func NewViewportController(padding int, relayoutDelay time.Duration, logger *zap.Logger) *ViewportController {
	if padding <= 0 {
		padding = defaultBoundsPadding
	}
	if relayoutDelay <= 0 {
		relayoutDelay = defaultRelayoutDelay
	}
	return &ViewportController{
		padding:       padding,
		relayoutDelay: relayoutDelay,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		logger: logger,
	}
}

// WithScheduler подменяет отложенный вызов (для тестов)
func (v *ViewportController) WithScheduler(schedule func(d time.Duration, f func())) *ViewportController {
	v.schedule = schedule
	return v
}

// Apply применяет (center, bounds, selectedRegion) к карте.
// Онлайн-регион замораживает вид. Bounds важнее центра.
func (v *ViewportController) Apply(m repository.Map, center domain.Coordinates, bounds *domain.Bounds, selectedRegion string) {
	if m == nil {
		return
	}
	if domain.IsOnlineLocation(selectedRegion) {
		return
	}

	if bounds != nil {
		m.SetBounds(*bounds, v.padding)
		v.schedule(v.relayoutDelay, m.Relayout)
		v.logger.Debug("Viewport fitted to bounds",
			zap.String("container_id", m.ContainerID()),
			zap.String("sw", bounds.SW.String()),
			zap.String("ne", bounds.NE.String()))
		return
	}

	m.SetCenter(center)
}

// ViewportFor - вид для выбранного региона: bounds полигона или центр по умолчанию
func ViewportFor(selectedRegion string, fallback domain.Coordinates) (domain.Coordinates, *domain.Bounds) {
	region, ok := domain.RegionByKey(selectedRegion)
	if !ok || region.IsOnline() {
		return fallback, nil
	}
	return region.Center, geo.PolygonBounds(region.Polygon)
}
