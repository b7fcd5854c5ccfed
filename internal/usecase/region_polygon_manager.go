package usecase

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/geo"
)

// Стили полигонов регионов
var (
	PolygonStyleDefault = domain.PolygonStyle{
		StrokeColor:   "#4A90E2",
		StrokeWeight:  2,
		StrokeOpacity: 0.8,
		FillColor:     "#4A90E2",
		FillOpacity:   0.15,
		ZIndex:        2,
	}
	PolygonStyleActive = domain.PolygonStyle{
		StrokeColor:   "#FF6B35",
		StrokeWeight:  3,
		StrokeOpacity: 1,
		FillColor:     "#FF6B35",
		FillOpacity:   0.3,
		ZIndex:        3,
	}
	PolygonStyleInactive = domain.PolygonStyle{
		StrokeColor:   "#9E9E9E",
		StrokeWeight:  1,
		StrokeOpacity: 0.5,
		FillColor:     "#9E9E9E",
		FillOpacity:   0.05,
		ZIndex:        1,
	}
)

// RegionSelectFunc получает ключ выбранного кликом региона
type RegionSelectFunc func(key domain.LocationKey)

type regionOverlay struct {
	key     domain.LocationKey
	polygon repository.PolygonHandle
	label   repository.OverlayHandle
}

// RegionPolygonManager рисует полигоны регионов один раз на карту
// и дальше меняет только их стиль и видимость.
type RegionPolygonManager struct {
	m        repository.Map
	onSelect RegionSelectFunc
	logger   *zap.Logger

	once     sync.Once
	mu       sync.Mutex
	overlays []regionOverlay
}

func NewRegionPolygonManager(m repository.Map, onSelect RegionSelectFunc, logger *zap.Logger) *RegionPolygonManager {
	if onSelect == nil {
		onSelect = func(domain.LocationKey) {}
	}
	return &RegionPolygonManager{
		m:        m,
		onSelect: onSelect,
		logger:   logger,
	}
}

// Init создаёт полигон и подпись для каждого региона кроме онлайн. Повторные вызовы ничего не делают.
func (p *RegionPolygonManager) Init() {
	p.once.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		for _, region := range domain.Regions() {
			if region.IsOnline() {
				continue
			}

			polygon := p.m.NewPolygon(region.Polygon, PolygonStyleDefault)
			label := p.m.NewLabel(labelPosition(region), string(region.Key), 0.5)

			key := region.Key
			p.m.On(polygon, repository.EventClick, func() {
				p.onSelect(key)
			})

			p.overlays = append(p.overlays, regionOverlay{key: key, polygon: polygon, label: label})
		}

		p.logger.Debug("Region polygons created",
			zap.String("container_id", p.m.ContainerID()),
			zap.Int("count", len(p.overlays)))
	})
}

// labelPosition - центр bounding box полигона, либо заранее известный центр региона
func labelPosition(region domain.Region) domain.Coordinates {
	if b := geo.PolygonBounds(region.Polygon); b != nil {
		return b.Center()
	}
	return region.Center
}

// SetSelected перекрашивает полигоны под выбранный регион.
// Онлайн скрывает всё, пустая строка - все в стиле по умолчанию.
func (p *RegionPolygonManager) SetSelected(selectedRegion string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if domain.IsOnlineLocation(selectedRegion) {
		for _, o := range p.overlays {
			o.polygon.SetVisible(false)
			o.label.SetVisible(false)
		}
		return
	}

	var active domain.LocationKey
	if selectedRegion != "" {
		if r, ok := domain.RegionByKey(selectedRegion); ok {
			active = r.Key
		} else {
			p.logger.Warn("Unknown region selected", zap.String("region", selectedRegion))
		}
	}

	for _, o := range p.overlays {
		o.polygon.SetVisible(true)
		o.label.SetVisible(true)
		switch {
		case active == "":
			o.polygon.SetStyle(PolygonStyleDefault)
		case o.key == active:
			o.polygon.SetStyle(PolygonStyleActive)
		default:
			o.polygon.SetStyle(PolygonStyleInactive)
		}
	}
}

// PolygonID - id оверлея полигона региона
func (p *RegionPolygonManager) PolygonID(key domain.LocationKey) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.overlays {
		if o.key == key {
			return o.polygon.ID(), true
		}
	}
	return "", false
}

// RegionOf - регион, которому принадлежит оверлей полигона или подписи
func (p *RegionPolygonManager) RegionOf(overlayID string) (domain.LocationKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.overlays {
		if o.polygon.ID() == overlayID || o.label.ID() == overlayID {
			return o.key, true
		}
	}
	return "", false
}
