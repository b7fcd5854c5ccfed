package usecase

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
)

// labelYAnchor поднимает подпись над маркером
const labelYAnchor = 1.6

// NavigateFunc получает путь страницы заведения
type NavigateFunc func(path string)

// PlacePath - маршрут страницы заведения
func PlacePath(name string) string {
	return "/place/" + url.PathEscape(name)
}

// MarkerOverlayManager владеет маркерами, подписями и кластеризатором одной карты.
// Каждый SetPlaces начинает новое поколение; результаты устаревшего пакета отбрасываются.
type MarkerOverlayManager struct {
	m          repository.Map
	queue      *ResolveQueue
	clusterer  repository.Clusterer
	onNavigate NavigateFunc
	logger     *zap.Logger

	mu         sync.Mutex
	generation uint64
	markers    []repository.OverlayHandle
	labels     []repository.OverlayHandle
}

// NewMarkerOverlayManager создаёт кластеризатор один раз на карту
func NewMarkerOverlayManager(
	m repository.Map,
	queue *ResolveQueue,
	clusterMinLevel int,
	onNavigate NavigateFunc,
	logger *zap.Logger,
) *MarkerOverlayManager {
	if onNavigate == nil {
		onNavigate = func(string) {}
	}
	return &MarkerOverlayManager{
		m:     m,
		queue: queue,
		clusterer: m.NewClusterer(repository.ClustererOptions{
			AverageCenter: true,
			MinLevel:      clusterMinLevel,
		}),
		onNavigate: onNavigate,
		logger:     logger,
	}
}

// SetPlaces заменяет маркеры набором places, отфильтрованным по selectedRegion.
// Пустой selectedRegion означает отсутствие фильтра. Блокирует до конца пакета
// или до того, как его вытеснит следующий вызов. Отменённый ctx ничего не трогает.
func (mgr *MarkerOverlayManager) SetPlaces(ctx context.Context, places []domain.PlaceRecord, selectedRegion string) {
	if ctx.Err() != nil {
		return
	}
	mgr.Run(ctx, mgr.Begin(), places, selectedRegion)
}

// Begin открывает новое поколение и снимает маркеры предыдущего.
// Вызывается синхронно, чтобы порядок поколений совпадал с порядком вызовов.
func (mgr *MarkerOverlayManager) Begin() uint64 {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.generation++
	mgr.clearLocked()
	return mgr.generation
}

// Run расставляет маркеры поколения gen; если поколение уже сменилось, ничего не делает
func (mgr *MarkerOverlayManager) Run(ctx context.Context, gen uint64, places []domain.PlaceRecord, selectedRegion string) {
	filtered := filterPlaces(places, selectedRegion)

	stale := func() bool {
		mgr.mu.Lock()
		defer mgr.mu.Unlock()
		return mgr.generation != gen
	}

	var batch []repository.OverlayHandle
	err := mgr.queue.Run(ctx, filtered, stale, func(_ int, place domain.PlaceRecord, res ResolveResult) {
		if !res.Found() {
			mgr.logger.Debug("Place skipped: no coordinates",
				zap.String("place_id", place.ID),
				zap.String("name", place.Name))
			return
		}

		mgr.mu.Lock()
		defer mgr.mu.Unlock()
		if mgr.generation != gen {
			return
		}
		marker := mgr.addPairLocked(place, *res.Coordinates)
		batch = append(batch, marker)
	})
	if err != nil {
		mgr.logger.Debug("Marker batch interrupted", zap.Uint64("generation", gen), zap.Error(err))
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.generation != gen {
		mgr.logger.Debug("Marker batch superseded", zap.Uint64("generation", gen))
		return
	}
	if len(batch) > 0 {
		mgr.clusterer.AddMarkers(batch)
	}
	metrics.ActiveOverlays.WithLabelValues(string(domain.OverlayMarker)).Set(float64(len(mgr.markers)))

	mgr.logger.Debug("Markers placed",
		zap.String("container_id", mgr.m.ContainerID()),
		zap.String("region", selectedRegion),
		zap.Int("places", len(filtered)),
		zap.Int("markers", len(batch)))
}

// Clear снимает все маркеры и отменяет текущий пакет
func (mgr *MarkerOverlayManager) Clear() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.generation++
	mgr.clearLocked()
}

// Count - число активных маркеров
func (mgr *MarkerOverlayManager) Count() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.markers)
}

func (mgr *MarkerOverlayManager) clearLocked() {
	mgr.clusterer.Clear()
	for _, h := range mgr.markers {
		h.Destroy()
	}
	for _, h := range mgr.labels {
		h.Destroy()
	}
	mgr.markers = nil
	mgr.labels = nil
}

// addPairLocked - маркер и скрытая подпись над ним
func (mgr *MarkerOverlayManager) addPairLocked(place domain.PlaceRecord, pos domain.Coordinates) repository.OverlayHandle {
	marker := mgr.m.NewMarker(pos, place.Name)
	label := mgr.m.NewLabel(pos, place.Name, labelYAnchor)
	label.SetVisible(false)

	mgr.markers = append(mgr.markers, marker)
	mgr.labels = append(mgr.labels, label)

	mgr.m.On(marker, repository.EventClick, func() {
		mgr.showOnly(label)
	})

	path := PlacePath(place.Name)
	mgr.m.On(label, repository.EventClick, func() {
		mgr.onNavigate(path)
	})

	return marker
}

// showOnly - одновременно видна только одна подпись
func (mgr *MarkerOverlayManager) showOnly(label repository.OverlayHandle) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for _, l := range mgr.labels {
		l.SetVisible(false)
	}
	label.SetVisible(true)
}

func filterPlaces(places []domain.PlaceRecord, selectedRegion string) []domain.PlaceRecord {
	out := make([]domain.PlaceRecord, 0, len(places))
	for _, p := range places {
		if selectedRegion != "" && !domain.MatchesRegion(p.Location, domain.LocationKey(selectedRegion)) {
			continue
		}
		if p.IsOnline() {
			continue
		}
		out = append(out, p)
	}
	return out
}
