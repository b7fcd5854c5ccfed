package mapscene

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
)

const (
	minLevel = 1
	maxLevel = 14

	// ширина видимой области в градусах долготы на уровне 1
	level1SpanDeg = 0.0025
	// условная ширина контейнера в пикселях для учёта padding
	viewportPx = 800
)

// Scene - карта в памяти. Все изменения под одной блокировкой,
// обработчики событий вызываются без неё.
type Scene struct {
	mu sync.Mutex

	containerID string
	center      domain.Coordinates
	level       int
	bounds      *domain.Bounds
	relayouts   int

	seq        int
	overlays   map[string]*overlay
	order      []string
	handlers   map[string][]func()
	clusterers []*clusterer
}

var _ repository.Map = (*Scene)(nil)

// NewScene - пустая карта с центром и уровнем
func NewScene(containerID string, center domain.Coordinates, level int) *Scene {
	return &Scene{
		containerID: containerID,
		center:      center,
		level:       clampLevel(level),
		overlays:    make(map[string]*overlay),
		handlers:    make(map[string][]func()),
	}
}

func (s *Scene) ContainerID() string { return s.containerID }

func (s *Scene) Center() domain.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

func (s *Scene) SetCenter(c domain.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = c
	s.bounds = nil
}

func (s *Scene) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetBounds центрирует карту на прямоугольнике и подбирает уровень,
// при котором он помещается с отступом padding.
func (s *Scene) SetBounds(b domain.Bounds, padding int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = &b
	s.center = b.Center()
	s.level = levelForSpan(math.Max(b.NE.Lat-b.SW.Lat, b.NE.Lng-b.SW.Lng), padding)
}

func (s *Scene) Relayout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relayouts++
}

func levelForSpan(span float64, padding int) int {
	usable := float64(viewportPx - 2*padding)
	if usable <= 0 {
		usable = viewportPx
	}
	need := span * viewportPx / usable
	for level := minLevel; level <= maxLevel; level++ {
		if level1SpanDeg*math.Pow(2, float64(level-1)) >= need {
			return level
		}
	}
	return maxLevel
}

func clampLevel(level int) int {
	return min(max(level, minLevel), maxLevel)
}

func (s *Scene) add(kind domain.OverlayKind, o *overlay) *overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	o.id = fmt.Sprintf("%s-%d", kind, s.seq)
	o.kind = kind
	o.scene = s
	o.visible = true
	s.overlays[o.id] = o
	s.order = append(s.order, o.id)
	return o
}

func (s *Scene) NewMarker(pos domain.Coordinates, title string) repository.OverlayHandle {
	return s.add(domain.OverlayMarker, &overlay{position: pos, title: title})
}

func (s *Scene) NewLabel(pos domain.Coordinates, content string, yAnchor float64) repository.OverlayHandle {
	return s.add(domain.OverlayLabel, &overlay{position: pos, content: content, yAnchor: yAnchor})
}

func (s *Scene) NewPolygon(path []domain.Coordinates, style domain.PolygonStyle) repository.PolygonHandle {
	st := style
	return s.add(domain.OverlayPolygon, &overlay{
		path:  append([]domain.Coordinates(nil), path...),
		style: &st,
	})
}

func (s *Scene) NewClusterer(opts repository.ClustererOptions) repository.Clusterer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &clusterer{scene: s, opts: opts}
	s.clusterers = append(s.clusterers, c)
	return c
}

// On - подписка на событие; для уничтоженного оверлея игнорируется
func (s *Scene) On(target repository.OverlayHandle, event string, handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overlays[target.ID()]; !ok {
		return
	}
	key := target.ID() + "/" + event
	s.handlers[key] = append(s.handlers[key], handler)
}

// Trigger вызывает обработчики вне блокировки: они сами меняют сцену
func (s *Scene) Trigger(targetID, event string) bool {
	s.mu.Lock()
	if _, ok := s.overlays[targetID]; !ok {
		s.mu.Unlock()
		return false
	}
	hs := append([]func(){}, s.handlers[targetID+"/"+event]...)
	s.mu.Unlock()

	for _, h := range hs {
		h()
	}
	return true
}

// remove вызывается под s.mu
func (s *Scene) remove(id string) {
	delete(s.overlays, id)
	for key := range s.handlers {
		if strings.HasPrefix(key, id+"/") {
			delete(s.handlers, key)
		}
	}
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, c := range s.clusterers {
		c.forget(id)
	}
}

// Snapshot - оверлеи в порядке создания и кластеры для текущего уровня
func (s *Scene) Snapshot() domain.SceneSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.SceneSnapshot{
		ContainerID: s.containerID,
		Viewport: domain.Viewport{
			Center: s.center,
			Level:  s.level,
		},
		Relayouts: s.relayouts,
		Overlays:  make([]domain.OverlayState, 0, len(s.order)),
	}
	if s.bounds != nil {
		b := *s.bounds
		snap.Viewport.Bounds = &b
	}

	for _, id := range s.order {
		snap.Overlays = append(snap.Overlays, s.overlays[id].state())
	}
	for _, c := range s.clusterers {
		snap.Clusters = append(snap.Clusters, c.clusters(s.level)...)
	}

	return snap
}

type overlay struct {
	scene *Scene

	id       string
	kind     domain.OverlayKind
	position domain.Coordinates
	path     []domain.Coordinates
	title    string
	content  string
	yAnchor  float64
	visible  bool
	style    *domain.PolygonStyle
}

func (o *overlay) ID() string { return o.id }

func (o *overlay) Visible() bool {
	o.scene.mu.Lock()
	defer o.scene.mu.Unlock()
	return o.visible
}

func (o *overlay) SetVisible(visible bool) {
	o.scene.mu.Lock()
	defer o.scene.mu.Unlock()
	o.visible = visible
}

func (o *overlay) Destroy() {
	o.scene.mu.Lock()
	defer o.scene.mu.Unlock()
	if _, ok := o.scene.overlays[o.id]; !ok {
		return
	}
	o.scene.remove(o.id)
}

func (o *overlay) Style() domain.PolygonStyle {
	o.scene.mu.Lock()
	defer o.scene.mu.Unlock()
	if o.style == nil {
		return domain.PolygonStyle{}
	}
	return *o.style
}

func (o *overlay) SetStyle(style domain.PolygonStyle) {
	o.scene.mu.Lock()
	defer o.scene.mu.Unlock()
	st := style
	o.style = &st
}

// state вызывается под scene.mu
func (o *overlay) state() domain.OverlayState {
	st := domain.OverlayState{
		ID:       o.id,
		Kind:     o.kind,
		Position: o.position,
		Title:    o.title,
		Content:  o.content,
		Visible:  o.visible,
	}
	if len(o.path) > 0 {
		st.Path = append([]domain.Coordinates(nil), o.path...)
		if o.position.IsZero() {
			st.Position = o.path[0]
		}
	}
	if o.style != nil {
		s := *o.style
		st.Style = &s
	}
	return st
}

// clusterer группирует маркеры по сетке, размер ячейки растёт с уровнем
type clusterer struct {
	scene   *Scene
	opts    repository.ClustererOptions
	markers []string
}

func (c *clusterer) AddMarkers(markers []repository.OverlayHandle) {
	c.scene.mu.Lock()
	defer c.scene.mu.Unlock()
	for _, m := range markers {
		if _, ok := c.scene.overlays[m.ID()]; ok {
			c.markers = append(c.markers, m.ID())
		}
	}
}

func (c *clusterer) Clear() {
	c.scene.mu.Lock()
	defer c.scene.mu.Unlock()
	c.markers = nil
}

// forget вызывается под scene.mu
func (c *clusterer) forget(id string) {
	for i, m := range c.markers {
		if m == id {
			c.markers = append(c.markers[:i], c.markers[i+1:]...)
			return
		}
	}
}

// clusters вызывается под scene.mu. Ниже MinLevel маркеры не группируются.
func (c *clusterer) clusters(level int) []domain.Cluster {
	if level < c.opts.MinLevel || len(c.markers) == 0 {
		return nil
	}

	cell := level1SpanDeg * math.Pow(2, float64(level-1)) / 8
	type key struct{ x, y int64 }
	groups := make(map[key][]string)
	var keys []key
	for _, id := range c.markers {
		o, ok := c.scene.overlays[id]
		if !ok || !o.visible {
			continue
		}
		k := key{int64(math.Floor(o.position.Lng / cell)), int64(math.Floor(o.position.Lat / cell))}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], id)
	}

	out := make([]domain.Cluster, 0, len(keys))
	for _, k := range keys {
		ids := groups[k]
		if len(ids) < 2 {
			continue
		}
		out = append(out, domain.Cluster{
			Center:    c.center(ids, k.x, k.y, cell),
			MarkerIDs: ids,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].MarkerIDs) > len(out[j].MarkerIDs) })
	return out
}

// center - среднее маркеров при AverageCenter, иначе центр ячейки
func (c *clusterer) center(ids []string, x, y int64, cell float64) domain.Coordinates {
	if !c.opts.AverageCenter {
		return domain.Coordinates{
			Lat: (float64(y) + 0.5) * cell,
			Lng: (float64(x) + 0.5) * cell,
		}
	}
	var lat, lng float64
	for _, id := range ids {
		p := c.scene.overlays[id].position
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(ids))
	return domain.Coordinates{Lat: lat / n, Lng: lng / n}
}
