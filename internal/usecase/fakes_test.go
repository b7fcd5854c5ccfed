package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
)

// fakeSdk records every call made against the map SDK capability.
type fakeSdk struct {
	loadErr    error
	ready      atomic.Bool
	readyAfter int32 // ServicesReady polls before reporting true
	loadGate   chan struct{}

	loads  atomic.Int32
	polls  atomic.Int32
	newMap atomic.Int32
}

func newFakeSdk() *fakeSdk {
	s := &fakeSdk{}
	s.ready.Store(true)
	return s
}

func (s *fakeSdk) LoadScript(ctx context.Context, apiKey string) error {
	s.loads.Add(1)
	if s.loadGate != nil {
		select {
		case <-s.loadGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.loadErr
}

func (s *fakeSdk) ServicesReady() bool {
	n := s.polls.Add(1)
	return s.ready.Load() && n > s.readyAfter
}

func (s *fakeSdk) NewMap(containerID string, center domain.Coordinates, level int) (repository.Map, error) {
	if containerID == "missing" {
		return nil, errors.New("container element not found")
	}
	s.newMap.Add(1)
	return newFakeMap(containerID, center, level), nil
}

type fakeOverlay struct {
	m         *fakeMap
	id        string
	kind      domain.OverlayKind
	pos       domain.Coordinates
	text      string
	visible   bool
	destroyed bool
	style     domain.PolygonStyle
}

func (o *fakeOverlay) ID() string { return o.id }

func (o *fakeOverlay) Visible() bool {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return o.visible
}

func (o *fakeOverlay) SetVisible(v bool) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	o.visible = v
}

func (o *fakeOverlay) Destroy() {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	if o.destroyed {
		return
	}
	o.destroyed = true
	delete(o.m.overlays, o.id)
	delete(o.m.handlers, o.id)
}

func (o *fakeOverlay) Style() domain.PolygonStyle {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return o.style
}

func (o *fakeOverlay) SetStyle(s domain.PolygonStyle) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	o.style = s
}

type fakeClusterer struct {
	m *fakeMap
}

func (c *fakeClusterer) AddMarkers(markers []repository.OverlayHandle) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	for _, mk := range markers {
		c.m.clustered = append(c.m.clustered, mk.ID())
	}
	c.m.clusterBatches++
}

func (c *fakeClusterer) Clear() {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.clustered = nil
}

// fakeMap keeps live overlays in memory so tests can count handles.
type fakeMap struct {
	mu sync.Mutex

	containerID string
	center      domain.Coordinates
	level       int
	bounds      *domain.Bounds
	padding     int
	relayouts   int
	setCenters  int

	seq            int
	overlays       map[string]*fakeOverlay
	handlers       map[string][]func()
	clusterers     int
	clustererOpts  repository.ClustererOptions
	clustered      []string
	clusterBatches int
}

func newFakeMap(containerID string, center domain.Coordinates, level int) *fakeMap {
	return &fakeMap{
		containerID: containerID,
		center:      center,
		level:       level,
		overlays:    make(map[string]*fakeOverlay),
		handlers:    make(map[string][]func()),
	}
}

func (m *fakeMap) ContainerID() string { return m.containerID }

func (m *fakeMap) Center() domain.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

func (m *fakeMap) SetCenter(c domain.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = c
	m.bounds = nil
	m.setCenters++
}

func (m *fakeMap) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *fakeMap) SetBounds(b domain.Bounds, padding int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bounds = &b
	m.padding = padding
	m.center = b.Center()
}

func (m *fakeMap) Relayout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayouts++
}

func (m *fakeMap) add(kind domain.OverlayKind, pos domain.Coordinates, text string, visible bool) *fakeOverlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	o := &fakeOverlay{
		m:       m,
		id:      fmt.Sprintf("%s-%d", kind, m.seq),
		kind:    kind,
		pos:     pos,
		text:    text,
		visible: visible,
	}
	m.overlays[o.id] = o
	return o
}

func (m *fakeMap) NewMarker(pos domain.Coordinates, title string) repository.OverlayHandle {
	return m.add(domain.OverlayMarker, pos, title, true)
}

func (m *fakeMap) NewLabel(pos domain.Coordinates, content string, _ float64) repository.OverlayHandle {
	return m.add(domain.OverlayLabel, pos, content, true)
}

func (m *fakeMap) NewPolygon(path []domain.Coordinates, style domain.PolygonStyle) repository.PolygonHandle {
	var pos domain.Coordinates
	if len(path) > 0 {
		pos = path[0]
	}
	o := m.add(domain.OverlayPolygon, pos, "", true)
	o.SetStyle(style)
	return o
}

func (m *fakeMap) NewClusterer(opts repository.ClustererOptions) repository.Clusterer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusterers++
	m.clustererOpts = opts
	return &fakeClusterer{m: m}
}

func (m *fakeMap) On(target repository.OverlayHandle, event string, handler func()) {
	if event != repository.EventClick {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[target.ID()] = append(m.handlers[target.ID()], handler)
}

func (m *fakeMap) Trigger(targetID, event string) bool {
	m.mu.Lock()
	if _, ok := m.overlays[targetID]; !ok || event != repository.EventClick {
		m.mu.Unlock()
		return false
	}
	hs := append([]func(){}, m.handlers[targetID]...)
	m.mu.Unlock()

	for _, h := range hs {
		h()
	}
	return true
}

func (m *fakeMap) Snapshot() domain.SceneSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := domain.SceneSnapshot{
		ContainerID: m.containerID,
		Viewport:    domain.Viewport{Bounds: m.bounds, Center: m.center, Level: m.level},
		Relayouts:   m.relayouts,
	}
	for _, o := range m.overlays {
		st := domain.OverlayState{ID: o.id, Kind: o.kind, Position: o.pos, Visible: o.visible}
		if o.kind == domain.OverlayPolygon {
			s := o.style
			st.Style = &s
		}
		snap.Overlays = append(snap.Overlays, st)
	}
	return snap
}

// live returns the live overlays of the given kind.
func (m *fakeMap) live(kind domain.OverlayKind) []*fakeOverlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*fakeOverlay
	for _, o := range m.overlays {
		if o.kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func (m *fakeMap) liveTexts(kind domain.OverlayKind) []string {
	var out []string
	for _, o := range m.live(kind) {
		out = append(out, o.text)
	}
	return out
}

func (m *fakeMap) visibleTexts(kind domain.OverlayKind) []string {
	var out []string
	for _, o := range m.live(kind) {
		if o.Visible() {
			out = append(out, o.text)
		}
	}
	return out
}

// find returns the first live overlay of kind with the given text.
func (m *fakeMap) find(kind domain.OverlayKind, text string) *fakeOverlay {
	for _, o := range m.live(kind) {
		if o.text == text {
			return o
		}
	}
	return nil
}

func (m *fakeMap) clusteredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clustered)
}
