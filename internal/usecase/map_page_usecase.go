package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/errors"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
	"github.com/Starfish-122/CNX-sub000/internal/usecase/dto"
)

// MapPageOptions - параметры страницы карты
type MapPageOptions struct {
	DefaultCenter      domain.Coordinates
	DefaultLevel       int
	ClusterMinLevel    int
	ResolveConcurrency int
}

// mapSession - одна открытая страница карты
type mapSession struct {
	id          string
	containerID string
	mapKey      string

	m        repository.Map
	markers  *MarkerOverlayManager
	polygons *RegionPolygonManager

	mu          sync.Mutex
	selected    string
	places      []domain.PlaceRecord
	cancelBatch context.CancelFunc

	// результат текущего клика; клики сериализуются clickMu
	clickMu  sync.Mutex
	navigate string
	picked   *string
}

// MapPageUseCase - контроллер страницы: держит выбранный регион и набор мест
// и раздаёт каждое изменение вьюпорту, маркерам и полигонам.
type MapPageUseCase struct {
	loader   *MapLoader
	places   *PlaceUseCase
	queue    *ResolveQueue
	viewport *ViewportController
	opts     MapPageOptions
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*mapSession
}

func NewMapPageUseCase(
	loader *MapLoader,
	places *PlaceUseCase,
	resolver CoordinateResolver,
	viewport *ViewportController,
	opts MapPageOptions,
	logger *zap.Logger,
) *MapPageUseCase {
	if opts.DefaultLevel <= 0 {
		opts.DefaultLevel = 4
	}
	return &MapPageUseCase{
		loader:   loader,
		places:   places,
		queue:    NewResolveQueue(resolver, opts.ResolveConcurrency),
		viewport: viewport,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*mapSession),
	}
}

// SDKStatus - состояние загрузчика для отображения пользователю
func (uc *MapPageUseCase) SDKStatus() dto.SDKStatusResponse {
	state, msg := uc.loader.State()
	return dto.SDKStatusResponse{State: string(state), Message: msg}
}

// OpenSession создаёт карту в контейнере, рисует регионы и запускает расстановку маркеров
func (uc *MapPageUseCase) OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	selected, err := canonicalRegion(req.Region)
	if err != nil {
		return nil, err
	}

	places, err := uc.places.All(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	mapKey := req.ContainerID + "#" + id

	m, err := uc.loader.CreateMap(ctx, mapKey, uc.opts.DefaultCenter, uc.opts.DefaultLevel)
	if err != nil {
		state, msg := uc.loader.State()
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.ErrMapUnavailable.WithDetails(map[string]interface{}{
			"state":   string(state),
			"message": msg,
		})
	}

	s := &mapSession{
		id:          id,
		containerID: req.ContainerID,
		mapKey:      mapKey,
		m:           m,
		places:      places,
		selected:    selected,
	}
	s.markers = NewMarkerOverlayManager(m, uc.queue, uc.opts.ClusterMinLevel, func(path string) {
		s.navigate = path
	}, uc.logger)
	s.polygons = NewRegionPolygonManager(m, func(key domain.LocationKey) {
		k := string(key)
		s.picked = &k
		uc.selectRegion(s, k)
	}, uc.logger)
	s.polygons.Init()

	uc.mu.Lock()
	uc.sessions[id] = s
	n := len(uc.sessions)
	uc.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	uc.apply(s)

	uc.logger.Info("Map session opened",
		zap.String("session_id", id),
		zap.String("container_id", req.ContainerID),
		zap.Int("places", len(places)))

	return uc.sessionResponse(s), nil
}

// SelectRegion меняет выбранный регион; nil снимает выбор
func (uc *MapPageUseCase) SelectRegion(ctx context.Context, sessionID string, region *string) (*dto.SessionResponse, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	selected, err := canonicalRegion(region)
	if err != nil {
		return nil, err
	}

	uc.selectRegion(s, selected)
	return uc.sessionResponse(s), nil
}

// Click - клик по оверлею карты: маркер показывает подпись, подпись ведёт на страницу места,
// полигон выбирает регион.
func (uc *MapPageUseCase) Click(ctx context.Context, sessionID, overlayID string) (*dto.ClickResponse, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.clickMu.Lock()
	defer s.clickMu.Unlock()

	s.navigate = ""
	s.picked = nil

	if !s.m.Trigger(overlayID, repository.EventClick) {
		return nil, errors.ErrOverlayNotFound
	}

	return &dto.ClickResponse{
		Overlay:        overlayID,
		Navigate:       s.navigate,
		SelectedRegion: s.picked,
	}, nil
}

// Scene - снимок карты сессии
func (uc *MapPageUseCase) Scene(sessionID string) (domain.SceneSnapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return domain.SceneSnapshot{}, err
	}
	snap := s.m.Snapshot()
	snap.ContainerID = s.containerID
	return snap, nil
}

// Session - текущее состояние сессии
func (uc *MapPageUseCase) Session(sessionID string) (*dto.SessionResponse, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	return uc.sessionResponse(s), nil
}

// CloseSession снимает маркеры и отпускает виджет карты
func (uc *MapPageUseCase) CloseSession(sessionID string) error {
	uc.mu.Lock()
	s, ok := uc.sessions[sessionID]
	delete(uc.sessions, sessionID)
	n := len(uc.sessions)
	uc.mu.Unlock()
	if !ok {
		return errors.ErrSessionNotFound
	}
	metrics.ActiveSessions.Set(float64(n))

	s.mu.Lock()
	if s.cancelBatch != nil {
		s.cancelBatch()
	}
	s.mu.Unlock()

	s.markers.Clear()
	uc.loader.ReleaseMap(s.mapKey)

	uc.logger.Info("Map session closed", zap.String("session_id", sessionID))
	return nil
}

// CloseAll - при остановке сервера
func (uc *MapPageUseCase) CloseAll() {
	uc.mu.RLock()
	ids := make([]string, 0, len(uc.sessions))
	for id := range uc.sessions {
		ids = append(ids, id)
	}
	uc.mu.RUnlock()

	for _, id := range ids {
		_ = uc.CloseSession(id)
	}
}

func (uc *MapPageUseCase) session(id string) (*mapSession, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	s, ok := uc.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return s, nil
}

func (uc *MapPageUseCase) selectRegion(s *mapSession, selected string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = selected
	uc.applyLocked(s)
}

func (uc *MapPageUseCase) apply(s *mapSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc.applyLocked(s)
}

// applyLocked раздаёт (map, places, selectedRegion) всем трём менеджерам.
// Вызывается под s.mu: вьюпорт, стили полигонов и поколение маркеров
// меняются в том же порядке, что и s.selected.
func (uc *MapPageUseCase) applyLocked(s *mapSession) {
	selected := s.selected
	places := s.places
	if s.cancelBatch != nil {
		s.cancelBatch()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelBatch = cancel

	center, bounds := ViewportFor(selected, uc.opts.DefaultCenter)
	uc.viewport.Apply(s.m, center, bounds, selected)
	s.polygons.SetSelected(selected)

	gen := s.markers.Begin()
	go s.markers.Run(ctx, gen, places, selected)
}

func (uc *MapPageUseCase) sessionResponse(s *mapSession) *dto.SessionResponse {
	state, msg := uc.loader.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	return &dto.SessionResponse{
		SessionID:      s.id,
		ContainerID:    s.containerID,
		SelectedRegion: s.selected,
		LoaderState:    string(state),
		Message:        msg,
	}
}

// canonicalRegion - ключ региона или пустая строка для nil
func canonicalRegion(region *string) (string, error) {
	if region == nil || *region == "" {
		return "", nil
	}
	r, ok := domain.RegionByKey(*region)
	if !ok {
		return "", errors.ErrInvalidRegion
	}
	return string(r.Key), nil
}
