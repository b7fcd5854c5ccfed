package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
)

// LoaderState - состояние загрузки SDK карты
type LoaderState string

const (
	LoaderUnloaded LoaderState = "unloaded"
	LoaderLoading  LoaderState = "loading"
	LoaderReady    LoaderState = "ready"
	LoaderFailed   LoaderState = "failed"
)

// ErrMapKeyMissing - ключ приложения карты не задан
var ErrMapKeyMissing = errors.New("map API key is not configured")

var loaderStateValue = map[LoaderState]float64{
	LoaderUnloaded: 0,
	LoaderLoading:  1,
	LoaderReady:    2,
	LoaderFailed:   3,
}

// MapLoaderOptions - параметры загрузчика
type MapLoaderOptions struct {
	APIKey       string
	ReadyTimeout time.Duration
	PollInterval time.Duration
}

// MapLoader загружает SDK ровно один раз на процесс и владеет виджетами карт.
// Failed - конечное состояние: повторных попыток нет.
type MapLoader struct {
	sdk    repository.MapSdk
	opts   MapLoaderOptions
	logger *zap.Logger

	loads singleflight.Group

	mu       sync.Mutex
	state    LoaderState
	message  string
	injected bool
	maps     map[string]repository.Map
}

// NewMapLoader - создание загрузчика в состоянии Unloaded
func NewMapLoader(sdk repository.MapSdk, opts MapLoaderOptions, logger *zap.Logger) *MapLoader {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 10 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	metrics.SDKState.Set(loaderStateValue[LoaderUnloaded])

	return &MapLoader{
		sdk:    sdk,
		opts:   opts,
		logger: logger,
		state:  LoaderUnloaded,
		maps:   make(map[string]repository.Map),
	}
}

// State - текущее состояние и сообщение об ошибке для пользователя
func (l *MapLoader) State() (LoaderState, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.message
}

func (l *MapLoader) setState(state LoaderState, message string) {
	l.mu.Lock()
	l.state = state
	l.message = message
	l.mu.Unlock()
	metrics.SDKState.Set(loaderStateValue[state])
}

// EnsureReady дожидается готовности SDK не дольше ReadyTimeout.
// Никогда не возвращает ошибку: false означает, что карта недоступна.
func (l *MapLoader) EnsureReady(ctx context.Context) bool {
	state, _ := l.State()
	switch state {
	case LoaderReady:
		return true
	case LoaderFailed:
		return false
	}

	timeout := time.NewTimer(l.opts.ReadyTimeout)
	defer timeout.Stop()

	// Загрузка не привязана к ctx вызывающего: её ждут и другие сессии.
	done := l.loads.DoChan("sdk", func() (interface{}, error) {
		return nil, l.load()
	})

	select {
	case res := <-done:
		if res.Err != nil {
			return false
		}
	case <-timeout.C:
		l.logger.Warn("Map SDK load timed out", zap.Duration("timeout", l.opts.ReadyTimeout))
		return false
	case <-ctx.Done():
		return false
	}

	return l.waitServices(ctx, timeout.C)
}

// load - единственная попытка загрузки скрипта
func (l *MapLoader) load() error {
	l.mu.Lock()
	switch {
	case l.state == LoaderReady, l.injected:
		l.mu.Unlock()
		return nil
	case l.state == LoaderFailed:
		err := errors.New(l.message)
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()

	if strings.TrimSpace(l.opts.APIKey) == "" {
		l.fail(ErrMapKeyMissing)
		return ErrMapKeyMissing
	}

	l.setState(LoaderLoading, "")
	l.logger.Info("Loading map SDK")

	ctx, cancel := context.WithTimeout(context.Background(), l.opts.ReadyTimeout)
	defer cancel()

	if err := l.sdk.LoadScript(ctx, l.opts.APIKey); err != nil {
		err = fmt.Errorf("failed to load map SDK: %w", err)
		l.fail(err)
		return err
	}

	l.mu.Lock()
	l.injected = true
	l.mu.Unlock()

	return nil
}

// waitServices опрашивает пространство services с фиксированным интервалом
func (l *MapLoader) waitServices(ctx context.Context, deadline <-chan time.Time) bool {
	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		if l.sdk.ServicesReady() {
			l.markReady()
			return true
		}
		select {
		case <-ticker.C:
		case <-deadline:
			l.logger.Warn("Map SDK services did not become ready",
				zap.Duration("timeout", l.opts.ReadyTimeout))
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (l *MapLoader) markReady() {
	l.mu.Lock()
	already := l.state == LoaderReady
	l.mu.Unlock()
	if already {
		return
	}
	l.setState(LoaderReady, "")
	l.logger.Info("Map SDK is ready")
}

func (l *MapLoader) fail(err error) {
	l.setState(LoaderFailed, err.Error())
	l.logger.Error("Map SDK unavailable", zap.Error(err))
}

// CreateMap создаёт виджет в контейнере. Повторный вызов для того же
// контейнера возвращает существующий виджет, аргументы не сравниваются.
func (l *MapLoader) CreateMap(ctx context.Context, containerID string, center domain.Coordinates, level int) (repository.Map, error) {
	if strings.TrimSpace(containerID) == "" {
		return nil, errors.New("map container id is empty")
	}
	if !l.EnsureReady(ctx) {
		_, msg := l.State()
		if msg == "" {
			msg = "map SDK is not ready"
		}
		return nil, errors.New(msg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.maps[containerID]; ok {
		return m, nil
	}

	m, err := l.sdk.NewMap(containerID, center, level)
	if err != nil {
		l.logger.Error("Failed to create map",
			zap.String("container_id", containerID), zap.Error(err))
		return nil, fmt.Errorf("failed to create map in %q: %w", containerID, err)
	}
	l.maps[containerID] = m

	l.logger.Debug("Map created",
		zap.String("container_id", containerID),
		zap.String("center", center.String()),
		zap.Int("level", level))

	return m, nil
}

// Map - виджет контейнера, если он уже создан
func (l *MapLoader) Map(containerID string) (repository.Map, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.maps[containerID]
	return m, ok
}

// ReleaseMap забывает виджет контейнера при закрытии страницы
func (l *MapLoader) ReleaseMap(containerID string) {
	l.mu.Lock()
	delete(l.maps, containerID)
	l.mu.Unlock()
}
