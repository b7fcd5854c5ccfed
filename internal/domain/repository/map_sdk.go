package repository

import (
	"context"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// EventClick - единственное событие, на которое подписывается ядро
const EventClick = "click"

// MapSdk - возможности внешнего картографического SDK.
// Реальная реализация адаптирует SDK только на границе.
type MapSdk interface {
	// LoadScript подгружает скрипт SDK с ключом приложения
	LoadScript(ctx context.Context, apiKey string) error

	// ServicesReady - доступно ли пространство имён services
	ServicesReady() bool

	// NewMap создаёт виджет карты в контейнере
	NewMap(containerID string, center domain.Coordinates, level int) (Map, error)
}

// Map - живой виджет карты. Владеет им MapLoader, остальные только мутируют.
type Map interface {
	ContainerID() string
	Center() domain.Coordinates
	SetCenter(c domain.Coordinates)
	Level() int
	SetBounds(b domain.Bounds, padding int)
	Relayout()

	NewMarker(pos domain.Coordinates, title string) OverlayHandle
	NewLabel(pos domain.Coordinates, content string, yAnchor float64) OverlayHandle
	NewPolygon(path []domain.Coordinates, style domain.PolygonStyle) PolygonHandle
	NewClusterer(opts ClustererOptions) Clusterer

	// On подписывает обработчик на событие оверлея
	On(target OverlayHandle, event string, handler func())
	// Trigger вызывает обработчики события; false если оверлей неизвестен
	Trigger(targetID, event string) bool

	Snapshot() domain.SceneSnapshot
}

// OverlayHandle - непрозрачная ссылка на маркер, подпись или полигон
type OverlayHandle interface {
	ID() string
	Visible() bool
	SetVisible(visible bool)
	// Destroy убирает оверлей с карты; повторный вызов ничего не делает
	Destroy()
}

// PolygonHandle - полигон региона
type PolygonHandle interface {
	OverlayHandle
	Style() domain.PolygonStyle
	SetStyle(style domain.PolygonStyle)
}

// ClustererOptions - настройки кластеризатора маркеров
type ClustererOptions struct {
	AverageCenter bool
	MinLevel      int
}

// Clusterer - группа кластеризации маркеров
type Clusterer interface {
	AddMarkers(markers []OverlayHandle)
	Clear()
}
