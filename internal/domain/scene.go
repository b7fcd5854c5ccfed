package domain

// OverlayKind - тип оверлея на карте
type OverlayKind string

const (
	OverlayMarker  OverlayKind = "marker"
	OverlayLabel   OverlayKind = "label"
	OverlayPolygon OverlayKind = "polygon"
)

// PolygonStyle - стиль полигона региона
type PolygonStyle struct {
	StrokeColor   string  `json:"stroke_color"`
	StrokeWeight  int     `json:"stroke_weight"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	FillColor     string  `json:"fill_color"`
	FillOpacity   float64 `json:"fill_opacity"`
	ZIndex        int     `json:"z_index"`
}

// OverlayState - снимок одного оверлея
type OverlayState struct {
	ID       string        `json:"id"`
	Kind     OverlayKind   `json:"kind"`
	Position Coordinates   `json:"position"`
	Path     []Coordinates `json:"path,omitempty"`
	Title    string        `json:"title,omitempty"`
	Content  string        `json:"content,omitempty"`
	Visible  bool          `json:"visible"`
	Style    *PolygonStyle `json:"style,omitempty"`
}

// Cluster - группа маркеров, собранная кластеризатором
type Cluster struct {
	Center    Coordinates `json:"center"`
	MarkerIDs []string    `json:"marker_ids"`
}

// SceneSnapshot - состояние виджета карты на момент запроса
type SceneSnapshot struct {
	ContainerID string         `json:"container_id"`
	Viewport    Viewport       `json:"viewport"`
	Relayouts   int            `json:"relayouts"`
	Overlays    []OverlayState `json:"overlays"`
	Clusters    []Cluster      `json:"clusters"`
}
