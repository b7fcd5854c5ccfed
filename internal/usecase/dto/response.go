package dto

import "github.com/Starfish-122/CNX-sub000/internal/domain"

// PlaceItem - заведение в списке с оценкой времени в пути
type PlaceItem struct {
	domain.PlaceRecord
	WalkMinutes  *int `json:"walk_minutes,omitempty"`
	DriveMinutes *int `json:"drive_minutes,omitempty"`
}

// PlaceListResponse - ответ списка заведений
type PlaceListResponse struct {
	Places    []PlaceItem        `json:"places"`
	Total     int                `json:"total"`
	Reference domain.Coordinates `json:"reference"`
}

// RegionResponse - регион с геометрией
type RegionResponse struct {
	Key     domain.LocationKey   `json:"key"`
	Aliases []string             `json:"aliases,omitempty"`
	Online  bool                 `json:"online"`
	Center  domain.Coordinates   `json:"center"`
	Bounds  *domain.Bounds       `json:"bounds,omitempty"`
	Polygon []domain.Coordinates `json:"polygon,omitempty"`
}

// RegionListResponse - статический список регионов
type RegionListResponse struct {
	Regions []RegionResponse `json:"regions"`
}

// SessionResponse - состояние страницы карты
type SessionResponse struct {
	SessionID      string `json:"session_id"`
	ContainerID    string `json:"container_id"`
	SelectedRegion string `json:"selected_region,omitempty"`
	LoaderState    string `json:"loader_state"`
	Message        string `json:"message,omitempty"`
}

// ClickResponse - результат клика по оверлею
type ClickResponse struct {
	Overlay        string  `json:"overlay"`
	Navigate       string  `json:"navigate,omitempty"`
	SelectedRegion *string `json:"selected_region,omitempty"`
}

// SDKStatusResponse - состояние загрузчика SDK карты
type SDKStatusResponse struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}
