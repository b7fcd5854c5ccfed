package domain

import "time"

// PlaceSearchResult - документ ответа поиска по ключевому слову
type PlaceSearchResult struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PlaceURL    string      `json:"place_url"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// GeocodeResult - документ ответа прямого геокодирования
type GeocodeResult struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// SearchOptions - параметры поиска по ключевому слову
type SearchOptions struct {
	Near   *Coordinates
	Radius int // meters
	Size   int
}

// ResolveStrategy - шаг цепочки, на котором найдены координаты
type ResolveStrategy string

const (
	StrategyNone     ResolveStrategy = ""
	StrategyRecord   ResolveStrategy = "record"
	StrategyCache    ResolveStrategy = "cache"
	StrategyKakaoURL ResolveStrategy = "kakaomap_url"
	StrategyAddress  ResolveStrategy = "address"
	StrategyLocation ResolveStrategy = "location"
	StrategyKeyword  ResolveStrategy = "keyword"
)

// ResolvedCoordinates - результат разрешения координат места.
// Flagged означает, что точка дальше порога от опорной; она всё равно используется.
type ResolvedCoordinates struct {
	PlaceID               string          `json:"place_id" db:"place_id"`
	Coordinates           Coordinates     `json:"coordinates"`
	Strategy              ResolveStrategy `json:"strategy" db:"strategy"`
	Flagged               bool            `json:"flagged" db:"flagged"`
	DistanceFromReference float64         `json:"distance_from_reference" db:"distance_from_reference"`
	Fingerprint           string          `json:"fingerprint" db:"fingerprint"`
	ResolvedAt            time.Time       `json:"resolved_at" db:"resolved_at"`
}
