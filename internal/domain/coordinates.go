package domain

import "fmt"

// Coordinates - пара широта/долгота, неизменяемое значение
type Coordinates struct {
	Lat float64 `json:"lat" db:"lat"`
	Lng float64 `json:"lng" db:"lng"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// IsZero reports whether c is the {0,0} placeholder.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Bounds - прямоугольник, заданный юго-западным и северо-восточным углами
type Bounds struct {
	SW Coordinates `json:"sw"`
	NE Coordinates `json:"ne"`
}

// Center returns the middle of the box.
func (b Bounds) Center() Coordinates {
	return Coordinates{
		Lat: (b.SW.Lat + b.NE.Lat) / 2,
		Lng: (b.SW.Lng + b.NE.Lng) / 2,
	}
}

// Viewport описывает, куда смотрит карта.
// Если Bounds заданы, они важнее Center/Level.
type Viewport struct {
	Bounds *Bounds     `json:"bounds,omitempty"`
	Center Coordinates `json:"center"`
	Level  int         `json:"level"`
}

// HasBounds - есть ли прямоугольник
func (v Viewport) HasBounds() bool {
	return v.Bounds != nil
}
