package geo

import (
	"math"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

const (
	earthRadiusMeters = 6371000.0

	// WalkingMetersPerMinute - средняя скорость пешехода
	WalkingMetersPerMinute = 80.0
	// DrivingMetersPerMinute - средняя скорость автомобиля в городе
	DrivingMetersPerMinute = 400.0
)

// DistanceMeters вычисляет расстояние по формуле Haversine в метрах
func DistanceMeters(a, b domain.Coordinates) float64 {
	if a == b {
		return 0
	}

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// EstimateWalkMinutes - время пешком, округлённое вверх
func EstimateWalkMinutes(meters float64) int {
	return estimateMinutes(meters, WalkingMetersPerMinute)
}

// EstimateDriveMinutes - время на машине, округлённое вверх
func EstimateDriveMinutes(meters float64) int {
	return estimateMinutes(meters, DrivingMetersPerMinute)
}

func estimateMinutes(meters, speed float64) int {
	if meters <= 0 {
		return 0
	}
	return int(math.Ceil(meters / speed))
}

// PolygonCentroid returns the arithmetic mean of the vertices.
// An empty polygon yields {0,0}.
func PolygonCentroid(points []domain.Coordinates) domain.Coordinates {
	if len(points) == 0 {
		return domain.Coordinates{}
	}

	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))

	return domain.Coordinates{Lat: lat / n, Lng: lng / n}
}

// PolygonBounds returns the axis-aligned bounding box, or nil for an empty polygon.
func PolygonBounds(points []domain.Coordinates) *domain.Bounds {
	if len(points) == 0 {
		return nil
	}

	b := domain.Bounds{SW: points[0], NE: points[0]}
	for _, p := range points[1:] {
		b.SW.Lat = math.Min(b.SW.Lat, p.Lat)
		b.SW.Lng = math.Min(b.SW.Lng, p.Lng)
		b.NE.Lat = math.Max(b.NE.Lat, p.Lat)
		b.NE.Lng = math.Max(b.NE.Lng, p.Lng)
	}

	return &b
}

// PointInPolygon - ray casting. Точки на границе могут давать любой результат.
func PointInPolygon(p domain.Coordinates, points []domain.Coordinates) bool {
	inside := false
	for i, j := 0, len(points)-1; i < len(points); j, i = i, i+1 {
		pi, pj := points[i], points[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) &&
			p.Lng < (pj.Lng-pi.Lng)*(p.Lat-pi.Lat)/(pj.Lat-pi.Lat)+pi.Lng {
			inside = !inside
		}
	}
	return inside
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(c domain.Coordinates) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
