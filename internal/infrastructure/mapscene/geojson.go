package mapscene

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// FeatureCollection превращает снимок карты в GeoJSON для веб-клиента.
// Маркеры и подписи - точки, регионы - полигоны, кластеры - точки с kind=cluster.
// Вьюпорт кладётся в foreign members коллекции.
func FeatureCollection(snap domain.SceneSnapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, o := range snap.Overlays {
		var f *geojson.Feature
		if o.Kind == domain.OverlayPolygon {
			f = geojson.NewFeature(ring(o.Path))
		} else {
			f = geojson.NewFeature(point(o.Position))
		}
		f.ID = o.ID
		f.Properties["kind"] = string(o.Kind)
		f.Properties["visible"] = o.Visible
		if o.Title != "" {
			f.Properties["title"] = o.Title
		}
		if o.Content != "" {
			f.Properties["content"] = o.Content
		}
		if o.Style != nil {
			f.Properties["style"] = *o.Style
		}
		fc.Append(f)
	}

	for _, c := range snap.Clusters {
		f := geojson.NewFeature(point(c.Center))
		f.Properties["kind"] = "cluster"
		f.Properties["count"] = len(c.MarkerIDs)
		f.Properties["markers"] = c.MarkerIDs
		fc.Append(f)
	}

	viewport := map[string]interface{}{
		"center": []float64{snap.Viewport.Center.Lng, snap.Viewport.Center.Lat},
		"level":  snap.Viewport.Level,
	}
	if snap.Viewport.Bounds != nil {
		b := snap.Viewport.Bounds
		viewport["bbox"] = []float64{b.SW.Lng, b.SW.Lat, b.NE.Lng, b.NE.Lat}
	}

	fc.ExtraMembers = geojson.Properties{
		"container_id": snap.ContainerID,
		"viewport":     viewport,
		"relayouts":    snap.Relayouts,
	}

	return fc
}

// orb хранит точки как [lng, lat]
func point(c domain.Coordinates) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// ring замыкает контур полигона
func ring(path []domain.Coordinates) orb.Polygon {
	r := make(orb.Ring, 0, len(path)+1)
	for _, c := range path {
		r = append(r, point(c))
	}
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return orb.Polygon{r}
}
