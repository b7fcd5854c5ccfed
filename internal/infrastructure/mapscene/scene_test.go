package mapscene

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/config"
	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
)

var sinchon = domain.Coordinates{Lat: 37.5552, Lng: 126.9369}

func TestSDK_LoadScript(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("(function(){window.kakao={};})();"))
	}))
	defer server.Close()

	sdk := NewSDK(&config.KakaoConfig{SDKURL: server.URL + "/v2/maps/sdk.js"}, zap.NewNop())
	assert.False(t, sdk.ServicesReady())

	require.NoError(t, sdk.LoadScript(context.Background(), "js-key"))
	assert.True(t, sdk.ServicesReady())
	assert.Equal(t, []string{"js-key"}, gotQuery["appkey"])
	assert.Equal(t, []string{"false"}, gotQuery["autoload"])
	assert.Equal(t, []string{"services,clusterer"}, gotQuery["libraries"])

	m, err := sdk.NewMap("map", sinchon, 4)
	require.NoError(t, err)
	assert.Equal(t, "map", m.ContainerID())

	_, err = sdk.NewMap(" ", sinchon, 4)
	assert.Error(t, err)
}

func TestSDK_LoadScriptError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid appkey"}`))
	}))
	defer server.Close()

	sdk := NewSDK(&config.KakaoConfig{SDKURL: server.URL}, zap.NewNop())
	err := sdk.LoadScript(context.Background(), "bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.False(t, sdk.ServicesReady())

	_, err = sdk.NewMap("map", sinchon, 4)
	assert.Error(t, err)
}

func TestScene_OverlaysAndEvents(t *testing.T) {
	s := NewScene("map", sinchon, 4)

	marker := s.NewMarker(sinchon, "독수리다방")
	label := s.NewLabel(sinchon, "독수리다방", 1.6)
	label.SetVisible(false)

	clicks := 0
	s.On(marker, repository.EventClick, func() {
		clicks++
		// обработчик может менять сцену без дедлока
		label.SetVisible(true)
	})

	assert.True(t, s.Trigger(marker.ID(), repository.EventClick))
	assert.Equal(t, 1, clicks)
	assert.True(t, label.Visible())

	assert.True(t, s.Trigger(marker.ID(), "mouseover"))
	assert.Equal(t, 1, clicks)

	marker.Destroy()
	marker.Destroy()
	assert.False(t, s.Trigger(marker.ID(), repository.EventClick))

	snap := s.Snapshot()
	require.Len(t, snap.Overlays, 1)
	assert.Equal(t, label.ID(), snap.Overlays[0].ID)
	assert.Equal(t, domain.OverlayLabel, snap.Overlays[0].Kind)
}

func TestScene_Viewport(t *testing.T) {
	s := NewScene("map", sinchon, 4)

	b := domain.Bounds{
		SW: domain.Coordinates{Lat: 37.5522, Lng: 126.9335},
		NE: domain.Coordinates{Lat: 37.5601, Lng: 126.9428},
	}
	s.SetBounds(b, 50)
	s.Relayout()

	snap := s.Snapshot()
	require.NotNil(t, snap.Viewport.Bounds)
	assert.Equal(t, b, *snap.Viewport.Bounds)
	assert.Equal(t, b.Center(), snap.Viewport.Center)
	assert.Equal(t, 4, snap.Viewport.Level)
	assert.Equal(t, 1, snap.Relayouts)

	s.SetCenter(sinchon)
	snap = s.Snapshot()
	assert.Nil(t, snap.Viewport.Bounds)
	assert.Equal(t, 4, snap.Viewport.Level)
}

func TestLevelForSpan(t *testing.T) {
	assert.Equal(t, 1, levelForSpan(0, 50))
	assert.Equal(t, 4, levelForSpan(0.0093, 50))
	assert.Equal(t, maxLevel, levelForSpan(90, 50))
	assert.LessOrEqual(t, levelForSpan(0.009, 0), levelForSpan(0.009, 300))
}

func TestScene_Clusters(t *testing.T) {
	s := NewScene("map", sinchon, 6)
	c := s.NewClusterer(repository.ClustererOptions{AverageCenter: true, MinLevel: 5})

	a := s.NewMarker(domain.Coordinates{Lat: 37.55600, Lng: 126.93600}, "a")
	b := s.NewMarker(domain.Coordinates{Lat: 37.55602, Lng: 126.93602}, "b")
	far := s.NewMarker(domain.Coordinates{Lat: 37.60000, Lng: 127.00000}, "far")
	c.AddMarkers([]repository.OverlayHandle{a, b, far})

	snap := s.Snapshot()
	require.Len(t, snap.Clusters, 1)
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, snap.Clusters[0].MarkerIDs)
	assert.InDelta(t, 37.55601, snap.Clusters[0].Center.Lat, 1e-9)

	// ниже минимального уровня кластеров нет
	low := NewScene("map", sinchon, 3)
	lc := low.NewClusterer(repository.ClustererOptions{MinLevel: 5})
	m1 := low.NewMarker(sinchon, "1")
	m2 := low.NewMarker(sinchon, "2")
	lc.AddMarkers([]repository.OverlayHandle{m1, m2})
	assert.Empty(t, low.Snapshot().Clusters)

	// уничтоженный маркер уходит из кластера
	b.Destroy()
	assert.Empty(t, s.Snapshot().Clusters)

	c.Clear()
	assert.Empty(t, s.Snapshot().Clusters)
}

func TestFeatureCollection(t *testing.T) {
	s := NewScene("map", sinchon, 4)
	s.NewMarker(sinchon, "독수리다방")
	poly := s.NewPolygon([]domain.Coordinates{
		{Lat: 37.5598, Lng: 126.9335},
		{Lat: 37.5601, Lng: 126.9420},
		{Lat: 37.5540, Lng: 126.9428},
	}, domain.PolygonStyle{FillColor: "#4A90E2", ZIndex: 2})
	poly.SetVisible(false)

	fc := FeatureCollection(s.Snapshot())
	require.Len(t, fc.Features, 2)

	pt := fc.Features[0]
	assert.Equal(t, "Point", pt.Geometry.GeoJSONType())
	assert.Equal(t, "marker", pt.Properties["kind"])
	assert.Equal(t, "독수리다방", pt.Properties["title"])

	pg := fc.Features[1]
	assert.Equal(t, "Polygon", pg.Geometry.GeoJSONType())
	assert.Equal(t, false, pg.Properties["visible"])

	raw, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded struct {
		Type        string `json:"type"`
		ContainerID string `json:"container_id"`
		Viewport    struct {
			Center []float64 `json:"center"`
			Level  int       `json:"level"`
		} `json:"viewport"`
		Features []struct {
			Geometry struct {
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.Equal(t, "map", decoded.ContainerID)
	assert.Equal(t, []float64{126.9369, 37.5552}, decoded.Viewport.Center)
	assert.Equal(t, 4, decoded.Viewport.Level)

	// контур полигона замкнут: 3 вершины + повтор первой
	var rings [][][2]float64
	require.NoError(t, json.Unmarshal(decoded.Features[1].Geometry.Coordinates, &rings))
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 4)
	assert.Equal(t, rings[0][0], rings[0][3])
}
