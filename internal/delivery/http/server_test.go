package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/config"
	httpDelivery "github.com/Starfish-122/CNX-sub000/internal/delivery/http"
	"github.com/Starfish-122/CNX-sub000/internal/delivery/http/handler"
	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/mapscene"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
	"github.com/Starfish-122/CNX-sub000/internal/usecase/dto"
)

var sinchonStation = domain.Coordinates{Lat: 37.5552, Lng: 126.9369}

type staticSource struct {
	places []domain.PlaceRecord
}

func (s staticSource) ListPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	return s.places, nil
}

type tableResolver map[string]domain.Coordinates

func (t tableResolver) Resolve(ctx context.Context, place domain.PlaceRecord) usecase.ResolveResult {
	c, ok := t[place.Name]
	if !ok || place.IsOnline() {
		return usecase.ResolveResult{}
	}
	return usecase.ResolveResult{Coordinates: &c, Strategy: domain.StrategyKeyword}
}

func newTestServer(t *testing.T, apiKey string) *httpDelivery.Server {
	t.Helper()

	sdkServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("(function(){window.kakao={maps:{}};})();"))
	}))
	t.Cleanup(sdkServer.Close)

	logger := zap.NewNop()
	places := []domain.PlaceRecord{
		{ID: "a", Name: "독수리다방", Location: "신촌", Rating: 4.5},
		{ID: "b", Name: "이화카페", Location: "이대", Rating: 4.8},
		{ID: "c", Name: "웹샵", Location: "온라인", Rating: 3.9},
	}
	resolver := tableResolver{
		"독수리다방": {Lat: 37.558572, Lng: 126.936893},
		"이화카페":  {Lat: 37.5610, Lng: 126.9463},
	}

	queue := usecase.NewResolveQueue(resolver, 1)
	placeUC := usecase.NewPlaceUseCase(staticSource{places: places}, nil,
		usecase.NewDistanceEnricher(queue, logger), sinchonStation, time.Minute, logger)

	sdk := mapscene.NewSDK(&config.KakaoConfig{SDKURL: sdkServer.URL, RequestTimeout: 5}, logger)
	loader := usecase.NewMapLoader(sdk, usecase.MapLoaderOptions{
		APIKey:       apiKey,
		ReadyTimeout: time.Second,
		PollInterval: 5 * time.Millisecond,
	}, logger)
	viewport := usecase.NewViewportController(50, time.Millisecond, logger)
	mapUC := usecase.NewMapPageUseCase(loader, placeUC, resolver, viewport, usecase.MapPageOptions{
		DefaultCenter:   sinchonStation,
		DefaultLevel:    4,
		ClusterMinLevel: 5,
	}, logger)
	t.Cleanup(mapUC.CloseAll)

	return httpDelivery.NewServer(
		&config.Config{},
		logger,
		handler.NewHealthHandler(nil, logger),
		handler.NewRegionHandler(),
		handler.NewPlaceHandler(placeUC, logger),
		handler.NewMapHandler(mapUC, logger),
	)
}

func do(t *testing.T, s *httpDelivery.Server, method, target string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decode[T any](t *testing.T, raw []byte) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, "js-key")

	status, body := do(t, s, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"healthy"`)
}

func TestServer_Regions(t *testing.T) {
	s := newTestServer(t, "js-key")

	status, body := do(t, s, http.MethodGet, "/api/v1/regions", nil)
	require.Equal(t, http.StatusOK, status)

	env := decode[dto.RegionListResponse](t, body)
	require.Len(t, env.Data.Regions, len(domain.Regions()))

	for _, r := range env.Data.Regions {
		if r.Online {
			assert.Nil(t, r.Bounds)
			assert.Empty(t, r.Polygon)
			continue
		}
		require.NotNil(t, r.Bounds, r.Key)
		assert.NotEmpty(t, r.Polygon)
	}
}

func TestServer_Places(t *testing.T) {
	s := newTestServer(t, "js-key")

	t.Run("list sorted by distance", func(t *testing.T) {
		status, body := do(t, s, http.MethodGet, "/api/v1/places", nil)
		require.Equal(t, http.StatusOK, status)

		env := decode[dto.PlaceListResponse](t, body)
		require.Len(t, env.Data.Places, 3)
		assert.Equal(t, "독수리다방", env.Data.Places[0].Name)
		assert.Equal(t, "이화카페", env.Data.Places[1].Name)
		assert.Equal(t, "웹샵", env.Data.Places[2].Name)
		require.NotNil(t, env.Data.Places[0].WalkMinutes)
		assert.Nil(t, env.Data.Places[2].Distance)
	})

	t.Run("region filter", func(t *testing.T) {
		status, body := do(t, s, http.MethodGet, "/api/v1/places?region="+url.QueryEscape("이대"), nil)
		require.Equal(t, http.StatusOK, status)

		env := decode[dto.PlaceListResponse](t, body)
		require.Len(t, env.Data.Places, 1)
		assert.Equal(t, "이화카페", env.Data.Places[0].Name)
	})

	t.Run("unknown region", func(t *testing.T) {
		status, _ := do(t, s, http.MethodGet, "/api/v1/places?region="+url.QueryEscape("부산"), nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("bad sort", func(t *testing.T) {
		status, _ := do(t, s, http.MethodGet, "/api/v1/places?sort=price", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("detail by encoded name", func(t *testing.T) {
		status, body := do(t, s, http.MethodGet, "/api/v1/places/"+url.PathEscape("독수리다방"), nil)
		require.Equal(t, http.StatusOK, status, string(body))

		env := decode[dto.PlaceItem](t, body)
		assert.Equal(t, "a", env.Data.ID)
		require.NotNil(t, env.Data.Coordinates)
	})

	t.Run("detail not found", func(t *testing.T) {
		status, body := do(t, s, http.MethodGet, "/api/v1/places/"+url.PathEscape("없는집"), nil)
		require.Equal(t, http.StatusNotFound, status)

		env := decode[json.RawMessage](t, body)
		require.NotNil(t, env.Error)
		assert.Equal(t, "PLACE_NOT_FOUND", env.Error.Code)
	})
}

func TestServer_MapSession(t *testing.T) {
	s := newTestServer(t, "js-key")

	status, body := do(t, s, http.MethodPost, "/api/v1/map/sessions", map[string]string{"container_id": "map"})
	require.Equal(t, http.StatusCreated, status, string(body))

	session := decode[dto.SessionResponse](t, body).Data
	require.NotEmpty(t, session.SessionID)
	assert.Equal(t, "map", session.ContainerID)
	assert.Equal(t, "ready", session.LoaderState)

	base := "/api/v1/map/sessions/" + session.SessionID

	type feature struct {
		ID         string                 `json:"id"`
		Properties map[string]interface{} `json:"properties"`
	}
	type collection struct {
		Type        string    `json:"type"`
		ContainerID string    `json:"container_id"`
		Features    []feature `json:"features"`
	}
	scene := func() collection {
		status, body := do(t, s, http.MethodGet, base+"/scene", nil)
		require.Equal(t, http.StatusOK, status)
		var fc collection
		require.NoError(t, json.Unmarshal(body, &fc))
		return fc
	}
	countKind := func(fc collection, kind string) int {
		n := 0
		for _, f := range fc.Features {
			if f.Properties["kind"] == kind {
				n++
			}
		}
		return n
	}

	// маркеры ставятся асинхронно
	require.Eventually(t, func() bool {
		return countKind(scene(), "marker") == 2
	}, 2*time.Second, 10*time.Millisecond)

	fc := scene()
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, "map", fc.ContainerID)
	assert.Equal(t, len(domain.Regions())-1, countKind(fc, "polygon"))

	t.Run("select region", func(t *testing.T) {
		status, body := do(t, s, http.MethodPost, base+"/region", map[string]string{"region": "신촌"})
		require.Equal(t, http.StatusOK, status, string(body))
		assert.Equal(t, "신촌", decode[dto.SessionResponse](t, body).Data.SelectedRegion)

		require.Eventually(t, func() bool {
			return countKind(scene(), "marker") == 1
		}, 2*time.Second, 10*time.Millisecond)

		status, body = do(t, s, http.MethodPost, base+"/region", map[string]interface{}{"region": nil})
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, decode[dto.SessionResponse](t, body).Data.SelectedRegion)

		status, _ = do(t, s, http.MethodPost, base+"/region", map[string]string{"region": "부산"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("click", func(t *testing.T) {
		status, body := do(t, s, http.MethodPost, base+"/click/nope-1", nil)
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "OVERLAY_NOT_FOUND", decode[json.RawMessage](t, body).Error.Code)

		var polygonID string
		for _, f := range scene().Features {
			if f.Properties["kind"] == "polygon" {
				polygonID = f.ID
				break
			}
		}
		require.NotEmpty(t, polygonID)

		status, body = do(t, s, http.MethodPost, base+"/click/"+polygonID, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		click := decode[dto.ClickResponse](t, body).Data
		assert.Equal(t, polygonID, click.Overlay)
		require.NotNil(t, click.SelectedRegion)
	})

	t.Run("sdk status", func(t *testing.T) {
		status, body := do(t, s, http.MethodGet, "/api/v1/sdk/status", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ready", decode[dto.SDKStatusResponse](t, body).Data.State)
	})

	t.Run("close", func(t *testing.T) {
		status, _ := do(t, s, http.MethodDelete, base, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = do(t, s, http.MethodGet, base+"/scene", nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = do(t, s, http.MethodDelete, base, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestServer_OpenSessionValidation(t *testing.T) {
	s := newTestServer(t, "js-key")

	status, _ := do(t, s, http.MethodPost, "/api/v1/map/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_MapKeyMissing(t *testing.T) {
	s := newTestServer(t, "")

	status, body := do(t, s, http.MethodPost, "/api/v1/map/sessions", map[string]string{"container_id": "map"})
	require.Equal(t, http.StatusServiceUnavailable, status, string(body))

	env := decode[json.RawMessage](t, body)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MAP_UNAVAILABLE", env.Error.Code)
	assert.Equal(t, "failed", env.Error.Details["state"])
	assert.Equal(t, "map API key is not configured", env.Error.Details["message"])

	status, body = do(t, s, http.MethodGet, "/api/v1/sdk/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "failed", decode[dto.SDKStatusResponse](t, body).Data.State)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, "js-key")

	do(t, s, http.MethodGet, "/api/v1/regions", nil)
	status, body := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "placemap_http_requests_total")
}
