package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/config"
	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
)

const (
	keywordPath = "/v2/local/search/keyword.json"
	addressPath = "/v2/local/search/address.json"
	maxPageSize = 15
)

type client struct {
	httpClient *http.Client
	baseURL    string
	restAPIKey string
	logger     *zap.Logger
}

// NewLocalClient создает клиент для Kakao Local API
func NewLocalClient(cfg *config.KakaoConfig, logger *zap.Logger) repository.PlaceSearchRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:    strings.TrimRight(cfg.LocalBaseURL, "/"),
		restAPIKey: cfg.RestAPIKey,
		logger:     logger,
	}
}

type meta struct {
	TotalCount int  `json:"total_count"`
	IsEnd      bool `json:"is_end"`
}

type keywordDocument struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	PlaceURL        string `json:"place_url"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
}

type keywordResponse struct {
	Meta      meta              `json:"meta"`
	Documents []keywordDocument `json:"documents"`
}

type addressDocument struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type addressResponse struct {
	Meta      meta              `json:"meta"`
	Documents []addressDocument `json:"documents"`
}

// KeywordSearch ищет места по ключевому слову
func (c *client) KeywordSearch(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.PlaceSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("query", query)
	if opts.Near != nil {
		params.Set("x", strconv.FormatFloat(opts.Near.Lng, 'f', -1, 64))
		params.Set("y", strconv.FormatFloat(opts.Near.Lat, 'f', -1, 64))
		if opts.Radius > 0 {
			params.Set("radius", strconv.Itoa(min(opts.Radius, 20000)))
		}
	}
	if opts.Size > 0 {
		params.Set("size", strconv.Itoa(min(opts.Size, maxPageSize)))
	}

	var resp keywordResponse
	if err := c.get(ctx, "keyword", keywordPath, params, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.PlaceSearchResult, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		coords, err := parseXY(d.X, d.Y)
		if err != nil {
			c.logger.Debug("Skipping keyword document with bad coordinates",
				zap.String("id", d.ID), zap.Error(err))
			continue
		}
		addr := d.RoadAddressName
		if addr == "" {
			addr = d.AddressName
		}
		results = append(results, domain.PlaceSearchResult{
			ID:          d.ID,
			Name:        d.PlaceName,
			PlaceURL:    d.PlaceURL,
			Address:     addr,
			Coordinates: coords,
		})
	}

	return results, nil
}

// AddressSearch выполняет прямое геокодирование
func (c *client) AddressSearch(ctx context.Context, query string) ([]domain.GeocodeResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("query", query)

	var resp addressResponse
	if err := c.get(ctx, "address", addressPath, params, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.GeocodeResult, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		coords, err := parseXY(d.X, d.Y)
		if err != nil {
			continue
		}
		results = append(results, domain.GeocodeResult{
			Address:     d.AddressName,
			Coordinates: coords,
		})
	}

	return results, nil
}

func (c *client) get(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	if c.restAPIKey == "" {
		return fmt.Errorf("kakao REST API key is not configured")
	}

	u := c.baseURL + path + "?" + params.Encode()

	c.logger.Debug("Calling Kakao Local API",
		zap.String("endpoint", endpoint),
		zap.String("query", params.Get("query")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.restAPIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.SearchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.SearchRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("kakao API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.SearchRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("failed to decode response: %w", err)
	}

	metrics.SearchRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// parseXY - у Kakao x это долгота, y широта, обе строками
func parseXY(x, y string) (domain.Coordinates, error) {
	lng, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse x: %w", err)
	}
	lat, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse y: %w", err)
	}
	return domain.Coordinates{Lat: lat, Lng: lng}, nil
}
