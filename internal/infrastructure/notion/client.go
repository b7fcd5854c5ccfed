package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
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
	pageSize = 100
	// защита от бесконечной пагинации
	maxPages = 50
)

// Имена свойств базы данных Notion
const (
	propName      = "name"
	propLocation  = "location"
	propAddress   = "address"
	propKakaoMap  = "kakaomap"
	propRating    = "rating"
	propStatus    = "status"
	propMood      = "mood"
	propService   = "service"
	propPartySize = "partySize"
	propLat       = "lat"
	propLng       = "lng"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
	version    string
	logger     *zap.Logger
}

// NewClient создает клиент базы заведений в Notion
func NewClient(cfg *config.NotionConfig, logger *zap.Logger) repository.PlaceSourceRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		version:    cfg.Version,
		logger:     logger,
	}
}

type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size"`
}

type queryResponse struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type page struct {
	ID         string              `json:"id"`
	Archived   bool                `json:"archived"`
	Properties map[string]property `json:"properties"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type option struct {
	Name string `json:"name"`
}

type property struct {
	Type        string     `json:"type"`
	Title       []richText `json:"title,omitempty"`
	RichText    []richText `json:"rich_text,omitempty"`
	Select      *option    `json:"select,omitempty"`
	Status      *option    `json:"status,omitempty"`
	MultiSelect []option   `json:"multi_select,omitempty"`
	Number      *float64   `json:"number,omitempty"`
	URL         *string    `json:"url,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListPlaces читает всю базу, проходя по курсорам
func (c *client) ListPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	if c.token == "" || c.databaseID == "" {
		return nil, fmt.Errorf("notion token or database id is not configured")
	}

	var places []domain.PlaceRecord
	cursor := ""

	for i := 0; i < maxPages; i++ {
		resp, err := c.query(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for _, p := range resp.Results {
			if p.Archived {
				continue
			}
			place, ok := toPlace(p)
			if !ok {
				c.logger.Debug("Skipping page without name", zap.String("page_id", p.ID))
				continue
			}
			places = append(places, place)
		}

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			c.logger.Debug("Places loaded from Notion",
				zap.Int("pages", i+1),
				zap.Int("places", len(places)))
			return places, nil
		}
		cursor = *resp.NextCursor
	}

	c.logger.Warn("Notion pagination limit reached", zap.Int("max_pages", maxPages))
	return places, nil
}

func (c *client) query(ctx context.Context, cursor string) (*queryResponse, error) {
	body, err := json.Marshal(queryRequest{StartCursor: cursor, PageSize: pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	u := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, c.databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.SearchDuration.WithLabelValues("notion").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequests.WithLabelValues("notion", "error").Inc()
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SearchRequests.WithLabelValues("notion", "error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("notion API error: status %d, code %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("notion API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.SearchRequests.WithLabelValues("notion", "error").Inc()
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	metrics.SearchRequests.WithLabelValues("notion", "ok").Inc()
	return &out, nil
}

// toPlace - свойства страницы в PlaceRecord; без имени запись не нужна
func toPlace(p page) (domain.PlaceRecord, bool) {
	props := p.Properties
	name := strings.TrimSpace(props[propName].text())
	if name == "" {
		return domain.PlaceRecord{}, false
	}

	place := domain.PlaceRecord{
		ID:          p.ID,
		Name:        name,
		Location:    strings.TrimSpace(props[propLocation].text()),
		Address:     strings.TrimSpace(props[propAddress].text()),
		KakaoMapURL: strings.TrimSpace(props[propKakaoMap].text()),
		Rating:      props[propRating].number(),
		Status:      props[propStatus].text(),
		Mood:        props[propMood].names(),
		Service:     props[propService].names(),
		PartySize:   props[propPartySize].names(),
	}

	lat, latOK := props[propLat].float()
	lng, lngOK := props[propLng].float()
	if latOK && lngOK {
		place = place.WithCoordinates(domain.Coordinates{Lat: lat, Lng: lng})
	}

	return place, true
}

func joinText(parts []richText) string {
	var b strings.Builder
	for _, t := range parts {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

// text - строковое значение свойства любого поддерживаемого типа
func (p property) text() string {
	switch p.Type {
	case "title":
		return joinText(p.Title)
	case "rich_text":
		return joinText(p.RichText)
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	case "status":
		if p.Status != nil {
			return p.Status.Name
		}
	case "url":
		if p.URL != nil {
			return *p.URL
		}
	case "multi_select":
		return strings.Join(p.names(), ", ")
	case "number":
		if p.Number != nil {
			return strconv.FormatFloat(*p.Number, 'f', -1, 64)
		}
	}
	return ""
}

func (p property) names() []string {
	switch p.Type {
	case "multi_select":
		out := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			out = append(out, o.Name)
		}
		return out
	case "select", "status":
		if s := p.text(); s != "" {
			return []string{s}
		}
	}
	return nil
}

func (p property) number() float64 {
	v, _ := p.float()
	return v
}

func (p property) float() (float64, bool) {
	if p.Type == "number" {
		if p.Number == nil {
			return 0, false
		}
		return *p.Number, true
	}
	s := strings.TrimSpace(p.text())
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
