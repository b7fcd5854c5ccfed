package mapscene

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/config"
	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
)

// sdk - серверная реализация MapSdk: скрипт проверяется на доступность,
// а карты живут в памяти и отдаются клиенту снимками.
type sdk struct {
	httpClient *http.Client
	scriptURL  string
	logger     *zap.Logger
	ready      atomic.Bool
}

// NewSDK создает адаптер Kakao Maps SDK
func NewSDK(cfg *config.KakaoConfig, logger *zap.Logger) repository.MapSdk {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &sdk{
		httpClient: &http.Client{Timeout: timeout},
		scriptURL:  cfg.SDKURL,
		logger:     logger,
	}
}

// ScriptURL - адрес скрипта SDK с ключом и нужными библиотеками
func ScriptURL(base, apiKey string) string {
	params := url.Values{}
	params.Set("appkey", apiKey)
	params.Set("autoload", "false")
	params.Set("libraries", "services,clusterer")
	return base + "?" + params.Encode()
}

func (s *sdk) LoadScript(ctx context.Context, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ScriptURL(s.scriptURL, apiKey), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch SDK script: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read SDK script: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SDK script error: status %d, body: %s", resp.StatusCode, truncate(string(body), 256))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("SDK script is empty")
	}

	s.logger.Debug("Map SDK script fetched", zap.Int("bytes", len(body)))
	s.ready.Store(true)
	return nil
}

func (s *sdk) ServicesReady() bool {
	return s.ready.Load()
}

func (s *sdk) NewMap(containerID string, center domain.Coordinates, level int) (repository.Map, error) {
	if strings.TrimSpace(containerID) == "" {
		return nil, fmt.Errorf("container not found")
	}
	if !s.ready.Load() {
		return nil, fmt.Errorf("map SDK is not loaded")
	}
	return NewScene(containerID, center, level), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
