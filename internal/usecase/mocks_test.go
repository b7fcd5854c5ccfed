package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
)

// MockPlaceSearchRepository is a mock of PlaceSearchRepository
type MockPlaceSearchRepository struct {
	mock.Mock
}

func (m *MockPlaceSearchRepository) KeywordSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.PlaceSearchResult, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlaceSearchResult), args.Error(1)
}

func (m *MockPlaceSearchRepository) AddressSearch(ctx context.Context, query string) ([]domain.GeocodeResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GeocodeResult), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) GetCoordinates(ctx context.Context, placeID string) (*domain.ResolvedCoordinates, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedCoordinates), args.Error(1)
}

func (m *MockCacheRepository) SetCoordinates(ctx context.Context, rc domain.ResolvedCoordinates, ttl time.Duration) error {
	args := m.Called(ctx, rc, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) GetPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlaceRecord), args.Error(1)
}

func (m *MockCacheRepository) SetPlaces(ctx context.Context, places []domain.PlaceRecord, ttl time.Duration) error {
	args := m.Called(ctx, places, ttl)
	return args.Error(0)
}

// MockCoordinateRepository is a mock of CoordinateRepository
type MockCoordinateRepository struct {
	mock.Mock
}

func (m *MockCoordinateRepository) Get(ctx context.Context, placeID string) (*domain.ResolvedCoordinates, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedCoordinates), args.Error(1)
}

func (m *MockCoordinateRepository) GetMany(ctx context.Context, placeIDs []string) (map[string]domain.ResolvedCoordinates, error) {
	args := m.Called(ctx, placeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ResolvedCoordinates), args.Error(1)
}

func (m *MockCoordinateRepository) Save(ctx context.Context, rc domain.ResolvedCoordinates) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

// MockPlaceSourceRepository is a mock of PlaceSourceRepository
type MockPlaceSourceRepository struct {
	mock.Mock
}

func (m *MockPlaceSourceRepository) ListPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlaceRecord), args.Error(1)
}

// stubResolver resolves from a fixed table, recording call order.
type stubResolver struct {
	mu     sync.Mutex
	table  map[string]domain.Coordinates
	calls  []string
	before func(place domain.PlaceRecord)
}

func newStubResolver(table map[string]domain.Coordinates) *stubResolver {
	return &stubResolver{table: table}
}

func (s *stubResolver) Resolve(ctx context.Context, place domain.PlaceRecord) usecase.ResolveResult {
	if s.before != nil {
		s.before(place)
	}

	s.mu.Lock()
	s.calls = append(s.calls, place.ID)
	s.mu.Unlock()

	if place.IsOnline() {
		return usecase.ResolveResult{}
	}
	c, ok := s.table[place.ID]
	if !ok {
		return usecase.ResolveResult{}
	}
	return usecase.ResolveResult{Coordinates: &c, Strategy: domain.StrategyKeyword}
}

func (s *stubResolver) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
