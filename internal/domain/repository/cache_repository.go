package repository

import (
	"context"
	"time"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// GetCoordinates получает координаты места; nil, nil при промахе
	GetCoordinates(ctx context.Context, placeID string) (*domain.ResolvedCoordinates, error)

	// SetCoordinates сохраняет координаты места
	SetCoordinates(ctx context.Context, rc domain.ResolvedCoordinates, ttl time.Duration) error

	// GetPlaces получает список заведений; nil, nil при промахе
	GetPlaces(ctx context.Context) ([]domain.PlaceRecord, error)

	// SetPlaces сохраняет список заведений
	SetPlaces(ctx context.Context, places []domain.PlaceRecord, ttl time.Duration) error
}
