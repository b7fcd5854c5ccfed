package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
)

const (
	coordinatesKeyPrefix = "coords:"
	placesKey            = "places:all"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

// GetCoordinates - координаты места из кеша; nil при промахе
func (r *cacheRepository) GetCoordinates(ctx context.Context, placeID string) (*domain.ResolvedCoordinates, error) {
	data, err := r.Get(ctx, coordinatesKeyPrefix+placeID)
	if err != nil || data == nil {
		return nil, err
	}

	var rc domain.ResolvedCoordinates
	if err := json.Unmarshal(data, &rc); err != nil {
		r.logger.Error("Failed to unmarshal coordinates from cache", zap.String("place_id", placeID), zap.Error(err))
		return nil, fmt.Errorf("unmarshal coordinates: %w", err)
	}

	return &rc, nil
}

// SetCoordinates сохраняет координаты места
func (r *cacheRepository) SetCoordinates(ctx context.Context, rc domain.ResolvedCoordinates, ttl time.Duration) error {
	data, err := json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("marshal coordinates: %w", err)
	}

	return r.Set(ctx, coordinatesKeyPrefix+rc.PlaceID, data, ttl)
}

// GetPlaces - список мест из кеша; nil при промахе
func (r *cacheRepository) GetPlaces(ctx context.Context) ([]domain.PlaceRecord, error) {
	data, err := r.Get(ctx, placesKey)
	if err != nil || data == nil {
		return nil, err
	}

	var places []domain.PlaceRecord
	if err := json.Unmarshal(data, &places); err != nil {
		r.logger.Error("Failed to unmarshal places from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal places: %w", err)
	}

	return places, nil
}

// SetPlaces сохраняет список мест
func (r *cacheRepository) SetPlaces(ctx context.Context, places []domain.PlaceRecord, ttl time.Duration) error {
	if places == nil {
		places = []domain.PlaceRecord{}
	}
	data, err := json.Marshal(places)
	if err != nil {
		return fmt.Errorf("marshal places: %w", err)
	}

	return r.Set(ctx, placesKey, data, ttl)
}
