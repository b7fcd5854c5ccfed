package repository

import (
	"context"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// CoordinateRepository - долговременное хранилище разрешённых координат
type CoordinateRepository interface {
	// Get возвращает nil, nil если записи нет
	Get(ctx context.Context, placeID string) (*domain.ResolvedCoordinates, error)

	GetMany(ctx context.Context, placeIDs []string) (map[string]domain.ResolvedCoordinates, error)

	Save(ctx context.Context, rc domain.ResolvedCoordinates) error
}
