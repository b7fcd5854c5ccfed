package repository

import (
	"context"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// PlaceSearchRepository - внешний поиск мест и геокодирование
type PlaceSearchRepository interface {
	// KeywordSearch ищет места по ключевому слову
	KeywordSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.PlaceSearchResult, error)

	// AddressSearch выполняет прямое геокодирование адреса
	AddressSearch(ctx context.Context, query string) ([]domain.GeocodeResult, error)
}
