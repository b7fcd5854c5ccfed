package repository

import (
	"context"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// PlaceSourceRepository - контент-бэкенд со списком заведений
type PlaceSourceRepository interface {
	// ListPlaces возвращает все заведения, пройдя по всем страницам
	ListPlaces(ctx context.Context) ([]domain.PlaceRecord, error)
}
