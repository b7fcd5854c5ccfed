package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/repository/postgres"
)

// NewCoordinateRepositoryForTest creates a coordinate repository with test database and logger
func NewCoordinateRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.CoordinateRepository {
	return postgres.NewCoordinateRepository(postgres.NewDBForTest(db, logger))
}
