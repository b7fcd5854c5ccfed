package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
)

type coordinateRepository struct {
	db *DB
}

// NewCoordinateRepository - хранилище разрешённых координат мест
func NewCoordinateRepository(db *DB) repository.CoordinateRepository {
	return &coordinateRepository{db: db}
}

type coordinateRow struct {
	PlaceID               string    `db:"place_id"`
	Lat                   float64   `db:"lat"`
	Lng                   float64   `db:"lng"`
	Strategy              string    `db:"strategy"`
	Flagged               bool      `db:"flagged"`
	DistanceFromReference float64   `db:"distance_from_reference"`
	Fingerprint           string    `db:"fingerprint"`
	ResolvedAt            time.Time `db:"resolved_at"`
}

func (r coordinateRow) toDomain() domain.ResolvedCoordinates {
	return domain.ResolvedCoordinates{
		PlaceID:               r.PlaceID,
		Coordinates:           domain.Coordinates{Lat: r.Lat, Lng: r.Lng},
		Strategy:              domain.ResolveStrategy(r.Strategy),
		Flagged:               r.Flagged,
		DistanceFromReference: r.DistanceFromReference,
		Fingerprint:           r.Fingerprint,
		ResolvedAt:            r.ResolvedAt,
	}
}

const selectCoordinates = `
	SELECT place_id, lat, lng, strategy, flagged,
	       distance_from_reference, fingerprint, resolved_at
	FROM place_coordinates`

func (r *coordinateRepository) Get(ctx context.Context, placeID string) (*domain.ResolvedCoordinates, error) {
	var row coordinateRow
	err := r.db.GetContext(ctx, &row, selectCoordinates+` WHERE place_id = $1`, placeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.db.logger.Error("Failed to get coordinates",
			zap.String("place_id", placeID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get coordinates: %w", err)
	}

	rc := row.toDomain()
	return &rc, nil
}

// GetMany - одним запросом по списку id; отсутствующих в ответе нет
func (r *coordinateRepository) GetMany(ctx context.Context, placeIDs []string) (map[string]domain.ResolvedCoordinates, error) {
	out := make(map[string]domain.ResolvedCoordinates, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}

	var rows []coordinateRow
	err := r.db.SelectContext(ctx, &rows, selectCoordinates+` WHERE place_id = ANY($1)`, pq.Array(placeIDs))
	if err != nil {
		r.db.logger.Error("Failed to get coordinates batch",
			zap.Int("count", len(placeIDs)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get coordinates batch: %w", err)
	}

	for _, row := range rows {
		out[row.PlaceID] = row.toDomain()
	}

	r.db.logger.Debug("Coordinates batch loaded",
		zap.Int("requested", len(placeIDs)),
		zap.Int("found", len(out)))
	return out, nil
}

// Save - upsert по place_id
func (r *coordinateRepository) Save(ctx context.Context, rc domain.ResolvedCoordinates) error {
	if rc.PlaceID == "" {
		return fmt.Errorf("place id is required")
	}
	resolvedAt := rc.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO place_coordinates (
			place_id, lat, lng, strategy, flagged,
			distance_from_reference, fingerprint, resolved_at
		) VALUES (
			:place_id, :lat, :lng, :strategy, :flagged,
			:distance_from_reference, :fingerprint, :resolved_at
		)
		ON CONFLICT (place_id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			strategy = EXCLUDED.strategy,
			flagged = EXCLUDED.flagged,
			distance_from_reference = EXCLUDED.distance_from_reference,
			fingerprint = EXCLUDED.fingerprint,
			resolved_at = EXCLUDED.resolved_at`

	_, err := r.db.NamedExecContext(ctx, query, coordinateRow{
		PlaceID:               rc.PlaceID,
		Lat:                   rc.Coordinates.Lat,
		Lng:                   rc.Coordinates.Lng,
		Strategy:              string(rc.Strategy),
		Flagged:               rc.Flagged,
		DistanceFromReference: rc.DistanceFromReference,
		Fingerprint:           rc.Fingerprint,
		ResolvedAt:            resolvedAt,
	})
	if err != nil {
		r.db.logger.Error("Failed to save coordinates",
			zap.String("place_id", rc.PlaceID),
			zap.Error(err))
		return fmt.Errorf("failed to save coordinates: %w", err)
	}

	return nil
}
