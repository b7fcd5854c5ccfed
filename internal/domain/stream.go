package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamPlacesResolve  = "stream:places:resolve"
	StreamPlacesResolved = "stream:places:resolved"
)

// PlacesResolveEvent - запрос на разрешение координат.
// Пустой PlaceIDs означает весь набор заведений.
type PlacesResolveEvent struct {
	RequestID   uuid.UUID `json:"request_id"`
	PlaceIDs    []string  `json:"place_ids,omitempty"`
	Force       bool      `json:"force,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Wants - входит ли место в запрос
func (e *PlacesResolveEvent) Wants(placeID string) bool {
	if len(e.PlaceIDs) == 0 {
		return true
	}
	for _, id := range e.PlaceIDs {
		if id == placeID {
			return true
		}
	}
	return false
}

// PlacesResolvedEvent - итог обработки запроса
type PlacesResolvedEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	Total      int       `json:"total"`
	Resolved   int       `json:"resolved"`
	Flagged    []string  `json:"flagged,omitempty"`
	Missing    []string  `json:"missing,omitempty"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
