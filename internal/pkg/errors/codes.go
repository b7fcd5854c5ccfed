package errors

import "net/http"

var (
	ErrPlaceNotFound = New(
		"PLACE_NOT_FOUND",
		"Place not found",
		http.StatusNotFound,
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Map session not found",
		http.StatusNotFound,
	)

	ErrOverlayNotFound = New(
		"OVERLAY_NOT_FOUND",
		"Overlay not found on map",
		http.StatusNotFound,
	)

	ErrInvalidRegion = New(
		"INVALID_REGION",
		"Unknown region",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrMapUnavailable = New(
		"MAP_UNAVAILABLE",
		"Map SDK is unavailable",
		http.StatusServiceUnavailable,
	)

	ErrContentBackend = New(
		"CONTENT_BACKEND_ERROR",
		"Failed to load places",
		http.StatusBadGateway,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
