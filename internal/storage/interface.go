package storage

import (
	"errors"

	"github.com/valdiviesod/citasalud-cli/internal/models"
)

// ErrNoSnapshot is returned when no cached snapshot exists for the key.
var ErrNoSnapshot = errors.New("no cached snapshot")

// Provider caches the last server snapshots so the calendar can render
// stale data when the backend is unreachable. It is a read-through cache
// only: the server stays authoritative and snapshots are always replaced
// wholesale, mirroring how the workflow treats live responses.
type Provider interface {
	// Lifecycle
	Init() error
	Close() error

	// Week snapshots, keyed by period
	SaveWeeks(año, mes int, nombreMes string, semanas []models.Week) error
	GetWeeks(año, mes int) (nombreMes string, semanas []models.Week, err error)

	// Availability snapshots, keyed by date
	SaveAvailability(a models.SlotAvailability) error
	GetAvailability(fecha string) (models.SlotAvailability, error)
}
