// Package citas owns the appointment scheduling state: the selected
// calendar period, its week breakdown, the selected week, and per-doctor
// slot availability for a selected day. Bookings and cancellations never
// patch slots locally; the post-action reload of the selected date is the
// consistency mechanism and the server is the sole source of truth.
package citas

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/logger"
	"github.com/valdiviesod/citasalud-cli/internal/models"
	"github.com/valdiviesod/citasalud-cli/internal/storage"
)

// Snapshot is a point-in-time copy of workflow state for rendering.
type Snapshot struct {
	Año                int
	Mes                int
	NombreMes          string
	Semanas            []models.Week
	Loading            bool
	Error              string
	SemanaSeleccionada int
	FechaInicioSemana  string
	FechaFinSemana     string
	DesdeCache         bool

	Horarios        models.SlotAvailability
	LoadingHorarios bool
	ErrorHorarios   string
	DiaSeleccionado string
}

// Workflow is the scheduling state machine. cache may be nil; snapshots are
// then neither written nor used as an offline fallback.
type Workflow struct {
	api   *api.Client
	cache storage.Provider

	mu                 sync.Mutex
	año                int
	mes                int
	nombreMes          string
	semanas            []models.Week
	loading            bool
	lastError          string
	semanaSeleccionada int
	fechaInicioSemana  string
	fechaFinSemana     string
	desdeCache         bool
	semanasTag         uuid.UUID

	horarios        models.SlotAvailability
	loadingHorarios bool
	errorHorarios   string
	diaSeleccionado string
	horariosTag     uuid.UUID
}

// New builds a workflow starting at the current period.
func New(client *api.Client, cache storage.Provider) *Workflow {
	now := time.Now()
	return &Workflow{
		api:      client,
		cache:    cache,
		año:      now.Year(),
		mes:      int(now.Month()),
		horarios: models.EmptyAvailability(""),
	}
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Año:                w.año,
		Mes:                w.mes,
		NombreMes:          w.nombreMes,
		Semanas:            append([]models.Week(nil), w.semanas...),
		Loading:            w.loading,
		Error:              w.lastError,
		SemanaSeleccionada: w.semanaSeleccionada,
		FechaInicioSemana:  w.fechaInicioSemana,
		FechaFinSemana:     w.fechaFinSemana,
		DesdeCache:         w.desdeCache,
		Horarios:           w.horarios,
		LoadingHorarios:    w.loadingHorarios,
		ErrorHorarios:      w.errorHorarios,
		DiaSeleccionado:    w.diaSeleccionado,
	}
}

// CargarSemanas fetches the week breakdown for the selected period. On
// failure the previous collection stays untouched and Error carries a fixed
// user-facing message; when the backend is unreachable and nothing is
// loaded yet, the last cached snapshot for the period is shown instead,
// flagged DesdeCache. A response for a period that is no longer selected is
// discarded.
func (w *Workflow) CargarSemanas(ctx context.Context) {
	w.mu.Lock()
	w.loading = true
	w.lastError = ""
	tag := uuid.New()
	w.semanasTag = tag
	año, mes := w.año, w.mes
	w.mu.Unlock()

	resp, err := w.api.Semanas(ctx, año, mes)

	w.mu.Lock()
	defer w.mu.Unlock()
	// Each request is tagged with the period it targets; a result for a
	// period that is no longer selected, or a load superseded by a newer
	// one, is dropped on the floor.
	if w.semanasTag != tag || w.año != año || w.mes != mes {
		logger.Debug("Discarding stale weeks response", "año", año, "mes", mes)
		return
	}
	w.loading = false

	if err == nil {
		w.semanas = resp.Semanas
		w.nombreMes = resp.NombreMes
		w.desdeCache = false
		if w.cache != nil {
			if cacheErr := w.cache.SaveWeeks(año, mes, resp.NombreMes, resp.Semanas); cacheErr != nil {
				logger.Warn("Failed to cache weeks snapshot", "error", cacheErr)
			}
		}
		return
	}

	w.lastError = constants.MsgErrorSemanas
	logger.Warn("Failed to load weeks", "año", año, "mes", mes, "error", err)

	if api.IsNetworkError(err) && len(w.semanas) == 0 && w.cache != nil {
		nombreMes, cached, cacheErr := w.cache.GetWeeks(año, mes)
		if cacheErr == nil {
			w.semanas = cached
			w.nombreMes = nombreMes
			w.desdeCache = true
			logger.Info("Serving weeks from offline cache", "año", año, "mes", mes)
		} else if !errors.Is(cacheErr, storage.ErrNoSnapshot) {
			logger.Warn("Failed to read weeks cache", "error", cacheErr)
		}
	}
}

// CambiarPeriodo selects a new period. The week selection never carries
// across periods: stale week numbers mean nothing in another month, so the
// selection is cleared before the load starts.
func (w *Workflow) CambiarPeriodo(ctx context.Context, año, mes int) {
	w.mu.Lock()
	w.año = año
	w.mes = mes
	w.semanaSeleccionada = 0
	w.fechaInicioSemana = ""
	w.fechaFinSemana = ""
	w.mu.Unlock()

	w.CargarSemanas(ctx)
}

// SeleccionarSemana marks a week as selected. It fetches nothing; it only
// changes which days DiasDeLaSemanaSeleccionada exposes.
func (w *Workflow) SeleccionarSemana(numero int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.semanaSeleccionada = numero
}

// SetRangoSemana records the ISO date range of the selection for display
// and filtering. Purely informational.
func (w *Workflow) SetRangoSemana(inicio, fin string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fechaInicioSemana = inicio
	w.fechaFinSemana = fin
}

// LimpiarFiltroSemana clears the week selection and its date range.
func (w *Workflow) LimpiarFiltroSemana() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.semanaSeleccionada = 0
	w.fechaInicioSemana = ""
	w.fechaFinSemana = ""
}

// DiasDeLaSemanaSeleccionada returns the days of the selected week, or an
// empty slice when no week is selected or the collection does not contain
// that number.
func (w *Workflow) DiasDeLaSemanaSeleccionada() []models.Day {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.semanaSeleccionada == 0 {
		return []models.Day{}
	}
	for _, s := range w.semanas {
		if s.Numero == w.semanaSeleccionada {
			return append([]models.Day(nil), s.Dias...)
		}
	}
	return []models.Day{}
}

// CargarHorarios fetches per-doctor availability for exactly one date and
// replaces the whole structure. On failure the state resets to the
// empty-but-well-formed structure for that date and the error is
// re-signaled. A response for a date that is no longer selected is
// discarded.
func (w *Workflow) CargarHorarios(ctx context.Context, fecha string) (models.SlotAvailability, error) {
	w.mu.Lock()
	w.loadingHorarios = true
	w.errorHorarios = ""
	w.diaSeleccionado = fecha
	tag := uuid.New()
	w.horariosTag = tag
	w.mu.Unlock()

	resp, err := w.api.HorariosDisponibles(ctx, fecha)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.horariosTag != tag || w.diaSeleccionado != fecha {
		logger.Debug("Discarding stale availability response", "fecha", fecha)
		if err != nil {
			return models.EmptyAvailability(fecha), err
		}
		return resp, nil
	}
	w.loadingHorarios = false

	if err != nil {
		w.errorHorarios = constants.MsgErrorHorarios
		w.horarios = models.EmptyAvailability(fecha)
		logger.Warn("Failed to load availability", "fecha", fecha, "error", err)
		return w.horarios, err
	}

	if resp.Doctores == nil {
		resp.Doctores = []models.DoctorSlots{}
	}
	if resp.Fecha == "" {
		resp.Fecha = fecha
	}
	w.horarios = resp
	if w.cache != nil {
		if cacheErr := w.cache.SaveAvailability(resp); cacheErr != nil {
			logger.Warn("Failed to cache availability snapshot", "error", cacheErr)
		}
	}
	return resp, nil
}

// LimpiarHorarios resets availability to its empty form. Idempotent.
func (w *Workflow) LimpiarHorarios() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.horarios = models.EmptyAvailability("")
	w.errorHorarios = ""
	w.diaSeleccionado = ""
}

// HorarioCacheado returns the last cached availability snapshot for a date,
// for offline display. The live state is never silently replaced by it.
func (w *Workflow) HorarioCacheado(fecha string) (models.SlotAvailability, bool) {
	if w.cache == nil {
		return models.SlotAvailability{}, false
	}
	a, err := w.cache.GetAvailability(fecha)
	if err != nil {
		return models.SlotAvailability{}, false
	}
	return a, true
}

// AgendarCita books a slot, then reloads the selected date so the UI shows
// server-side truth rather than a locally guessed decrement. The slot may
// have been taken by a concurrent client between the click and the reload;
// the reload, not the booking response, is authoritative for what is shown.
// Server errors (slot taken, validation) propagate unchanged.
func (w *Workflow) AgendarCita(ctx context.Context, horarioID int, observaciones string) (api.MutationResult, error) {
	result, err := w.api.AgendarCita(ctx, horarioID, observaciones)
	if err != nil {
		logger.Warn("Booking failed", "horario_id", horarioID, "error", err)
		return result, err
	}
	logger.Info("Cita agendada", "horario_id", horarioID)

	if fecha := w.selectedDate(); fecha != "" {
		if _, err := w.CargarHorarios(ctx, fecha); err != nil {
			return result, err
		}
	}
	return result, nil
}

// CancelarCita frees a slot, then reloads the selected date. Symmetric to
// AgendarCita.
func (w *Workflow) CancelarCita(ctx context.Context, horarioID int) (api.MutationResult, error) {
	result, err := w.api.CancelarCita(ctx, horarioID)
	if err != nil {
		logger.Warn("Cancellation failed", "horario_id", horarioID, "error", err)
		return result, err
	}
	logger.Info("Cita cancelada", "horario_id", horarioID)

	if fecha := w.selectedDate(); fecha != "" {
		if _, err := w.CargarHorarios(ctx, fecha); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (w *Workflow) selectedDate() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diaSeleccionado
}
