package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/valdiviesod/citasalud-cli/internal/models"
	"github.com/valdiviesod/citasalud-cli/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleWeeks() []models.Week {
	return []models.Week{
		{
			Numero:      1,
			FechaInicio: "2025-12-01",
			FechaFin:    "2025-12-07",
			Label:       "Semana 1: 01/12 - 07/12",
			Dias: []models.Day{
				{Fecha: "2025-12-01", Dia: 1, DiaSemana: "lunes"},
				{Fecha: "2025-12-02", Dia: 2, DiaSemana: "martes"},
			},
		},
		{Numero: 2, FechaInicio: "2025-12-08", FechaFin: "2025-12-14", Dias: []models.Day{}},
	}
}

func TestWeeksRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveWeeks(2025, 12, "diciembre", sampleWeeks()); err != nil {
		t.Fatalf("SaveWeeks() failed: %v", err)
	}

	nombreMes, semanas, err := s.GetWeeks(2025, 12)
	if err != nil {
		t.Fatalf("GetWeeks() failed: %v", err)
	}
	if nombreMes != "diciembre" {
		t.Errorf("nombreMes = %q, want diciembre", nombreMes)
	}
	if len(semanas) != 2 || semanas[0].Numero != 1 || len(semanas[0].Dias) != 2 {
		t.Errorf("semanas = %+v, want 2 weeks with days intact", semanas)
	}
}

func TestWeeksReplacedWholesale(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveWeeks(2025, 12, "diciembre", sampleWeeks()); err != nil {
		t.Fatalf("SaveWeeks() failed: %v", err)
	}
	replacement := []models.Week{{Numero: 1, FechaInicio: "2025-12-01", FechaFin: "2025-12-07"}}
	if err := s.SaveWeeks(2025, 12, "diciembre", replacement); err != nil {
		t.Fatalf("second SaveWeeks() failed: %v", err)
	}

	_, semanas, err := s.GetWeeks(2025, 12)
	if err != nil {
		t.Fatalf("GetWeeks() failed: %v", err)
	}
	if len(semanas) != 1 {
		t.Errorf("len(semanas) = %d, want 1 after replacement", len(semanas))
	}
}

func TestWeeksNoSnapshot(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.GetWeeks(2026, 1)
	if !errors.Is(err, storage.ErrNoSnapshot) {
		t.Errorf("GetWeeks() error = %v, want ErrNoSnapshot", err)
	}
}

func TestAvailabilityRoundTrip(t *testing.T) {
	s := newTestStore(t)

	a := models.SlotAvailability{
		Fecha:         "2025-12-10",
		TotalDoctores: 1,
		TotalBloques:  2,
		Doctores: []models.DoctorSlots{
			{DoctorID: 3, Nombre: "Dra. Soto", Slots: []models.Slot{
				{ID: 41, Hora: "09:00", Disponible: true},
				{ID: 42, Hora: "09:30", Disponible: false},
			}},
		},
	}
	if err := s.SaveAvailability(a); err != nil {
		t.Fatalf("SaveAvailability() failed: %v", err)
	}

	got, err := s.GetAvailability("2025-12-10")
	if err != nil {
		t.Fatalf("GetAvailability() failed: %v", err)
	}
	if got.TotalBloques != 2 || len(got.Doctores) != 1 || len(got.Doctores[0].Slots) != 2 {
		t.Errorf("availability = %+v, want full snapshot back", got)
	}
}

func TestAvailabilityRequiresDate(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveAvailability(models.SlotAvailability{}); err == nil {
		t.Error("SaveAvailability with empty date should fail")
	}
}

func TestAvailabilityNoSnapshot(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAvailability("2025-01-01")
	if !errors.Is(err, storage.ErrNoSnapshot) {
		t.Errorf("GetAvailability() error = %v, want ErrNoSnapshot", err)
	}
}
