package citas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/credstore"
	"github.com/valdiviesod/citasalud-cli/internal/models"
)

const semanasPayload = `{
	"año": 2025, "mes": 12, "nombre_mes": "diciembre",
	"semanas": [
		{"numero": 1, "fecha_inicio": "2025-12-01", "fecha_fin": "2025-12-07",
		 "dias": [{"fecha": "2025-12-01", "dia": 1, "dia_semana": "lunes", "es_hoy": false}]},
		{"numero": 2, "fecha_inicio": "2025-12-08", "fecha_fin": "2025-12-14",
		 "dias": [{"fecha": "2025-12-10", "dia": 10, "dia_semana": "miércoles", "es_hoy": false}]}
	]
}`

func newClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	gokeyring.MockInit()
	store := credstore.NewWithService("com.citasalud.cli.citas-test")
	_ = store.Clear()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.New(server.URL, store)
}

func TestCargarSemanas(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(semanasPayload))
	}))
	w := New(client, nil)

	w.CambiarPeriodo(context.Background(), 2025, 12)

	snap := w.Snapshot()
	if snap.Loading {
		t.Error("loading flag must be reset after the fetch")
	}
	if snap.Error != "" {
		t.Errorf("Error = %q, want empty", snap.Error)
	}
	if snap.NombreMes != "diciembre" || len(snap.Semanas) != 2 {
		t.Errorf("snapshot = (%q, %d weeks), want diciembre with 2 weeks", snap.NombreMes, len(snap.Semanas))
	}
}

func TestCargarSemanasFailureKeepsPreviousWeeks(t *testing.T) {
	var fail bool
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(semanasPayload))
	}))
	w := New(client, nil)

	w.CambiarPeriodo(context.Background(), 2025, 12)
	fail = true
	w.CargarSemanas(context.Background())

	snap := w.Snapshot()
	if snap.Error != "Error al cargar las semanas" {
		t.Errorf("Error = %q, want fixed user-facing message", snap.Error)
	}
	if len(snap.Semanas) != 2 {
		t.Errorf("previous week collection was overwritten, len = %d", len(snap.Semanas))
	}
}

func TestCambiarPeriodoClearsSelection(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(semanasPayload))
	}))
	w := New(client, nil)
	w.CambiarPeriodo(context.Background(), 2025, 12)

	w.SeleccionarSemana(2)
	w.SetRangoSemana("2025-12-08", "2025-12-14")

	w.CambiarPeriodo(context.Background(), 2026, 1)

	snap := w.Snapshot()
	if snap.SemanaSeleccionada != 0 {
		t.Errorf("SemanaSeleccionada = %d, want cleared", snap.SemanaSeleccionada)
	}
	if snap.FechaInicioSemana != "" || snap.FechaFinSemana != "" {
		t.Errorf("date range = (%q, %q), want cleared", snap.FechaInicioSemana, snap.FechaFinSemana)
	}
}

func TestDiasDeLaSemanaSeleccionada(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(semanasPayload))
	}))
	w := New(client, nil)
	w.CambiarPeriodo(context.Background(), 2025, 12)

	if dias := w.DiasDeLaSemanaSeleccionada(); len(dias) != 0 {
		t.Errorf("no selection should expose no days, got %d", len(dias))
	}

	w.SeleccionarSemana(2)
	dias := w.DiasDeLaSemanaSeleccionada()
	if len(dias) != 1 || dias[0].Fecha != "2025-12-10" {
		t.Errorf("dias = %+v, want the single day of week 2", dias)
	}

	// A number the collection does not contain yields an empty sequence.
	w.SeleccionarSemana(9)
	if dias := w.DiasDeLaSemanaSeleccionada(); len(dias) != 0 {
		t.Errorf("unknown week number should expose no days, got %d", len(dias))
	}
}

// availabilityServer books slots server-side so reloads observe the change.
type availabilityServer struct {
	mu     sync.Mutex
	booked map[int]bool
	gets   int
}

func (s *availabilityServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/citas/horarios-disponibles", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.gets++
		fmt.Fprintf(w, `{
			"fecha": %q, "total_doctores": 1, "total_bloques": 2,
			"doctores": [{"doctor_id": 3, "nombre": "Dra. Soto", "horarios": [
				{"id": 41, "hora": "09:00", "disponible": %t},
				{"id": 42, "hora": "09:30", "disponible": %t}
			]}]
		}`, r.URL.Query().Get("fecha"), !s.booked[41], !s.booked[42])
	})
	mux.HandleFunc("/citas/agendar", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.booked[42] {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"El horario ya no está disponible"}`))
			return
		}
		s.booked[42] = true
		w.Write([]byte(`{"message":"Cita agendada exitosamente"}`))
	})
	mux.HandleFunc("/citas/cancelar/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.booked[42] = false
		w.Write([]byte(`{"message":"Cita cancelada"}`))
	})
	return mux
}

func TestAgendarCitaReloadsAvailability(t *testing.T) {
	server := &availabilityServer{booked: map[int]bool{}}
	client := newClient(t, server.handler())
	w := New(client, nil)

	first, err := w.CargarHorarios(context.Background(), "2025-12-10")
	if err != nil {
		t.Fatalf("CargarHorarios() failed: %v", err)
	}
	if slot, ok := first.FindSlot(42); !ok || !slot.Disponible {
		t.Fatalf("setup: slot 42 should start available, got %+v", slot)
	}

	if _, err := w.AgendarCita(context.Background(), 42, "control anual"); err != nil {
		t.Fatalf("AgendarCita() failed: %v", err)
	}

	if server.gets != 2 {
		t.Errorf("availability fetched %d times, want 2 (initial + reload)", server.gets)
	}

	snap := w.Snapshot()
	slot, ok := snap.Horarios.FindSlot(42)
	if !ok {
		t.Fatal("slot 42 missing after reload")
	}
	if slot.Disponible {
		t.Error("slot 42 still available after booking; reload must reflect server truth")
	}
}

func TestAgendarCitaConflictPropagates(t *testing.T) {
	server := &availabilityServer{booked: map[int]bool{42: true}}
	client := newClient(t, server.handler())
	w := New(client, nil)

	_, err := w.AgendarCita(context.Background(), 42, "")
	if !api.IsConflictError(err) {
		t.Fatalf("error = %v, want ConflictError surfaced verbatim", err)
	}
	if server.gets != 0 {
		t.Errorf("failed booking must not trigger a reload, gets = %d", server.gets)
	}
}

func TestCancelarCitaReloads(t *testing.T) {
	server := &availabilityServer{booked: map[int]bool{42: true}}
	client := newClient(t, server.handler())
	w := New(client, nil)

	if _, err := w.CargarHorarios(context.Background(), "2025-12-10"); err != nil {
		t.Fatalf("CargarHorarios() failed: %v", err)
	}

	if _, err := w.CancelarCita(context.Background(), 42); err != nil {
		t.Fatalf("CancelarCita() failed: %v", err)
	}

	snap := w.Snapshot()
	if slot, ok := snap.Horarios.FindSlot(42); !ok || !slot.Disponible {
		t.Errorf("slot 42 = %+v, want available again after cancellation reload", slot)
	}
}

func TestCargarHorariosFailureResetsEmpty(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	w := New(client, nil)

	_, err := w.CargarHorarios(context.Background(), "2025-12-10")
	if err == nil {
		t.Fatal("CargarHorarios must re-signal the failure")
	}

	snap := w.Snapshot()
	if snap.ErrorHorarios != "No se pudieron cargar los horarios disponibles" {
		t.Errorf("ErrorHorarios = %q, want fixed message", snap.ErrorHorarios)
	}
	want := models.EmptyAvailability("2025-12-10")
	if !reflect.DeepEqual(snap.Horarios, want) {
		t.Errorf("Horarios = %+v, want empty-but-well-formed for the date", snap.Horarios)
	}
}

func TestLimpiarHorariosIdempotent(t *testing.T) {
	server := &availabilityServer{booked: map[int]bool{}}
	client := newClient(t, server.handler())
	w := New(client, nil)

	if _, err := w.CargarHorarios(context.Background(), "2025-12-10"); err != nil {
		t.Fatalf("CargarHorarios() failed: %v", err)
	}

	w.LimpiarHorarios()
	once := w.Snapshot().Horarios
	w.LimpiarHorarios()
	twice := w.Snapshot().Horarios

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("LimpiarHorarios not idempotent: %+v vs %+v", once, twice)
	}
	if !reflect.DeepEqual(once, models.EmptyAvailability("")) {
		t.Errorf("cleared state = %+v, want empty structure", once)
	}
}

func TestStaleWeeksResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mes") == "11" {
			<-release
			w.Write([]byte(`{"año":2025,"mes":11,"nombre_mes":"noviembre","semanas":[{"numero":1,"fecha_inicio":"2025-11-03","fecha_fin":"2025-11-09","dias":[]}]}`))
			return
		}
		w.Write([]byte(semanasPayload))
	}))
	w := New(client, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.CambiarPeriodo(context.Background(), 2025, 11)
	}()

	// The November fetch is parked server-side; switch to December, let it
	// complete, then release the stale response.
	for w.Snapshot().Mes != 11 {
		time.Sleep(time.Millisecond)
	}
	w.CambiarPeriodo(context.Background(), 2025, 12)
	close(release)
	wg.Wait()

	snap := w.Snapshot()
	if snap.NombreMes != "diciembre" {
		t.Errorf("NombreMes = %q, want diciembre; stale November response must be discarded", snap.NombreMes)
	}
	if len(snap.Semanas) != 2 {
		t.Errorf("len(Semanas) = %d, want December's 2 weeks", len(snap.Semanas))
	}
}
