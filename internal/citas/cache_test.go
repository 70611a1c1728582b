package citas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/credstore"
	"github.com/valdiviesod/citasalud-cli/internal/storage/sqlite"
)

func TestCargarSemanasOfflineFallback(t *testing.T) {
	gokeyring.MockInit()
	store := credstore.NewWithService("com.citasalud.cli.citas-cache-test")
	_ = store.Clear()

	cache := sqlite.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err := cache.Init(); err != nil {
		t.Fatalf("cache Init() failed: %v", err)
	}
	defer cache.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(semanasPayload))
	}))
	client := api.New(server.URL, store)

	// First run online: populates the snapshot cache.
	online := New(client, cache)
	online.CambiarPeriodo(context.Background(), 2025, 12)
	if snap := online.Snapshot(); len(snap.Semanas) != 2 || snap.DesdeCache {
		t.Fatalf("setup: online snapshot = %+v", snap)
	}

	// Second run offline: the dial fails, the cached snapshot is served.
	server.Close()
	offline := New(client, cache)
	offline.CambiarPeriodo(context.Background(), 2025, 12)

	snap := offline.Snapshot()
	if snap.Error == "" {
		t.Error("offline load must still surface the error message")
	}
	if !snap.DesdeCache {
		t.Error("DesdeCache = false, want cached snapshot flagged")
	}
	if len(snap.Semanas) != 2 || snap.NombreMes != "diciembre" {
		t.Errorf("snapshot = (%q, %d weeks), want cached diciembre weeks", snap.NombreMes, len(snap.Semanas))
	}
}

func TestHorarioCacheado(t *testing.T) {
	gokeyring.MockInit()
	store := credstore.NewWithService("com.citasalud.cli.citas-cache-test")
	_ = store.Clear()

	cache := sqlite.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err := cache.Init(); err != nil {
		t.Fatalf("cache Init() failed: %v", err)
	}
	defer cache.Close()

	availServer := &availabilityServer{booked: map[int]bool{}}
	server := httptest.NewServer(availServer.handler())
	defer server.Close()
	client := api.New(server.URL, store)

	w := New(client, cache)
	if _, err := w.CargarHorarios(context.Background(), "2025-12-10"); err != nil {
		t.Fatalf("CargarHorarios() failed: %v", err)
	}

	cached, ok := w.HorarioCacheado("2025-12-10")
	if !ok {
		t.Fatal("HorarioCacheado() should find the snapshot written by the fetch")
	}
	if _, found := cached.FindSlot(42); !found {
		t.Error("cached snapshot missing slot 42")
	}

	if _, ok := w.HorarioCacheado("1999-01-01"); ok {
		t.Error("HorarioCacheado() for an unfetched date should report no snapshot")
	}
}
