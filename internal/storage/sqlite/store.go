package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/models"
	"github.com/valdiviesod/citasalud-cli/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS semanas_cache (
	año        INTEGER NOT NULL,
	mes        INTEGER NOT NULL,
	nombre_mes TEXT NOT NULL,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL,
	PRIMARY KEY (año, mes)
);

CREATE TABLE IF NOT EXISTS horarios_cache (
	fecha      TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
`

// Store is the sqlite-backed snapshot cache.
type Store struct {
	path string
	db   *sql.DB
}

// NewStore returns a store over the database at path. Call Init before use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the cache location under the config directory.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, constants.AppName+".db")
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveWeeks(año, mes int, nombreMes string, semanas []models.Week) error {
	payload, err := json.Marshal(semanas)
	if err != nil {
		return fmt.Errorf("failed to encode weeks: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO semanas_cache (año, mes, nombre_mes, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(año, mes) DO UPDATE SET
			nombre_mes = excluded.nombre_mes,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		año, mes, nombreMes, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save weeks snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetWeeks(año, mes int) (string, []models.Week, error) {
	var nombreMes, payload string
	err := s.db.QueryRow(
		`SELECT nombre_mes, payload FROM semanas_cache WHERE año = ? AND mes = ?`,
		año, mes).Scan(&nombreMes, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read weeks snapshot: %w", err)
	}

	var semanas []models.Week
	if err := json.Unmarshal([]byte(payload), &semanas); err != nil {
		return "", nil, fmt.Errorf("failed to decode weeks snapshot: %w", err)
	}
	return nombreMes, semanas, nil
}

func (s *Store) SaveAvailability(a models.SlotAvailability) error {
	if a.Fecha == "" {
		return errors.New("availability snapshot requires a date")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO horarios_cache (fecha, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fecha) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		a.Fecha, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save availability snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetAvailability(fecha string) (models.SlotAvailability, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM horarios_cache WHERE fecha = ?`, fecha).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SlotAvailability{}, storage.ErrNoSnapshot
	}
	if err != nil {
		return models.SlotAvailability{}, fmt.Errorf("failed to read availability snapshot: %w", err)
	}

	var a models.SlotAvailability
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return models.SlotAvailability{}, fmt.Errorf("failed to decode availability snapshot: %w", err)
	}
	return a, nil
}
