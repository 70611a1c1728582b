package models

import (
	"encoding/json"
	"strings"
)

// Role is the canonical role enumeration. The backend has emitted both
// "patient" and the legacy "paciente" spelling across revisions; decoding
// normalizes to the English form so role checks have a single vocabulary.
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// NormalizeRole maps backend role spellings onto the canonical enumeration.
func NormalizeRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrador":
		return RoleAdmin
	case "patient", "paciente":
		return RolePatient
	case "doctor":
		return RoleDoctor
	default:
		return Role(strings.ToLower(strings.TrimSpace(s)))
	}
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = NormalizeRole(s)
	return nil
}

// UserProfile is the cached identity of the authenticated user.
type UserProfile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"rol"`
}

// UnmarshalJSON accepts both "name" and the backend's "nombre" field.
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Nombre string `json:"nombre"`
		Email  string `json:"email"`
		Role   Role   `json:"rol"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	u.ID = a.ID
	u.Name = a.Name
	if u.Name == "" {
		u.Name = a.Nombre
	}
	u.Email = a.Email
	u.Role = a.Role
	return nil
}

// CalendarPeriod selects which weeks are loaded. Month is 1-based.
type CalendarPeriod struct {
	Year  int
	Month int
}

// Day is one calendar day inside a week snapshot.
type Day struct {
	Fecha     string `json:"fecha"`
	Dia       int    `json:"dia"`
	DiaSemana string `json:"dia_semana"`
	EsHoy     bool   `json:"es_hoy"`
}

// Week is an immutable snapshot of one week of the selected month. The
// client never mutates weeks, only replaces the whole collection.
type Week struct {
	Numero      int    `json:"numero"`
	FechaInicio string `json:"fecha_inicio"`
	FechaFin    string `json:"fecha_fin"`
	Label       string `json:"label"`
	Dias        []Day  `json:"dias"`
}

// Slot is a single bookable time unit for one doctor on one date.
type Slot struct {
	ID         int    `json:"id"`
	Hora       string `json:"hora"`
	Disponible bool   `json:"disponible"`
}

// DoctorSlots groups the slots one doctor offers on the selected date.
type DoctorSlots struct {
	DoctorID int    `json:"doctor_id"`
	Nombre   string `json:"nombre"`
	Slots    []Slot `json:"horarios"`
}

// SlotAvailability is the per-doctor slot breakdown for exactly one date.
// It is always replaced wholesale, never patched slot by slot.
type SlotAvailability struct {
	Fecha         string        `json:"fecha"`
	TotalDoctores int           `json:"total_doctores"`
	TotalBloques  int           `json:"total_bloques"`
	Doctores      []DoctorSlots `json:"doctores"`
}

// EmptyAvailability returns the well-formed zero structure for a date.
func EmptyAvailability(fecha string) SlotAvailability {
	return SlotAvailability{
		Fecha:         fecha,
		TotalDoctores: 0,
		TotalBloques:  0,
		Doctores:      []DoctorSlots{},
	}
}

// FindSlot looks a slot up by id across all doctors. The second return
// is false when the slot is not present in the current availability.
func (a SlotAvailability) FindSlot(id int) (Slot, bool) {
	for _, d := range a.Doctores {
		for _, s := range d.Slots {
			if s.ID == id {
				return s, true
			}
		}
	}
	return Slot{}, false
}
