package constants

import "time"

// ScreenState represents the current screen of the TUI application
type ScreenState int

const (
	AppName = "citasalud"
	Version = "v0.3.1"

	// Keyring service and fixed storage keys shared by the session
	// machine (writer) and the HTTP gateway (reader, clear-on-401).
	KeyringService = "com.citasalud.cli"
	KeyringToken   = "token"
	KeyringUser    = "user"

	DefaultAPIURL    = "http://localhost:8000/api"
	DefaultConfigDir = "~/.config/citasalud"

	// DateFormat is the ISO date format the backend speaks (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	RequestTimeout = 15 * time.Second

	// Route names, mirroring the web client this talks alongside
	RouteHome         = "home"
	RouteLogin        = "login"
	RouteRegister     = "register"
	RouteCitas        = "citas"
	RoutePacientes    = "pacientes"
	RouteDoctores     = "doctores"
	RouteTratamientos = "tratamientos"
	RouteUnauthorized = "unauthorized"

	// User-facing messages, kept in Spanish to match the backend's audience
	MsgErrorLogin       = "Error al iniciar sesión"
	MsgErrorRegistro    = "Error al registrarse"
	MsgErrorSemanas     = "Error al cargar las semanas"
	MsgErrorHorarios    = "No se pudieron cargar los horarios disponibles"
	MsgSlotNoDisponible = "El horario ya no está disponible"
)

// Screen states
const (
	StateLogin ScreenState = iota
	StateRegister
	StateHome
	StateCalendario
	StateHorarios
	StateUnauthorized
)
