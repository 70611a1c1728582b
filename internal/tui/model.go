package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/valdiviesod/citasalud-cli/internal/citas"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/models"
	"github.com/valdiviesod/citasalud-cli/internal/router"
	"github.com/valdiviesod/citasalud-cli/internal/session"
)

type LoginFormModel struct {
	Email    string
	Password string
}

type RegisterFormModel struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

type menuEntry struct {
	label string
	route string
}

// slotRow is one selectable line of the availability screen: a doctor/slot
// pair, flattened so a single cursor can walk every slot of every doctor.
type slotRow struct {
	doctor string
	slot   models.Slot
}

type Model struct {
	session *session.Machine
	router  *router.Router
	citas   *citas.Workflow

	state constants.ScreenState
	keys  KeyMap
	help  help.Model

	form         *huh.Form
	loginForm    *LoginFormModel
	registerForm *RegisterFormModel

	menu       []menuEntry
	menuCursor int
	weekCursor int
	dayCursor  int
	slotCursor int
	pickingDay bool

	busy     bool
	status   string
	quitting bool
	width    int
	height   int
}

func NewModel(sess *session.Machine, rt *router.Router, wf *citas.Workflow) Model {
	m := Model{
		session: sess,
		router:  rt,
		citas:   wf,
		state:   constants.StateLogin,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		menu: []menuEntry{
			{label: "Agenda de citas", route: constants.RouteCitas},
			{label: "Tratamientos", route: constants.RouteTratamientos},
			{label: "Pacientes", route: constants.RoutePacientes},
			{label: "Doctores", route: constants.RouteDoctores},
		},
	}
	m.form, m.loginForm = newLoginForm()
	return m
}

func newLoginForm() (*huh.Form, *LoginFormModel) {
	data := &LoginFormModel{}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Correo electrónico").
				Value(&data.Email),
			huh.NewInput().
				Title("Contraseña").
				EchoMode(huh.EchoModePassword).
				Value(&data.Password),
		),
	)
	return form, data
}

func newRegisterForm() (*huh.Form, *RegisterFormModel) {
	data := &RegisterFormModel{}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Nombre completo").
				Value(&data.Name),
			huh.NewInput().
				Title("Correo electrónico").
				Value(&data.Email),
			huh.NewInput().
				Title("Contraseña").
				EchoMode(huh.EchoModePassword).
				Value(&data.Password),
			huh.NewInput().
				Title("Confirmar contraseña").
				EchoMode(huh.EchoModePassword).
				Value(&data.Confirm),
		),
	)
	return form, data
}

func stateForRoute(name string) constants.ScreenState {
	switch name {
	case constants.RouteLogin:
		return constants.StateLogin
	case constants.RouteRegister:
		return constants.StateRegister
	case constants.RouteCitas, constants.RouteTratamientos:
		return constants.StateCalendario
	case constants.RouteUnauthorized:
		return constants.StateUnauthorized
	default:
		return constants.StateHome
	}
}

// slotRows flattens the current availability into cursor-addressable lines.
func (m Model) slotRows() []slotRow {
	snap := m.citas.Snapshot()
	var rows []slotRow
	for _, doc := range snap.Horarios.Doctores {
		for _, s := range doc.Slots {
			rows = append(rows, slotRow{doctor: doc.Nombre, slot: s})
		}
	}
	return rows
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Quit}
	switch m.state {
	case constants.StateHome:
		keys = append(keys, m.keys.Up, m.keys.Down, m.keys.Enter, m.keys.Logout)
	case constants.StateCalendario:
		keys = append(keys, m.keys.Up, m.keys.Down, m.keys.Enter, m.keys.Back, m.keys.PrevMonth, m.keys.NextMonth, m.keys.Reload)
	case constants.StateHorarios:
		keys = append(keys, m.keys.Up, m.keys.Down, m.keys.Enter, m.keys.Cancel, m.keys.Back)
	case constants.StateUnauthorized:
		keys = append(keys, m.keys.Back)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.form.Init(), m.checkAuthCmd())
}
