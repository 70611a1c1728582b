package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
)

type authCheckedMsg struct{}

type sessionResultMsg struct{ err error }

type loggedOutMsg struct{}

type semanasMsg struct{}

type horariosMsg struct{ err error }

type mutationMsg struct {
	result api.MutationResult
	err    error
}

func (m Model) checkAuthCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sess.CheckAuth(context.Background())
		return authCheckedMsg{}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		_, err := sess.Login(context.Background(), email, password)
		return sessionResultMsg{err: err}
	}
}

func (m Model) registerCmd(data RegisterFormModel) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		_, err := sess.Register(context.Background(), api.RegisterRequest{
			Name:                 data.Name,
			Email:                data.Email,
			Password:             data.Password,
			PasswordConfirmation: data.Confirm,
		})
		return sessionResultMsg{err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sess.Logout(context.Background())
		return loggedOutMsg{}
	}
}

func (m Model) loadWeeksCmd() tea.Cmd {
	wf := m.citas
	return func() tea.Msg {
		wf.CargarSemanas(context.Background())
		return semanasMsg{}
	}
}

func (m Model) changePeriodCmd(año, mes int) tea.Cmd {
	wf := m.citas
	return func() tea.Msg {
		wf.CambiarPeriodo(context.Background(), año, mes)
		return semanasMsg{}
	}
}

func (m Model) loadSlotsCmd(fecha string) tea.Cmd {
	wf := m.citas
	return func() tea.Msg {
		_, err := wf.CargarHorarios(context.Background(), fecha)
		return horariosMsg{err: err}
	}
}

func (m Model) agendarCmd(horarioID int) tea.Cmd {
	wf := m.citas
	return func() tea.Msg {
		res, err := wf.AgendarCita(context.Background(), horarioID, "")
		return mutationMsg{result: res, err: err}
	}
}

func (m Model) cancelarCmd(horarioID int) tea.Cmd {
	wf := m.citas
	return func() tea.Msg {
		res, err := wf.CancelarCita(context.Background(), horarioID)
		return mutationMsg{result: res, err: err}
	}
}

// goTo pushes a transition through the router guard and aligns the screen
// with whichever route the guard actually landed on.
func (m Model) goTo(route string) (Model, tea.Cmd) {
	landed := m.router.Navigate(context.Background(), route)
	m.state = stateForRoute(landed)
	m.status = ""

	switch landed {
	case constants.RoutePacientes:
		m.status = "La gestión de pacientes solo está disponible en la versión web"
	case constants.RouteDoctores:
		m.status = "La gestión de doctores solo está disponible en la versión web"
	}

	switch m.state {
	case constants.StateLogin:
		m.form, m.loginForm = newLoginForm()
		return m, m.form.Init()
	case constants.StateRegister:
		m.form, m.registerForm = newRegisterForm()
		return m, m.form.Init()
	case constants.StateCalendario:
		m.pickingDay = false
		m.weekCursor = 0
		m.dayCursor = 0
		m.busy = true
		return m, m.loadWeeksCmd()
	}
	return m, nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case authCheckedMsg:
		if m.session.IsAuthenticated() {
			return m.choose(constants.RouteHome)
		}
		return m.choose(constants.RouteLogin)

	case sessionResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = m.session.Snapshot().Error
			if m.state == constants.StateLogin {
				m.form, m.loginForm = newLoginForm()
			} else {
				m.form, m.registerForm = newRegisterForm()
			}
			return m, m.form.Init()
		}
		return m.choose(constants.RouteHome)

	case loggedOutMsg:
		m.busy = false
		return m.choose(constants.RouteLogin)

	case semanasMsg:
		m.busy = false
		snap := m.citas.Snapshot()
		if snap.Error != "" {
			m.status = snap.Error
		}
		if m.weekCursor >= len(snap.Semanas) {
			m.weekCursor = 0
		}
		return m, nil

	case horariosMsg:
		m.busy = false
		m.slotCursor = 0
		m.state = constants.StateHorarios
		if msg.err != nil {
			m.status = m.citas.Snapshot().ErrorHorarios
		}
		return m, nil

	case mutationMsg:
		m.busy = false
		if msg.err != nil {
			if api.IsConflictError(msg.err) {
				m.status = constants.MsgSlotNoDisponible
			} else {
				m.status = msg.err.Error()
			}
			return m, nil
		}
		if msg.result.Message != "" {
			m.status = msg.result.Message
		} else {
			m.status = "Operación realizada"
		}
		if rows := m.slotRows(); m.slotCursor >= len(rows) {
			m.slotCursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.state {
		case constants.StateLogin, constants.StateRegister:
			return m.updateAuthForms(msg)
		case constants.StateHome:
			return m.updateHome(msg)
		case constants.StateCalendario:
			return m.updateCalendario(msg)
		case constants.StateHorarios:
			return m.updateHorarios(msg)
		case constants.StateUnauthorized:
			if msg.String() == "esc" || msg.String() == "enter" {
				return m.choose(constants.RouteHome)
			}
			if msg.String() == "q" {
				m.quitting = true
				return m, tea.Quit
			}
		}
		return m, nil
	}

	// Everything else belongs to the active form, if any.
	if m.form != nil && (m.state == constants.StateLogin || m.state == constants.StateRegister) {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) choose(route string) (tea.Model, tea.Cmd) {
	next, cmd := m.goTo(route)
	return next, cmd
}

func (m Model) updateAuthForms(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.state == constants.StateRegister {
			return m.choose(constants.RouteLogin)
		}
		m.quitting = true
		return m, tea.Quit
	case "ctrl+r":
		if m.state == constants.StateLogin {
			return m.choose(constants.RouteRegister)
		}
		return m.choose(constants.RouteLogin)
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.status = ""
		if m.state == constants.StateLogin {
			return m, m.loginCmd(m.loginForm.Email, m.loginForm.Password)
		}
		return m, m.registerCmd(*m.registerForm)
	}
	return m, cmd
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(m.menu)-1 {
			m.menuCursor++
		}
	case "enter":
		return m.choose(m.menu[m.menuCursor].route)
	case "ctrl+d":
		m.busy = true
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m Model) updateCalendario(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.citas.Snapshot()
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if m.pickingDay {
			m.pickingDay = false
			m.citas.LimpiarFiltroSemana()
			return m, nil
		}
		return m.choose(constants.RouteHome)
	case "up", "k":
		if m.pickingDay {
			if m.dayCursor > 0 {
				m.dayCursor--
			}
		} else if m.weekCursor > 0 {
			m.weekCursor--
		}
	case "down", "j":
		if m.pickingDay {
			if m.dayCursor < len(m.citas.DiasDeLaSemanaSeleccionada())-1 {
				m.dayCursor++
			}
		} else if m.weekCursor < len(snap.Semanas)-1 {
			m.weekCursor++
		}
	case "enter":
		if !m.pickingDay {
			if m.weekCursor >= len(snap.Semanas) {
				return m, nil
			}
			week := snap.Semanas[m.weekCursor]
			m.citas.SeleccionarSemana(week.Numero)
			m.citas.SetRangoSemana(week.FechaInicio, week.FechaFin)
			m.pickingDay = true
			m.dayCursor = 0
			return m, nil
		}
		dias := m.citas.DiasDeLaSemanaSeleccionada()
		if m.dayCursor >= len(dias) {
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, m.loadSlotsCmd(dias[m.dayCursor].Fecha)
	case "[":
		año, mes := prevPeriod(snap.Año, snap.Mes)
		m.pickingDay = false
		m.weekCursor = 0
		m.busy = true
		return m, m.changePeriodCmd(año, mes)
	case "]":
		año, mes := nextPeriod(snap.Año, snap.Mes)
		m.pickingDay = false
		m.weekCursor = 0
		m.busy = true
		return m, m.changePeriodCmd(año, mes)
	case "r":
		m.busy = true
		return m, m.loadWeeksCmd()
	}
	return m, nil
}

func (m Model) updateHorarios(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.slotRows()
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.citas.LimpiarHorarios()
		m.state = constants.StateCalendario
		m.status = ""
		return m, nil
	case "up", "k":
		if m.slotCursor > 0 {
			m.slotCursor--
		}
	case "down", "j":
		if m.slotCursor < len(rows)-1 {
			m.slotCursor++
		}
	case "enter":
		if m.slotCursor >= len(rows) {
			return m, nil
		}
		// Resolve against the latest snapshot: the cursor row may be
		// stale after a reload.
		slot, ok := m.citas.Snapshot().Horarios.FindSlot(rows[m.slotCursor].slot.ID)
		if !ok || !slot.Disponible {
			m.status = constants.MsgSlotNoDisponible
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, m.agendarCmd(slot.ID)
	case "x":
		if m.slotCursor >= len(rows) {
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, m.cancelarCmd(rows[m.slotCursor].slot.ID)
	case "r":
		snap := m.citas.Snapshot()
		if snap.DiaSeleccionado != "" {
			m.busy = true
			return m, m.loadSlotsCmd(snap.DiaSeleccionado)
		}
	}
	return m, nil
}

func prevPeriod(año, mes int) (int, int) {
	if mes == 1 {
		return año - 1, 12
	}
	return año, mes - 1
}

func nextPeriod(año, mes int) (int, int) {
	if mes == 12 {
		return año + 1, 1
	}
	return año, mes + 1
}
