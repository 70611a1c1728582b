package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valdiviesod/citasalud-cli/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateLogin:
		content = m.viewLogin()
	case constants.StateRegister:
		content = m.viewRegister()
	case constants.StateHome:
		content = m.viewHome()
	case constants.StateCalendario:
		content = m.viewCalendario()
	case constants.StateHorarios:
		content = m.viewHorarios()
	case constants.StateUnauthorized:
		content = m.viewUnauthorized()
	}

	var banner string
	if m.status != "" {
		banner = warningStyle.Render(m.status)
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		banner,
		m.help.View(m),
	)
	return docStyle.Render(ui)
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CitaSalud · Iniciar sesión"))
	b.WriteString("\n\n")
	if m.busy {
		b.WriteString(dimStyle.Render("Verificando credenciales..."))
		return b.String()
	}
	b.WriteString(m.form.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("ctrl+r para registrarse"))
	return b.String()
}

func (m Model) viewRegister() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CitaSalud · Registro"))
	b.WriteString("\n\n")
	if m.busy {
		b.WriteString(dimStyle.Render("Creando cuenta..."))
		return b.String()
	}
	b.WriteString(m.form.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("esc para volver al login"))
	return b.String()
}

func (m Model) viewHome() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CitaSalud"))
	b.WriteString("\n")

	snap := m.session.Snapshot()
	if snap.Profile != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s (%s)", snap.Profile.Name, snap.Profile.Role)))
	}
	b.WriteString("\n\n")

	for i, entry := range m.menu {
		if i == m.menuCursor {
			b.WriteString(selectedStyle.Render("> " + entry.label))
		} else {
			b.WriteString(itemStyle.Render("  " + entry.label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewCalendario() string {
	snap := m.citas.Snapshot()

	var b strings.Builder
	title := fmt.Sprintf("Calendario · %s %d", snap.NombreMes, snap.Año)
	if snap.NombreMes == "" {
		title = fmt.Sprintf("Calendario · %d-%02d", snap.Año, snap.Mes)
	}
	b.WriteString(titleStyle.Render(title))
	if snap.DesdeCache {
		b.WriteString(" " + warningStyle.Render("(sin conexión, datos guardados)"))
	}
	b.WriteString("\n\n")

	if m.busy || snap.Loading {
		b.WriteString(dimStyle.Render("Cargando semanas..."))
		return b.String()
	}
	if len(snap.Semanas) == 0 {
		b.WriteString(dimStyle.Render("No hay semanas para este período"))
		return b.String()
	}

	if !m.pickingDay {
		for i, week := range snap.Semanas {
			line := week.Label
			if line == "" {
				line = fmt.Sprintf("Semana %d · %s a %s", week.Numero, week.FechaInicio, week.FechaFin)
			}
			if i == m.weekCursor {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString(itemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("Semana %d · elige un día", snap.SemanaSeleccionada)))
	b.WriteString("\n")
	for i, dia := range m.citas.DiasDeLaSemanaSeleccionada() {
		line := fmt.Sprintf("%s %2d · %s", dia.DiaSemana, dia.Dia, dia.Fecha)
		if dia.EsHoy {
			line += " " + okStyle.Render("(hoy)")
		}
		if i == m.dayCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewHorarios() string {
	snap := m.citas.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Horarios · " + snap.DiaSeleccionado))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d doctores, %d bloques", snap.Horarios.TotalDoctores, snap.Horarios.TotalBloques)))
	b.WriteString("\n\n")

	if m.busy || snap.LoadingHorarios {
		b.WriteString(dimStyle.Render("Cargando horarios..."))
		return b.String()
	}

	rows := m.slotRows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("No hay horarios para este día"))
		return b.String()
	}

	lastDoctor := ""
	idx := 0
	for _, row := range rows {
		if row.doctor != lastDoctor {
			b.WriteString(titleStyle.Render(row.doctor))
			b.WriteString("\n")
			lastDoctor = row.doctor
		}
		estado := okStyle.Render("disponible")
		if !row.slot.Disponible {
			estado = dangerStyle.Render("ocupado")
		}
		line := fmt.Sprintf("%s · %s", row.slot.Hora, estado)
		if idx == m.slotCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
		idx++
	}
	return b.String()
}

func (m Model) viewUnauthorized() string {
	var b strings.Builder
	b.WriteString(dangerStyle.Render("Acceso no autorizado"))
	b.WriteString("\n\n")
	b.WriteString("Tu rol no tiene permiso para esta sección.\n")
	b.WriteString(dimStyle.Render("enter para volver al inicio"))
	return b.String()
}
