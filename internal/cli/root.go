package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/citas"
	"github.com/valdiviesod/citasalud-cli/internal/config"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/credstore"
	"github.com/valdiviesod/citasalud-cli/internal/models"
	"github.com/valdiviesod/citasalud-cli/internal/router"
	"github.com/valdiviesod/citasalud-cli/internal/session"
	"github.com/valdiviesod/citasalud-cli/internal/storage"
)

// Context carries the wired application to every command.
type Context struct {
	Config  config.Config
	Creds   *credstore.Store
	API     *api.Client
	Session *session.Machine
	Router  *router.Router
	Citas   *citas.Workflow
	Cache   storage.Provider
}

// NavigateOrFail routes a command through the authorization guard the same
// way a screen transition would, failing with a user-facing error when the
// guard bounces the navigation.
func (c *Context) NavigateOrFail(ctx context.Context, route string) error {
	landed := c.Router.Navigate(ctx, route)
	switch {
	case landed == route:
		return nil
	case landed == constants.RouteLogin:
		return fmt.Errorf("debes iniciar sesión primero (citasalud login)")
	case landed == constants.RouteUnauthorized:
		return fmt.Errorf("tu rol no tiene acceso a esta sección")
	default:
		return fmt.Errorf("navegación rechazada, redirigido a %s", landed)
	}
}

// ParsePeriodo parses "YYYY-MM" into a calendar period.
func ParsePeriodo(s string) (models.CalendarPeriod, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return models.CalendarPeriod{}, fmt.Errorf("período inválido %q, se espera AAAA-MM", s)
	}
	año, err := strconv.Atoi(parts[0])
	if err != nil || año < 1 {
		return models.CalendarPeriod{}, fmt.Errorf("año inválido en %q", s)
	}
	mes, err := strconv.Atoi(parts[1])
	if err != nil || mes < 1 || mes > 12 {
		return models.CalendarPeriod{}, fmt.Errorf("mes inválido en %q, debe estar entre 1 y 12", s)
	}
	return models.CalendarPeriod{Year: año, Month: mes}, nil
}

// FormatWeek renders one week as a single listing line.
func FormatWeek(w models.Week, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	label := w.Label
	if label == "" {
		label = fmt.Sprintf("Semana %d: %s - %s", w.Numero, w.FechaInicio, w.FechaFin)
	}
	return marker + label
}

// FormatSlot renders one slot with its availability marker.
func FormatSlot(s models.Slot) string {
	if s.Disponible {
		return fmt.Sprintf("  [%d] %s  disponible", s.ID, s.Hora)
	}
	return fmt.Sprintf("  [%d] %s  ocupado", s.ID, s.Hora)
}
