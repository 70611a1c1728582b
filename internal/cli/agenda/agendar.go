package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/cli"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
)

type AgendarCmd struct {
	Fecha         string `arg:"" help:"Date as AAAA-MM-DD."`
	HorarioID     int    `arg:"" help:"Slot id from 'citasalud horarios'."`
	Observaciones string `short:"o" help:"Optional note for the appointment."`
}

func (c *AgendarCmd) Run(ctx *cli.Context) error {
	if _, err := time.Parse(constants.DateFormat, c.Fecha); err != nil {
		return fmt.Errorf("fecha inválida %q, se espera AAAA-MM-DD", c.Fecha)
	}

	bg := context.Background()
	if err := ctx.NavigateOrFail(bg, constants.RouteCitas); err != nil {
		return err
	}

	// Load the day first so the post-booking reload targets this date.
	if _, err := ctx.Citas.CargarHorarios(bg, c.Fecha); err != nil {
		return err
	}

	result, err := ctx.Citas.AgendarCita(bg, c.HorarioID, c.Observaciones)
	if err != nil {
		if api.IsConflictError(err) {
			return fmt.Errorf("%s: %w", constants.MsgSlotNoDisponible, err)
		}
		return err
	}

	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Println("Cita agendada")
	}

	// Show the reloaded availability; it, not the booking response, is
	// what the server now holds.
	printAvailability(ctx.Citas.Snapshot().Horarios)
	return nil
}
