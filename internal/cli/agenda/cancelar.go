package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/valdiviesod/citasalud-cli/internal/cli"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
)

type CancelarCmd struct {
	Fecha     string `arg:"" help:"Date as AAAA-MM-DD."`
	HorarioID int    `arg:"" help:"Slot id of the appointment to cancel."`
}

func (c *CancelarCmd) Run(ctx *cli.Context) error {
	if _, err := time.Parse(constants.DateFormat, c.Fecha); err != nil {
		return fmt.Errorf("fecha inválida %q, se espera AAAA-MM-DD", c.Fecha)
	}

	bg := context.Background()
	if err := ctx.NavigateOrFail(bg, constants.RouteCitas); err != nil {
		return err
	}

	if _, err := ctx.Citas.CargarHorarios(bg, c.Fecha); err != nil {
		return err
	}

	result, err := ctx.Citas.CancelarCita(bg, c.HorarioID)
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Println("Cita cancelada")
	}

	printAvailability(ctx.Citas.Snapshot().Horarios)
	return nil
}
