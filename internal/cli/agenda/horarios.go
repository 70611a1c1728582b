package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/cli"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/models"
)

type HorariosCmd struct {
	Fecha string `arg:"" help:"Date as AAAA-MM-DD."`
}

func (c *HorariosCmd) Run(ctx *cli.Context) error {
	if _, err := time.Parse(constants.DateFormat, c.Fecha); err != nil {
		return fmt.Errorf("fecha inválida %q, se espera AAAA-MM-DD", c.Fecha)
	}

	bg := context.Background()
	if err := ctx.NavigateOrFail(bg, constants.RouteCitas); err != nil {
		return err
	}

	disponibilidad, err := ctx.Citas.CargarHorarios(bg, c.Fecha)
	if err != nil {
		if api.IsNetworkError(err) {
			if cached, ok := ctx.Citas.HorarioCacheado(c.Fecha); ok {
				fmt.Println("(sin conexión: mostrando la última copia guardada)")
				printAvailability(cached)
				return nil
			}
		}
		return err
	}

	printAvailability(disponibilidad)
	return nil
}

func printAvailability(a models.SlotAvailability) {
	fmt.Printf("Horarios para %s: %d doctores, %d bloques\n", a.Fecha, a.TotalDoctores, a.TotalBloques)
	if len(a.Doctores) == 0 {
		fmt.Println("\nNo hay horarios para esta fecha")
		return
	}
	for _, d := range a.Doctores {
		fmt.Printf("\n%s\n", d.Nombre)
		for _, s := range d.Slots {
			fmt.Println(cli.FormatSlot(s))
		}
	}
}
