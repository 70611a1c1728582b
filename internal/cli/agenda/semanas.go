package agenda

import (
	"context"
	"fmt"

	"github.com/valdiviesod/citasalud-cli/internal/cli"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/errors"
)

type SemanasCmd struct {
	Periodo string `arg:"" optional:"" help:"Period as AAAA-MM. Defaults to the current month."`
	Semana  int    `short:"s" help:"Select a week number and list its days."`
}

func (c *SemanasCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.NavigateOrFail(bg, constants.RouteCitas); err != nil {
		return err
	}

	if c.Periodo != "" {
		periodo, err := cli.ParsePeriodo(c.Periodo)
		if err != nil {
			return err
		}
		ctx.Citas.CambiarPeriodo(bg, periodo.Year, periodo.Month)
	} else {
		ctx.Citas.CargarSemanas(bg)
	}

	snap := ctx.Citas.Snapshot()
	if snap.Error != "" && len(snap.Semanas) == 0 {
		return fmt.Errorf("%s", snap.Error)
	}
	if snap.Error != "" {
		fmt.Println(errors.Formatf("%s (mostrando datos anteriores)", snap.Error))
	}
	if snap.DesdeCache {
		fmt.Println("(sin conexión: mostrando la última copia guardada)")
	}

	fmt.Printf("%s %d\n\n", snap.NombreMes, snap.Año)
	if c.Semana > 0 {
		ctx.Citas.SeleccionarSemana(c.Semana)
	}
	for _, s := range snap.Semanas {
		fmt.Println(cli.FormatWeek(s, s.Numero == c.Semana))
	}

	if c.Semana > 0 {
		dias := ctx.Citas.DiasDeLaSemanaSeleccionada()
		if len(dias) == 0 {
			fmt.Printf("\nLa semana %d no existe en este período\n", c.Semana)
			return nil
		}
		fmt.Println()
		for _, d := range dias {
			marker := " "
			if d.EsHoy {
				marker = "*"
			}
			fmt.Printf("%s %s %s\n", marker, d.DiaSemana, d.Fecha)
		}
	}
	return nil
}
