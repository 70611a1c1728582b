package auth

import (
	"context"
	"fmt"

	"github.com/valdiviesod/citasalud-cli/internal/cli"
)

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	// Revalidates the stored credential at most once per process lifetime.
	ctx.Session.CheckAuth(context.Background())

	snap := ctx.Session.Snapshot()
	if snap.Profile == nil {
		fmt.Println("No has iniciado sesión")
		return nil
	}

	fmt.Printf("Nombre:  %s\n", snap.Profile.Name)
	fmt.Printf("Email:   %s\n", snap.Profile.Email)
	fmt.Printf("Rol:     %s\n", snap.Profile.Role)
	fmt.Printf("Estado:  %s\n", snap.Status)
	if exp, ok := ctx.Session.TokenExpiry(); ok {
		fmt.Printf("Expira:  %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
