package auth

import (
	"context"
	"fmt"

	"github.com/valdiviesod/citasalud-cli/internal/cli"
)

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	// Server notification is best-effort; the local session always ends.
	ctx.Session.Logout(context.Background())
	fmt.Println("Sesión cerrada")
	return nil
}
