package auth

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/valdiviesod/citasalud-cli/internal/cli"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `short:"p" help:"Password. Prompted securely when omitted."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if c.Password == "" {
		prompt := huh.NewInput().
			Title("Contraseña").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password)
		if err := prompt.Run(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	profile, err := ctx.Session.Login(context.Background(), c.Email, c.Password)
	if err != nil {
		return err
	}

	fmt.Printf("Sesión iniciada como %s (%s)\n", profile.Name, profile.Role)
	if exp, ok := ctx.Session.TokenExpiry(); ok {
		fmt.Printf("El token expira el %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
