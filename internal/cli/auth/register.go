package auth

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/cli"
)

type RegisterCmd struct {
	Name     string `arg:"" help:"Full name."`
	Email    string `arg:"" help:"Account email."`
	Password string `short:"p" help:"Password. Prompted securely when omitted."`
}

func (c *RegisterCmd) Run(ctx *cli.Context) error {
	if c.Password == "" {
		var confirm string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Contraseña").EchoMode(huh.EchoModePassword).Value(&c.Password),
			huh.NewInput().Title("Confirmar contraseña").EchoMode(huh.EchoModePassword).Value(&confirm),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if c.Password != confirm {
			return fmt.Errorf("las contraseñas no coinciden")
		}
	}

	profile, err := ctx.Session.Register(context.Background(), api.RegisterRequest{
		Name:                 c.Name,
		Email:                c.Email,
		Password:             c.Password,
		PasswordConfirmation: c.Password,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Cuenta creada. Sesión iniciada como %s (%s)\n", profile.Name, profile.Role)
	return nil
}
