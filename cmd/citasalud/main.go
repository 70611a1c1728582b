package main

import (
	"github.com/alecthomas/kong"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/citas"
	"github.com/valdiviesod/citasalud-cli/internal/cli"
	"github.com/valdiviesod/citasalud-cli/internal/cli/agenda"
	"github.com/valdiviesod/citasalud-cli/internal/cli/auth"
	"github.com/valdiviesod/citasalud-cli/internal/cli/system"
	"github.com/valdiviesod/citasalud-cli/internal/config"
	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/credstore"
	"github.com/valdiviesod/citasalud-cli/internal/errors"
	"github.com/valdiviesod/citasalud-cli/internal/logger"
	"github.com/valdiviesod/citasalud-cli/internal/router"
	"github.com/valdiviesod/citasalud-cli/internal/session"
	"github.com/valdiviesod/citasalud-cli/internal/storage"
	"github.com/valdiviesod/citasalud-cli/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Debug   bool   `help:"Enable debug logging."`
	APIURL  string `name:"api-url" help:"Backend base URL. Overrides CITASALUD_API_URL."`

	Login    auth.LoginCmd    `cmd:"" help:"Authenticate against the clinic backend."`
	Register auth.RegisterCmd `cmd:"" help:"Create an account."`
	Logout   auth.LogoutCmd   `cmd:"" help:"End the session and clear the stored credential."`
	Whoami   auth.WhoamiCmd   `cmd:"" help:"Show the current session."`

	Semanas  agenda.SemanasCmd  `cmd:"" help:"List the weeks of a month."`
	Horarios agenda.HorariosCmd `cmd:"" help:"Show per-doctor slot availability for a date."`
	Agendar  agenda.AgendarCmd  `cmd:"" help:"Book a slot."`
	Cancelar agenda.CancelarCmd `cmd:"" help:"Cancel an appointment."`

	Tui    system.TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Doctor system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Terminal client for the clinic appointment system"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg := config.Load()
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.APIURL != "" {
		cfg.APIURL = CLI.APIURL
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		errors.Fatalf("failed to initialize logging: %v", err)
	}

	creds := credstore.New()
	client := api.New(cfg.APIURL, creds)
	sess := session.New(client, creds)
	rt := router.New(sess)
	client.SetSessionInvalidHandler(rt.HandleSessionInvalid)

	// The snapshot cache is best-effort: losing it degrades offline
	// display, nothing else.
	var cache storage.Provider
	store := sqlite.NewStore(sqlite.DefaultPath(cfg.ConfigDir))
	if err := store.Init(); err != nil {
		logger.Warn("Snapshot cache unavailable", "error", err)
	} else {
		cache = store
		defer store.Close()
	}

	appCtx := &cli.Context{
		Config:  cfg,
		Creds:   creds,
		API:     client,
		Session: sess,
		Router:  rt,
		Citas:   citas.New(client, cache),
		Cache:   cache,
	}

	errors.Fatal(ctx.Run(appCtx))
}
