package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/valdiviesod/citasalud-cli/internal/api"
	"github.com/valdiviesod/citasalud-cli/internal/cli"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false

	// Check 1: config directory writable
	if err := checkConfigDir(ctx); err != nil {
		fmt.Printf("❌ Config directory: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Config directory: OK (%s)\n", ctx.Config.ConfigDir)
	}

	// Check 2: OS keyring available
	if !ctx.Creds.IsAvailable() {
		fmt.Printf("❌ OS keyring: FAIL\n")
		fmt.Printf("   Error: keyring backend not available; credentials cannot persist\n")
		hasError = true
	} else {
		fmt.Printf("✓ OS keyring: OK\n")
	}

	// Check 3: stored credential present (informational)
	if _, err := ctx.Creds.Token(); err != nil {
		fmt.Printf("⊘ Stored credential: NONE (run 'citasalud login')\n")
	} else {
		fmt.Printf("✓ Stored credential: PRESENT\n")
	}

	// Check 4: API reachable
	if err := checkAPIReachable(ctx); err != nil {
		fmt.Printf("❌ API reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ API reachable: OK (%s)\n", ctx.Config.APIURL)
	}

	fmt.Println()
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	fmt.Println("All checks passed")
	return nil
}

func checkConfigDir(ctx *cli.Context) error {
	if err := os.MkdirAll(ctx.Config.ConfigDir, 0700); err != nil {
		return err
	}
	probe, err := os.CreateTemp(ctx.Config.ConfigDir, ".doctor-*")
	if err != nil {
		return err
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func checkAPIReachable(ctx *cli.Context) error {
	bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Any response, including an auth rejection, proves the backend is up;
	// only a transport failure counts against reachability.
	now := time.Now()
	_, err := ctx.API.Semanas(bg, now.Year(), int(now.Month()))
	if api.IsNetworkError(err) {
		return err
	}
	return nil
}
