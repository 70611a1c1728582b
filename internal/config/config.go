package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/valdiviesod/citasalud-cli/internal/constants"
)

// Config holds client configuration resolved from .env, environment
// variables and defaults, in that order of discovery. Kong flags override
// these values after loading.
type Config struct {
	APIURL    string
	ConfigDir string
	Debug     bool
}

// Load resolves configuration. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		APIURL:    getEnv("CITASALUD_API_URL", constants.DefaultAPIURL),
		ConfigDir: getEnv("CITASALUD_CONFIG_DIR", defaultConfigDir()),
		Debug:     getEnvBool("CITASALUD_DEBUG"),
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DefaultConfigDir
	}
	return filepath.Join(home, ".config", constants.AppName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
