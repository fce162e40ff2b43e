// Package config collects the portal's runtime settings from the
// environment, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int    // HTTP listen port
	CentralDBPath string // central registry sqlite file
	DataDir       string // directory holding tenant databases
	Debug         bool   // verbose logging
}

// Load reads configuration from the environment. A missing .env is fine.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:          8005,
		CentralDBPath: "udaan.db",
		DataDir:       "data",
	}
	if v := os.Getenv("UDAAN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("UDAAN_DB"); v != "" {
		cfg.CentralDBPath = v
	}
	if v := os.Getenv("UDAAN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("UDAAN_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	return cfg
}
