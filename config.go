package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
)

// Config is read from a TOML file, then overridden by RDNS_* environment
// variables. The whole configuration is fixed at startup; changing it
// requires a restart.
type Config struct {
	Domain      string `toml:"domain" env:"RDNS_DOMAIN"`
	Listen      string `toml:"listen" env:"RDNS_LISTEN"`
	AdminListen string `toml:"admin_listen" env:"RDNS_ADMIN_LISTEN"`
	GeoData     string `toml:"geo_data" env:"RDNS_GEO_DATA"`
	UUIDMax     int    `toml:"uuid_max" env:"RDNS_UUID_MAX"`
	LogLevel    string `toml:"log_level" env:"RDNS_LOG_LEVEL"`
}

func defaultConfig() Config {
	return Config{
		Domain:      "localhost",
		Listen:      "127.0.0.1:8053",
		AdminListen: "127.0.0.1:8080",
		GeoData:     "data/cities15000.txt",
		UUIDMax:     10,
		LogLevel:    "info",
	}
}

// loadConfig layers defaults, the TOML file (when present) and env vars.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if fileExists(path) {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Domain == "" {
		return fmt.Errorf("config: domain must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	if c.UUIDMax < 1 {
		return fmt.Errorf("config: uuid_max must be at least 1, got %d", c.UUIDMax)
	}
	if !fileExists(c.GeoData) {
		return fmt.Errorf("config: geo data file does not exist: %s", c.GeoData)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
