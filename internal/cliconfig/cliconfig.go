// Package cliconfig loads the invigil client configuration from file
// and environment. Env var overrides use prefix INVIGIL_.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds client settings.
type Config struct {
	Server ServerConfig
	Draft  DraftConfig
}

// ServerConfig points the client at an invigild instance.
type ServerConfig struct {
	URL   string
	Token string
}

// DraftConfig controls where unsubmitted reports are kept.
type DraftConfig struct {
	Path string
}

// Load reads configuration. The token should usually come from the
// INVIGIL_SERVER_TOKEN env var rather than the config file.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("server.token", "")
	v.SetDefault("draft.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "invigil", "draft.json"))

	v.SetConfigType("yaml")

	cfgPath := os.Getenv("INVIGIL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "invigil"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("INVIGIL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
