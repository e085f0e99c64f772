package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName            = "mpris-status"
	envPrefix          = "MPRIS_STATUS"
	defaultIcon        = " "
	defaultClearedIcon = " "
	defaultLogLevel    = "warn"
)

// AppConfig holds application configuration
type AppConfig struct {
	player      string
	icon        string
	clearedIcon string
	logLevel    string
	configFile  string
}

// Load parses command line arguments and layers them over the environment,
// an optional config file and the defaults.
// It returns pflag.ErrHelp when usage was requested.
func Load(args []string) (*AppConfig, error) {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.String("player", "", "restrict output to a single player (e.g. spotify)")
	fs.String("icon", defaultIcon, "text written for player records")
	fs.String("cleared-icon", defaultClearedIcon, "text written when no player remains")
	fs.String("log-level", defaultLogLevel, "log level written to stderr (debug, info, warn, error)")
	fs.String("config", "", "optional config file (toml or yaml)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(expandHome(os.ExpandEnv(file)))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &AppConfig{
		player:      v.GetString("player"),
		icon:        v.GetString("icon"),
		clearedIcon: v.GetString("cleared-icon"),
		logLevel:    v.GetString("log-level"),
		configFile:  v.ConfigFileUsed(),
	}, nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// PlayerFilter returns the player to restrict to, empty for all players
func (c *AppConfig) PlayerFilter() string {
	return c.player
}

// Icon returns the text used for player records
func (c *AppConfig) Icon() string {
	return c.icon
}

// ClearedIcon returns the text used when no player remains
func (c *AppConfig) ClearedIcon() string {
	return c.clearedIcon
}

// LogLevel returns the zap level name
func (c *AppConfig) LogLevel() string {
	return c.logLevel
}

// ConfigFile returns the config file that was read, if any
func (c *AppConfig) ConfigFile() string {
	return c.configFile
}
