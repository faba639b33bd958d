package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "ACHIEVEAI"
	configDirName  = ".achieveai"
	configFileName = "config"

	keyServer    = "server"
	keyToken     = "token"
	keyOwner     = "owner"
	keyDeadlines = "deadlines"
	keyTimezone  = "timezone"
	keyLanguage  = "language"
)

// Config is the resolved client configuration. Flags override ACHIEVEAI_*
// environment variables, which override ~/.achieveai/config.yaml.
type Config struct {
	Server    string `mapstructure:"server"`
	Token     string `mapstructure:"token"`
	Owner     string `mapstructure:"owner"`
	Deadlines string `mapstructure:"deadlines"`
	Timezone  string `mapstructure:"timezone"`
	Language  string `mapstructure:"language"`

	location *time.Location
}

// Location is the time zone used to read and show dates.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyServer, "http://localhost:8080")
	v.SetDefault(keyOwner, "default")
	v.SetDefault(keyDeadlines, filepath.Join(configDir(), "deadlines.db"))
	v.SetDefault(keyTimezone, "Local")
	v.SetDefault(keyLanguage, "en")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	for _, key := range []string{keyServer, keyToken, keyOwner, keyDeadlines, keyTimezone, keyLanguage} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// loadConfig reads the config file and resolves the final values. A missing
// default config file is not an error; a missing explicit one is.
func loadConfig(v *viper.Viper, explicitPath string) (Config, error) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Server = strings.TrimSpace(cfg.Server)
	cfg.Owner = strings.TrimSpace(cfg.Owner)
	if cfg.Owner == "" {
		return Config{}, errors.New("owner must not be empty")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc
	return cfg, nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}
