// Package config is the boundary between on-disk instance files and the rest
// of the program. Process-level settings (server, logging) load through viper
// with environment overrides; instance data files (grain, dependencies,
// personal attributions, discord) parse through the combinator library so
// legacy shapes upgrade explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds settings shared by every entry point.
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// ServerConfig holds admin HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// InstanceConfig holds everything an instance needs at process start.
type InstanceConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig `mapstructure:"server"`

	// Directory is the instance root; the ledger and all data files live
	// under it.
	Directory string `mapstructure:"directory"`

	GithubToken          string `mapstructure:"github_token"`
	DiscordToken         string `mapstructure:"discord_token"`
	InitiativesDirectory string `mapstructure:"initiatives_directory"`
}

// Validate checks the fields every command depends on.
func (c *InstanceConfig) Validate() error {
	if c.Directory == "" {
		return ErrMissingDirectory
	}
	return nil
}

// LedgerPath returns the canonical ledger file under the instance directory.
func (c *InstanceConfig) LedgerPath() string {
	return filepath.Join(c.Directory, "data", "ledger.json")
}

// GrainConfigPath returns the grain configuration file path.
func (c *InstanceConfig) GrainConfigPath() string {
	return filepath.Join(c.Directory, "config", "grain.json")
}

// DependenciesPath returns the dependency minting configuration file path.
func (c *InstanceConfig) DependenciesPath() string {
	return filepath.Join(c.Directory, "config", "dependencies.json")
}

// PersonalAttributionsPath returns the attribution configuration file path.
func (c *InstanceConfig) PersonalAttributionsPath() string {
	return filepath.Join(c.Directory, "config", "personalAttributions.json")
}

// CredHistoryPath returns the cred-history file the grain commands read.
func (c *InstanceConfig) CredHistoryPath() string {
	return filepath.Join(c.Directory, "output", "credHistory.json")
}

// LoadInstanceConfig loads the process configuration. Precedence is
// environment variables over the yaml file over built-in defaults; a missing
// config file is fine as long as the environment covers what Validate needs.
func LoadInstanceConfig(configFile string, envPath string) (*InstanceConfig, error) {
	v := configureViper(configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("directory", ".")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 6006)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables.
	}

	var cfg InstanceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// configureViper returns a viper instance with the config file and
// environment variables set.
func configureViper(configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sourcecred")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("SOURCECRED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds every config key so env vars map onto
// struct fields even when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"directory",
		"github_token",
		"discord_token",
		"initiatives_directory",
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment files from the config directory. Later files
// override earlier ones.
func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "config/"
	}
	for _, envFile := range []string{".env", ".env.local"} {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate)
	}
}

// ChdirRepoRoot changes the working directory to the nearest ancestor holding
// a config directory, so relative instance paths resolve from anywhere in the
// tree.
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
