// Package config provides configuration management for stevedore using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName is the application name used for config file naming.
const AppName = "stevedore"

// DefaultMaxBackups is the number of backups retained when the config does
// not say otherwise.
const DefaultMaxBackups = 5

// Config represents the resolved deployment settings.
// It is immutable once loaded for a given run; the engine receives it by
// value at construction and never consults global state.
type Config struct {
	// App is the application identifier, used to name backups.
	App string `mapstructure:"app_name" yaml:"app_name"`

	// SourceDir is the tree that deploys copy from.
	SourceDir string `mapstructure:"source_dir" yaml:"source_dir"`

	// DeployDir is the live location the application runs from.
	DeployDir string `mapstructure:"deploy_dir" yaml:"deploy_dir"`

	// BackupDir is owned exclusively by the backup store.
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`

	// MaxBackups bounds retention. Zero disables backups entirely, which
	// makes rollback impossible.
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`

	// Hooks holds the four ordered command lists run around deploys and
	// rollbacks.
	Hooks Hooks `mapstructure:"hooks" yaml:"hooks"`
}

// Hooks holds ordered shell command lists for each lifecycle point.
type Hooks struct {
	PreDeploy    []string `mapstructure:"pre_deploy" yaml:"pre_deploy"`
	PostDeploy   []string `mapstructure:"post_deploy" yaml:"post_deploy"`
	PreRollback  []string `mapstructure:"pre_rollback" yaml:"pre_rollback"`
	PostRollback []string `mapstructure:"post_rollback" yaml:"post_rollback"`
}

// Default returns a configuration with sensible defaults, matching what
// `stevedore init` writes.
func Default() *Config {
	return &Config{
		App:        "app",
		SourceDir:  "./src",
		DeployDir:  "./deployments",
		BackupDir:  "./backups",
		MaxBackups: DefaultMaxBackups,
		Hooks: Hooks{
			PreDeploy:    []string{},
			PostDeploy:   []string{},
			PreRollback:  []string{},
			PostRollback: []string{},
		},
	}
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/stevedore/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))

	// Environment variable support
	viper.SetEnvPrefix("STEVEDORE")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("app_name", "app")
	viper.SetDefault("source_dir", "./src")
	viper.SetDefault("deploy_dir", "./deployments")
	viper.SetDefault("backup_dir", "./backups")
	viper.SetDefault("max_backups", DefaultMaxBackups)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found
// (when path is empty).
//
// Relative directory paths are resolved against the config file's directory,
// so a project-local config behaves the same regardless of where the command
// is invoked from. With no config file, paths resolve against the working
// directory.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		// If config file not found...
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
			// Otherwise (implicit load), it's fine to use defaults
		} else if os.IsNotExist(err) {
			// viper returns a bare *PathError for explicit files
			return nil, fmt.Errorf("config file not found at %s: %w", path, err)
		} else {
			// Real read error (parsing, permissions, etc)
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	base := ""
	if used := viper.ConfigFileUsed(); used != "" {
		base = filepath.Dir(used)
	}
	cfg.resolveRelative(base)

	return &cfg, nil
}

// resolveRelative anchors relative directory paths at base.
// An empty base leaves paths relative to the working directory.
func (c *Config) resolveRelative(base string) {
	if base == "" {
		return
	}
	for _, dir := range []*string{&c.SourceDir, &c.DeployDir, &c.BackupDir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(base, *dir)
		}
	}
}
