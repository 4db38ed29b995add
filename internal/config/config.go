// Package config loads dataql settings from config files, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/dataql/engine"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/executor/dataapi"
)

// AppFs is the filesystem config and .env files are read from.
var AppFs = afero.NewOsFs()

// FileName is the config file name without extension.
const FileName = ".dataql"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`

	ResourceARN     string `mapstructure:"resource_arn"`
	SecretARN       string `mapstructure:"secret_arn"`
	Database        string `mapstructure:"database"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"aws_access_key_id"`
	SecretAccessKey string `mapstructure:"aws_secret_access_key"`
	SessionToken    string `mapstructure:"aws_session_token"`

	AllowSelectAll  bool              `mapstructure:"allow_select_all"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration     `mapstructure:"conn_max_lifetime"`
	Commands        map[string]string `mapstructure:"commands"`
	Debug           bool              `mapstructure:"debug"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// envAliases lists the unprefixed variables accepted for each key.
var envAliases = map[string][]string{
	"dsn":                   {"DATABASE_URL"},
	"resource_arn":          {"RESOURCE_ARN"},
	"secret_arn":            {"SECRET_ARN"},
	"database":              {"DATABASE"},
	"region":                {"REGION", "AWS_REGION"},
	"aws_access_key_id":     {"AWS_ACCESS_KEY_ID"},
	"aws_secret_access_key": {"AWS_SECRET_ACCESS_KEY"},
	"aws_session_token":     {"AWS_SESSION_TOKEN"},
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DATAQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"DATAQL_" + strings.ToUpper(key)}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	v.SetDefault("driver", "dataapi")
	v.SetDefault("schema", "public")
	v.SetDefault("allow_select_all", false)
	v.SetDefault("debug", false)
	return v
}

// Load reads the configuration. An empty path searches ".", $HOME and
// $HOME/.config/dataql for .dataql.yaml; a missing file is not an error
// unless path names it.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "dataql"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// loadDotEnv applies .env and then .env.local. Variables already in the
// environment win over .env; .env.local overrides both.
func loadDotEnv() {
	applyEnvFile(".env", false)
	applyEnvFile(".env.local", true)
}

func applyEnvFile(name string, override bool) {
	f, err := AppFs.Open(name)
	if err != nil {
		return
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		// Don't fail if the file can't be parsed
		return
	}
	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists && !override {
			continue
		}
		os.Setenv(key, value)
	}
}

// Save writes cfg as YAML. An empty path writes
// $HOME/.config/dataql/.dataql.yaml. The written path is returned.
func Save(cfg *Config, path string) (string, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ".config", "dataql", FileName+".yaml")
	}
	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigType("yaml")
	v.Set("driver", cfg.Driver)
	v.Set("schema", cfg.Schema)
	if cfg.DSN != "" {
		v.Set("dsn", cfg.DSN)
	}
	if cfg.ResourceARN != "" {
		v.Set("resource_arn", cfg.ResourceARN)
		v.Set("secret_arn", cfg.SecretARN)
		v.Set("database", cfg.Database)
		v.Set("region", cfg.Region)
	}
	if cfg.AllowSelectAll {
		v.Set("allow_select_all", true)
	}
	if cfg.MaxOpenConns > 0 {
		v.Set("max_open_conns", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		v.Set("max_idle_conns", cfg.MaxIdleConns)
	}
	if len(cfg.Commands) > 0 {
		v.Set("commands", cfg.Commands)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// IsDataAPI reports whether the configured driver is the RDS Data API.
func (c *Config) IsDataAPI() bool {
	switch strings.ToLower(c.Driver) {
	case "", "dataapi", "rdsdata":
		return true
	}
	return false
}

// Validate checks that the selected backend has its connection settings.
func (c *Config) Validate() error {
	if c.IsDataAPI() {
		if err := c.dataAPI().Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return nil
	}
	if c.DSN == "" {
		return fmt.Errorf("%w: driver %q requires a dsn", ErrInvalidConfig, c.Driver)
	}
	return nil
}

func (c *Config) dataAPI() dataapi.ConnectionOptions {
	return dataapi.ConnectionOptions{
		ResourceARN:     c.ResourceARN,
		SecretARN:       c.SecretARN,
		Database:        c.Database,
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
	}
}

// Engine converts the configuration into engine settings.
func (c *Config) Engine() engine.Config {
	schema := c.Schema
	if strings.EqualFold(c.Driver, "mysql") && schema == "public" {
		// MySQL has no public schema; use the connection's database
		schema = ""
	}
	return engine.Config{
		Driver:  c.Driver,
		DSN:     c.DSN,
		Schema:  schema,
		DataAPI: c.dataAPI(),
		Pool: executor.PoolOptions{
			MaxOpenConns:    c.MaxOpenConns,
			MaxIdleConns:    c.MaxIdleConns,
			ConnMaxLifetime: c.ConnMaxLifetime,
		},
		Commands:       c.Commands,
		AllowSelectAll: c.AllowSelectAll,
	}
}
