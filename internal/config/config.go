// Package config loads runtime settings from defaults, an optional YAML file,
// OCCUCALC_* environment variables and command-line flags, in rising order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file searched for when none is given.
const FileName = "occucalc"

// EnvPrefix prefixes every environment override, e.g. OCCUCALC_STORAGE_DRIVER.
const EnvPrefix = "OCCUCALC"

type Config struct {
	Storage Storage `mapstructure:"storage"`
	Blob    Blob    `mapstructure:"blob"`
	Log     Log     `mapstructure:"log"`
	Server  Server  `mapstructure:"server"`
	Rooms   Rooms   `mapstructure:"rooms"`
}

type Storage struct {
	Driver   string   `mapstructure:"driver"`
	SQLite   SQLite   `mapstructure:"sqlite"`
	Postgres Postgres `mapstructure:"postgres"`
}

type SQLite struct {
	Path string `mapstructure:"path"`
}

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

type Blob struct {
	Driver string `mapstructure:"driver"`
	FS     FS     `mapstructure:"fs"`
	S3     S3     `mapstructure:"s3"`
}

type FS struct {
	Root string `mapstructure:"root"`
}

type S3 struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type Log struct {
	Mode string `mapstructure:"mode"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Rooms struct {
	BaseURL string `mapstructure:"base_url"`
}

var (
	storageDrivers = []string{"memory", "sqlite", "postgres", "blob"}
	blobDrivers    = []string{"fs", "s3", "memory"}
)

func defaults() map[string]any {
	return map[string]any{
		"storage.driver":            "sqlite",
		"storage.sqlite.path":       "./occucalc.db",
		"storage.postgres.dsn":      "",
		"blob.driver":               "fs",
		"blob.fs.root":              "./occucalc-blobs",
		"blob.s3.bucket":            "",
		"blob.s3.region":            "us-east-1",
		"blob.s3.endpoint":          "",
		"blob.s3.path_style":        false,
		"blob.s3.access_key_id":     "",
		"blob.s3.secret_access_key": "",
		"log.mode":                  "development",
		"server.addr":               ":8080",
		"rooms.base_url":            "",
	}
}

// Loader resolves a Config. Bind flags before calling Load.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader with defaults and environment lookup installed.
func NewLoader() *Loader {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag lets a changed flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	return nil
}

// Load reads file, or searches . and $HOME/.config/occucalc for
// occucalc.yaml when file is blank. Only an explicit file must exist.
func (l *Loader) Load(file string) (Config, error) {
	if file != "" {
		l.v.SetConfigFile(file)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.config/occucalc")
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Blob.Driver = strings.ToLower(strings.TrimSpace(cfg.Blob.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// File reports the config file that was read, if any.
func (l *Loader) File() string { return l.v.ConfigFileUsed() }

// Validate checks driver names and the settings each driver needs.
func (c Config) Validate() error {
	if !oneOf(c.Storage.Driver, storageDrivers) {
		return fmt.Errorf("storage.driver %q: want one of %s", c.Storage.Driver, strings.Join(storageDrivers, ", "))
	}
	if !oneOf(c.Blob.Driver, blobDrivers) {
		return fmt.Errorf("blob.driver %q: want one of %s", c.Blob.Driver, strings.Join(blobDrivers, ", "))
	}
	if c.Storage.Driver == "postgres" && c.Storage.Postgres.DSN == "" {
		return errors.New("storage.postgres.dsn required for the postgres driver")
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return errors.New("blob.s3.bucket required for the s3 driver")
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
