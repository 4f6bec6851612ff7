// Package config layers flags, HEALTHSYNC_* environment variables, a .env
// file and the YAML config file on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/saadjs/healthsync/internal/app"
)

const (
	KeyEndpoint        = "endpoint"
	KeyToken           = "token"
	KeyUserID          = "user_id"
	KeyTimeout         = "timeout"
	KeyHealthDir       = "health_dir"
	KeyScannerDevice   = "scanner_device"
	KeyDB              = "db"
	KeyLogLevel        = "log_level"
	KeyCatalogFallback = "catalog_fallback"
	KeyWatchInterval   = "watch_interval"
	KeyUSDAAPIKey      = "usda_api_key"
	KeyUPCItemDBKey    = "upcitemdb_key"

	envPrefix = "HEALTHSYNC"
)

const (
	DefaultEndpoint      = "https://nutrifit-backend-api.onrender.com/graphql"
	DefaultTimeout       = 12 * time.Second
	DefaultWatchInterval = 15 * time.Minute
)

type Config struct {
	Endpoint        string
	Token           string
	UserID          string
	Timeout         time.Duration
	HealthDir       string
	ScannerDevice   string
	DBPath          string
	LogLevel        string
	CatalogFallback bool
	WatchInterval   time.Duration
	USDAAPIKey      string
	UPCItemDBKey    string
	File            string
}

var knownKeys = []string{
	KeyEndpoint, KeyToken, KeyUserID, KeyTimeout, KeyHealthDir,
	KeyScannerDevice, KeyDB, KeyLogLevel, KeyCatalogFallback, KeyWatchInterval,
	KeyUSDAAPIKey, KeyUPCItemDBKey,
}

func KnownKeys() []string {
	out := append([]string{}, knownKeys...)
	sort.Strings(out)
	return out
}

// New prepares a viper instance bound to the config file at path (or the
// default location) and to the environment. A missing file is not an error.
func New(path string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if strings.TrimSpace(path) == "" {
		p, err := app.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	v.SetDefault(KeyEndpoint, DefaultEndpoint)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyScannerDevice, "-")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyCatalogFallback, false)
	v.SetDefault(KeyWatchInterval, DefaultWatchInterval)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return v, nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Endpoint:        strings.TrimSpace(v.GetString(KeyEndpoint)),
		Token:           strings.TrimSpace(v.GetString(KeyToken)),
		UserID:          strings.TrimSpace(v.GetString(KeyUserID)),
		Timeout:         v.GetDuration(KeyTimeout),
		HealthDir:       strings.TrimSpace(v.GetString(KeyHealthDir)),
		ScannerDevice:   strings.TrimSpace(v.GetString(KeyScannerDevice)),
		DBPath:          strings.TrimSpace(v.GetString(KeyDB)),
		LogLevel:        strings.TrimSpace(v.GetString(KeyLogLevel)),
		CatalogFallback: v.GetBool(KeyCatalogFallback),
		WatchInterval:   v.GetDuration(KeyWatchInterval),
		USDAAPIKey:      strings.TrimSpace(v.GetString(KeyUSDAAPIKey)),
		UPCItemDBKey:    strings.TrimSpace(v.GetString(KeyUPCItemDBKey)),
		File:            v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("endpoint %q must be an http(s) URL", c.Endpoint))
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be greater than 0")
	}
	if c.WatchInterval < time.Minute {
		problems = append(problems, "watch_interval must be at least 1m")
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Set validates and persists one key to the config file.
func Set(v *viper.Viper, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if !isKnown(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(KnownKeys(), ", "))
	}
	value = strings.TrimSpace(value)
	switch key {
	case KeyTimeout, KeyWatchInterval:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", key, value)
		}
		v.Set(key, d.String())
	case KeyCatalogFallback:
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			v.Set(key, true)
		case "false", "0", "no", "off":
			v.Set(key, false)
		default:
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
	default:
		v.Set(key, value)
	}
	if _, err := Load(v); err != nil {
		return err
	}
	path := v.ConfigFileUsed()
	if path == "" {
		return fmt.Errorf("no config file path set")
	}
	if err := app.EnsureDir(path); err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := v.SafeWriteConfigAs(path); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
		return nil
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Values returns every known key with its effective value; secrets are masked.
func Values(v *viper.Viper) map[string]string {
	out := make(map[string]string, len(knownKeys))
	for _, k := range knownKeys {
		val := fmt.Sprint(v.Get(k))
		if v.Get(k) == nil {
			val = ""
		}
		if isSecret(k) && val != "" {
			val = "********"
		}
		out[k] = val
	}
	return out
}

func isSecret(key string) bool {
	return key == KeyToken || key == KeyUSDAAPIKey || key == KeyUPCItemDBKey
}

func isKnown(key string) bool {
	for _, k := range knownKeys {
		if k == key {
			return true
		}
	}
	return false
}
