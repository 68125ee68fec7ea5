// Package config loads the bridge settings from the add-on options file,
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/adamwoolhether/ecoalbridge/web"
)

const (
	// DefaultPath is where the supervisor mounts the add-on options.
	DefaultPath = "/data/options.json"
	// FallbackPath is tried when DefaultPath cannot be read, for local runs.
	FallbackPath = "./data/options.json"

	envPrefix       = "ECOAL_"
	minPollInterval = 10 * time.Second
)

// ErrNoOptionsFile is returned by [Load] when none of the paths could be read.
var ErrNoOptionsFile = errors.New("no readable options file")

// Config mirrors the add-on options. JSON keys are kept as the add-on
// schema defines them.
type Config struct {
	ECoalHost      string `mapstructure:"ecoal_host" json:"ecoal_host" validate:"required"`
	ECoalUsername  string `mapstructure:"ecoal_username" json:"ecoal_username" validate:"required"`
	ECoalPassword  string `mapstructure:"ecoal_password" json:"ecoal_password"`
	MQTTBroker     string `mapstructure:"mqtt_broker" json:"mqtt_broker"`
	MQTTPort       int    `mapstructure:"mqtt_port" json:"mqtt_port" validate:"omitempty,min=1,max=65535"`
	MQTTUsername   string `mapstructure:"mqtt_username" json:"mqtt_username"`
	MQTTPassword   string `mapstructure:"mqtt_password" json:"mqtt_password"`
	MQTTPrefix     string `mapstructure:"mqtt_topic_prefix" json:"mqtt_topic_prefix"`
	DeviceName     string `mapstructure:"device_name" json:"device_name" validate:"required"`
	PollSeconds    int    `mapstructure:"poll_interval" json:"poll_interval" validate:"min=0"`
	LogLevel       string `mapstructure:"log_level" json:"log_level" validate:"oneof=debug info warn warning error"`
	EntityLanguage string `mapstructure:"entity_language" json:"entity_language" validate:"oneof=en pl"`
	TempMappings   string `mapstructure:"tempMappings" json:"tempMappings"`
	VTempMappings  string `mapstructure:"vtempMappings" json:"vtempMappings"`

	HTTPAddr         string   `mapstructure:"http_addr" json:"http_addr" validate:"required"`
	RequestTimeoutMs int      `mapstructure:"request_timeout_ms" json:"request_timeout_ms" validate:"min=1"`
	ThrottleRPS      int      `mapstructure:"throttle_rps" json:"throttle_rps" validate:"min=1"`
	ThrottleBurst    int      `mapstructure:"throttle_burst" json:"throttle_burst" validate:"min=1"`
	CORSOrigins      []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Source is the file the values were read from.
	Source string `mapstructure:"-" json:"-"`
}

var defaults = map[string]any{
	"ecoal_host":         "",
	"ecoal_username":     "root",
	"ecoal_password":     "root",
	"mqtt_broker":        "",
	"mqtt_port":          1883,
	"mqtt_username":      "",
	"mqtt_password":      "",
	"mqtt_topic_prefix":  "homeassistant",
	"device_name":        "eCoal Furnace",
	"poll_interval":      30,
	"log_level":          "info",
	"entity_language":    "en",
	"tempmappings":       "",
	"vtempmappings":      "",
	"http_addr":          ":8099",
	"request_timeout_ms": 8000,
	"throttle_rps":       2,
	"throttle_burst":     2,
	"cors_origins":       []string{},
}

// Load reads the first readable file among paths, or [DefaultPath] then
// [FallbackPath] when none are given. Every key can be overridden from the
// environment: ecoal_host by ECOAL_HOST, poll_interval by
// ECOAL_POLL_INTERVAL and so on.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = []string{DefaultPath, FallbackPath}
	}

	v := viper.New()
	v.SetConfigType("json")
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key, envName(key)); err != nil {
			return Config{}, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	var (
		source  string
		readErr []error
	)
	for _, p := range paths {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			readErr = append(readErr, fmt.Errorf("%s: %w", p, err))
			continue
		}
		source = p
		break
	}
	if source == "" {
		return Config{}, fmt.Errorf("%w: %w", ErrNoOptionsFile, errors.Join(readErr...))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding %s: %w", source, err)
	}
	cfg.Source = source

	if err := web.Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("validating %s: %w", source, err)
	}

	return cfg, nil
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(strings.TrimPrefix(key, "ecoal_"))
}

var whitespace = regexp.MustCompile(`\s+`)

// DeviceID is the device name lower-cased with whitespace runs replaced by
// underscores. It prefixes every entity id the bridge exposes.
func (c Config) DeviceID() string {
	return whitespace.ReplaceAllString(strings.ToLower(c.DeviceName), "_")
}

// PollInterval is poll_interval in seconds, never less than ten seconds.
func (c Config) PollInterval() time.Duration {
	return max(minPollInterval, time.Duration(c.PollSeconds)*time.Second)
}

// RequestTimeout is the per-fetch budget for the legacy client.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// Level maps log_level onto a slog level. "warning" is accepted as an
// alias of "warn".
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogValue hides credentials when the config is logged.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", c.Source),
		slog.String("ecoal_host", c.ECoalHost),
		slog.String("device_name", c.DeviceName),
		slog.Duration("poll_interval", c.PollInterval()),
		slog.String("http_addr", c.HTTPAddr),
		slog.String("log_level", c.LogLevel),
	)
}
