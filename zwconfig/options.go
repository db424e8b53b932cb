// Package zwconfig loads and validates the immutable, read-once-at-start
// configuration options spec.md §6 describes, grounded on marmos91-dittofs's
// pkg/config: viper for file/env/flag layering, struct tags checked with
// go-playground/validator/v10, mapstructure-driven type conversion for the
// one field (PollInterval, a time.Duration) that needs it.
package zwconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix config values may be
// overridden with, e.g. ZWAVE_POLL_INTERVAL.
const envPrefix = "ZWAVE"

// Options is the immutable configuration set of spec.md §6: "log level,
// logging enabled, append-log, poll interval, default retry budget, security
// network key (16 bytes), path prefixes for device descriptions and state
// files, 'notify transactions' flag." Read once at process start; nothing
// in zwdriver mutates it afterward.
type Options struct {
	// DevicePath is the serial port or pseudo-tty path the controller is
	// attached to.
	DevicePath string `mapstructure:"device_path" validate:"required"`

	// Baud is the serial line speed. Z-Wave controllers conventionally run
	// at 115200.
	Baud int `mapstructure:"baud" validate:"required,gt=0"`

	// LogLevel names a severity threshold. It is validated but not applied:
	// zwctl's logger verbosity follows its --verbose flag.
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// LoggingEnabled toggles the logger on entirely; when false, a
	// zwlog.Discard logger is wired in regardless of LogLevel.
	LoggingEnabled bool `mapstructure:"logging_enabled"`

	// AppendLog selects append mode for a log file named by LogOutput
	// instead of truncating it on each run. Nothing outside this package
	// reads it.
	AppendLog bool `mapstructure:"append_log"`

	// LogOutput names where log lines go: "stdout", "stderr", or a file path.
	// Nothing outside this package reads it; zwctl's logger does not
	// redirect its output.
	LogOutput string `mapstructure:"log_output" validate:"required"`

	// PollInterval is the default interval the poll scheduler waits between
	// cycles, per §4.11.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`

	// RetryBudget is copied into zwdriver.Config.RetryBudget, where a value
	// of 0 or less is replaced by zwtxn.DefaultRetryBudget. Neither the
	// transaction engine nor the query pipeline reads it: they use
	// zwtxn.DefaultRetryBudget and zwnode.DefaultStageRetryBudget.
	RetryBudget int `mapstructure:"retry_budget" validate:"gte=0"`

	// NetworkKey is the 16-byte S0 security network key (§4.7's security
	// nonce framework). Nothing outside this package reads it: zwdriver
	// constructs no zwcc.SecurityManager, with or without a key.
	NetworkKey []byte `mapstructure:"network_key" validate:"omitempty,len=16"`

	// DeviceDescriptionPath is the path prefix under which device
	// description documents (out of scope to parse, per spec.md's
	// Non-goals - this only locates them for a pluggable consumer) live.
	DeviceDescriptionPath string `mapstructure:"device_description_path"`

	// StateFilePath is the path prefix zwpersist reads/writes the
	// persisted-state document under.
	StateFilePath string `mapstructure:"state_file_path" validate:"required"`

	// NotifyTransactions names a verbose diagnostic mode that would post a
	// NotificationGeneric for every individual Engine transaction. Nothing
	// outside this package reads it, and no per-transaction notifications
	// are posted.
	NotifyTransactions bool `mapstructure:"notify_transactions"`

	// MetricsEnabled/MetricsPort configure zwmetrics's Prometheus HTTP
	// endpoint.
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	MetricsPort    int  `mapstructure:"metrics_port" validate:"omitempty,min=1,max=65535"`
}

// DefaultBaud is the Z-Wave Serial API's conventional line speed.
const DefaultBaud = 115200

// DefaultPollInterval matches zwpoll.DefaultInterval; duplicated here
// (rather than imported) so zwconfig has no dependency on zwpoll, keeping
// the configuration layer free of the runtime packages it configures.
const DefaultPollInterval = 30 * time.Second

// DefaultRetryBudget matches zwtxn.DefaultRetryBudget, duplicated for the
// same reason as DefaultPollInterval.
const DefaultRetryBudget = 3

// DefaultMetricsPort is the port zwmetrics's HTTP server listens on when
// MetricsEnabled is true and MetricsPort is left unset.
const DefaultMetricsPort = 9090

// Defaults returns an Options populated with every field spec.md §6 and
// the pack's defaults.go convention leave unset.
func Defaults() *Options {
	return &Options{
		Baud:           DefaultBaud,
		LogLevel:       "INFO",
		LoggingEnabled: true,
		LogOutput:      "stderr",
		PollInterval:   DefaultPollInterval,
		RetryBudget:    DefaultRetryBudget,
		StateFilePath:  filepath.Join(defaultConfigDir(), "state.json"),
		MetricsPort:    DefaultMetricsPort,
	}
}

// Load reads Options from configPath (or config.yaml in the default config
// directory when configPath is empty) layered over Defaults, with
// ZWAVE_-prefixed environment variables outranking the file: Defaults <
// file < env - the same file/env/default layering as dittofs's config.Load.
// Environment variables only override keys the file itself sets, and when
// no config file is found Load returns Defaults without consulting the
// environment. CLI flags are not handled here: cmd/zwctl applies its
// --device/--baud flags to the returned Options.
func Load(configPath string) (*Options, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	opts := Defaults()
	if !found {
		if err := Validate(opts); err != nil {
			return nil, fmt.Errorf("zwconfig: validating defaults: %w", err)
		}
		return opts, nil
	}

	if err := v.Unmarshal(opts, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("zwconfig: unmarshalling: %w", err)
	}
	if err := Validate(opts); err != nil {
		return nil, fmt.Errorf("zwconfig: validation failed: %w", err)
	}
	return opts, nil
}

// Validate runs validator.v10 over opts' struct tags, per spec.md §6's
// immutability contract: configuration is checked once, at load time, never
// again at runtime.
func Validate(opts *Options) error {
	return validator.New().Struct(opts)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("zwconfig: reading config file: %w", err)
	}
	return true, nil
}

// decodeHooks converts human-written duration strings ("30s") into
// time.Duration, the one field in Options mapstructure cannot decode
// unassisted - grounded on dittofs's durationDecodeHook.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(durationDecodeHook())
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "zwave")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "zwave")
}
