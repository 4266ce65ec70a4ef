// Package config provides layered configuration loading for the oid service.
// It merges Defaults -> Environment Variables -> CLI Flags, with validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "OID_"

// Config holds the merged runtime configuration for the oid service.
// Order of precedence (lowest → highest): Defaults → Environment → CLI Flags.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required,ip_port"`
	// DataDir holds the SQLite database.
	DataDir string `koanf:"data_dir" validate:"required,safe_path"`
	// Hostname overrides the OS host name hashed into every id.
	Hostname string `koanf:"hostname" validate:"omitempty,hostname_rfc1123"`
	// MaxBatch is the largest number of ids minted by one request.
	MaxBatch int `koanf:"max_batch" validate:"min=1,max=100000"`
	// LedgerRetention is how long issued ids are remembered.
	LedgerRetention time.Duration `koanf:"ledger_retention" validate:"min=1m"`
	// JanitorInterval is how often the ledger is pruned.
	JanitorInterval      time.Duration `koanf:"janitor_interval" validate:"min=1s"`
	MetricsFlushInterval time.Duration `koanf:"metrics_flush_interval" validate:"min=100ms"`
	// MetricsToken guards /metrics with a bearer token; empty disables the check.
	MetricsToken string     `koanf:"metrics_token"`
	LogLevel     slog.Level `koanf:"log_level"`
}

// DefaultAppConfig holds the values used when nothing else is configured.
var DefaultAppConfig = Config{
	Addr:                 ":8080",
	DataDir:              "./data",
	MaxBatch:             1000,
	LedgerRetention:      7 * 24 * time.Hour,
	JanitorInterval:      time.Hour,
	MetricsFlushInterval: 5 * time.Second,
	LogLevel:             slog.LevelInfo,
}

// SQLiteDSN returns the DSN of the database file inside DataDir.
func (c *Config) SQLiteDSN() string {
	const params = "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_synchronous=FULL"
	dir := c.DataDir
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return "file:" + dir + "oid.db" + params
}

// defaultLoader loads DefaultAppConfig; a variable so tests can replace it.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// envLoader overlays OID_* environment variables; OID_DATA_DIR maps to data_dir.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil)
}

// registerValidators installs the custom validation tags used on Config.
var registerValidators = func(v *validator.Validate) error {
	if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
		return err
	}
	return v.RegisterValidation("safe_path", validSafePath)
}

// Load merges defaults and environment, then validates. overrides, when
// non-nil, is applied last (CLI flags); only its non-empty keys take effect.
func Load(overrides ...map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	for _, o := range overrides {
		for key, val := range o {
			if s, ok := val.(string); ok && s == "" {
				continue
			}
			if err := k.Set(key, val); err != nil {
				return nil, fmt.Errorf("apply %s: %w", key, err)
			}
		}
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				StringToLogLevel(),
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidators(v); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if err := v.Struct(&cfg); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval >= cfg.LedgerRetention {
		return nil, errors.New("janitor_interval must be less than ledger_retention")
	}
	return &cfg, nil
}

// validIPPort accepts "host:port" where host is empty or a literal IP and
// port is in 1..65535.
func validIPPort(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return false
	}
	if host != "" && net.ParseIP(host) == nil {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// validSafePath rejects empty, root and current-directory paths as well as
// any path with a ".." segment.
func validSafePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" {
		return false
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == string(filepath.Separator) {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
