package cliconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/logging"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "MOCKBETTER"

// Configuration keys. Each is also the name of its flag; the environment
// variable is EnvPrefix + "_" + the upper-cased key with "-" replaced by "_"
// (e.g. MOCKBETTER_METRICS_LISTEN).
const (
	KeyPort          = "port"
	KeyPrefix        = "prefix"
	KeyConfig        = "config"
	KeyMaxBodySize   = "max-body-size"
	KeyReadTimeout   = "read-timeout"
	KeyWriteTimeout  = "write-timeout"
	KeyMetricsListen = "metrics-listen"
	KeyTracing       = "tracing"
	KeyOTLPEndpoint  = "otlp-endpoint"
	KeyAdminURL      = "admin-url"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
)

var allKeys = []string{
	KeyPort, KeyPrefix, KeyConfig, KeyMaxBodySize, KeyReadTimeout, KeyWriteTimeout,
	KeyMetricsListen, KeyTracing, KeyOTLPEndpoint, KeyAdminURL, KeyLogLevel, KeyLogFormat,
}

var envReplacer = strings.NewReplacer("-", "_")

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(envReplacer.Replace(key))
}

// AddServerFlags registers the flags of the serve command.
func AddServerFlags(fs *pflag.FlagSet) {
	fs.IntP(KeyPort, "p", DefaultPort, "HTTP server port (0 = any free port)")
	fs.String(KeyPrefix, DefaultPrefix, "administrative path segment")
	fs.StringP(KeyConfig, "c", "", "seed document (.json, .yaml or .yml, or a glob such as 'seeds/**/*.yaml') merged into the defaults at startup and on reset")
	fs.Int64(KeyMaxBodySize, DefaultMaxBodySize, "maximum request body size in bytes")
	fs.Int(KeyReadTimeout, DefaultReadTimeout, "HTTP read timeout in seconds")
	fs.Int(KeyWriteTimeout, DefaultWriteTimeout, "HTTP write timeout in seconds")
	fs.String(KeyMetricsListen, "", "address serving /metrics and /healthz (e.g. :9464, empty = disabled)")
	fs.Bool(KeyTracing, true, "instrument requests with OpenTelemetry")
	fs.String(KeyOTLPEndpoint, "", "OTLP trace collector (host:port for gRPC, or grpc://, grpcs://, http://, https:// URL)")
}

// AddClientFlags registers the flags of the administrative commands.
func AddClientFlags(fs *pflag.FlagSet) {
	fs.String(KeyAdminURL, DefaultAdminURL(DefaultPort), "mock server URL")
	fs.String(KeyPrefix, DefaultPrefix, "administrative path segment")
}

// AddLoggingFlags registers the logging flags.
func AddLoggingFlags(fs *pflag.FlagSet) {
	fs.String(KeyLogLevel, DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, DefaultLogFormat, "log format (text, json)")
}

// NewViper returns a viper instance reading MOCKBETTER_* environment
// variables with every known key of fs bound to its flag.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	for _, key := range allKeys {
		flag := fs.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return v, nil
}

// Load resolves the configuration from fs and the environment.
// Precedence: flags > env > defaults
func Load(fs *pflag.FlagSet) (*CLIConfig, error) {
	v, err := NewViper(fs)
	if err != nil {
		return nil, err
	}

	cfg := NewDefault()
	has := func(key string) bool {
		switch {
		case fs.Changed(key):
			cfg.Sources[key] = SourceFlag
		case envSet(key):
			cfg.Sources[key] = SourceEnv
		case fs.Lookup(key) == nil:
			return false
		}
		return true
	}

	if has(KeyPort) {
		cfg.Port = v.GetInt(KeyPort)
	}
	if has(KeyPrefix) {
		cfg.Prefix = v.GetString(KeyPrefix)
	}
	if has(KeyMaxBodySize) {
		cfg.MaxBodySize = v.GetInt64(KeyMaxBodySize)
	}
	if has(KeyReadTimeout) {
		cfg.ReadTimeout = v.GetInt(KeyReadTimeout)
	}
	if has(KeyWriteTimeout) {
		cfg.WriteTimeout = v.GetInt(KeyWriteTimeout)
	}
	if has(KeyTracing) {
		cfg.Tracing = v.GetBool(KeyTracing)
	}
	if has(KeyLogLevel) {
		cfg.LogLevel = v.GetString(KeyLogLevel)
	}
	if has(KeyLogFormat) {
		cfg.LogFormat = v.GetString(KeyLogFormat)
	}
	if has(KeyConfig) {
		cfg.ConfigFile = strings.TrimSpace(v.GetString(KeyConfig))
	}
	if has(KeyMetricsListen) {
		cfg.MetricsListen = strings.TrimSpace(v.GetString(KeyMetricsListen))
	}
	if has(KeyOTLPEndpoint) {
		cfg.OTLPEndpoint = strings.TrimSpace(v.GetString(KeyOTLPEndpoint))
	}
	if has(KeyAdminURL) {
		cfg.AdminURL = strings.TrimRight(strings.TrimSpace(v.GetString(KeyAdminURL)), "/")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvName(key))
	return ok
}

// Validate checks the resolved values.
func (c *CLIConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &ConfigError{Key: KeyPort, Message: fmt.Sprintf("port %d out of range", c.Port)}
	}
	if strings.Contains(c.Prefix, "/") {
		return &ConfigError{Key: KeyPrefix, Message: fmt.Sprintf("prefix %q must be a single path segment", c.Prefix)}
	}
	if c.MaxBodySize <= 0 {
		return &ConfigError{Key: KeyMaxBodySize, Message: "must be positive"}
	}
	if c.OTLPEndpoint != "" && !c.Tracing {
		return &ConfigError{Key: KeyOTLPEndpoint, Message: "requires --tracing"}
	}
	return nil
}

// ConfigError reports an unusable configuration value.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Key + ": " + e.Message
}

// ServerConfiguration converts the CLI settings to engine settings.
func (c *CLIConfig) ServerConfiguration() *config.ServerConfiguration {
	cfg := config.DefaultServerConfiguration()
	cfg.HTTPPort = c.Port
	cfg.Prefix = c.Prefix
	cfg.SeedFile = c.ConfigFile
	cfg.MaxBodySize = c.MaxBodySize
	cfg.ReadTimeout = c.ReadTimeout
	cfg.WriteTimeout = c.WriteTimeout
	cfg.MetricsListen = c.MetricsListen
	return cfg
}

// LoggingConfig converts the CLI settings to a logging configuration.
func (c *CLIConfig) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.LogLevel)
	cfg.Format = logging.ParseFormat(c.LogFormat)
	return cfg
}
