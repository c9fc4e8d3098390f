// Package cliconfig provides configuration types and loading for the mockbetter CLI.
package cliconfig

// CLIConfig represents the complete configuration for the mockbetter CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (MOCKBETTER_*)
// 3. Default values (lowest priority)
type CLIConfig struct {
	// Server settings
	Port          int    `yaml:"port" json:"port"`
	Prefix        string `yaml:"prefix" json:"prefix"`
	ConfigFile    string `yaml:"configFile,omitempty" json:"configFile,omitempty"`
	MaxBodySize   int64  `yaml:"maxBodySize" json:"maxBodySize"`
	ReadTimeout   int    `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout  int    `yaml:"writeTimeout" json:"writeTimeout"`
	MetricsListen string `yaml:"metricsListen,omitempty" json:"metricsListen,omitempty"`
	Tracing       bool   `yaml:"tracing" json:"tracing"`
	OTLPEndpoint  string `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`

	// Admin client settings
	AdminURL string `yaml:"adminUrl" json:"adminUrl"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)
