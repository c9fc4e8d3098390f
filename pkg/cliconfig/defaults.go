package cliconfig

import (
	"strconv"

	"github.com/getmockd/mockbetter/pkg/config"
)

// DefaultPort is the default HTTP server port for mock and admin traffic.
const DefaultPort = 4280

// DefaultPrefix is the default administrative path segment.
const DefaultPrefix = config.DefaultPrefix

// DefaultMaxBodySize is the default maximum request body size (10MB).
const DefaultMaxBodySize int64 = 10 << 20

// DefaultReadTimeout is the default read timeout in seconds.
const DefaultReadTimeout = 30

// DefaultWriteTimeout is the default write timeout in seconds.
const DefaultWriteTimeout = 30

// DefaultLogLevel is the default minimum log level.
const DefaultLogLevel = "info"

// DefaultLogFormat is the default log output format.
const DefaultLogFormat = "text"

// DefaultAdminURL returns the default server URL based on the port.
func DefaultAdminURL(port int) string {
	if port == 0 {
		port = DefaultPort
	}
	return "http://localhost:" + strconv.Itoa(port)
}

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		Port:         DefaultPort,
		Prefix:       DefaultPrefix,
		MaxBodySize:  DefaultMaxBodySize,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		Tracing:      true,
		AdminURL:     DefaultAdminURL(DefaultPort),
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Sources:      make(map[string]string),
	}
	for _, key := range allKeys {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}
