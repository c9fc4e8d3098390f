// Package config provides configuration types and utilities for the mock server engine.
package config

import (
	"strings"

	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// Document keys.
const (
	KeyHeaders = "headers"
	KeyPrefix  = "prefix"
	KeyDefault = "default"
	KeyTenants = "tenants"
	KeyRoutes  = "routes"
	KeyHistory = "history"
	KeyCode    = "code"
	KeyBody    = "body"
	KeyMode    = "mode"
	KeyMethod  = "method"
	KeyPath    = "path"
)

// Default response modes.
const (
	ModeMock = "mock"
	ModeDump = "dump"
	ModeEcho = "echo"
)

// MethodAny matches every request method.
const MethodAny = "ANY"

// DefaultPrefix is the administrative path segment used when none is configured.
const DefaultPrefix = "mock"

// ContentTypeJSON is the content type applied to every response after a reset.
const ContentTypeJSON = "application/json"

// Header is a single response header.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of response headers.
type Headers []Header

// Get returns the value of the named header (case-insensitive).
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Overlay returns h with every header of over applied on top. Headers of over
// replace those of h with the same name (case-insensitive) and new names are
// appended.
func (h Headers) Overlay(over Headers) Headers {
	out := make(Headers, len(h), len(h)+len(over))
	copy(out, h)
	for _, hdr := range over {
		replaced := false
		for i := range out {
			if strings.EqualFold(out[i].Name, hdr.Name) {
				out[i] = hdr
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, hdr)
		}
	}
	return out
}

// Default is the fallback behavior for mock traffic no route matched.
type Default struct {
	Code string
	Body *jsonvalue.Value
	Mode string
}

// Route maps a method and path pattern to a canned response.
type Route struct {
	// Method is an HTTP method or MethodAny.
	Method string
	// Path is a regular expression searched for in the request path.
	Path string
	// Code is the response status code.
	Code string
	// Headers extend or override the global headers.
	Headers Headers
	// Body is the response body.
	Body *jsonvalue.Value
}

// Tenant is the decoded routing state of a tenant.
type Tenant struct {
	Routes []Route
}

// View is the typed, read-only form of a configuration document.
type View struct {
	Headers Headers
	Prefix  string
	Default Default
	Tenants map[string]*Tenant
}

// Routes returns the routes of the named tenant in registration order.
func (v *View) Routes(tenant string) []Route {
	if v == nil {
		return nil
	}
	if t, ok := v.Tenants[tenant]; ok {
		return t.Routes
	}
	return nil
}

// ServerConfiguration holds the process-level settings of the mock server.
type ServerConfiguration struct {
	// HTTPPort is the port for mock and admin traffic.
	HTTPPort int `json:"httpPort" yaml:"httpPort"`
	// Prefix is the administrative path segment restored on every reset.
	Prefix string `json:"prefix" yaml:"prefix"`
	// SeedFile is an optional document merged over the factory defaults.
	SeedFile string `json:"seedFile,omitempty" yaml:"seedFile,omitempty"`
	// MaxBodySize is the maximum accepted request body size in bytes.
	MaxBodySize int64 `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	// ReadTimeout is the HTTP read timeout in seconds.
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP write timeout in seconds.
	WriteTimeout int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	// MetricsListen is the address of the metrics and health listener ("" = disabled).
	MetricsListen string `json:"metricsListen,omitempty" yaml:"metricsListen,omitempty"`
}

// DefaultServerConfiguration returns the default server settings.
func DefaultServerConfiguration() *ServerConfiguration {
	return &ServerConfiguration{
		HTTPPort:     4280,
		Prefix:       DefaultPrefix,
		MaxBodySize:  10 * 1024 * 1024, // 10MB
		ReadTimeout:  30,
		WriteTimeout: 30,
	}
}
