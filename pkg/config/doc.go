// Package config defines the mock server configuration document and the
// typed views the engine reads from it.
//
// The live configuration is a single JSON document (see package jsonvalue):
//
//	{
//	  "headers": {"Content-Type": "application/json"},
//	  "prefix":  "mock",
//	  "default": {"code": "200", "body": {"message": "mock better"}, "mode": "mock"},
//	  "tenants": {
//	    "t1": {
//	      "routes":  [{"method": "GET", "path": "^/t1/users", "code": "200", "body": []}],
//	      "history": [{"method": "GET", "body": null, "path": "/users"}]
//	    }
//	  }
//	}
//
// The document is what the admin API returns and what configuration updates
// are merged into. Decode turns it into a View, rejecting documents whose
// shape the engine cannot serve (for example a non-string header value).
//
// # Server Configuration
//
// ServerConfiguration holds process settings (ports, timeouts, the
// administrative prefix and an optional seed file). A seed file is a YAML or
// JSON document merged over the factory defaults at startup and on reset:
//
//	seed, err := config.LoadSeedFile("mockbetter.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// LoadSeed additionally accepts a glob ("seeds/**/*.yaml") and deep-merges
// the matching files in lexical order.
package config
