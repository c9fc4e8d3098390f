// Package cli provides the command-line interface for mockbetter.
//
// Commands:
//   - serve: run the mock server in the foreground
//   - conf get|set: read or deep-merge the configuration document
//   - reset: restore the factory configuration
//   - routes add|delete: manage the routes of a tenant
//   - history get|clear: inspect or empty the request history of a tenant
//   - version: show version information
//
// Administrative commands talk to a running server through pkg/client.
// Every flag can also be set through a MOCKBETTER_* environment variable.
//
// Usage:
//
//	mockbetter serve --port 4280 --config seed.yaml
//	mockbetter routes add users --method GET --path '^/users$' --code 200 --body '[]'
//	mockbetter history get users --method POST
//	mockbetter conf set '{"default":{"mode":"echo"}}'
//	mockbetter reset
package cli
