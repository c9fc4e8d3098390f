// Package id provides identifier generation utilities.
//
// Every request served by the mock server carries an ID, returned in the
// X-Request-Id response header and attached to its log records. Clients may
// supply their own ID; RequestID keeps it when it is safe to echo back and
// generates a UUID otherwise.
package id
