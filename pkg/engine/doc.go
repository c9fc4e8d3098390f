// Package engine implements the mock server: request classification,
// dispatch of administrative operations and mock traffic, and the HTTP
// server that carries them.
//
// Every request is classified by method and path. Requests under the
// administrative prefix read or change the shared state document; every
// other request is mock traffic for the tenant named by its first path
// segment. Mock traffic is appended to the tenant's history and answered by
// the first matching route, or by the default policy when none matches.
//
// Error responses always have status 500 and a body of the form
// {"message": "..."}.
//
// Basic usage:
//
//	srv, err := engine.NewServer(config.DefaultServerConfiguration())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer srv.Stop()
package engine
