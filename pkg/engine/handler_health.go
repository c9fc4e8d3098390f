// Health probe handler served next to the metrics endpoint.

package engine

import (
	"net/http"
	"time"

	"github.com/getmockd/mockbetter/pkg/httputil"
)

// handleHealth handles the liveness probe endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    s.Uptime(),
		"tenants":   s.store.TenantCount(),
	})
}
