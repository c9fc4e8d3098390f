package engine

import (
	"net/http"
	"strings"
)

// Operation identifies what a request asks the engine to do.
type Operation string

// Operations.
const (
	OpConfGet      Operation = "conf_get"
	OpConfMerge    Operation = "conf_merge"
	OpReset        Operation = "reset"
	OpRouteAdd     Operation = "route_add"
	OpRouteDelete  Operation = "route_delete"
	OpHistoryGet   Operation = "history_get"
	OpHistoryClear Operation = "history_clear"
	OpMock         Operation = "mock"
)

// Administrative path segments following the prefix.
const (
	segConf    = "conf"
	segReset   = "reset"
	segRoutes  = "routes"
	segHistory = "history"
)

// IsAdmin reports whether op is an administrative operation.
func (op Operation) IsAdmin() bool {
	return op != OpMock
}

// NeedsObject reports whether op requires a JSON object body.
func (op Operation) NeedsObject() bool {
	switch op {
	case OpConfMerge, OpRouteAdd, OpRouteDelete:
		return true
	}
	return false
}

// NeedsTenant reports whether op acts on a single tenant.
func (op Operation) NeedsTenant() bool {
	switch op {
	case OpRouteAdd, OpRouteDelete, OpHistoryGet, OpHistoryClear, OpMock:
		return true
	}
	return false
}

// Classification is the result of Classify.
type Classification struct {
	Op Operation
	// Tenant is the tenant the operation acts on, "" if none was given.
	Tenant string
	// Segments are the path segments.
	Segments []string
}

// SplitPath splits a request path into its segments. The leading empty
// segment and any trailing empty segments are dropped, so "/t1/foo/" gives
// ["t1", "foo"] and "/" gives none.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil
	}
	return parts[1:]
}

// Classify maps a method and path to an operation. Requests that are not
// administrative operations under prefix are mock traffic, whose tenant is
// the first path segment.
func Classify(method, path, prefix string) Classification {
	segs := SplitPath(path)
	c := Classification{Op: OpMock, Segments: segs}

	if op, ok := classifyAdmin(method, segs, prefix); ok {
		c.Op = op
		if op.NeedsTenant() && len(segs) == 3 {
			c.Tenant = segs[2]
		}
		return c
	}

	if len(segs) > 0 {
		c.Tenant = segs[0]
	}
	return c
}

func classifyAdmin(method string, segs []string, prefix string) (Operation, bool) {
	if len(segs) < 2 || len(segs) > 3 || segs[0] != prefix {
		return "", false
	}

	switch segs[1] {
	case segConf:
		if len(segs) != 2 {
			return "", false
		}
		switch method {
		case http.MethodGet:
			return OpConfGet, true
		case http.MethodPut:
			return OpConfMerge, true
		}
	case segReset:
		if len(segs) == 2 && method == http.MethodPut {
			return OpReset, true
		}
	case segRoutes:
		switch method {
		case http.MethodPut:
			return OpRouteAdd, true
		case http.MethodDelete:
			return OpRouteDelete, true
		}
	case segHistory:
		switch method {
		case http.MethodGet:
			return OpHistoryGet, true
		case http.MethodDelete:
			return OpHistoryClear, true
		}
	}
	return "", false
}
