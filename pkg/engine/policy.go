package engine

import (
	"strings"

	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// ApplyDefault answers a mock request no route matched.
//
//   - dump: 200 with {"path": "/" + segments joined by "/", "method": method}
//   - echo: 200 with the request body re-encoded, or null when it was absent
//   - anything else: the configured default code and body
//
// segments are the request path segments after the tenant.
func ApplyDefault(def config.Default, headers config.Headers, method string, segments []string, body *jsonvalue.Value) Response {
	switch def.Mode {
	case config.ModeDump:
		obj := jsonvalue.NewObject()
		obj.Set(config.KeyPath, jsonvalue.String("/"+strings.Join(segments, "/")))
		obj.Set(config.KeyMethod, jsonvalue.String(method))
		return Response{Status: "200", Headers: headers, Body: jsonvalue.Encode(jsonvalue.FromObject(obj))}

	case config.ModeEcho:
		return Response{Status: "200", Headers: headers, Body: jsonvalue.Encode(body)}

	default:
		return Response{Status: def.Code, Headers: headers, Body: jsonvalue.Encode(def.Body)}
	}
}
