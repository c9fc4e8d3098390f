package requestlog

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// FilterOptions defines criteria for selecting history entries.
type FilterOptions struct {
	// Method keeps entries with this method (case-insensitive).
	Method string
	// Path keeps entries whose path starts with this prefix.
	Path string
	// JSONPath keeps entries for which the expression yields a value.
	JSONPath string
	// Where keeps entries for which the boolean expression holds. The
	// expression sees the entry's method, path and body.
	Where string
	// Limit caps the number of returned entries, keeping the most recent (0 = no limit).
	Limit int
}

// IsEmpty reports whether no criteria are set.
func (o FilterOptions) IsEmpty() bool {
	return o.Method == "" && o.Path == "" && o.JSONPath == "" && o.Where == "" && o.Limit <= 0
}

// Filter selects history entries.
type Filter struct {
	opts  FilterOptions
	path  jp.Expr
	where *vm.Program
}

// whereEnv is the environment where-expressions are compiled against.
func whereEnv(e Entry) map[string]any {
	var body any
	if e.Body != nil {
		body = e.Body.ToAny()
	}
	return map[string]any{
		"method": e.Method,
		"path":   e.Path,
		"body":   body,
	}
}

// NewFilter compiles the filter options.
func NewFilter(opts FilterOptions) (*Filter, error) {
	f := &Filter{opts: opts}
	if opts.JSONPath != "" {
		path, err := jp.ParseString(opts.JSONPath)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonpath %q: %w", opts.JSONPath, err)
		}
		f.path = path
	}
	if opts.Where != "" {
		program, err := expr.Compile(opts.Where, expr.Env(whereEnv(Entry{})), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid where expression %q: %w", opts.Where, err)
		}
		f.where = program
	}
	return f, nil
}

// Match reports whether a single history document satisfies the filter.
func (f *Filter) Match(v *jsonvalue.Value) bool {
	if f == nil {
		return true
	}
	e := EntryFromValue(v)
	if f.opts.Method != "" && !strings.EqualFold(e.Method, f.opts.Method) {
		return false
	}
	if f.opts.Path != "" && !strings.HasPrefix(e.Path, f.opts.Path) {
		return false
	}
	if f.path != nil && len(f.path.Get(v.ToAny())) == 0 {
		return false
	}
	if f.where != nil {
		// A runtime error, such as reading a field of a null body, is a miss.
		out, err := expr.Run(f.where, whereEnv(e))
		if err != nil {
			return false
		}
		if ok, _ := out.(bool); !ok {
			return false
		}
	}
	return true
}

// Apply returns the history documents that satisfy the filter, in order.
func (f *Filter) Apply(history []*jsonvalue.Value) []*jsonvalue.Value {
	out := make([]*jsonvalue.Value, 0, len(history))
	for _, v := range history {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	if f != nil && f.opts.Limit > 0 && len(out) > f.opts.Limit {
		out = out[len(out)-f.opts.Limit:]
	}
	return out
}
