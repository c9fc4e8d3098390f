// Package requestlog provides the history records kept for mock traffic.
//
// Every request that is not an administrative operation is appended to the
// history of its tenant as an Entry. The history is an audit log: entries are
// never modified after they are appended and are only ever cleared in bulk.
//
// # Filtering
//
// A Filter selects history entries for inspection. Entries can be narrowed by
// method, by path prefix and by a JSONPath expression evaluated against the
// entry document:
//
//	f, err := requestlog.NewFilter(requestlog.FilterOptions{
//	    Method:   "POST",
//	    JSONPath: "$.body.user.id",
//	})
//	if err != nil {
//	    return err
//	}
//	matched := f.Apply(history)
//
// A JSONPath filter keeps entries for which the expression yields at least one
// value. A where filter is a boolean expr-lang expression over the entry's
// method, path and body, for example
//
//	method == "POST" && body?.user?.id > 7
//
// Entries on which the expression fails at run time are left out.
package requestlog
