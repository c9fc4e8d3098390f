package jsonvalue

// Merge merges source into target in place. Both must be objects; a non-object
// source is ignored.
//
// For every key of source:
//   - both values objects: merged recursively
//   - both values arrays: target becomes the union of the two, keeping the
//     target's elements (duplicates included) and appending source elements
//     not already present
//   - otherwise: target's value is replaced by a copy of source's
func Merge(target, source *Value) {
	t, s := target.Object(), source.Object()
	if t == nil || s == nil {
		return
	}
	mergeObjects(t, s)
}

func mergeObjects(target, source *Object) {
	for _, key := range source.keys {
		sv := source.vals[key]
		tv, ok := target.Get(key)
		switch {
		case ok && tv.IsObject() && sv.IsObject():
			mergeObjects(tv.obj, sv.obj)
		case ok && tv.IsArray() && sv.IsArray():
			tv.arr = Union(tv.arr, sv.arr)
		default:
			target.Set(key, sv.Clone())
		}
	}
}

// Union returns existing followed by the elements of extra that are not
// already in the result. Duplicates already present in existing are kept.
func Union(existing, extra []*Value) []*Value {
	out := make([]*Value, 0, len(existing)+len(extra))
	out = append(out, existing...)
	for _, e := range extra {
		if !contains(out, e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

func contains(list []*Value, v *Value) bool {
	for _, e := range list {
		if Equal(e, v) {
			return true
		}
	}
	return false
}
