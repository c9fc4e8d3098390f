package jsonvalue

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// Kind identifies the JSON type held by a Value.
type Kind uint8

// JSON kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON value. The zero value is JSON null.
// A nil *Value is also treated as null by every accessor.
type Value struct {
	kind Kind
	b    bool
	n    json.Number
	s    string
	arr  []*Value
	obj  *Object
}

// Null returns a JSON null.
func Null() *Value { return &Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Number returns a JSON number from its literal form.
func Number(n json.Number) *Value { return &Value{kind: KindNumber, n: n} }

// Int returns a JSON integer.
func Int(i int64) *Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// String returns a JSON string.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// Array returns a JSON array holding the given elements.
func Array(elems ...*Value) *Value {
	if elems == nil {
		elems = []*Value{}
	}
	return &Value{kind: KindArray, arr: elems}
}

// FromObject wraps an Object as a Value.
func FromObject(o *Object) *Value {
	if o == nil {
		o = NewObject()
	}
	return &Value{kind: KindObject, obj: o}
}

// Kind returns the kind of v.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null (or nil).
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// IsObject reports whether v is an object.
func (v *Value) IsObject() bool { return v.Kind() == KindObject }

// IsArray reports whether v is an array.
func (v *Value) IsArray() bool { return v.Kind() == KindArray }

// AsString returns the string held by v.
func (v *Value) AsString() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the number literal held by v.
func (v *Value) AsNumber() (json.Number, bool) {
	if v.Kind() != KindNumber {
		return "", false
	}
	return v.n, true
}

// AsBool returns the boolean held by v.
func (v *Value) AsBool() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.b, true
}

// Object returns the object held by v, or nil if v is not an object.
func (v *Value) Object() *Object {
	if v.Kind() != KindObject {
		return nil
	}
	return v.obj
}

// Elems returns the elements of an array, or nil if v is not an array.
// The returned slice must not be modified.
func (v *Value) Elems() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.arr
}

// Append adds elements to the end of an array value.
func (v *Value) Append(elems ...*Value) error {
	if v.Kind() != KindArray {
		return fmt.Errorf("cannot append to %s", v.Kind())
	}
	v.arr = append(v.arr, elems...)
	return nil
}

// SetElems replaces the elements of an array value.
func (v *Value) SetElems(elems []*Value) error {
	if v.Kind() != KindArray {
		return fmt.Errorf("cannot set elements of %s", v.Kind())
	}
	if elems == nil {
		elems = []*Value{}
	}
	v.arr = elems
	return nil
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	switch v.kind {
	case KindArray:
		elems := make([]*Value, len(v.arr))
		for i, e := range v.arr {
			elems[i] = e.Clone()
		}
		return &Value{kind: KindArray, arr: elems}
	case KindObject:
		return &Value{kind: KindObject, obj: v.obj.Clone()}
	default:
		cp := *v
		return &cp
	}
}

// Equal reports whether a and b hold the same JSON value.
// Objects compare without regard to key order. Integers only equal integers
// and floats only equal floats, so 1 and 1.0 are distinct.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindNumber:
		return numbersEqual(a.n, b.n)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.keys {
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(a.obj.vals[k], bv) {
				return false
			}
		}
		return true
	}
	return false
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ai, aInt := new(big.Int).SetString(string(a), 10)
	bi, bInt := new(big.Int).SetString(string(b), 10)
	if aInt != bInt {
		return false
	}
	if aInt {
		return ai.Cmp(bi) == 0
	}
	af, errA := a.Float64()
	bf, errB := b.Float64()
	return errA == nil && errB == nil && af == bf
}

// FromAny converts a value produced by encoding/json, yaml.v3 or ojg into a
// Value. Map keys are sorted since Go maps carry no order.
func FromAny(x any) (*Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case uint64:
		return Number(json.Number(strconv.FormatUint(t, 10))), nil
	case float64:
		return Number(json.Number(strconv.FormatFloat(t, 'g', -1, 64))), nil
	case float32:
		return Number(json.Number(strconv.FormatFloat(float64(t), 'g', -1, 32))), nil
	case []any:
		elems := make([]*Value, 0, len(t))
		for _, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ev)
		}
		return Array(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			ev, err := FromAny(t[k])
			if err != nil {
				return nil, err
			}
			o.Set(k, ev)
		}
		return FromObject(o), nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = e
		}
		return FromAny(m)
	default:
		return nil, fmt.Errorf("unsupported value type %T", x)
	}
}

// ToAny converts v into plain Go values: map[string]any, []any, string,
// bool, nil, int64 for integers and float64 for other numbers.
func (v *Value) ToAny() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindNumber:
		if i, err := v.n.Int64(); err == nil {
			return i
		}
		if f, err := v.n.Float64(); err == nil {
			return f
		}
		return string(v.n)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.keys {
			out[k] = v.obj.vals[k].ToAny()
		}
		return out
	default:
		return nil
	}
}
