package jsonvalue

// Object is a JSON object that remembers key insertion order.
type Object struct {
	keys []string
	vals map[string]*Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]*Value)}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (*Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Set stores v under key. Existing keys keep their position.
func (o *Object) Set(key string, v *Value) {
	if v == nil {
		v = Null()
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	cp := NewObject()
	if o == nil {
		return cp
	}
	cp.keys = make([]string, len(o.keys))
	copy(cp.keys, o.keys)
	for k, v := range o.vals {
		cp.vals[k] = v.Clone()
	}
	return cp
}
