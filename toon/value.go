package toon

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an ordered JSON object. Keys are unique and member order is
// significant: TOON preserves it in both directions.
type Object struct {
	Members []Member
}

// NewObject returns an object holding members in the given order. A repeated
// key replaces the earlier value in place.
func NewObject(members ...Member) *Object {
	o := &Object{Members: make([]Member, 0, len(members))}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if i := o.index(key); i >= 0 {
		return o.Members[i].Value, true
	}
	return nil, false
}

// Set stores value under key. An existing key keeps its position.
func (o *Object) Set(key string, value any) {
	if i := o.index(key); i >= 0 {
		o.Members[i].Value = value
		return
	}
	o.Members = append(o.Members, Member{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	i := o.index(key)
	if i < 0 {
		return false
	}
	o.Members = append(o.Members[:i], o.Members[i+1:]...)
	return true
}

// Keys returns the keys in member order.
func (o *Object) Keys() []string {
	keys := make([]string, o.Len())
	for i := range keys {
		keys[i] = o.Members[i].Key
	}
	return keys
}

func (o *Object) index(key string) int {
	if o == nil {
		return -1
	}
	for i := range o.Members {
		if o.Members[i].Key == key {
			return i
		}
	}
	return -1
}

// MarshalJSON writes the object as compact JSON with members in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return MarshalJSON(o, "")
}

// UnmarshalJSON replaces the contents of o with the JSON object in data.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := ParseJSON(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return &Error{Kind: KindUnexpectedToken, Msg: "JSON value is not an object"}
	}
	o.Members = obj.Members
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	default:
		return false
	}
}
