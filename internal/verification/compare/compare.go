// Package compare diffs a verification record against the expected record.
//
// Comparison is strict: an observed value matches only if it is a string equal
// byte-for-byte to the expected value. Numbers, booleans, nil and missing keys
// never match, and no case or whitespace normalization is applied.
package compare

import "fmt"

// Field is one entry of the expected record.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Observed is the record returned by a verification call. Keys that are not in
// the expected record are ignored.
type Observed map[string]any

// Expected is an ordered, immutable field-name to value mapping.
type Expected struct {
	fields []Field
	index  map[string]int
}

// NewExpected builds an Expected from fields, preserving their order. A blank
// label defaults to the key; a repeated key is an error.
func NewExpected(fields []Field) (Expected, error) {
	out := Expected{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Key == "" {
			return Expected{}, fmt.Errorf("expected record: empty field key")
		}
		if _, dup := out.index[f.Key]; dup {
			return Expected{}, fmt.Errorf("expected record: duplicate field %q", f.Key)
		}
		if f.Label == "" {
			f.Label = f.Key
		}
		out.index[f.Key] = len(out.fields)
		out.fields = append(out.fields, f)
	}
	return out, nil
}

// MustExpected is NewExpected for package-level fixtures.
func MustExpected(fields []Field) Expected {
	e, err := NewExpected(fields)
	if err != nil {
		panic(err)
	}
	return e
}

// Fields returns a copy of the fields in order.
func (e Expected) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Keys returns the field names in order.
func (e Expected) Keys() []string {
	keys := make([]string, len(e.fields))
	for i, f := range e.fields {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of expected fields.
func (e Expected) Len() int {
	return len(e.fields)
}

// Lookup returns the field stored under key.
func (e Expected) Lookup(key string) (Field, bool) {
	i, ok := e.index[key]
	if !ok {
		return Field{}, false
	}
	return e.fields[i], true
}

// Record returns the expected values as an Observed, which is what a
// verification service returns when every field matches.
func (e Expected) Record() Observed {
	out := make(Observed, len(e.fields))
	for _, f := range e.fields {
		out[f.Key] = f.Value
	}
	return out
}

// Mismatches returns the keys of expected, in order, whose observed value is
// not strictly equal to the expected value. A nil observed record mismatches
// every key. The result is never nil.
func Mismatches(observed Observed, expected Expected) []string {
	out := make([]string, 0)
	for _, f := range expected.fields {
		if !matches(observed, f) {
			out = append(out, f.Key)
		}
	}
	return out
}

func matches(observed Observed, f Field) bool {
	v, ok := observed[f.Key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == f.Value
}
