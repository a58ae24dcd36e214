package config

import "fmt"

// Value is one field of a configuration document. Set records whether the
// key was present at all; Data holds whatever the author actually wrote,
// decoded without type coercion, so validation can report the real type
// instead of failing the parse.
type Value struct {
	Set  bool
	Data any
}

// String returns the field as a string when it holds one.
func (v Value) String() (string, bool) {
	s, ok := v.Data.(string)
	return s, ok
}

// Int returns the field as an int when it holds one.
func (v Value) Int() (int, bool) {
	i, ok := v.Data.(int)
	return i, ok
}

// Bool returns the field as a bool when it holds one.
func (v Value) Bool() (bool, bool) {
	b, ok := v.Data.(bool)
	return b, ok
}

// List returns the field as a generic sequence when it holds one.
func (v Value) List() ([]any, bool) {
	l, ok := v.Data.([]any)
	return l, ok
}

// Mapping returns the field as a generic mapping when it holds one.
func (v Value) Mapping() (map[string]any, bool) {
	m, ok := v.Data.(map[string]any)
	return m, ok
}

// TypeName returns the user-facing name of a decoded YAML value's type,
// used in messages that report a field of the wrong kind.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64:
		return "integer"
	case float64:
		return "float"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	case *SecurityGroup:
		return "mapping"
	case []GroupEntry:
		return "mapping"
	case *Rule:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
