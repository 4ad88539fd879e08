// SPDX-License-Identifier: MPL-2.0

// Package shaderdef parses shader definitions supplied on the command line.
//
// A definition is either a bare NAME (meaning Bool(true)) or NAME=VALUE where
// VALUE is a boolean literal, a signed 32-bit integer, or an unsigned 32-bit
// integer with a trailing "u". Entries may be joined with semicolons.
package shaderdef

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// KindBool is a boolean definition.
	KindBool Kind = iota + 1
	// KindInt is a signed 32-bit definition.
	KindInt
	// KindUInt is an unsigned 32-bit definition.
	KindUInt

	entrySeparator = ";"
)

var (
	// ErrInvalidValue is the sentinel error wrapped by InvalidValueError.
	ErrInvalidValue = errors.New("invalid definition value")
	// ErrEmptyName is returned when an entry has a value but no name.
	ErrEmptyName = errors.New("definition has an empty name")
)

type (
	// Kind discriminates the Value variants.
	Kind int

	// Value is a typed definition value. The zero value is invalid.
	Value struct {
		kind Kind
		b    bool
		i    int32
		u    uint32
	}

	// Set maps definition names to values.
	Set map[string]Value

	// InvalidValueError is returned when a definition value matches none of the
	// accepted literal forms.
	InvalidValueError struct {
		Name  string
		Value string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid value %q for definition %s: expected true, false, an integer or an integer with a trailing 'u'", e.Value, e.Name)
	}
	return fmt.Sprintf("invalid definition value %q: expected true, false, an integer or an integer with a trailing 'u'", e.Value)
}

// Unwrap returns ErrInvalidValue for errors.Is compatibility.
func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a signed Value.
func Int(i int32) Value { return Value{kind: KindInt, i: i} }

// UInt returns an unsigned Value.
func UInt(u uint32) Value { return Value{kind: KindUInt, u: u} }

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the signed payload and whether v is an Int.
func (v Value) AsInt() (int32, bool) { return v.i, v.kind == KindInt }

// AsUInt returns the unsigned payload and whether v is a UInt.
func (v Value) AsUInt() (uint32, bool) { return v.u, v.kind == KindUInt }

// String renders v the way it would be written in shader source.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindUInt:
		return strconv.FormatUint(uint64(v.u), 10) + "u"
	default:
		return "<invalid>"
	}
}

// GoString makes test failure output readable.
func (v Value) GoString() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.b)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.i)
	case KindUInt:
		return fmt.Sprintf("UInt(%d)", v.u)
	default:
		return "Value{}"
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	return v == other
}

// ParseValue parses the text after '=' in a definition.
func ParseValue(text string) (Value, error) {
	lit := strings.ToLower(strings.TrimSpace(text))
	switch lit {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}

	if digits, ok := strings.CutSuffix(lit, "u"); ok {
		n, err := strconv.ParseUint(digits, 10, 32)
		if err != nil {
			return Value{}, &InvalidValueError{Value: text, Cause: err}
		}
		return UInt(uint32(n)), nil
	}

	n, err := strconv.ParseInt(lit, 10, 32)
	if err != nil {
		return Value{}, &InvalidValueError{Value: text, Cause: err}
	}
	return Int(int32(n)), nil
}

// Gather normalizes the base definitions and then applies the overrides on top.
// Later entries replace earlier ones with the same name.
func Gather(base, override []string) (Set, error) {
	defs := make(Set)
	for _, list := range [][]string{base, override} {
		for _, arg := range list {
			for _, entry := range strings.Split(arg, entrySeparator) {
				if err := defs.apply(entry); err != nil {
					return nil, err
				}
			}
		}
	}
	return defs, nil
}

func (s Set) apply(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}

	name, text, hasValue := strings.Cut(entry, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %q", ErrEmptyName, entry)
	}
	if !hasValue {
		s[name] = Bool(true)
		return nil
	}

	v, err := ParseValue(text)
	if err != nil {
		var ive *InvalidValueError
		if errors.As(err, &ive) {
			ive.Name = name
		}
		return err
	}
	s[name] = v
	return nil
}

// Names returns the definition names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the value for name.
func (s Set) Lookup(name string) (Value, bool) {
	v, ok := s[name]
	return v, ok
}
