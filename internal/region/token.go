package region

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
)

// DataContextParameter is the parameter name used by AddWithContext.
const DataContextParameter = "DataContext"

// ControlToken identifies one placed control instance within a region.
// The zero value is never issued by a region. Tokens also carry the
// generation of the region instance that issued them, so a token from a
// removed region never matches a region later associated under the same
// name.
type ControlToken struct {
	region string
	gen    uint64
	id     int64
}

var generations atomic.Uint64

// nextGeneration returns a generation no other region instance has.
func nextGeneration() uint64 {
	return generations.Add(1)
}

// ID returns the token's sequence number within its region.
func (t ControlToken) ID() int64 {
	return t.id
}

// Region returns the canonical name of the region that issued the token.
func (t ControlToken) Region() string {
	return t.region
}

// IsZero reports whether the token is the zero value.
func (t ControlToken) IsZero() bool {
	return t.id == 0
}

// String returns "region#id".
func (t ControlToken) String() string {
	return fmt.Sprintf("%s#%d", t.region, t.id)
}

// ControlParameter is a named argument passed to a control instance.
// It is immutable once constructed.
type ControlParameter struct {
	name  string
	value any
}

// Param creates a ControlParameter.
func Param(name string, value any) ControlParameter {
	return ControlParameter{name: name, value: value}
}

// Name returns the parameter name.
func (p ControlParameter) Name() string {
	return p.name
}

// Value returns the parameter value.
func (p ControlParameter) Value() any {
	return p.value
}

// ControlType identifies a kind of control that a host knows how to render.
// ControlType values are comparable.
type ControlType struct {
	t reflect.Type
}

// TypeOf returns the ControlType for T.
func TypeOf[T any]() ControlType {
	return ControlType{t: reflect.TypeFor[T]()}
}

// TypeFromReflect wraps a reflect.Type.
func TypeFromReflect(t reflect.Type) ControlType {
	return ControlType{t: t}
}

// Reflect returns the underlying reflect.Type, or nil for the zero value.
func (c ControlType) Reflect() reflect.Type {
	return c.t
}

// IsZero reports whether c is the zero ControlType.
func (c ControlType) IsZero() bool {
	return c.t == nil
}

// Name returns the type's identifier without package path.
// Pointer types report the name of their element type.
func (c ControlType) Name() string {
	if c.t == nil {
		return ""
	}
	t := c.t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// String returns the package-qualified type name.
func (c ControlType) String() string {
	if c.t == nil {
		return "<nil>"
	}
	return c.t.String()
}

// Canonical returns the canonical form of a region name.
func Canonical(name string) string {
	return strings.ToLower(name)
}
