package navigation

import (
	"errors"
	"fmt"

	"github.com/dshills/reactor/internal/region"
)

// Sentinel errors for navigation.
var (
	ErrNameConflict      = errors.New("navigation name already registered to another control")
	ErrInvalidName       = errors.New("invalid navigation name")
	ErrUnresolvedName    = errors.New("no control registered for navigation name")
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")
	ErrInvalidLocator    = errors.New("invalid locator")
)

// NameConflictError reports an attempt to bind a name to a second control type.
type NameConflictError struct {
	Name      string
	Existing  region.ControlType
	Requested region.ControlType
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("navigation name %q already registered to %s, cannot bind %s", e.Name, e.Existing, e.Requested)
}

func (e *NameConflictError) Is(target error) bool { return target == ErrNameConflict }

// InvalidNameError reports a navigation name that does not start with the
// path separator.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("navigation name %q must start with %q", e.Name, PathSeparator)
}

func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }

// UnresolvedNameError reports navigation to a name with no registration.
type UnresolvedNameError struct {
	Locator string
	Name    string
}

func (e *UnresolvedNameError) Error() string {
	return fmt.Sprintf("no registration found for %s", e.Locator)
}

func (e *UnresolvedNameError) Is(target error) bool { return target == ErrUnresolvedName }

// UnsupportedSchemeError reports a locator whose scheme is not the
// application navigation scheme.
type UnsupportedSchemeError struct {
	Scheme string
	Want   string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported scheme %q (want %q)", e.Scheme, e.Want)
}

func (e *UnsupportedSchemeError) Is(target error) bool { return target == ErrUnsupportedScheme }

// InvalidLocatorError reports a locator string that cannot be parsed.
type InvalidLocatorError struct {
	Locator string
	Err     error
}

func (e *InvalidLocatorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid locator %q", e.Locator)
	}
	return fmt.Sprintf("invalid locator %q: %v", e.Locator, e.Err)
}

func (e *InvalidLocatorError) Unwrap() error { return e.Err }

func (e *InvalidLocatorError) Is(target error) bool { return target == ErrInvalidLocator }
