package region

import "errors"

// Sentinel errors for region management.
var (
	// ErrDuplicateRegion is returned when a region name is associated twice.
	ErrDuplicateRegion = errors.New("region already associated")

	// ErrUnknownRegion is returned when a region name has no association.
	ErrUnknownRegion = errors.New("unknown region")
)

// DuplicateRegionError reports a second association of the same region name.
type DuplicateRegionError struct {
	Name string
}

func (e *DuplicateRegionError) Error() string {
	return "region " + e.Name + " is already associated with a host"
}

// Is allows errors.Is to match ErrDuplicateRegion.
func (e *DuplicateRegionError) Is(target error) bool {
	return target == ErrDuplicateRegion
}

// UnknownRegionError reports a lookup of a region that was never associated
// or has been removed.
type UnknownRegionError struct {
	Name string
}

func (e *UnknownRegionError) Error() string {
	return "region " + e.Name + " is not registered"
}

// Is allows errors.Is to match ErrUnknownRegion.
func (e *UnknownRegionError) Is(target error) bool {
	return target == ErrUnknownRegion
}
