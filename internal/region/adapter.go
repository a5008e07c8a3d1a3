package region

import "fmt"

// Adapter creates regions for one kind of host and binds them to it.
type Adapter[H any] interface {
	Create(name string) Region
	Associate(r Region, host H) error
}

// ContentAdapter creates regions backed by a ContentHost.
type ContentAdapter struct{}

// Create returns a new unbound content region.
func (ContentAdapter) Create(name string) Region {
	return newContentRegion(name)
}

// Associate binds a region created by this adapter to host.
func (ContentAdapter) Associate(r Region, host ContentHost) error {
	cr, ok := r.(*contentRegion)
	if !ok {
		return fmt.Errorf("content adapter cannot associate region %q of type %T", r.Name(), r)
	}
	cr.bind(host)
	return nil
}

// ListAdapter creates regions backed by a ListHost.
type ListAdapter struct{}

// Create returns a new unbound list region.
func (ListAdapter) Create(name string) Region {
	return newListRegion(name)
}

// Associate binds a region created by this adapter to host.
func (ListAdapter) Associate(r Region, host ListHost) error {
	lr, ok := r.(*listRegion)
	if !ok {
		return fmt.Errorf("list adapter cannot associate region %q of type %T", r.Name(), r)
	}
	lr.bind(host)
	return nil
}
