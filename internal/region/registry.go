package region

import (
	"log/slog"
	"slices"
	"sync"
)

// Registry owns all named regions and the views registered for them.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	regions map[string]Region
	pending map[string][]ControlType

	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		regions: make(map[string]Region),
		pending: make(map[string][]ControlType),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "region")
	return r
}

// RegisterViewForRegion records controlType to be added to the named region
// when a host is associated with it. Views are added in registration order.
// The region does not need to exist yet.
func (r *Registry) RegisterViewForRegion(controlType ControlType, regionName string) *Registry {
	name := Canonical(regionName)

	r.mu.Lock()
	r.pending[name] = append(r.pending[name], controlType)
	_, associated := r.regions[name]
	r.mu.Unlock()

	if associated {
		r.logger.Debug("view registered for associated region; applies on next association",
			"region", name, "control", controlType.String())
	}
	return r
}

// RegisterView is the generic form of RegisterViewForRegion.
func RegisterView[T any](r *Registry, regionName string) *Registry {
	return r.RegisterViewForRegion(TypeOf[T](), regionName)
}

// AssociateRegion binds host to a new content region with the given name and
// adds any pending views to it.
func (r *Registry) AssociateRegion(host ContentHost, regionName string) (Region, error) {
	return associate[ContentHost](r, ContentAdapter{}, host, regionName)
}

// AssociateListRegion binds host to a new list region with the given name and
// adds any pending views to it.
func (r *Registry) AssociateListRegion(host ListHost, regionName string) (Region, error) {
	return associate[ListHost](r, ListAdapter{}, host, regionName)
}

func associate[H any](r *Registry, adapter Adapter[H], host H, regionName string) (Region, error) {
	name := Canonical(regionName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.regions[name]; exists {
		return nil, &DuplicateRegionError{Name: name}
	}

	reg := adapter.Create(name)
	if err := adapter.Associate(reg, host); err != nil {
		return nil, err
	}

	// Replay runs under the lock so a concurrent association of the same name
	// cannot interleave. Hosts must not call back into the registry here.
	views := r.pending[name]
	for _, view := range views {
		reg.Add(view)
	}
	r.regions[name] = reg

	r.logger.Debug("region associated", "region", name, "views", len(views))
	return reg, nil
}

// Region returns the region with the given name.
func (r *Registry) Region(name string) (Region, error) {
	name = Canonical(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regions[name]
	if !ok {
		return nil, &UnknownRegionError{Name: name}
	}
	return reg, nil
}

// RemoveRegion clears the region's content and forgets it. Pending views
// registered for the name are kept and replayed if the name is associated
// again.
func (r *Registry) RemoveRegion(name string) error {
	name = Canonical(name)

	r.mu.Lock()
	reg, ok := r.regions[name]
	if ok {
		delete(r.regions, name)
	}
	r.mu.Unlock()

	if !ok {
		return &UnknownRegionError{Name: name}
	}
	reg.Clear()

	r.logger.Debug("region removed", "region", name)
	return nil
}

// Names returns the associated region names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.regions))
	for name := range r.regions {
		names = append(names, name)
	}
	r.mu.Unlock()

	slices.Sort(names)
	return names
}

// PendingViews returns the views registered for the named region.
func (r *Registry) PendingViews(name string) []ControlType {
	name = Canonical(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pending[name])
}
