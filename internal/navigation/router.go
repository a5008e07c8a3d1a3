// Package navigation resolves symbolic locators to controls placed in
// regions.
//
// A locator has the form scheme://region/name, for example
// app://sales/Customer. The name part is looked up in the router's name
// table and the resolved control type is added to the region:
//
//	router := navigation.NewRouter(registry)
//	navigation.Register[Customer](router) // "/Customer"
//	tok, err := router.Navigate("app://sales/Customer")
package navigation

import (
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/reactor/internal/region"
)

const (
	// DefaultScheme is the scheme of application navigation locators.
	DefaultScheme = "app"

	// PathSeparator prefixes every navigation name.
	PathSeparator = "/"
)

// RegionLookup resolves region names. *region.Registry implements it.
type RegionLookup interface {
	Region(name string) (region.Region, error)
}

// Navigation describes a completed navigation.
type Navigation struct {
	Locator string
	Region  string
	Name    string
	Type    region.ControlType
	Token   region.ControlToken
	Params  []region.ControlParameter
}

// Router maps navigation names to control types and performs navigation.
// It is safe for concurrent use.
type Router struct {
	regions RegionLookup
	scheme  string
	logger  *slog.Logger

	mu        sync.RWMutex
	names     map[string]region.ControlType
	observers []func(Navigation)
}

// Option configures a Router.
type Option func(*Router)

// WithScheme overrides the locator scheme.
func WithScheme(scheme string) Option {
	return func(r *Router) {
		if scheme != "" {
			r.scheme = strings.ToLower(scheme)
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a router that navigates into regions.
func NewRouter(regions RegionLookup, opts ...Option) *Router {
	r := &Router{
		regions: regions,
		scheme:  DefaultScheme,
		logger:  slog.Default(),
		names:   make(map[string]region.ControlType),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "navigation")
	return r
}

// Scheme returns the locator scheme accepted by the router.
func (r *Router) Scheme() string {
	return r.scheme
}

// RegisterName binds name to controlType. Registering the same pair again
// succeeds; binding the name to a different type fails with
// NameConflictError.
func (r *Router) RegisterName(controlType region.ControlType, name string) error {
	if !strings.HasPrefix(name, PathSeparator) {
		return &InvalidNameError{Name: name}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.names[name]; ok {
		if existing != controlType {
			return &NameConflictError{Name: name, Existing: existing, Requested: controlType}
		}
		return nil
	}
	r.names[name] = controlType
	return nil
}

// Register binds T under its default name, "/" followed by the type name.
func Register[T any](r *Router) error {
	ct := region.TypeOf[T]()
	return r.RegisterName(ct, DefaultName(ct))
}

// RegisterAs binds T under name.
func RegisterAs[T any](r *Router, name string) error {
	return r.RegisterName(region.TypeOf[T](), name)
}

// DefaultName returns the navigation name derived from a control type.
func DefaultName(ct region.ControlType) string {
	return PathSeparator + ct.Name()
}

// Resolve returns the control type bound to name.
func (r *Router) Resolve(name string) (region.ControlType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.names[name]
	return ct, ok
}

// Names returns the registered navigation names in sorted order.
func (r *Router) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.names))
	for n := range r.names {
		names = append(names, n)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Observe registers fn to be called after every successful navigation.
func (r *Router) Observe(fn func(Navigation)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Navigate parses locator and places the resolved control into its region.
func (r *Router) Navigate(locator string, params ...region.ControlParameter) (region.ControlToken, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return region.ControlToken{}, &InvalidLocatorError{Locator: locator, Err: err}
	}
	return r.NavigateURL(u, params...)
}

// NavigateURL places the control identified by u into its region.
func (r *Router) NavigateURL(u *url.URL, params ...region.ControlParameter) (region.ControlToken, error) {
	if u == nil {
		return region.ControlToken{}, &InvalidLocatorError{}
	}
	if !strings.EqualFold(u.Scheme, r.scheme) {
		return region.ControlToken{}, &UnsupportedSchemeError{Scheme: u.Scheme, Want: r.scheme}
	}
	if u.Host == "" {
		return region.ControlToken{}, &InvalidLocatorError{Locator: u.String()}
	}
	return r.navigate(u.String(), u.Host, u.Path, params)
}

// NavigateTo places the control registered under name into regionName.
// A leading path separator on name is optional.
func (r *Router) NavigateTo(regionName, name string, params ...region.ControlParameter) (region.ControlToken, error) {
	name = PathSeparator + strings.TrimPrefix(name, PathSeparator)
	return r.navigate(r.Locator(regionName, name), regionName, name, params)
}

// Locator formats a locator for regionName and name.
func (r *Router) Locator(regionName, name string) string {
	return r.scheme + "://" + regionName + PathSeparator + strings.TrimPrefix(name, PathSeparator)
}

func (r *Router) navigate(locator, regionName, name string, params []region.ControlParameter) (region.ControlToken, error) {
	ct, ok := r.Resolve(name)
	if !ok {
		return region.ControlToken{}, &UnresolvedNameError{Locator: locator, Name: name}
	}

	target, err := r.regions.Region(regionName)
	if err != nil {
		return region.ControlToken{}, err
	}
	token := target.Add(ct, params...)

	r.logger.Debug("navigated", "locator", locator, "control", ct.String(), "token", token.ID())

	r.mu.RLock()
	observers := slices.Clone(r.observers)
	r.mu.RUnlock()

	nav := Navigation{
		Locator: locator,
		Region:  target.Name(),
		Name:    name,
		Type:    ct,
		Token:   token,
		Params:  params,
	}
	for _, fn := range observers {
		fn(nav)
	}
	return token, nil
}
