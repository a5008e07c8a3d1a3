package event

import (
	"reflect"
	"slices"
	"sync"

	"github.com/dshills/reactor/internal/event/topic"
)

// TypeRegistry maps payload types to bridge names and back.
// A missing mapping is a normal condition.
type TypeRegistry interface {
	TypeForName(name string) (reflect.Type, bool)
	NameForType(t reflect.Type) (string, bool)
}

// ChannelFactory is implemented by registries that can construct the
// channel for a type they know only at run time. Types implements it.
type ChannelFactory interface {
	newChannel(t reflect.Type, a *Aggregator) (EventBase, bool)
}

type binding struct {
	name    string
	typ     reflect.Type
	factory func(*Aggregator) EventBase
}

// Types is the concrete TypeRegistry. It is safe for concurrent use.
type Types struct {
	mu     sync.RWMutex
	byName map[string]*binding
	byType map[reflect.Type]*binding
}

// NewTypes creates an empty binding table.
func NewTypes() *Types {
	return &Types{
		byName: make(map[string]*binding),
		byType: make(map[reflect.Type]*binding),
	}
}

// Bind binds payload type T to name. Binding the same pair again succeeds;
// binding either side to a different counterpart fails with
// DuplicateBindingError.
func Bind[T any](types *Types, name string) error {
	if _, err := topic.Parse(name); err != nil {
		return err
	}

	t := reflect.TypeFor[T]()

	types.mu.Lock()
	defer types.mu.Unlock()

	if b, ok := types.byName[name]; ok {
		if b.typ == t {
			return nil
		}
		return &DuplicateBindingError{Name: name, Type: t.String(), Existing: b.typ.String()}
	}
	if b, ok := types.byType[t]; ok {
		return &DuplicateBindingError{Name: name, Type: t.String(), Existing: "name " + b.name}
	}

	b := &binding{
		name: name,
		typ:  t,
		factory: func(a *Aggregator) EventBase {
			return newChannel[T](a)
		},
	}
	types.byName[name] = b
	types.byType[t] = b
	return nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](types *Types, name string) {
	if err := Bind[T](types, name); err != nil {
		panic(err)
	}
}

// TypeForName implements TypeRegistry.
func (r *Types) TypeForName(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.byName[name]; ok {
		return b.typ, true
	}
	return nil, false
}

// NameForType implements TypeRegistry.
func (r *Types) NameForType(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.byType[t]; ok {
		return b.name, true
	}
	return "", false
}

// Names returns all bound names in sorted order.
func (r *Types) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Len returns the number of bindings.
func (r *Types) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func (r *Types) newChannel(t reflect.Type, a *Aggregator) (EventBase, bool) {
	r.mu.RLock()
	b, ok := r.byType[t]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return b.factory(a), true
}
