package region

import (
	"slices"
	"sync"
)

// listRegion appends controls to a ListHost.
type listRegion struct {
	name string
	gen  uint64

	mu    sync.Mutex
	host  ListHost
	id    int64
	items []ControlToken
}

func newListRegion(name string) *listRegion {
	return &listRegion{name: name, gen: nextGeneration()}
}

func (r *listRegion) Name() string {
	return r.name
}

func (r *listRegion) Add(controlType ControlType, params ...ControlParameter) ControlToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.id++
	token := ControlToken{region: r.name, gen: r.gen, id: r.id}
	r.items = append(r.items, token)

	if r.host != nil {
		r.host.InsertItem(Content{
			Type:   controlType,
			Token:  token,
			Params: copyParams(params),
		})
	}
	return token
}

func (r *listRegion) AddWithContext(controlType ControlType, dataContext any) ControlToken {
	return r.Add(controlType, Param(DataContextParameter, dataContext))
}

func (r *listRegion) Remove(token ControlToken) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.Index(r.items, token)
	if idx < 0 {
		return
	}
	r.items = slices.Delete(r.items, idx, idx+1)

	if r.host != nil {
		r.host.RemoveItem(token)
	}
}

func (r *listRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	if r.host != nil {
		r.host.ClearItems()
	}
}

func (r *listRegion) bind(host ListHost) {
	r.mu.Lock()
	r.host = host
	r.mu.Unlock()
}

// Items returns the tokens of the controls currently listed, oldest first.
func (r *listRegion) Items() []ControlToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}
