package region

import "sync"

// contentRegion shows one control at a time on a ContentHost.
type contentRegion struct {
	name string
	gen  uint64

	mu      sync.Mutex
	host    ContentHost
	id      int64
	current ControlToken
}

func newContentRegion(name string) *contentRegion {
	return &contentRegion{name: name, gen: nextGeneration()}
}

func (r *contentRegion) Name() string {
	return r.name
}

func (r *contentRegion) Add(controlType ControlType, params ...ControlParameter) ControlToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.id++
	token := ControlToken{region: r.name, gen: r.gen, id: r.id}
	r.current = token

	if r.host != nil {
		r.host.SetContent(&Content{
			Type:   controlType,
			Token:  token,
			Params: copyParams(params),
		})
	}
	return token
}

func (r *contentRegion) AddWithContext(controlType ControlType, dataContext any) ControlToken {
	return r.Add(controlType, Param(DataContextParameter, dataContext))
}

func (r *contentRegion) Remove(token ControlToken) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.IsZero() || token != r.current {
		return
	}
	r.current = ControlToken{}

	if r.host != nil {
		r.host.SetContent(nil)
	}
}

func (r *contentRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = ControlToken{}
	if r.host != nil {
		r.host.SetContent(nil)
	}
}

func (r *contentRegion) bind(host ContentHost) {
	r.mu.Lock()
	r.host = host
	r.mu.Unlock()
}

// Current returns the token of the control currently shown, if any.
func (r *contentRegion) Current() (ControlToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, !r.current.IsZero()
}
