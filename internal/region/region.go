package region

// Region is a named composition slot.
type Region interface {
	// Name returns the canonical region name.
	Name() string

	// Add places a control of the given type into the region and returns the
	// token identifying the placed instance.
	Add(controlType ControlType, params ...ControlParameter) ControlToken

	// AddWithContext places a control with a single DataContext parameter.
	AddWithContext(controlType ControlType, dataContext any) ControlToken

	// Remove removes the control identified by token.
	// Stale or unknown tokens are ignored.
	Remove(token ControlToken)

	// Clear detaches all content from the host.
	// Tokens issued before Clear become permanently invalid.
	Clear()
}

// Content describes a placed control instance handed to a host.
type Content struct {
	Type   ControlType
	Token  ControlToken
	Params []ControlParameter
}

// Param returns the value of the named parameter.
func (c Content) Param(name string) (any, bool) {
	for _, p := range c.Params {
		if p.name == name {
			return p.value, true
		}
	}
	return nil, false
}

// ContentHost renders a single control at a time.
type ContentHost interface {
	// SetContent renders c, replacing whatever was shown.
	// A nil c clears the host.
	SetContent(c *Content)
}

// ListHost renders an ordered list of controls.
type ListHost interface {
	InsertItem(c Content)
	RemoveItem(token ControlToken)
	ClearItems()
}

// ContentHostFunc adapts a function to ContentHost.
type ContentHostFunc func(c *Content)

// SetContent implements ContentHost.
func (f ContentHostFunc) SetContent(c *Content) {
	f(c)
}

func copyParams(params []ControlParameter) []ControlParameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]ControlParameter, len(params))
	copy(out, params)
	return out
}
