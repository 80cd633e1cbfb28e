package reflective

// chain tries delegates in order.
type chain []Delegate

// Chain composes delegates. Get is served by the first delegate that has the id;
// when none has it the last delegate's answer is returned.
func Chain(delegates ...Delegate) Delegate {
	c := make(chain, 0, len(delegates))
	for _, d := range delegates {
		if d != nil {
			c = append(c, d)
		}
	}
	return c
}

func (c chain) Get(id string, values Values) (any, error) {
	for _, d := range c {
		if d.Has(id) {
			return d.Get(id, values)
		}
	}
	if len(c) == 0 {
		return nil, NotFoundError{ID: id}
	}
	return c[len(c)-1].Get(id, values)
}

func (c chain) Has(id string) bool {
	for _, d := range c {
		if d.Has(id) {
			return true
		}
	}
	return false
}
