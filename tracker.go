package reflective

// cycleTracker records the targets currently under construction, in entry order.
type cycleTracker struct {
	active map[string]bool
	chain  []string
}

func newCycleTracker() *cycleTracker {
	return &cycleTracker{active: make(map[string]bool)}
}

// enter marks name as in progress. A name already in progress is a circular reference.
func (t *cycleTracker) enter(name string) error {
	if t.active[name] {
		return CircularReferenceError{
			Name:  name,
			Chain: append([]string(nil), t.chain...),
		}
	}
	t.active[name] = true
	t.chain = append(t.chain, name)
	return nil
}

// leave releases name. It must be paired with a successful enter.
func (t *cycleTracker) leave(name string) {
	delete(t.active, name)
	for i := len(t.chain) - 1; i >= 0; i-- {
		if t.chain[i] == name {
			t.chain = append(t.chain[:i], t.chain[i+1:]...)
			break
		}
	}
}

func (t *cycleTracker) depth() int {
	return len(t.chain)
}
