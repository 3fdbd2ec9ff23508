package aspen

// Handle refers to a texture or shader owned by a ResourceManager. The zero
// Handle refers to nothing. A handle goes stale when its resource is
// destroyed, even if the slot is later reused.
type Handle struct {
	Index      uint32 `yaml:"index"`
	Generation uint32 `yaml:"generation"`
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool { return h.Index == 0 }

type arenaSlot[T any] struct {
	gen uint32
	val *T
}

// arena stores values in reusable slots. Slot i is addressed by Index i+1 so
// that the zero Handle is never valid.
type arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
	live  int
}

func (a *arena[T]) insert(v *T) Handle {
	var i uint32
	if n := len(a.free); n > 0 {
		i = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, arenaSlot[T]{})
		i = uint32(len(a.slots) - 1)
	}
	s := &a.slots[i]
	s.gen++
	s.val = v
	a.live++
	return Handle{Index: i + 1, Generation: s.gen}
}

func (a *arena[T]) get(h Handle) (*T, bool) {
	if h.Index == 0 || int(h.Index) > len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index-1]
	if s.val == nil || s.gen != h.Generation {
		return nil, false
	}
	return s.val, true
}

func (a *arena[T]) remove(h Handle) (*T, bool) {
	v, ok := a.get(h)
	if !ok {
		return nil, false
	}
	a.slots[h.Index-1].val = nil
	a.free = append(a.free, h.Index-1)
	a.live--
	return v, true
}

func (a *arena[T]) len() int { return a.live }

// each calls fn for every live value in slot order.
func (a *arena[T]) each(fn func(Handle, *T)) {
	for i := range a.slots {
		if s := &a.slots[i]; s.val != nil {
			fn(Handle{Index: uint32(i) + 1, Generation: s.gen}, s.val)
		}
	}
}
