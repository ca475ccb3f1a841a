package validator

import "github.com/arturoeanton/goxmlkit/internal/dtd"

// emptyState is the compiled form of EMPTY: accepts no children, already
// complete before any are seen.
type emptyState struct{}

func (s *emptyState) Reset()                 {}
func (s *emptyState) Allow(name string) bool { return false }
func (s *emptyState) AllowCharData() bool    { return false }
func (s *emptyState) Done() bool             { return true }
func (s *emptyState) clone() State           { return &emptyState{} }

// anyState is the compiled form of ANY: accepts every child name and
// character data, unconditionally complete.
type anyState struct{}

func (s *anyState) Reset()                 {}
func (s *anyState) Allow(name string) bool { return true }
func (s *anyState) AllowCharData() bool    { return true }
func (s *anyState) Done() bool             { return true }
func (s *anyState) clone() State           { return &anyState{} }

// mixedState is the compiled form of "(#PCDATA|a|b|...)*": any of the
// listed names may recur in any order and any number of times, and
// character data is always welcome.
type mixedState struct {
	names []string
}

func (s *mixedState) Reset() {}
func (s *mixedState) Allow(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}
func (s *mixedState) AllowCharData() bool { return true }
func (s *mixedState) Done() bool          { return true }
func (s *mixedState) clone() State {
	return &mixedState{names: append([]string(nil), s.names...)}
}

// elementState is a single "element(name)" atom: accepts that one name
// exactly once, then is done.
type elementState struct {
	name    string
	matched bool
}

func (s *elementState) Reset() { s.matched = false }
func (s *elementState) Allow(name string) bool {
	if s.matched || name != s.name {
		return false
	}
	s.matched = true
	return true
}
func (s *elementState) AllowCharData() bool { return false }
func (s *elementState) Done() bool          { return s.matched }
func (s *elementState) clone() State        { return &elementState{name: s.name, matched: s.matched} }

// seqState holds an ordered list of sub-states: it advances
// past the current sub-state only once that sub-state reports Done() and
// still rejects the incoming name.
type seqState struct {
	states []State
	idx    int
}

func (s *seqState) Reset() {
	s.idx = 0
	for _, sub := range s.states {
		sub.Reset()
	}
}

func (s *seqState) Allow(name string) bool {
	for s.idx < len(s.states) {
		cur := s.states[s.idx]
		if cur.Allow(name) {
			return true
		}
		if cur.Done() {
			s.idx++
			continue
		}
		return false
	}
	return false
}

func (s *seqState) AllowCharData() bool { return false }

func (s *seqState) Done() bool {
	for i := s.idx; i < len(s.states); i++ {
		if !s.states[i].Done() {
			return false
		}
	}
	return true
}

func (s *seqState) clone() State {
	c := &seqState{states: make([]State, len(s.states)), idx: s.idx}
	for i, sub := range s.states {
		c.states[i] = sub.clone()
	}
	return c
}

// choiceState commits to the first sub-state that accepts the incoming
// name and thereafter forwards to that sub-state exclusively — no
// backtracking onto a different alternative once committed.
type choiceState struct {
	states    []State
	committed int // -1 until a branch accepts
}

func (s *choiceState) Reset() {
	s.committed = -1
	for _, sub := range s.states {
		sub.Reset()
	}
}

func (s *choiceState) Allow(name string) bool {
	if s.committed >= 0 {
		return s.states[s.committed].Allow(name)
	}
	for i, sub := range s.states {
		if sub.Allow(name) {
			s.committed = i
			return true
		}
	}
	return false
}

func (s *choiceState) AllowCharData() bool {
	if s.committed < 0 {
		return false
	}
	return s.states[s.committed].AllowCharData()
}

func (s *choiceState) Done() bool {
	if s.committed < 0 {
		// Nothing chosen yet: complete only if some alternative may be empty.
		for _, sub := range s.states {
			if sub.Done() {
				return true
			}
		}
		return false
	}
	return s.states[s.committed].Done()
}

func (s *choiceState) clone() State {
	c := &choiceState{states: make([]State, len(s.states)), committed: s.committed}
	for i, sub := range s.states {
		c.states[i] = sub.clone()
	}
	return c
}

// repState wraps an inner state with a ?, * or + repetition: it
// re-seeds the inner state on each completed acceptance cycle
// for * and +; ? forbids a second cycle outright by never re-seeding.
type repState struct {
	inner State
	quant dtd.Quant
	count int
}

func (s *repState) Reset() {
	s.count = 0
	s.inner.Reset()
}

func (s *repState) Allow(name string) bool {
	if s.inner.Allow(name) {
		s.count++
		return true
	}
	if (s.quant == dtd.QStar || s.quant == dtd.QPlus) && s.inner.Done() {
		saved := s.inner.clone()
		s.inner.Reset()
		if s.inner.Allow(name) {
			s.count++
			return true
		}
		s.inner = saved // restart attempt failed; keep the completed cycle intact
	}
	return false
}

func (s *repState) AllowCharData() bool { return s.inner.AllowCharData() }

func (s *repState) Done() bool {
	switch s.quant {
	case dtd.QPlus:
		return s.count >= 1 && s.inner.Done()
	default: // QOpt, QStar
		return s.count == 0 || s.inner.Done()
	}
}

func (s *repState) clone() State {
	return &repState{inner: s.inner.clone(), quant: s.quant, count: s.count}
}
