package compiler

// scopeStack tracks the loop-item variable names visible at the current point
// of the validation recursion. A name is visible only between its push
// (entering the loop body) and pop (returning from it); nested loops add
// without removing outer names. The stack brackets validation, not indexing.
type scopeStack struct {
	names []string
}

// push makes name visible for the subtree about to be validated.
func (s *scopeStack) push(name string) {
	s.names = append(s.names, name)
}

// pop removes the most recent binding of name. Callers pair every push with
// exactly one pop around the same subtree.
func (s *scopeStack) pop(name string) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if s.names[i] == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			return
		}
	}
}

// isInScope reports whether name is currently visible.
func (s *scopeStack) isInScope(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// active returns the currently visible names, innermost last.
func (s *scopeStack) active() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
