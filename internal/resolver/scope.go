package resolver

// Scope is the local-variable environment active while resolving calls
// inside one function or modifier body. It is created on entering the
// body and discarded on exit, never persisted.
type Scope struct {
	// node is the qualified graph-node name of the enclosing
	// declaration; every emitted edge originates here.
	node string

	locals     map[string]string // name -> canonical elementary type
	userLocals map[string]string // name -> user-defined type name
}

func newScope(node string) *Scope {
	return &Scope{
		node:       node,
		locals:     make(map[string]string),
		userLocals: make(map[string]string),
	}
}

// declare binds a local variable (including parameters and return
// parameters). Locals shadow state variables of the same name.
func (s *Scope) declare(name string, vt VarType) {
	if name == "" {
		return
	}
	if vt.UserDefined {
		s.userLocals[name] = vt.Name
	} else {
		s.locals[name] = vt.Name
	}
}
