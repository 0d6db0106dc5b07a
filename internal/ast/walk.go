package ast

// Handler holds the callbacks invoked for one node kind. Enter fires
// before the node's children are visited, Exit after.
type Handler struct {
	Enter func(n *Node)
	Exit  func(n *Node)
}

// Visitor maps node kinds to handlers. Kinds without an entry are
// traversed but trigger no callbacks.
type Visitor map[Kind]Handler

// Walk performs a single depth-first traversal of the tree rooted at n,
// dispatching Enter/Exit handlers by node kind.
func Walk(n *Node, v Visitor) {
	if n == nil {
		return
	}
	h, ok := v[n.Kind]
	if ok && h.Enter != nil {
		h.Enter(n)
	}
	for _, c := range n.children() {
		Walk(c, v)
	}
	if ok && h.Exit != nil {
		h.Exit(n)
	}
}
