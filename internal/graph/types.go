// Package graph holds the clustered call-graph model built by the
// resolver and its DOT serialization.
package graph

// Node represents one callable declaration (function, modifier,
// constructor, fallback) or a synthesized external target.
type Node struct {
	Name    string            `json:"name"`    // qualified "Contract.member"
	Label   string            `json:"label"`   // member name shown in the graph
	Cluster string            `json:"cluster"` // owning contract cluster
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// EdgeKind classifies a resolved call site.
type EdgeKind string

const (
	EdgeRegular  EdgeKind = "regular"  // plain function call
	EdgeExternal EdgeKind = "external" // member/external call
	EdgeError    EdgeKind = "error"    // custom error invocation
	EdgeModifier EdgeKind = "modifier" // modifier invocation on a function
	EdgeThis     EdgeKind = "this"     // this.f() on the current contract
	EdgeSuper    EdgeKind = "super"    // super.f() ancestor dispatch
)

// Edge represents a call from one node to another.
type Edge struct {
	From  string            `json:"from"`
	To    string            `json:"to"`
	Kind  EdgeKind          `json:"kind"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Cluster is a named visual grouping corresponding to one contract,
// either declared in the analyzed sources or inferred as external.
type Cluster struct {
	Name    string            `json:"name"`
	Defined bool              `json:"defined"`
	Attrs   map[string]string `json:"attrs,omitempty"`

	nodeOrder []string
}
