package graph

// Graph is an additive builder over clusters, nodes and edges. All
// collections preserve insertion order so identical inputs serialize to
// identical output.
type Graph struct {
	clusters     map[string]*Cluster
	clusterOrder []string
	nodes        map[string]*Node
	nodeOrder    []string
	edges        []*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		clusters: make(map[string]*Cluster),
		nodes:    make(map[string]*Node),
	}
}

// EnsureCluster returns the cluster named name, creating it with the
// given attributes if absent. Attributes of an existing cluster are
// left untouched.
func (g *Graph) EnsureCluster(name string, defined bool, attrs map[string]string) *Cluster {
	if c, ok := g.clusters[name]; ok {
		return c
	}
	c := &Cluster{Name: name, Defined: defined, Attrs: attrs}
	g.clusters[name] = c
	g.clusterOrder = append(g.clusterOrder, name)
	return c
}

// Cluster returns the cluster named name, or nil.
func (g *Graph) Cluster(name string) *Cluster {
	return g.clusters[name]
}

// AddNode adds a node to the named cluster, creating the cluster as an
// external one if needed. Adding an existing node is a no-op returning
// the original.
func (g *Graph) AddNode(cluster, name, label string, attrs map[string]string) *Node {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	c := g.EnsureCluster(cluster, false, nil)
	n := &Node{Name: name, Label: label, Cluster: cluster, Attrs: attrs}
	g.nodes[name] = n
	g.nodeOrder = append(g.nodeOrder, name)
	c.nodeOrder = append(c.nodeOrder, name)
	return n
}

// Node returns the node with the given qualified name, or nil.
func (g *Graph) Node(name string) *Node {
	return g.nodes[name]
}

// AddEdge records a call edge from one qualified node name to another.
func (g *Graph) AddEdge(from, to string, kind EdgeKind, attrs map[string]string) {
	g.edges = append(g.edges, &Edge{From: from, To: to, Kind: kind, Attrs: attrs})
}

// Clusters returns all clusters in insertion order.
func (g *Graph) Clusters() []*Cluster {
	out := make([]*Cluster, 0, len(g.clusterOrder))
	for _, name := range g.clusterOrder {
		out = append(out, g.clusters[name])
	}
	return out
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, name := range g.nodeOrder {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// clusterNodes returns the nodes of c in insertion order.
func (g *Graph) clusterNodes(c *Cluster) []*Node {
	out := make([]*Node, 0, len(c.nodeOrder))
	for _, name := range c.nodeOrder {
		out = append(out, g.nodes[name])
	}
	return out
}
