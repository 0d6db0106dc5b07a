package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// legend is the static fragment appended before the graph's closing
// delimiter, documenting edge and cluster color semantics.
const legend = `
subgraph cluster_solgraph_legend {
label = "Legend"
style = "rounded"
fontsize = 10
node [shape=plaintext fontsize=10]
legend_key [label=<<table border="0" cellborder="0" cellspacing="2">
<tr><td align="left"><font color="green4">green</font></td><td align="left">internal call</td></tr>
<tr><td align="left"><font color="orange">orange</font></td><td align="left">external / member call</td></tr>
<tr><td align="left"><font color="red">red dashed</font></td><td align="left">custom error</td></tr>
<tr><td align="left"><font color="purple">purple</font></td><td align="left">super dispatch</td></tr>
<tr><td align="left"><font color="gray">gray dotted</font></td><td align="left">modifier invocation</td></tr>
<tr><td align="left">filled cluster</td><td align="left">contract defined in sources</td></tr>
<tr><td align="left">dashed cluster</td><td align="left">external / undefined contract</td></tr>
</table>>]
}
`

// WriteDOT serializes the graph as a Graphviz digraph. Clusters, nodes
// and edges appear in insertion order; attribute maps are emitted in
// sorted key order so output is deterministic.
func (g *Graph) WriteDOT(w io.Writer) error {
	var b strings.Builder

	b.WriteString("digraph G {\n")
	b.WriteString("rankdir=LR\n")
	b.WriteString("node [shape=box style=filled fillcolor=white]\n")

	for i, c := range g.Clusters() {
		fmt.Fprintf(&b, "subgraph cluster_%d {\n", i)
		fmt.Fprintf(&b, "label = %q\n", c.Name)
		for _, kv := range sortedAttrs(c.Attrs) {
			fmt.Fprintf(&b, "%s = %q\n", kv[0], kv[1])
		}
		for _, n := range g.clusterNodes(c) {
			fmt.Fprintf(&b, "%q [label=%q%s]\n", n.Name, n.Label, inlineAttrs(n.Attrs))
		}
		b.WriteString("}\n")
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "%q -> %q", e.From, e.To)
		if attrs := inlineAttrs(e.Attrs); attrs != "" {
			fmt.Fprintf(&b, " [%s]", strings.TrimPrefix(attrs, " "))
		}
		b.WriteString("\n")
	}

	b.WriteString(legend)
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// DOT returns the serialized graph as a string.
func (g *Graph) DOT() string {
	var b strings.Builder
	g.WriteDOT(&b) // strings.Builder never errors
	return b.String()
}

func sortedAttrs(attrs map[string]string) [][2]string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, attrs[k]})
	}
	return out
}

func inlineAttrs(attrs map[string]string) string {
	var b strings.Builder
	for _, kv := range sortedAttrs(attrs) {
		fmt.Fprintf(&b, " %s=%q", kv[0], kv[1])
	}
	return b.String()
}
