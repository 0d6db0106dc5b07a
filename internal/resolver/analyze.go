package resolver

import (
	"fmt"

	"solgraph/internal/ast"
	"solgraph/internal/graph"
)

// Analyze runs the full pipeline over the given source units and
// returns the clustered call graph: declaration collection, inheritance
// linearization, node registration, then call resolution. Units are
// processed in the order given; reordering inputs reorders clusters but
// never changes the edge set.
func Analyze(units []*ast.Node, opts Options) (*graph.Graph, error) {
	if len(units) == 0 {
		return nil, ErrEmptyInput
	}
	for _, unit := range units {
		if unit == nil || unit.Kind != ast.KindSourceUnit {
			return nil, fmt.Errorf("analyze: %w", ErrEmptyInput)
		}
	}

	uni := Collect(units)
	lin, err := Linearize(uni)
	if err != nil {
		return nil, err
	}

	cs := opts.ColorScheme
	if cs == nil {
		cs = graph.DefaultColorScheme()
	}

	b := &builder{
		uni:  uni,
		lin:  lin,
		g:    graph.New(),
		opts: opts,
		cs:   cs,
	}
	b.registerNodes(units)
	b.resolveCalls(units)
	return b.g, nil
}
