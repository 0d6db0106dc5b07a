// Package resolver implements the three analysis passes over parsed
// Solidity source units: declaration collection, inheritance
// linearization, and scope-aware call resolution into a clustered graph.
package resolver

import (
	"errors"

	"solgraph/internal/graph"
)

// GlobalScope is the reserved pseudo-contract holding file-level
// declarations. It is an implicit ancestor of every contract and its
// name cannot collide with user code: Solidity identifiers never start
// with a digit.
const GlobalScope = "0_global"

// Synthetic member names for declarations without a user-facing name.
const (
	ConstructorName  = "<Constructor>"
	FallbackName     = "<Fallback>"
	ReceiveEtherName = "<Receive Ether>"
)

var (
	// ErrEmptyInput is returned when no source units were provided.
	ErrEmptyInput = errors.New("no input sources")
	// ErrInconsistentInheritance is returned when no valid C3
	// linearization exists for a contract hierarchy.
	ErrInconsistentInheritance = errors.New("inconsistent inheritance hierarchy")
)

// Options configures a resolution run.
type Options struct {
	// EnableModifierEdges emits an edge from a function to each modifier
	// it invokes.
	EnableModifierEdges bool
	// ResolveLibraryDispatch re-targets member calls on using-for types
	// to the registered library. When false the edge keeps pointing at
	// the raw object.
	ResolveLibraryDispatch bool
	// ExpandImports runs the import-closure resolver over the seed file
	// list before analysis. Consumed by the shell, not the passes.
	ExpandImports bool
	// ColorScheme styles clusters, nodes and edges. Defaults apply when
	// nil.
	ColorScheme *graph.ColorScheme
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ResolveLibraryDispatch: true,
		ColorScheme:            graph.DefaultColorScheme(),
	}
}
