// Package server exposes the call-graph analyzer over the Model Context
// Protocol so agents can run analyses and query callers/callees without
// shelling out to the CLI.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"solgraph/internal/graph"
	"solgraph/internal/importer"
	"solgraph/internal/parser"
	"solgraph/internal/resolver"
	"solgraph/internal/store"
)

const serverVersion = "0.3.0"

const systemPrompt = `# Solidity Call Graph Server

Run the "analyze" tool first to build the call graph for the project,
then query it:

- analyze: parse the given files (or the whole project) and build the graph
- graph_dot: return the current graph in Graphviz DOT format
- find_callers: list call sites targeting a function
- find_callees: list calls made by a function
- status: report the last analysis run

Function names may be given bare ("transfer") or qualified with their
contract ("Token.transfer").`

// Config carries everything the server needs at construction time.
type Config struct {
	Root      string
	Parser    parser.Parser
	Options   resolver.Options
	StorePath string // ":memory:" when unset
}

// Server holds one analysis snapshot at a time. Analyses replace the
// snapshot atomically; queries read whatever was last built.
type Server struct {
	mcpServer *mcp.Server
	root      string
	parser    parser.Parser
	opts      resolver.Options
	store     *store.Store

	mu         sync.RWMutex
	g          *graph.Graph
	files      []string
	analyzedAt time.Time
	lastErr    error
}

func New(cfg Config) (*Server, error) {
	storePath := cfg.StorePath
	if storePath == "" {
		storePath = ":memory:"
	}
	st, err := store.Open(storePath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "solgraph",
			Version: serverVersion,
		}, nil),
		root:   cfg.Root,
		parser: cfg.Parser,
		opts:   cfg.Options,
		store:  st,
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[server] Serving MCP on stdio (root=%s)", s.root)
	defer s.store.Close()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// analyze builds a fresh graph from the given seeds (or the whole
// project when none are given) and replaces the stored snapshot.
func (s *Server) analyze(ctx context.Context, seeds []string, expand bool) (string, error) {
	if len(seeds) == 0 {
		all, err := importer.ListSources(s.root)
		if err != nil {
			return "", err
		}
		seeds = all
	}

	res, err := importer.NewResolver(s.root, s.parser)
	if err != nil {
		return "", err
	}
	files, units, err := res.ResolveUnits(seeds, expand || s.opts.ExpandImports)
	if err != nil {
		s.setError(err)
		return "", err
	}

	g, err := resolver.Analyze(units, s.opts)
	if err != nil {
		s.setError(err)
		return "", err
	}

	if err := s.store.SaveGraph(ctx, g); err != nil {
		s.setError(err)
		return "", err
	}

	s.mu.Lock()
	s.g = g
	s.files = files
	s.analyzedAt = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	return fmt.Sprintf("Analyzed %d files: %d nodes, %d edges",
		len(files), len(g.Nodes()), len(g.Edges())), nil
}

func (s *Server) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// snapshot returns the current graph, or nil when no analysis has run.
func (s *Server) snapshot() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g
}
