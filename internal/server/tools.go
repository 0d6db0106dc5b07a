package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"solgraph/internal/graph"
)

// Arguments structs

type AnalyzeArgs struct {
	Paths  []string `json:"paths" jsonschema:"description:Solidity files to analyze; the whole project when empty"`
	Expand bool     `json:"expand" jsonschema:"description:Follow imports and include the transitive closure"`
}

type GraphDOTArgs struct{}

type FindCallersArgs struct {
	Function string `json:"function" jsonschema:"required,description:Function name, bare or qualified as Contract.member"`
}

type FindCalleesArgs struct {
	Function string `json:"function" jsonschema:"required,description:Function name, bare or qualified as Contract.member"`
}

type StatusArgs struct{}

type edgeInfo struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Kind   string `json:"kind"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze",
		Description: "Parses Solidity sources and builds the call graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, any, error) {
		msg, err := s.analyze(ctx, args.Paths, args.Expand)
		if err != nil {
			return errorResult(fmt.Sprintf("Analysis failed: %v", err)), nil, nil
		}
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "graph_dot",
		Description: "Returns the current call graph in Graphviz DOT format",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GraphDOTArgs) (*mcp.CallToolResult, any, error) {
		g := s.snapshot()
		if g == nil {
			return errorResult("No analysis has run yet; call analyze first"), nil, nil
		}
		return textResult(g.DOT()), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_callers",
		Description: "Lists the call sites targeting a function",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindCallersArgs) (*mcp.CallToolResult, any, error) {
		if s.snapshot() == nil {
			return errorResult("No analysis has run yet; call analyze first"), nil, nil
		}
		edges, err := s.store.FindCallers(ctx, args.Function)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		return edgeResult(edges, "No callers found.")
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_callees",
		Description: "Lists the calls a function makes",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindCalleesArgs) (*mcp.CallToolResult, any, error) {
		if s.snapshot() == nil {
			return errorResult("No analysis has run yet; call analyze first"), nil, nil
		}
		edges, err := s.store.FindCallees(ctx, args.Function)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		return edgeResult(edges, "No callees found.")
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "status",
		Description: "Reports the result of the last analysis run",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
		s.mu.RLock()
		g := s.g
		files := len(s.files)
		analyzedAt := s.analyzedAt
		lastErr := s.lastErr
		s.mu.RUnlock()

		result := map[string]any{
			"root":     s.root,
			"analyzed": g != nil,
		}
		if g != nil {
			result["files"] = files
			result["nodes"] = len(g.Nodes())
			result["edges"] = len(g.Edges())
			result["analyzed_at"] = analyzedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		if lastErr != nil {
			result["error"] = lastErr.Error()
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}

func edgeResult(edges []*graph.Edge, empty string) (*mcp.CallToolResult, any, error) {
	if len(edges) == 0 {
		return textResult(empty), nil, nil
	}
	infos := make([]edgeInfo, 0, len(edges))
	for _, e := range edges {
		infos = append(infos, edgeInfo{Caller: e.From, Callee: e.To, Kind: string(e.Kind)})
	}
	jsonBytes, _ := json.MarshalIndent(infos, "", "  ")
	return textResult(string(jsonBytes)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
