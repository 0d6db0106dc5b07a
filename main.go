// Command solgraph builds a function call graph from Solidity sources
// and renders it as Graphviz DOT, either as a one-shot CLI run or as an
// MCP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"solgraph/internal/graph"
	"solgraph/internal/importer"
	"solgraph/internal/parser"
	"solgraph/internal/resolver"
	"solgraph/internal/server"
	"solgraph/internal/solc"
	"solgraph/internal/store"
	"solgraph/util"
)

const version = "0.3.0"

func main() {
	root := flag.String("root", "", "project root (defaults to the enclosing git repository)")
	out := flag.String("o", "", "write DOT output to this file instead of stdout")
	expand := flag.Bool("expand", false, "follow imports and analyze the transitive closure")
	modifiers := flag.Bool("modifiers", false, "draw edges for modifier invocations")
	noLibraries := flag.Bool("no-libraries", false, "keep library calls on the raw object instead of resolving using-for dispatch")
	colors := flag.String("colors", "", "YAML file overriding the default color scheme")
	solcPath := flag.String("solc", "", "path to a solc binary (skips version resolution)")
	solcVersion := flag.String("solc-version", "", "solc version to use (defaults to the sources' pragma, then latest)")
	dbPath := flag.String("db", "", "persist the graph to a SQLite database at this path")
	mcpMode := flag.Bool("mcp", false, "serve over the Model Context Protocol on stdio")
	showVersion := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: solgraph [flags] [file.sol ...]\n\nWith no files, every .sol under the project root is analyzed.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("solgraph", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config{
		root:        *root,
		out:         *out,
		expand:      *expand,
		modifiers:   *modifiers,
		noLibraries: *noLibraries,
		colors:      *colors,
		solcPath:    *solcPath,
		solcVersion: *solcVersion,
		dbPath:      *dbPath,
		mcpMode:     *mcpMode,
		seeds:       flag.Args(),
	}); err != nil {
		log.Fatalf("[solgraph] %v", err)
	}
}

type config struct {
	root        string
	out         string
	expand      bool
	modifiers   bool
	noLibraries bool
	colors      string
	solcPath    string
	solcVersion string
	dbPath      string
	mcpMode     bool
	seeds       []string
}

func run(ctx context.Context, cfg config) error {
	root := cfg.root
	if root == "" {
		var err error
		root, err = util.FindGitRoot()
		if err != nil {
			return fmt.Errorf("cannot determine project root: %w", err)
		}
	}

	seeds, err := collectSeeds(root, cfg.seeds)
	if err != nil {
		return err
	}

	opts := resolver.DefaultOptions()
	opts.EnableModifierEdges = cfg.modifiers
	opts.ResolveLibraryDispatch = !cfg.noLibraries
	opts.ExpandImports = cfg.expand
	if cfg.colors != "" {
		cs, err := graph.LoadColorScheme(cfg.colors)
		if err != nil {
			return err
		}
		opts.ColorScheme = cs
	}

	p, err := newParser(ctx, seeds, cfg.solcVersion, cfg.solcPath)
	if err != nil {
		return err
	}

	if cfg.mcpMode {
		srv, err := server.New(server.Config{
			Root:      root,
			Parser:    p,
			Options:   opts,
			StorePath: cfg.dbPath,
		})
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	}

	res, err := importer.NewResolver(root, p)
	if err != nil {
		return err
	}
	files, units, err := res.ResolveUnits(seeds, opts.ExpandImports)
	if err != nil {
		return err
	}
	log.Printf("[solgraph] Analyzing %d files under %s", len(files), root)

	g, err := resolver.Analyze(units, opts)
	if err != nil {
		return err
	}

	if cfg.dbPath != "" {
		st, err := store.Open(cfg.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveGraph(ctx, g); err != nil {
			return err
		}
		log.Printf("[solgraph] Graph persisted to %s", cfg.dbPath)
	}

	w := os.Stdout
	if cfg.out != "" {
		f, err := os.Create(cfg.out)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return g.WriteDOT(w)
}

// collectSeeds turns the positional arguments into a seed file list.
// Directory arguments expand to every source file under them; with no
// arguments the whole project root is scanned.
func collectSeeds(root string, args []string) ([]string, error) {
	if len(args) == 0 {
		return importer.ListSources(root)
	}
	var seeds []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			sub, err := importer.ListSources(arg)
			if err != nil {
				return nil, err
			}
			seeds = append(seeds, sub...)
			continue
		}
		seeds = append(seeds, arg)
	}
	return seeds, nil
}

// newParser picks a solc binary: explicit path, requested version, the
// sources' pragma, or the latest release, in that order.
func newParser(ctx context.Context, seeds []string, version, customPath string) (parser.Parser, error) {
	mgr, err := solc.NewManager()
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = solc.HighestPragmaVersion(seeds)
	}
	binary, err := mgr.Ensure(ctx, version, customPath)
	if err != nil {
		return nil, err
	}
	return parser.NewSolcParser(binary), nil
}
