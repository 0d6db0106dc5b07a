// Package parser turns Solidity source text into the ast node set. The
// actual parsing is delegated to the solc compiler, run in parse-only
// mode so no imports are resolved and no type checking happens.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"solgraph/internal/ast"
)

// Parser produces a syntax tree for one source unit.
type Parser interface {
	// Parse parses raw source text.
	Parse(source string) (*ast.Node, error)
	// ParseFile parses the file at path.
	ParseFile(path string) (*ast.Node, error)
}

// ParseError is a fatal syntax error reported by the underlying parser.
type ParseError struct {
	File   string
	Detail string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("parse error: %s", e.Detail)
	}
	return fmt.Sprintf("parse error in %s: %s", e.File, e.Detail)
}

// SolcParser parses by invoking a solc binary with
// `--stop-after parsing --ast-compact-json`.
type SolcParser struct {
	binary string
}

// NewSolcParser creates a parser backed by the given solc binary.
func NewSolcParser(binary string) *SolcParser {
	return &SolcParser{binary: binary}
}

// ParseFile runs solc on the file and decodes the compact-JSON AST.
func (p *SolcParser) ParseFile(path string) (*ast.Node, error) {
	cmd := exec.Command(p.binary, "--stop-after", "parsing", "--ast-compact-json", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, &ParseError{File: path, Detail: detail}
	}

	unit, err := DecodeAST(stdout.Bytes())
	if err != nil {
		return nil, &ParseError{File: path, Detail: err.Error()}
	}
	return unit, nil
}

// Parse writes the source to a temporary file and parses it there; solc
// has no stdin mode for AST output.
func (p *SolcParser) Parse(source string) (*ast.Node, error) {
	tmp, err := os.CreateTemp("", "solgraph-*.sol")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tmp.Close()

	unit, err := p.ParseFile(tmp.Name())
	if err != nil {
		// Hide the temp file name from the caller.
		if pe, ok := err.(*ParseError); ok {
			return nil, &ParseError{Detail: pe.Detail}
		}
		return nil, err
	}
	return unit, nil
}

// DecodeAST extracts the source-unit JSON from solc output. solc prints
// a "======= file =======" banner before each AST, with the JSON itself
// on a single line.
func DecodeAST(output []byte) (*ast.Node, error) {
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var unit ast.Node
		if err := json.Unmarshal(line, &unit); err != nil {
			return nil, fmt.Errorf("failed to decode AST JSON: %w", err)
		}
		if unit.Kind != ast.KindSourceUnit {
			return nil, fmt.Errorf("unexpected root node type %q", unit.Kind)
		}
		return &unit, nil
	}
	return nil, fmt.Errorf("no AST JSON found in solc output")
}
