package resolver

import (
	"errors"
	"testing"

	"solgraph/internal/ast"
	"solgraph/internal/graph"
)

// AST builders. Shapes mirror what the compiler's compact-JSON AST
// decodes to, so the resolver is exercised against realistic trees.

func unit(nodes ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindSourceUnit, Nodes: nodes}
}

func contractDef(name, kind string, bases []string, members ...*ast.Node) *ast.Node {
	n := &ast.Node{Kind: ast.KindContractDefinition, Name: name, ContractKind: kind, Nodes: members}
	for _, b := range bases {
		n.BaseContracts = append(n.BaseContracts, &ast.Node{
			Kind:     ast.KindInheritanceSpecifier,
			BaseName: &ast.Node{Kind: ast.KindIdentifierPath, Name: b},
		})
	}
	return n
}

func elemType(name string) *ast.Node {
	return &ast.Node{Kind: ast.KindElementaryTypeName, Name: name}
}

func udtType(name string) *ast.Node {
	return &ast.Node{
		Kind:     ast.KindUserDefinedTypeName,
		PathNode: &ast.Node{Kind: ast.KindIdentifierPath, Name: name},
	}
}

func arrayType(base *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindArrayTypeName, BaseType: base}
}

func mappingType(key, value *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindMapping, KeyType: key, ValueType: value}
}

func varDecl(name string, tn *ast.Node, state bool) *ast.Node {
	return &ast.Node{Kind: ast.KindVariableDeclaration, Name: name, TypeName: tn, StateVariable: state}
}

func params(decls ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindParameterList, ParamList: decls}
}

func body(stmts ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindBlock, Statements: stmts}
}

func funcDef(name string, paramList *ast.Node, b *ast.Node) *ast.Node {
	return &ast.Node{
		Kind:       ast.KindFunctionDefinition,
		Name:       name,
		SubKind:    "function",
		Visibility: "public",
		Parameters: paramList,
		Body:       b,
	}
}

func specialDef(subKind string, b *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindFunctionDefinition, SubKind: subKind, Visibility: "public", Body: b}
}

func modifierDef(name string, b *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindModifierDefinition, Name: name, Body: b}
}

func eventDef(name string) *ast.Node {
	return &ast.Node{Kind: ast.KindEventDefinition, Name: name}
}

func errorDef(name string) *ast.Node {
	return &ast.Node{Kind: ast.KindErrorDefinition, Name: name}
}

func usingFor(library string, tn *ast.Node) *ast.Node {
	return &ast.Node{
		Kind:        ast.KindUsingForDirective,
		LibraryName: &ast.Node{Kind: ast.KindIdentifierPath, Name: library},
		TypeName:    tn,
	}
}

func ident(name string) *ast.Node {
	return &ast.Node{Kind: ast.KindIdentifier, Name: name}
}

func stmt(expr *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindExpressionStatement, Expression: expr}
}

func callExpr(fn *ast.Node, args ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindFunctionCall, SubKind: "functionCall", Expression: fn, Arguments: args}
}

func memberCall(obj *ast.Node, member string, args ...*ast.Node) *ast.Node {
	return callExpr(&ast.Node{Kind: ast.KindMemberAccess, Expression: obj, MemberName: member}, args...)
}

func cast(typeName string, arg *ast.Node) *ast.Node {
	return &ast.Node{
		Kind:    ast.KindFunctionCall,
		SubKind: "typeConversion",
		Expression: &ast.Node{
			Kind:     ast.KindElementaryTypeNameExpression,
			TypeName: elemType(typeName),
		},
		Arguments: []*ast.Node{arg},
	}
}

func mustAnalyze(t *testing.T, opts Options, units ...*ast.Node) *graph.Graph {
	t.Helper()
	g, err := Analyze(units, opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return g
}

func findEdge(g *graph.Graph, from, to string) *graph.Edge {
	for _, e := range g.Edges() {
		if e.From == from && e.To == to {
			return e
		}
	}
	return nil
}

func requireEdge(t *testing.T, g *graph.Graph, from, to string, kind graph.EdgeKind) {
	t.Helper()
	e := findEdge(g, from, to)
	if e == nil {
		var all []string
		for _, e := range g.Edges() {
			all = append(all, e.From+" -> "+e.To)
		}
		t.Fatalf("missing edge %s -> %s; have %v", from, to, all)
	}
	if e.Kind != kind {
		t.Errorf("edge %s -> %s has kind %s, want %s", from, to, e.Kind, kind)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	if _, err := Analyze(nil, DefaultOptions()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("got %v, want ErrEmptyInput", err)
	}
}

func TestInheritedCallResolvesToDeclaringAncestor(t *testing.T) {
	// contract B { function foo() } contract C is B { function bar() { foo(); } }
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("B", "contract", nil,
			funcDef("foo", nil, body()),
		),
		contractDef("C", "contract", []string{"B"},
			funcDef("bar", nil, body(
				stmt(callExpr(ident("foo"))),
			)),
		),
	))

	requireEdge(t, g, "C.bar", "B.foo", graph.EdgeRegular)
	if g.Node("C.foo") != nil {
		t.Error("C.foo should not exist; C never declares foo")
	}
}

func TestOverrideCollapsesOntoAncestorNode(t *testing.T) {
	// B overrides f; calls to f from B land on the shared A.f node.
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("A", "contract", nil,
			funcDef("f", nil, body()),
		),
		contractDef("B", "contract", []string{"A"},
			funcDef("f", nil, body()),
			funcDef("g", nil, body(
				stmt(callExpr(ident("f"))),
			)),
		),
	))

	if g.Node("B.f") != nil {
		t.Error("override should collapse onto A.f, not register B.f")
	}
	requireEdge(t, g, "B.g", "A.f", graph.EdgeRegular)
}

func TestSuperDispatchesToNearestAncestorImplementation(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("A", "contract", nil,
			funcDef("f", nil, body()),
		),
		contractDef("B", "contract", []string{"A"},
			funcDef("f", nil, body()),
		),
		contractDef("C", "contract", []string{"B"},
			funcDef("g", nil, body(
				stmt(memberCall(ident("super"), "f")),
			)),
		),
	))

	requireEdge(t, g, "C.g", "B.f", graph.EdgeSuper)
	if e := findEdge(g, "C.g", "A.f"); e != nil {
		t.Error("super must dispatch to the nearest ancestor, not A.f")
	}
}

func TestSuperWithoutDeclaringAncestorIsDropped(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("A", "contract", nil),
		contractDef("B", "contract", []string{"A"},
			funcDef("g", nil, body(
				stmt(memberCall(ident("super"), "nope")),
			)),
		),
	))

	if len(g.Edges()) != 0 {
		t.Errorf("expected no edges, got %v", g.Edges())
	}
}

func TestThisCall(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			funcDef("f", nil, body(
				stmt(memberCall(ident("this"), "g")),
			)),
			funcDef("g", nil, body()),
		),
	))

	requireEdge(t, g, "Token.f", "Token.g", graph.EdgeThis)
}

func TestUsingForDispatch(t *testing.T) {
	// library SafeMath { function add } + using SafeMath for uint256.
	units := []*ast.Node{unit(
		contractDef("SafeMath", "library", nil,
			funcDef("add", nil, body()),
		),
		contractDef("Token", "contract", nil,
			usingFor("SafeMath", elemType("uint256")),
			funcDef("f", params(varDecl("a", elemType("uint"), false), varDecl("b", elemType("uint"), false)), body(
				stmt(memberCall(ident("a"), "add", ident("b"))),
			)),
		),
	)}

	g := mustAnalyze(t, DefaultOptions(), units...)
	requireEdge(t, g, "Token.f", "SafeMath.add", graph.EdgeExternal)

	// Suppressed dispatch keeps the edge on the raw object.
	opts := DefaultOptions()
	opts.ResolveLibraryDispatch = false
	g = mustAnalyze(t, opts, units...)
	requireEdge(t, g, "Token.f", "a.add", graph.EdgeExternal)
	if c := g.Cluster("a"); c == nil || c.Defined {
		t.Error("raw object cluster should exist and be external")
	}
}

func TestUsingForWildcard(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Strings", "library", nil,
			funcDef("repr", nil, body()),
		),
		contractDef("Token", "contract", nil,
			usingFor("Strings", nil), // using Strings for *
			varDecl("id", elemType("bytes32"), true),
			funcDef("f", nil, body(
				stmt(memberCall(ident("id"), "repr")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "Strings.repr", graph.EdgeExternal)
}

func TestUsingForInheritedFromBase(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("SafeMath", "library", nil,
			funcDef("add", nil, body()),
		),
		contractDef("Base", "contract", nil,
			usingFor("SafeMath", elemType("uint256")),
			varDecl("total", elemType("uint256"), true),
		),
		contractDef("Token", "contract", []string{"Base"},
			funcDef("f", nil, body(
				stmt(memberCall(ident("total"), "add")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "SafeMath.add", graph.EdgeExternal)
}

func TestUsingForDispatchOnArrayAndMappingElements(t *testing.T) {
	// Arrays classify as their element type and mappings as their value
	// type, so a uint256 registration covers both.
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("SafeMath", "library", nil,
			funcDef("add", nil, body()),
		),
		contractDef("Token", "contract", nil,
			usingFor("SafeMath", elemType("uint256")),
			varDecl("balances", arrayType(elemType("uint256")), true),
			varDecl("shares", mappingType(elemType("address"), elemType("uint")), true),
			funcDef("f", nil, body(
				stmt(memberCall(ident("balances"), "add")),
				stmt(memberCall(ident("shares"), "add")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "SafeMath.add", graph.EdgeExternal)
	for _, name := range []string{"balances", "shares"} {
		if g.Cluster(name) != nil {
			t.Errorf("%s should dispatch through the library, not keep a raw cluster", name)
		}
	}
}

func TestLocalShadowsStateVariable(t *testing.T) {
	// State variable "a" is a Vault, but the local "a" is uint256 with a
	// using-for registration; the local wins.
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("SafeMath", "library", nil,
			funcDef("add", nil, body()),
		),
		contractDef("Token", "contract", nil,
			usingFor("SafeMath", elemType("uint256")),
			varDecl("a", udtType("Vault"), true),
			funcDef("f", params(varDecl("a", elemType("uint256"), false)), body(
				stmt(memberCall(ident("a"), "add")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "SafeMath.add", graph.EdgeExternal)
	if g.Cluster("Vault") != nil {
		t.Error("shadowed state-variable type should not produce a Vault cluster")
	}
}

func TestContractTypedStateVarExternalCall(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			varDecl("vault", udtType("IVault"), true),
			funcDef("f", nil, body(
				stmt(memberCall(ident("vault"), "deposit")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "IVault.deposit", graph.EdgeExternal)
	if c := g.Cluster("IVault"); c == nil || c.Defined {
		t.Error("undeclared contract type should get an external cluster")
	}
}

func TestChainedObjectIsDropped(t *testing.T) {
	// x.y().z(): the inner call keeps the raw-object fallback, but the
	// outer call's object is a call expression and cannot be determined.
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			funcDef("f", nil, body(
				stmt(memberCall(memberCall(ident("x"), "y"), "z")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "x.y", graph.EdgeExternal)
	for _, e := range g.Edges() {
		if e.To != "x.y" {
			t.Errorf("outer chained call should be dropped, got edge to %s", e.To)
		}
	}
}

func TestLowLevelCallWithSignatureLiteral(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			varDecl("x", udtType("Vault"), true),
			funcDef("f", nil, body(
				stmt(memberCall(
					cast("address", ident("x")),
					"call",
					&ast.Node{Kind: ast.KindLiteral, SubKind: "string", Value: "withdraw()"},
				)),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "Vault.withdraw()", graph.EdgeExternal)
}

func TestLowLevelCallWithOptions(t *testing.T) {
	// target.call{value: v}("withdraw()"): the options node wraps the
	// member access and must be unwrapped before dispatch.
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			funcDef("f", params(varDecl("target", elemType("address"), false)), body(
				stmt(&ast.Node{
					Kind:    ast.KindFunctionCall,
					SubKind: "functionCall",
					Expression: &ast.Node{
						Kind: ast.KindFunctionCallOptions,
						Expression: &ast.Node{
							Kind:       ast.KindMemberAccess,
							Expression: ident("target"),
							MemberName: "call",
						},
					},
					Arguments: []*ast.Node{{Kind: ast.KindLiteral, SubKind: "string", Value: "withdraw()"}},
				}),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "target.withdraw()", graph.EdgeExternal)
}

func TestLowLevelCallWithoutArgumentUsesFallback(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			funcDef("f", params(varDecl("target", elemType("address"), false)), body(
				stmt(memberCall(ident("target"), "call")),
			)),
		),
	))

	requireEdge(t, g, "Token.f", "target."+FallbackName, graph.EdgeExternal)
}

func TestLowLevelCallNumericLiteralCluster(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			funcDef("f", nil, body(
				stmt(memberCall(
					cast("address", &ast.Node{Kind: ast.KindLiteral, SubKind: "number", Value: "1"}),
					"call",
				)),
			)),
		),
	))

	want := "0x0000000000000000000000000000000000000001"
	if g.Cluster(want) == nil {
		t.Fatalf("expected address-literal cluster %s", want)
	}
	requireEdge(t, g, "Token.f", want+"."+FallbackName, graph.EdgeExternal)
}

func TestCustomErrorEdges(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		errorDef("Unauthorized"),
		contractDef("Token", "contract", nil,
			errorDef("InsufficientBalance"),
			funcDef("f", nil, body(
				&ast.Node{Kind: ast.KindRevertStatement, ErrorCall: callExpr(ident("Unauthorized"))},
				&ast.Node{Kind: ast.KindRevertStatement, ErrorCall: callExpr(ident("InsufficientBalance"))},
			)),
		),
	))

	requireEdge(t, g, "Token.f", GlobalScope+".Unauthorized", graph.EdgeError)
	requireEdge(t, g, "Token.f", "Token.InsufficientBalance", graph.EdgeError)

	n := g.Node("Token.InsufficientBalance")
	if n == nil || n.Attrs["shape"] != "doubleoctagon" {
		t.Error("error node should carry the event/error styling")
	}
}

func TestEventEmitEdge(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			eventDef("Transfer"),
			funcDef("f", nil, body(
				&ast.Node{Kind: ast.KindEmitStatement, EventCall: callExpr(ident("Transfer"))},
			)),
		),
	))

	requireEdge(t, g, "Token.f", "Token.Transfer", graph.EdgeRegular)
}

func TestModifierEdges(t *testing.T) {
	build := func(opts Options) *graph.Graph {
		return mustAnalyze(t, opts, unit(
			contractDef("Token", "contract", nil,
				modifierDef("onlyOwner", body()),
				&ast.Node{
					Kind:       ast.KindFunctionDefinition,
					Name:       "f",
					SubKind:    "function",
					Visibility: "public",
					Modifiers: []*ast.Node{{
						Kind:         ast.KindModifierInvocation,
						ModifierName: &ast.Node{Kind: ast.KindIdentifierPath, Name: "onlyOwner"},
					}},
					Body: body(),
				},
			),
		))
	}

	g := build(DefaultOptions())
	if e := findEdge(g, "Token.f", "Token.onlyOwner"); e != nil {
		t.Error("modifier edges must be off by default")
	}

	opts := DefaultOptions()
	opts.EnableModifierEdges = true
	g = build(opts)
	requireEdge(t, g, "Token.f", "Token.onlyOwner", graph.EdgeModifier)
}

func TestBaseConstructorInvocationIsNotModifierEdge(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableModifierEdges = true

	g := mustAnalyze(t, opts, unit(
		contractDef("Base", "contract", nil),
		contractDef("Token", "contract", []string{"Base"},
			&ast.Node{
				Kind:       ast.KindFunctionDefinition,
				SubKind:    "constructor",
				Visibility: "public",
				Modifiers: []*ast.Node{{
					Kind:         ast.KindModifierInvocation,
					ModifierName: &ast.Node{Kind: ast.KindIdentifierPath, Name: "Base"},
				}},
				Body: body(),
			},
		),
	))

	if len(g.Edges()) != 0 {
		t.Errorf("base constructor arguments must not produce modifier edges: %v", g.Edges())
	}
}

func TestConstructorsNeverCollapse(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("A", "contract", nil,
			specialDef("constructor", body()),
			specialDef("fallback", body()),
		),
		contractDef("B", "contract", []string{"A"},
			specialDef("constructor", body()),
			specialDef("receive", body()),
		),
	))

	for _, name := range []string{
		"A." + ConstructorName,
		"B." + ConstructorName,
		"A." + FallbackName,
		"B." + ReceiveEtherName,
	} {
		if g.Node(name) == nil {
			t.Errorf("missing synthetic node %s", name)
		}
	}
}

func TestNewExpressionTargetsConstructor(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Vault", "contract", nil,
			specialDef("constructor", body()),
		),
		contractDef("Factory", "contract", nil,
			funcDef("deploy", nil, body(
				stmt(callExpr(&ast.Node{Kind: ast.KindNewExpression, TypeName: udtType("Vault")})),
			)),
		),
	))

	requireEdge(t, g, "Factory.deploy", "Vault."+ConstructorName, graph.EdgeExternal)
}

func TestGlobalScopeFunctions(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		funcDef("freeHelper", nil, body()),
		contractDef("Token", "contract", nil,
			funcDef("f", nil, body(
				stmt(callExpr(ident("freeHelper"))),
			)),
		),
	))

	requireEdge(t, g, "Token.f", GlobalScope+".freeHelper", graph.EdgeRegular)
}

func TestUnresolvedPlainCallIsDropped(t *testing.T) {
	g := mustAnalyze(t, DefaultOptions(), unit(
		contractDef("Token", "contract", nil,
			funcDef("f", nil, body(
				stmt(callExpr(ident("require"))),
				stmt(callExpr(ident("keccak256"))),
			)),
		),
	))

	if len(g.Edges()) != 0 {
		t.Errorf("builtin calls should be dropped, got %v", g.Edges())
	}
}

func TestDeterministicOutput(t *testing.T) {
	build := func() string {
		g := mustAnalyze(t, DefaultOptions(), unit(
			contractDef("SafeMath", "library", nil,
				funcDef("add", nil, body()),
			),
			contractDef("A", "contract", nil,
				funcDef("f", nil, body()),
			),
			contractDef("B", "contract", []string{"A"},
				usingFor("SafeMath", elemType("uint256")),
				varDecl("total", elemType("uint256"), true),
				funcDef("g", nil, body(
					stmt(callExpr(ident("f"))),
					stmt(memberCall(ident("total"), "add")),
				)),
			),
		))
		return g.DOT()
	}

	first := build()
	for i := 0; i < 20; i++ {
		if build() != first {
			t.Fatal("identical inputs produced different output")
		}
	}
}
