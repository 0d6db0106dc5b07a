package resolver

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"solgraph/internal/ast"
	"solgraph/internal/graph"
)

// builtinTypes fixes the declared type of Solidity's contextual
// variables. msg/block/tx/abi act as their own opaque types.
var builtinTypes = map[string]string{
	"msg":   "msg",
	"block": "block",
	"tx":    "tx",
	"abi":   "abi",
	"now":   "uint256",
}

// lowLevelMembers are the address members that dispatch raw calldata.
var lowLevelMembers = map[string]bool{
	"call":         true,
	"delegatecall": true,
	"staticcall":   true,
}

// builder carries the traversal state of one resolution run. Current
// contract and scope are stack-depth-one: contracts don't nest and
// neither do function bodies.
type builder struct {
	uni  *Universe
	lin  map[string][]string
	g    *graph.Graph
	opts Options
	cs   *graph.ColorScheme

	contract      string
	scope         *Scope
	stateVarsUser map[string]string // merged ancestor chain, self last
	stateVarsElem map[string]string
}

func (b *builder) linOf(contract string) []string {
	if order, ok := b.lin[contract]; ok {
		return order
	}
	return []string{contract}
}

// qualifiedFor returns the graph-node name for member as seen from
// contract: the nearest ancestor in linearization order that already
// registered the member wins, so overrides collapse onto one node.
func (b *builder) qualifiedFor(member, contract string) string {
	for _, anc := range b.linOf(contract) {
		q := anc + "." + member
		if b.g.Node(q) != nil {
			return q
		}
	}
	return contract + "." + member
}

func (b *builder) ensureCluster(name string) {
	defined := b.uni.Contracts[name] != nil
	b.g.EnsureCluster(name, defined, b.cs.ClusterAttrs(defined))
}

// ensureMember guarantees a node for contract.member, following the
// ancestor collapse so calls to overridden members land on the family's
// shared node, and returns its qualified name.
func (b *builder) ensureMember(contract, member string) string {
	q := b.qualifiedFor(member, contract)
	if b.g.Node(q) != nil {
		return q
	}
	return b.ensureMemberAt(contract, member)
}

// ensureMemberAt guarantees a node named exactly contract.member,
// bypassing ancestor collapse. Super dispatch uses this directly: the
// edge names the ancestor implementation being dispatched to, not the
// collapsed override family. Nodes synthesized here, typically event,
// error and external targets never registered as declarations, get
// their own styling.
func (b *builder) ensureMemberAt(contract, member string) string {
	q := contract + "." + member
	if b.g.Node(q) != nil {
		return q
	}
	b.ensureCluster(contract)

	var attrs map[string]string
	if c := b.uni.Contracts[contract]; c != nil && (c.Events[member] || c.Errors[member]) {
		attrs = b.cs.EventNodeAttrs()
	}
	b.g.AddNode(contract, q, member, attrs)
	return q
}

func (b *builder) addEdge(target string, kind graph.EdgeKind) {
	b.g.AddEdge(b.scope.node, target, kind, b.cs.EdgeAttrs(kind))
}

// memberName maps a function definition to its graph member name;
// declarations without a user-facing name get fixed synthetic markers.
func memberName(n *ast.Node) string {
	switch n.SubKind {
	case "constructor":
		return ConstructorName
	case "fallback":
		return FallbackName
	case "receive":
		return ReceiveEtherName
	}
	if n.Name == "" {
		// Pre-0.6 unnamed function declarations are fallbacks.
		return FallbackName
	}
	return n.Name
}

func isSynthetic(member string) bool {
	return member == ConstructorName || member == FallbackName || member == ReceiveEtherName
}

// registerNodes is the first sub-pass: one node per function/modifier
// declaration, with overrides collapsed onto the nearest ancestor's
// node. Constructors, fallbacks and receive handlers never merge.
func (b *builder) registerNodes(units []*ast.Node) {
	for _, unit := range units {
		b.contract = GlobalScope

		ast.Walk(unit, ast.Visitor{
			ast.KindContractDefinition: {
				Enter: func(n *ast.Node) {
					b.contract = n.Name
					b.ensureCluster(n.Name)
				},
				Exit: func(n *ast.Node) {
					b.contract = GlobalScope
				},
			},
			ast.KindFunctionDefinition: {
				Enter: func(n *ast.Node) {
					member := memberName(n)
					q := b.contract + "." + member
					if !isSynthetic(member) {
						q = b.qualifiedFor(member, b.contract)
						if b.g.Node(q) != nil {
							return // collapsed onto an ancestor's node
						}
					}
					b.ensureCluster(b.contract)
					b.g.AddNode(b.contract, q, member, b.cs.NodeAttrs(n.Visibility, n.StateMutability))
				},
			},
			ast.KindModifierDefinition: {
				Enter: func(n *ast.Node) {
					q := b.qualifiedFor(n.Name, b.contract)
					if b.g.Node(q) != nil {
						return
					}
					b.ensureCluster(b.contract)
					b.g.AddNode(b.contract, q, n.Name, b.cs.ModifierNodeAttrs())
				},
			},
		})
	}
}

// enterContract seeds the merged state-variable tables from the
// ancestor chain, least-derived first so self overrides ancestors.
func (b *builder) enterContract(name string) {
	b.contract = name
	b.stateVarsUser = make(map[string]string)
	b.stateVarsElem = make(map[string]string)

	order := b.linOf(name)
	for i := len(order) - 1; i >= 0; i-- {
		c := b.uni.Contracts[order[i]]
		if c == nil {
			continue
		}
		for varName, vt := range c.StateVars {
			if vt.UserDefined {
				b.stateVarsUser[varName] = vt.Name
				delete(b.stateVarsElem, varName)
			} else {
				b.stateVarsElem[varName] = vt.Name
				delete(b.stateVarsUser, varName)
			}
		}
	}
}

// resolveCalls is the second sub-pass: walk every function/modifier
// body and emit one edge per resolvable call expression.
func (b *builder) resolveCalls(units []*ast.Node) {
	for _, unit := range units {
		b.enterContract(GlobalScope)
		b.scope = nil

		ast.Walk(unit, ast.Visitor{
			ast.KindContractDefinition: {
				Enter: func(n *ast.Node) { b.enterContract(n.Name) },
				Exit:  func(n *ast.Node) { b.enterContract(GlobalScope) },
			},
			ast.KindFunctionDefinition: {
				Enter: func(n *ast.Node) {
					member := memberName(n)
					q := b.contract + "." + member
					if !isSynthetic(member) {
						q = b.qualifiedFor(member, b.contract)
					}
					b.scope = newScope(q)
					if b.opts.EnableModifierEdges {
						b.emitModifierEdges(n)
					}
				},
				Exit: func(n *ast.Node) { b.scope = nil },
			},
			ast.KindModifierDefinition: {
				Enter: func(n *ast.Node) {
					b.scope = newScope(b.qualifiedFor(n.Name, b.contract))
				},
				Exit: func(n *ast.Node) { b.scope = nil },
			},
			ast.KindVariableDeclaration: {
				Enter: func(n *ast.Node) {
					if b.scope == nil || n.StateVariable {
						return
					}
					if vt, ok := classifyType(n.TypeName); ok {
						b.scope.declare(n.Name, vt)
					}
				},
			},
			ast.KindFunctionCall: {
				Enter: func(n *ast.Node) { b.resolveCall(n) },
			},
		})
	}
}

// emitModifierEdges connects a function to each modifier it invokes.
// solc lists base-constructor arguments as modifier invocations too;
// names matching a contract are skipped.
func (b *builder) emitModifierEdges(fn *ast.Node) {
	for _, m := range fn.Modifiers {
		if m.Kind != ast.KindModifierInvocation {
			continue
		}
		name := typeRefName(m.ModifierName)
		if name == "" || b.uni.Contracts[name] != nil {
			continue
		}
		declared := false
		for _, anc := range b.linOf(b.contract) {
			if c := b.uni.Contracts[anc]; c != nil && c.Modifiers[name] {
				declared = true
				break
			}
		}
		if !declared {
			continue
		}
		b.addEdge(b.ensureMember(b.contract, name), graph.EdgeModifier)
	}
}

// resolveCall resolves a single call expression. Resolution failures
// are absorbed locally: the call is dropped and the walk continues.
func (b *builder) resolveCall(n *ast.Node) {
	if b.scope == nil {
		return // calls in state-variable initializers are not tracked
	}
	if n.SubKind == "typeConversion" {
		return // a cast, not a call; its arguments are still walked
	}
	expr := n.Expression
	if expr != nil && expr.Kind == ast.KindFunctionCallOptions {
		// addr.call{value: v}(...) wraps the member access in an
		// options node.
		expr = expr.Expression
	}
	if expr == nil {
		return
	}

	switch expr.Kind {
	case ast.KindIdentifier:
		b.resolvePlainCall(expr.Name)
	case ast.KindMemberAccess:
		b.resolveMemberCall(n, expr)
	case ast.KindNewExpression:
		if vt, ok := classifyType(expr.TypeName); ok && vt.UserDefined {
			b.addEdge(b.ensureMember(vt.Name, ConstructorName), graph.EdgeExternal)
		}
	}
}

// resolvePlainCall handles unqualified calls: the nearest ancestor in
// linearization order declaring the name wins. Names matching nothing
// in the chain or the project-wide error set (require, keccak256, ...)
// are dropped.
func (b *builder) resolvePlainCall(name string) {
	if name == "" {
		return
	}
	for _, anc := range b.linOf(b.contract) {
		c := b.uni.Contracts[anc]
		if c == nil {
			continue
		}
		if c.Functions[name] || c.Events[name] || c.Structs[name] || c.Errors[name] {
			kind := graph.EdgeRegular
			if c.Errors[name] {
				kind = graph.EdgeError
			}
			b.addEdge(b.ensureMember(anc, name), kind)
			return
		}
	}
	if declaring, ok := b.uni.CustomErrors[name]; ok {
		b.addEdge(b.ensureMember(declaring, name), graph.EdgeError)
	}
}

// resolveMemberCall handles object.member(...) call sites.
func (b *builder) resolveMemberCall(call, expr *ast.Node) {
	member := expr.MemberName
	obj := expr.Expression
	if member == "" || obj == nil {
		return
	}

	if obj.Kind == ast.KindIdentifier {
		switch obj.Name {
		case "this":
			b.addEdge(b.ensureMember(b.contract, member), graph.EdgeThis)
			return
		case "super":
			b.resolveSuperCall(member)
			return
		}
	}

	if lowLevelMembers[member] && b.isAddressLike(obj) {
		b.resolveLowLevelCall(call, obj)
		return
	}

	objName, objType, typed := b.objectInfo(obj)
	if objName == "" && !typed {
		return // object undetermined: drop silently
	}

	if typed {
		if lib, ok := b.usingForTarget(objType.Name, member); ok {
			if b.opts.ResolveLibraryDispatch {
				b.addEdge(b.ensureMember(lib, member), graph.EdgeExternal)
				return
			}
			// Dispatch suppressed: keep the edge on the raw object.
			if objName != "" {
				b.addEdge(b.ensureMember(objName, member), graph.EdgeExternal)
				return
			}
			return
		}
		if objType.UserDefined {
			b.addEdge(b.ensureMember(objType.Name, member), graph.EdgeExternal)
			return
		}
	}

	if objName != "" {
		b.addEdge(b.ensureMember(objName, member), graph.EdgeExternal)
	}
}

// resolveSuperCall dispatches super.member to the nearest ancestor
// (excluding self) declaring it; without one the call is dropped.
func (b *builder) resolveSuperCall(member string) {
	order := b.linOf(b.contract)
	for _, anc := range order[1:] {
		c := b.uni.Contracts[anc]
		if c == nil {
			continue
		}
		if c.Functions[member] || c.Modifiers[member] {
			b.addEdge(b.ensureMemberAt(anc, member), graph.EdgeSuper)
			return
		}
	}
}

// objectInfo determines a member-call object's identifier and declared
// type. Priority: local elementary, local user-defined, user-defined
// state variables, elementary state variables, built-in contextual
// variables, explicit type casts.
func (b *builder) objectInfo(obj *ast.Node) (string, VarType, bool) {
	switch obj.Kind {
	case ast.KindIdentifier:
		name := obj.Name
		if t, ok := b.scope.locals[name]; ok {
			return name, VarType{Name: t}, true
		}
		if t, ok := b.scope.userLocals[name]; ok {
			return name, VarType{Name: t, UserDefined: true}, true
		}
		if t, ok := b.stateVarsUser[name]; ok {
			return name, VarType{Name: t, UserDefined: true}, true
		}
		if t, ok := b.stateVarsElem[name]; ok {
			return name, VarType{Name: t}, true
		}
		if t, ok := builtinTypes[name]; ok {
			return name, VarType{Name: t}, true
		}
		return name, VarType{}, false

	case ast.KindFunctionCall:
		// Explicit type casts carry the declared type directly.
		cast := obj.Expression
		if cast == nil {
			return "", VarType{}, false
		}
		inner := ""
		if len(obj.Arguments) == 1 && obj.Arguments[0].Kind == ast.KindIdentifier {
			inner = obj.Arguments[0].Name
		}
		switch cast.Kind {
		case ast.KindElementaryTypeNameExpression:
			name := cast.Name
			if cast.TypeName != nil {
				name = cast.TypeName.Name
			}
			return inner, VarType{Name: CanonicalElementaryType(name)}, true
		case ast.KindIdentifier:
			if b.uni.Contracts[cast.Name] != nil {
				return inner, VarType{Name: cast.Name, UserDefined: true}, true
			}
		}
		return "", VarType{}, false

	default:
		return "", VarType{}, false
	}
}

// usingForTarget finds the first library registered for typeName (or
// the wildcard) anywhere in the ancestor chain that declares member.
// Registration order within a contract and linearization order across
// contracts pin the first-match heuristic.
func (b *builder) usingForTarget(typeName, member string) (string, bool) {
	if typeName == "" {
		return "", false
	}
	for _, key := range []string{typeName, "*"} {
		for _, anc := range b.linOf(b.contract) {
			c := b.uni.Contracts[anc]
			if c == nil {
				continue
			}
			for _, lib := range c.UsingFor[key] {
				if l := b.uni.Contracts[lib]; l != nil && l.Functions[member] {
					return lib, true
				}
			}
		}
	}
	return "", false
}

// isAddressLike reports whether obj is a low-level call target: an
// address cast or a variable of address type.
func (b *builder) isAddressLike(obj *ast.Node) bool {
	switch obj.Kind {
	case ast.KindFunctionCall:
		cast := obj.Expression
		if cast == nil || cast.Kind != ast.KindElementaryTypeNameExpression {
			return false
		}
		name := cast.Name
		if cast.TypeName != nil {
			name = cast.TypeName.Name
		}
		return CanonicalElementaryType(name) == "address"
	case ast.KindIdentifier:
		_, vt, typed := b.objectInfo(obj)
		return typed && !vt.UserDefined && vt.Name == "address"
	}
	return false
}

// resolveLowLevelCall synthesizes a target for address(x).call(...)
// style sites: the callee name comes from the literal text of the first
// argument (or the fallback marker), the cluster from the address
// expression's inner identifier or literal.
func (b *builder) resolveLowLevelCall(call, obj *ast.Node) {
	cluster := b.lowLevelCluster(obj)
	if cluster == "" {
		return
	}

	callee := FallbackName
	if len(call.Arguments) > 0 && call.Arguments[0].Kind == ast.KindLiteral && call.Arguments[0].Value != "" {
		callee = strings.Trim(call.Arguments[0].Value, `"'`)
	}

	b.addEdge(b.ensureMember(cluster, callee), graph.EdgeExternal)
}

func (b *builder) lowLevelCluster(obj *ast.Node) string {
	if obj.Kind == ast.KindIdentifier {
		name, vt, typed := b.objectInfo(obj)
		if typed && vt.UserDefined {
			return vt.Name
		}
		return name
	}

	// address(<inner>) cast: classify the inner expression.
	if len(obj.Arguments) != 1 {
		return ""
	}
	inner := obj.Arguments[0]
	switch inner.Kind {
	case ast.KindIdentifier:
		if _, vt, typed := b.objectInfo(inner); typed && vt.UserDefined {
			return vt.Name
		}
		return inner.Name
	case ast.KindLiteral:
		if inner.SubKind == "number" {
			return addressLiteral(inner.Value)
		}
		return inner.Value
	}
	return ""
}

// addressLiteral renders a numeric literal as a checksummed address.
func addressLiteral(v string) string {
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		return common.HexToAddress(v).Hex()
	}
	if i, ok := new(big.Int).SetString(v, 10); ok {
		return common.BigToAddress(i).Hex()
	}
	return v
}
