package resolver

import (
	"strings"

	"solgraph/internal/ast"
)

// VarType is the resolved shape of a state or local variable: either a
// canonical elementary type or the name of a user-defined type. Arrays
// record their element type, mappings their value type.
type VarType struct {
	Name        string
	UserDefined bool
}

// Contract is the per-contract symbol table built by the collector.
type Contract struct {
	Name  string
	Kind  string // contract | interface | library
	Bases []string

	StateVars map[string]VarType
	Functions map[string]bool
	Modifiers map[string]bool
	Events    map[string]bool
	Structs   map[string]bool
	Errors    map[string]bool

	// UsingFor maps a type name (or "*" for all types) to the libraries
	// registered for it, in declaration order. Declaration order is what
	// pins the first-match dispatch heuristic.
	UsingFor map[string][]string
}

func newContract(name, kind string) *Contract {
	return &Contract{
		Name:      name,
		Kind:      kind,
		StateVars: make(map[string]VarType),
		Functions: make(map[string]bool),
		Modifiers: make(map[string]bool),
		Events:    make(map[string]bool),
		Structs:   make(map[string]bool),
		Errors:    make(map[string]bool),
		UsingFor:  make(map[string][]string),
	}
}

// registerUsingFor appends library to the set registered for typeName,
// preserving declaration order and deduplicating.
func (c *Contract) registerUsingFor(typeName, library string) {
	for _, l := range c.UsingFor[typeName] {
		if l == library {
			return
		}
	}
	c.UsingFor[typeName] = append(c.UsingFor[typeName], library)
}

// Universe is the declaration table for one analysis run.
type Universe struct {
	Contracts map[string]*Contract
	Order     []string // declaration order, GlobalScope first

	// CustomErrors maps every custom error name in the project to its
	// declaring contract; errors may be referenced without
	// qualification from any contract.
	CustomErrors map[string]string
}

func (u *Universe) contract(name, kind string) *Contract {
	if c, ok := u.Contracts[name]; ok {
		return c
	}
	c := newContract(name, kind)
	u.Contracts[name] = c
	u.Order = append(u.Order, name)
	return c
}

// Collect runs the single declaration-collection pass over every parsed
// source unit. Declarations outside a contract body land on the
// GlobalScope pseudo-contract.
func Collect(units []*ast.Node) *Universe {
	u := &Universe{
		Contracts:    make(map[string]*Contract),
		CustomErrors: make(map[string]string),
	}
	u.contract(GlobalScope, "contract")

	for _, unit := range units {
		current := u.Contracts[GlobalScope]

		ast.Walk(unit, ast.Visitor{
			ast.KindContractDefinition: {
				Enter: func(n *ast.Node) {
					current = u.contract(n.Name, n.ContractKind)
					for _, spec := range n.BaseContracts {
						if spec.BaseName != nil {
							current.Bases = append(current.Bases, spec.BaseName.Name)
						}
					}
				},
				Exit: func(n *ast.Node) {
					current = u.Contracts[GlobalScope]
				},
			},
			ast.KindVariableDeclaration: {
				Enter: func(n *ast.Node) {
					if !n.StateVariable {
						return
					}
					if vt, ok := classifyType(n.TypeName); ok {
						current.StateVars[n.Name] = vt
					}
				},
			},
			ast.KindFunctionDefinition: {
				Enter: func(n *ast.Node) {
					if n.Name != "" {
						current.Functions[n.Name] = true
					}
				},
			},
			ast.KindModifierDefinition: {
				Enter: func(n *ast.Node) {
					current.Modifiers[n.Name] = true
				},
			},
			ast.KindEventDefinition: {
				Enter: func(n *ast.Node) {
					current.Events[n.Name] = true
				},
			},
			ast.KindStructDefinition: {
				Enter: func(n *ast.Node) {
					current.Structs[n.Name] = true
				},
			},
			ast.KindErrorDefinition: {
				Enter: func(n *ast.Node) {
					current.Errors[n.Name] = true
					if _, seen := u.CustomErrors[n.Name]; !seen {
						u.CustomErrors[n.Name] = current.Name
					}
				},
			},
			ast.KindUsingForDirective: {
				Enter: func(n *ast.Node) {
					library := typeRefName(n.LibraryName)
					if library == "" {
						return
					}
					target := "*"
					if n.TypeName != nil {
						if vt, ok := classifyType(n.TypeName); ok {
							target = vt.Name
						}
					}
					current.registerUsingFor(target, library)
				},
			},
		})
	}

	return u
}

// classifyType reduces a type-name node to the variable shape tracked
// by the resolver: elementary scalars keep their canonical name, arrays
// collapse to the element type, mappings to the value type, and
// user-defined types keep the referenced name.
func classifyType(t *ast.Node) (VarType, bool) {
	switch {
	case t == nil:
		return VarType{}, false
	case t.Kind == ast.KindElementaryTypeName:
		return VarType{Name: CanonicalElementaryType(t.Name)}, true
	case t.Kind == ast.KindArrayTypeName:
		return classifyType(t.BaseType)
	case t.Kind == ast.KindMapping:
		return classifyType(t.ValueType)
	case t.Kind == ast.KindUserDefinedTypeName:
		if name := typeRefName(t); name != "" {
			return VarType{Name: name, UserDefined: true}, true
		}
		return VarType{}, false
	default:
		return VarType{}, false
	}
}

// typeRefName extracts the referenced name from a UserDefinedTypeName
// or IdentifierPath node across solc versions.
func typeRefName(t *ast.Node) string {
	if t == nil {
		return ""
	}
	if t.Name != "" {
		return t.Name
	}
	if t.PathNode != nil {
		return t.PathNode.Name
	}
	return ""
}

// CanonicalElementaryType maps the bare numeric type names onto their
// fixed-width canonical forms.
func CanonicalElementaryType(name string) string {
	switch name {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	case "byte":
		return "bytes1"
	}
	// "address payable" behaves as address for dispatch purposes.
	if strings.HasPrefix(name, "address") {
		return "address"
	}
	return name
}
