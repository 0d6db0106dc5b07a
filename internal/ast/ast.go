// Package ast defines the syntax-tree node set produced by the external
// Solidity parser (solc's compact-JSON AST) and a depth-first visitor
// over it. The node set is closed: every kind the analyzer reacts to is
// listed below, and unknown kinds are still traversed generically.
package ast

import "encoding/json"

// Kind identifies a syntax node variant. Values match solc's "nodeType"
// strings so nodes decode straight from --ast-compact-json output.
type Kind string

const (
	KindSourceUnit      Kind = "SourceUnit"
	KindPragmaDirective Kind = "PragmaDirective"
	KindImportDirective Kind = "ImportDirective"

	KindContractDefinition Kind = "ContractDefinition"
	KindFunctionDefinition Kind = "FunctionDefinition"
	KindModifierDefinition Kind = "ModifierDefinition"
	KindEventDefinition    Kind = "EventDefinition"
	KindStructDefinition   Kind = "StructDefinition"
	KindErrorDefinition    Kind = "ErrorDefinition"
	KindEnumDefinition     Kind = "EnumDefinition"
	KindUsingForDirective  Kind = "UsingForDirective"

	KindVariableDeclaration  Kind = "VariableDeclaration"
	KindInheritanceSpecifier Kind = "InheritanceSpecifier"
	KindModifierInvocation   Kind = "ModifierInvocation"
	KindParameterList        Kind = "ParameterList"

	KindElementaryTypeName  Kind = "ElementaryTypeName"
	KindArrayTypeName       Kind = "ArrayTypeName"
	KindMapping             Kind = "Mapping"
	KindUserDefinedTypeName Kind = "UserDefinedTypeName"
	KindFunctionTypeName    Kind = "FunctionTypeName"
	KindIdentifierPath      Kind = "IdentifierPath"

	KindBlock                        Kind = "Block"
	KindUncheckedBlock               Kind = "UncheckedBlock"
	KindExpressionStatement          Kind = "ExpressionStatement"
	KindVariableDeclarationStatement Kind = "VariableDeclarationStatement"
	KindIfStatement                  Kind = "IfStatement"
	KindForStatement                 Kind = "ForStatement"
	KindWhileStatement               Kind = "WhileStatement"
	KindDoWhileStatement             Kind = "DoWhileStatement"
	KindReturn                       Kind = "Return"
	KindEmitStatement                Kind = "EmitStatement"
	KindRevertStatement              Kind = "RevertStatement"
	KindTryStatement                 Kind = "TryStatement"
	KindTryCatchClause               Kind = "TryCatchClause"
	KindPlaceholderStatement         Kind = "PlaceholderStatement"

	KindFunctionCall                 Kind = "FunctionCall"
	KindFunctionCallOptions          Kind = "FunctionCallOptions"
	KindMemberAccess                 Kind = "MemberAccess"
	KindIndexAccess                  Kind = "IndexAccess"
	KindIdentifier                   Kind = "Identifier"
	KindLiteral                      Kind = "Literal"
	KindElementaryTypeNameExpression Kind = "ElementaryTypeNameExpression"
	KindNewExpression                Kind = "NewExpression"
	KindAssignment                   Kind = "Assignment"
	KindBinaryOperation              Kind = "BinaryOperation"
	KindUnaryOperation               Kind = "UnaryOperation"
	KindConditional                  Kind = "Conditional"
	KindTupleExpression              Kind = "TupleExpression"
)

// Node is one syntax-tree node. A single tagged struct (rather than one
// Go type per variant) mirrors how solc's AST deserializes; only the
// fields relevant to a node's Kind are populated.
type Node struct {
	ID   int    `json:"id"`
	Kind Kind   `json:"nodeType"`
	Name string `json:"name,omitempty"`
	Src  string `json:"src,omitempty"`

	// SourceUnit / ImportDirective
	AbsolutePath string  `json:"absolutePath,omitempty"`
	File         string  `json:"file,omitempty"` // import path as written
	UnitAlias    string  `json:"unitAlias,omitempty"`
	Nodes        []*Node `json:"nodes,omitempty"`

	// ContractDefinition
	ContractKind  string  `json:"contractKind,omitempty"` // contract|interface|library
	Abstract      bool    `json:"abstract,omitempty"`
	BaseContracts []*Node `json:"baseContracts,omitempty"`
	BaseName      *Node   `json:"baseName,omitempty"` // on InheritanceSpecifier

	// VariableDeclaration
	TypeName      *Node `json:"typeName,omitempty"`
	StateVariable bool  `json:"stateVariable,omitempty"`
	Constant      bool  `json:"constant,omitempty"`

	// Type names
	KeyType   *Node `json:"keyType,omitempty"`
	ValueType *Node `json:"valueType,omitempty"`
	BaseType  *Node `json:"baseType,omitempty"`
	PathNode  *Node `json:"pathNode,omitempty"` // UserDefinedTypeName → IdentifierPath

	// FunctionDefinition / ModifierDefinition / FunctionCall / Literal.
	// solc reuses the "kind" key: function|constructor|fallback|receive
	// on definitions, functionCall|typeConversion|structConstructorCall
	// on calls, number|string|bool|hexString on literals.
	SubKind          string  `json:"kind,omitempty"`
	Visibility       string  `json:"visibility,omitempty"`
	StateMutability  string  `json:"stateMutability,omitempty"`
	Virtual          bool    `json:"virtual,omitempty"`
	Implemented      bool    `json:"implemented,omitempty"`
	Parameters       *Node   `json:"-"` // "parameters": object on definitions
	ParamList        []*Node `json:"-"` // "parameters": array on ParameterList
	ReturnParameters *Node   `json:"returnParameters,omitempty"`
	Modifiers        []*Node `json:"modifiers,omitempty"`
	ModifierName     *Node   `json:"modifierName,omitempty"`
	Body             *Node   `json:"body,omitempty"`

	// UsingForDirective
	LibraryName *Node `json:"libraryName,omitempty"`
	Global      bool  `json:"global,omitempty"`

	// Statements
	Statements     []*Node `json:"statements,omitempty"`
	Declarations   []*Node `json:"declarations,omitempty"`
	InitialValue   *Node   `json:"initialValue,omitempty"`
	Condition      *Node   `json:"condition,omitempty"`
	TrueBody       *Node   `json:"trueBody,omitempty"`
	FalseBody      *Node   `json:"falseBody,omitempty"`
	InitExpression *Node   `json:"initializationExpression,omitempty"`
	LoopExpression *Node   `json:"loopExpression,omitempty"`
	EventCall      *Node   `json:"eventCall,omitempty"`
	ErrorCall      *Node   `json:"errorCall,omitempty"`
	ExternalCall   *Node   `json:"externalCall,omitempty"`
	Clauses        []*Node `json:"clauses,omitempty"`
	Block          *Node   `json:"block,omitempty"`

	// Expressions
	Expression      *Node   `json:"expression,omitempty"`
	Arguments       []*Node `json:"arguments,omitempty"`
	Options         []*Node `json:"options,omitempty"`
	MemberName      string  `json:"memberName,omitempty"`
	IndexExpression *Node   `json:"indexExpression,omitempty"`
	BaseExpression  *Node   `json:"baseExpression,omitempty"`
	LeftHandSide    *Node   `json:"leftHandSide,omitempty"`
	RightHandSide   *Node   `json:"rightHandSide,omitempty"`
	LeftExpression  *Node   `json:"leftExpression,omitempty"`
	RightExpression *Node   `json:"rightExpression,omitempty"`
	SubExpression   *Node   `json:"subExpression,omitempty"`
	TrueExpression  *Node   `json:"trueExpression,omitempty"`
	FalseExpression *Node   `json:"falseExpression,omitempty"`
	Components      []*Node `json:"components,omitempty"`

	// "value": literal text on Literal nodes, an initializer expression
	// on state-variable declarations.
	Value     string `json:"-"`
	ValueExpr *Node  `json:"-"`
}

// UnmarshalJSON decodes a solc compact-JSON node. Two keys are
// polymorphic across node kinds ("value" and "parameters") and are
// redirected here based on their JSON shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	aux := struct {
		*plain
		Value      json.RawMessage `json:"value,omitempty"`
		Parameters json.RawMessage `json:"parameters,omitempty"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Value) > 0 {
		if aux.Value[0] == '{' {
			if err := json.Unmarshal(aux.Value, &n.ValueExpr); err != nil {
				return err
			}
		} else if aux.Value[0] == '"' {
			if err := json.Unmarshal(aux.Value, &n.Value); err != nil {
				return err
			}
		}
	}
	if len(aux.Parameters) > 0 {
		switch aux.Parameters[0] {
		case '{':
			if err := json.Unmarshal(aux.Parameters, &n.Parameters); err != nil {
				return err
			}
		case '[':
			if err := json.Unmarshal(aux.Parameters, &n.ParamList); err != nil {
				return err
			}
		}
	}
	return nil
}

// children returns the node's direct children in source order. The
// switch enumerates the structured kinds; the default arm covers the
// remaining expression/statement kinds via their shared fields.
func (n *Node) children() []*Node {
	switch n.Kind {
	case KindSourceUnit:
		return n.Nodes
	case KindContractDefinition:
		return concat(n.BaseContracts, n.Nodes)
	case KindInheritanceSpecifier:
		return concat(single(n.BaseName), n.Arguments)
	case KindFunctionDefinition, KindModifierDefinition:
		return concat(single(n.Parameters), single(n.ReturnParameters), n.Modifiers, single(n.Body))
	case KindModifierInvocation:
		return concat(single(n.ModifierName), n.Arguments)
	case KindEventDefinition, KindErrorDefinition:
		return single(n.Parameters)
	case KindStructDefinition:
		return n.Nodes
	case KindUsingForDirective:
		return concat(single(n.LibraryName), single(n.TypeName))
	case KindVariableDeclaration:
		return concat(single(n.TypeName), single(n.ValueExpr))
	case KindParameterList:
		return n.ParamList
	case KindMapping:
		return concat(single(n.KeyType), single(n.ValueType))
	case KindArrayTypeName:
		return single(n.BaseType)
	case KindUserDefinedTypeName:
		return single(n.PathNode)
	case KindBlock, KindUncheckedBlock:
		return n.Statements
	case KindExpressionStatement:
		return single(n.Expression)
	case KindVariableDeclarationStatement:
		return concat(n.Declarations, single(n.InitialValue))
	case KindIfStatement:
		return concat(single(n.Condition), single(n.TrueBody), single(n.FalseBody))
	case KindForStatement:
		return concat(single(n.InitExpression), single(n.Condition), single(n.LoopExpression), single(n.Body))
	case KindWhileStatement, KindDoWhileStatement:
		return concat(single(n.Condition), single(n.Body))
	case KindReturn:
		return single(n.Expression)
	case KindEmitStatement:
		return single(n.EventCall)
	case KindRevertStatement:
		return single(n.ErrorCall)
	case KindTryStatement:
		return concat(single(n.ExternalCall), n.Clauses)
	case KindTryCatchClause:
		return concat(single(n.Parameters), single(n.Block))
	case KindFunctionCall, KindFunctionCallOptions:
		return concat(single(n.Expression), n.Options, n.Arguments)
	case KindMemberAccess:
		return single(n.Expression)
	case KindIndexAccess:
		return concat(single(n.BaseExpression), single(n.IndexExpression))
	case KindAssignment:
		return concat(single(n.LeftHandSide), single(n.RightHandSide))
	case KindBinaryOperation:
		return concat(single(n.LeftExpression), single(n.RightExpression))
	case KindUnaryOperation:
		return single(n.SubExpression)
	case KindConditional:
		return concat(single(n.Condition), single(n.TrueExpression), single(n.FalseExpression))
	case KindTupleExpression:
		return n.Components
	case KindNewExpression:
		return single(n.TypeName)
	default:
		// Kinds with no analyzer-relevant structure (pragmas, literals,
		// identifiers) plus any future solc node types: traverse every
		// populated child field so no call expression is missed.
		return concat(
			single(n.Expression), n.Arguments, n.Statements, n.Nodes,
			single(n.Body), single(n.TypeName), n.Declarations,
			single(n.InitialValue), n.Components,
		)
	}
}

func single(n *Node) []*Node {
	if n == nil {
		return nil
	}
	return []*Node{n}
}

func concat(lists ...[]*Node) []*Node {
	var out []*Node
	for _, l := range lists {
		for _, n := range l {
			if n != nil {
				out = append(out, n)
			}
		}
	}
	return out
}
