// Package ast defines the tagged-variant AST for the extended Yul dialect
// (spec §3). Grounded in shape on tol/ast/ast.go, but generalized from the
// teacher's flat "Kind string + every possible field" Statement/Expr structs
// into a proper tagged-variant node algebra (spec §9: "define the AST as a
// tagged variant set ... a generic traversal helper handles the
// boilerplate"): a Node interface implemented by one concrete Go type per
// AST kind, plus a generic Walk helper in walk.go.
package ast

import "github.com/tos-network/toyul/token"

// Node is implemented by every AST kind. Pos anchors diagnostics and the
// `source filename/line` stamp the spec requires on FunctionCall nodes.
type Node interface {
	Pos() token.Position
}

// Stmt is the marker interface for statement-position nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the marker interface for expression-position nodes.
type Expr interface {
	Node
	exprNode()
}

// TopLevel is the marker interface for items that can appear at file scope
// (before or instead of a Contract declaration).
type TopLevel interface {
	Node
	topLevelNode()
}

type Base struct {
	P token.Position
}

func (b Base) Pos() token.Position { return b.P }

// ---- Root ----

type Root struct {
	Base
	Items []TopLevel
}

// ---- Pragma ----

type PragmaKind string

const (
	PragmaLicense    PragmaKind = "license"
	PragmaSolc       PragmaKind = "solc"
	PragmaYulc       PragmaKind = "yulc"
	PragmaEVM        PragmaKind = "evm"
	PragmaOptimize   PragmaKind = "optimize"
	PragmaDeoptimize PragmaKind = "deoptimize"
	PragmaLock       PragmaKind = "lock"
)

type Pragma struct {
	Base
	Name  PragmaKind
	Value string
}

func (*Pragma) topLevelNode() {}
func (*Pragma) stmtNode()     {}

// ---- Fold (@if/elif/else) ----

type ElifBranch struct {
	Cond  Expr
	Block *Block
}

type Fold struct {
	Base
	Cond  Expr
	Block *Block
	Elifs []ElifBranch
	Else  *Block
}

func (*Fold) topLevelNode() {}
func (*Fold) stmtNode()     {}

// ---- Include ----

type IncludeCall struct {
	Base
	BaseDir  string
	Filename string
}

func (*IncludeCall) topLevelNode() {}
func (*IncludeCall) stmtNode()     {}

// ---- Enum ----

type EnumMember struct {
	Name  string
	Value Expr // nil ⇒ previous+1
}

type Enum struct {
	Base
	Prefix  string // optional
	Members []EnumMember
}

func (*Enum) topLevelNode() {}
func (*Enum) stmtNode()     {}

// ---- ABIType ----

type ABIBase string

const (
	ABIUint     ABIBase = "uint"
	ABIInt      ABIBase = "int"
	ABIAddress  ABIBase = "address"
	ABIBool     ABIBase = "bool"
	ABIBytes    ABIBase = "bytes"
	ABIFunction ABIBase = "function"
)

type ABIType struct {
	Base  ABIBase
	Width int // bits; 0 ⇒ dynamic bytes
	Array bool
}

// ---- StructDefinition ----

type StructMember struct {
	Type    ABIType
	Name    string // "+" means padding
	Default Expr   // optional
}

type StructDefinition struct {
	Base
	Name    string
	Members []StructMember
}

func (*StructDefinition) topLevelNode() {}
func (*StructDefinition) stmtNode()     {}

// ---- Interface ----

type MethodParam struct {
	Type ABIType
	Name string // optional
}

type MethodVisibility string

const (
	VisPublic   MethodVisibility = "public"
	VisExternal MethodVisibility = "external"
	VisInternal MethodVisibility = "internal"
	VisPrivate  MethodVisibility = "private"
)

type Mutability string

const (
	MutNonpayable Mutability = ""
	MutPayable    Mutability = "payable"
	MutView       Mutability = "view"
	MutPure       Mutability = "pure"
)

type ConstructorDecl struct {
	Base
	Params     []MethodParam
	Payable    bool
	Unchecked  bool
	Body       *Block // nil for a pure declaration (interface form)
}

func (*ConstructorDecl) stmtNode() {}

type MethodDecl struct {
	Base
	Name       string
	Params     []MethodParam
	Visibility MethodVisibility
	Mutability Mutability
	Locked     bool
	Returns    []MethodParam
	Body       *Block // nil for a pure declaration (interface form)
	Selector   string // optional @selector("0x....") override
}

func (*MethodDecl) stmtNode() {}

type Interface struct {
	Base
	Name        string
	Constructor *ConstructorDecl
	Methods     []*MethodDecl
}

func (*Interface) topLevelNode() {}
func (*Interface) stmtNode()     {}

// ---- EventDecl / ErrorDecl ----

type EventParam struct {
	Type    ABIType
	Name    string
	Indexed bool
}

type EventDecl struct {
	Base
	Name      string
	Params    []EventParam
	Anonymous bool
	Packed    bool
	Inline    bool
}

func (*EventDecl) stmtNode() {}

type ErrorDecl struct {
	Base
	Name   string
	Params []EventParam
}

func (*ErrorDecl) stmtNode() {}

// ---- Contract / ObjectBlock / CodeBlock ----

type ObjectBlock struct {
	Base
	Name  string
	Body  []Stmt // data blocks, nested objects, one code block
}

func (*ObjectBlock) topLevelNode() {}
func (*ObjectBlock) stmtNode()     {}

type CodeBlock struct {
	Base
	Body *Block
}

func (*CodeBlock) stmtNode() {}

// Contract is the extended-dialect sugar form; the Transformer desugars it
// into an ObjectBlock pair (spec §4.4 "Contract").
type Contract struct {
	Base
	Name        string
	Structs     []*StructDefinition
	Events      []*EventDecl
	Errors      []*ErrorDecl
	Methods     []*MethodDecl
	Constructor *ConstructorDecl
	Optimize    bool
}

func (*Contract) topLevelNode() {}
func (*Contract) stmtNode()     {}

// ---- DataValue ----

type DataValue struct {
	Base
	Name  string
	Value string // hex or string literal text
	IsHex bool
}

func (*DataValue) stmtNode() {}

// ---- Block ----

type Block struct {
	Base
	Statements []Stmt
}

func (*Block) stmtNode() {}

// ---- Macro ----

type MacroConstant struct {
	Base
	Name string
	Expr Expr
}

func (*MacroConstant) topLevelNode() {}
func (*MacroConstant) stmtNode()     {}

type MacroDefinition struct {
	Base
	Name   string
	Params []string
	Body   *Block
}

func (*MacroDefinition) topLevelNode() {}
func (*MacroDefinition) stmtNode()     {}

// ---- FunctionDef ----

type TypedIdent struct {
	Name string
	Type string // optional
}

type FunctionDef struct {
	Base
	Name     string
	Params   []TypedIdent
	Returns  []TypedIdent
	NoInline bool
	Builtin  bool
	Body     *Block
}

func (*FunctionDef) stmtNode()     {}
func (*FunctionDef) topLevelNode() {}

// ---- VariableDeclaration / ConstDeclaration ----

type VariableDeclaration struct {
	Base
	Names []TypedIdent
	Init  Expr // optional
}

func (*VariableDeclaration) stmtNode() {}

type ConstDeclaration struct {
	Base
	Name string
	Expr Expr
	Wrap bool // true ⇒ `const x() := expr` function form
}

func (*ConstDeclaration) stmtNode() {}
func (*ConstDeclaration) topLevelNode() {}

// ---- Assignment / MemberAssignment ----

type IdentifierList struct {
	Base
	Names []string
}

func (*IdentifierList) exprNode() {}

type Assignment struct {
	Base
	LHS []string
	RHS Expr
}

func (*Assignment) stmtNode() {}

type MemberAssignment struct {
	Base
	Target *MemberIdentifier
	RHS    Expr
	OrFlag bool // true ⇒ `|=`, false ⇒ `:=`
}

func (*MemberAssignment) stmtNode() {}

// ---- control flow ----

type If struct {
	Base
	Cond Expr
	Body *Block
}

func (*If) stmtNode() {}

type Case struct {
	Base
	Value Expr // literal, nil for Default
	Body  *Block
}

type Switch struct {
	Base
	Expr    Expr
	Cases   []Case
	Default *Block // optional
}

func (*Switch) stmtNode() {}

type ForLoop struct {
	Base
	Init *Block
	Cond Expr
	Post *Block
	Body *Block
}

func (*ForLoop) stmtNode() {}

// While / DoWhile are dialect sugar over ForLoop (spec table lists them
// alongside standard Yul forms as first-class kinds).
type While struct {
	Base
	Cond Expr
	Body *Block
}

func (*While) stmtNode() {}

type DoWhile struct {
	Base
	Body *Block
	Cond Expr
}

func (*DoWhile) stmtNode() {}

type BreakContinueKind string

const (
	BreakKind    BreakContinueKind = "break"
	ContinueKind BreakContinueKind = "continue"
)

type BreakContinue struct {
	Base
	Kind BreakContinueKind
}

func (*BreakContinue) stmtNode() {}

type Leave struct {
	Base
}

func (*Leave) stmtNode() {}

// ---- Emit / Throw ----

type Emit struct {
	Base
	Name   string
	Offset Expr // memory offset for non-indexed payload, optional
	Args   []Expr
}

func (*Emit) stmtNode() {}

type Throw struct {
	Base
	Name string
	Args []Expr
}

func (*Throw) stmtNode() {}

// ---- StructInitializer ----

// StructArg wraps an initializer argument; IsDefault marks the '@' sentinel.
type StructArg struct {
	Expr      Expr
	IsDefault bool
}

type StructInitializer struct {
	Base
	StructName string
	Args       []StructArg
}

func (*StructInitializer) exprNode() {}

// ---- InterfaceCall ----

type InterfaceCallKind string

const (
	ICreate  InterfaceCallKind = "create"
	ICreate2 InterfaceCallKind = "create2"
	ICall    InterfaceCallKind = "call"
)

type InterfaceCall struct {
	Base
	Kind       InterfaceCallKind
	Attempt    bool
	Name       string
	Method     string // optional, for ICall
	Args       []Expr
}

func (*InterfaceCall) exprNode() {}
func (*InterfaceCall) stmtNode() {}

// ---- FunctionCall ----

type FunctionCall struct {
	Base
	Name     string
	Args     []Expr
	File     string
	Line     int
}

func (*FunctionCall) exprNode() {}
func (*FunctionCall) stmtNode() {}

// ---- Literal ----

type LiteralSubtype string

const (
	LitHexNumber     LiteralSubtype = "HexNumber"
	LitDecimalNumber LiteralSubtype = "DecimalNumber"
	LitString        LiteralSubtype = "StringLiteral"
	LitHex           LiteralSubtype = "HexLiteral"
	LitBool          LiteralSubtype = "BoolLiteral"
)

type Literal struct {
	Base
	Subtype LiteralSubtype
	Unit    string // optional
	Value   string
}

func (*Literal) exprNode() {}

// ---- MemberIdentifier / CallDataIdentifier / Identifier ----

type MemberIdentifier struct {
	Base
	BaseName string
	CastType string // optional
	Member   string
}

func (*MemberIdentifier) exprNode() {}

type CallDataIdentifier struct {
	Base
	Member string
	Ref    bool // '&' prefix ⇒ offset, not value
}

func (*CallDataIdentifier) exprNode() {}

type Identifier struct {
	Base
	Value       string
	Replaceable bool // true for macro formal parameters during expansion
}

func (*Identifier) exprNode() {}

// NewPos is a small helper constructor used throughout the parser.
func NewPos(p token.Position) Base { return Base{P: p} }
