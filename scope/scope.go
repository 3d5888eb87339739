// Package scope implements the lexical scope stack (spec §4.3): per-scope
// symbol tables plus the ambient calldata/depends/data/immutable slots the
// transformer consults while lowering a method body. Grounded on
// tol/sema/sema.go's storageCheckCtx push/pop pattern, generalized from a
// single fixed-shape struct into one that tracks every symbol kind the
// extended dialect needs.
package scope

import (
	"fmt"

	"github.com/tos-network/toyul/ast"
)

// Immutable is one constructor-captured (name, value) pair released by the
// `construct(...)` intrinsic.
type Immutable struct {
	Name  string
	Value ast.Expr
}

// DataBlob is a literal blob allocated in the enclosing ObjectBlock's data
// section and referenced by `datareference(name)`.
type DataBlob struct {
	Name  string
	Value string
	IsHex bool
}

// Kind distinguishes the scope boundaries the transformer needs to walk
// outward to (code scope, object scope, contract block).
type Kind int

const (
	KindBlock Kind = iota
	KindCode
	KindObject
	KindConstructor
	KindMethod
)

// Scope is one entry in the lexical scope stack.
type Scope struct {
	parent *Scope
	kind   Kind
	depth  int

	consts     map[string]ast.Expr
	structs    map[string]*ast.StructDefinition
	macros     map[string]*ast.MacroDefinition
	funcs      map[string]*ast.FunctionDef
	interfaces map[string]*ast.Interface
	methods    map[string]*ast.MethodDecl
	events     map[string]*ast.EventDecl
	errors     map[string]*ast.ErrorDecl
	vars       map[string]ast.Expr
	varTypes   map[string]string

	Calldata  *ast.MethodDecl
	Depends   map[string]bool
	Data      []DataBlob
	Immutable []Immutable
}

// New creates the root scope.
func New() *Scope {
	return newScope(nil, KindBlock)
}

func newScope(parent *Scope, kind Kind) *Scope {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	return &Scope{
		parent:     parent,
		kind:       kind,
		depth:      depth,
		consts:     map[string]ast.Expr{},
		structs:    map[string]*ast.StructDefinition{},
		macros:     map[string]*ast.MacroDefinition{},
		funcs:      map[string]*ast.FunctionDef{},
		interfaces: map[string]*ast.Interface{},
		methods:    map[string]*ast.MethodDecl{},
		events:     map[string]*ast.EventDecl{},
		errors:     map[string]*ast.ErrorDecl{},
		vars:       map[string]ast.Expr{},
		varTypes:   map[string]string{},
		Depends:    map[string]bool{},
	}
}

// Push opens a nested scope of the given kind.
func (s *Scope) Push(kind Kind) *Scope { return newScope(s, kind) }

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Depth returns this scope's nesting depth, root = 0.
func (s *Scope) Depth() int { return s.depth }

func redefErr(kind, name string) error {
	return fmt.Errorf("%s %q already defined in this scope", kind, name)
}

func (s *Scope) AddConst(name string, v ast.Expr) error {
	if _, ok := s.consts[name]; ok {
		return redefErr("const", name)
	}
	s.consts[name] = v
	return nil
}

func (s *Scope) AddStruct(def *ast.StructDefinition) error {
	if _, ok := s.structs[def.Name]; ok {
		return redefErr("struct", def.Name)
	}
	s.structs[def.Name] = def
	return nil
}

func (s *Scope) AddMacro(def *ast.MacroDefinition) error {
	if _, ok := s.macros[def.Name]; ok {
		return redefErr("macro", def.Name)
	}
	s.macros[def.Name] = def
	return nil
}

func (s *Scope) AddFunc(def *ast.FunctionDef) error {
	if _, ok := s.funcs[def.Name]; ok {
		return redefErr("function", def.Name)
	}
	s.funcs[def.Name] = def
	return nil
}

func (s *Scope) AddInterface(def *ast.Interface) error {
	if _, ok := s.interfaces[def.Name]; ok {
		return redefErr("interface", def.Name)
	}
	s.interfaces[def.Name] = def
	return nil
}

func (s *Scope) AddMethod(def *ast.MethodDecl) error {
	if _, ok := s.methods[def.Name]; ok {
		return redefErr("method", def.Name)
	}
	s.methods[def.Name] = def
	return nil
}

func (s *Scope) AddEvent(def *ast.EventDecl) error {
	if _, ok := s.events[def.Name]; ok {
		return redefErr("event", def.Name)
	}
	s.events[def.Name] = def
	return nil
}

func (s *Scope) AddError(def *ast.ErrorDecl) error {
	if _, ok := s.errors[def.Name]; ok {
		return redefErr("error", def.Name)
	}
	s.errors[def.Name] = def
	return nil
}

func (s *Scope) AddVar(name string, v ast.Expr) error {
	if _, ok := s.vars[name]; ok {
		return redefErr("variable", name)
	}
	s.vars[name] = v
	return nil
}

// lookup walks the parent chain; get selects the per-scope table entry.
func lookupConst(s *Scope, name string) (ast.Expr, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.consts[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupConst(name string) (ast.Expr, bool) { return lookupConst(s, name) }

// DeleteConst removes name from the nearest scope that actually defines
// it, implementing the `undefine(name)` intrinsic.
func (s *Scope) DeleteConst(name string) {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.consts[name]; ok {
			delete(c.consts, name)
			return
		}
	}
}

func (s *Scope) LookupStruct(name string) (*ast.StructDefinition, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.structs[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupMacro(name string) (*ast.MacroDefinition, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.macros[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupFunc(name string) (*ast.FunctionDef, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.funcs[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupInterface(name string) (*ast.Interface, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.interfaces[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupMethod(name string) (*ast.MethodDecl, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.methods[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupEvent(name string) (*ast.EventDecl, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.events[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupError(name string) (*ast.ErrorDecl, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.errors[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) LookupVar(name string) (ast.Expr, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupCalldata walks outward for the bound Method, used to resolve
// `calldata.x` / `&calldata.x` identifiers.
func (s *Scope) LookupCalldata() (*ast.MethodDecl, bool) {
	for c := s; c != nil; c = c.parent {
		if c.Calldata != nil {
			return c.Calldata, true
		}
	}
	return nil, false
}

// DependsOn registers name as required in the nearest enclosing
// CodeBlock/Constructor scope (spec §4.3).
func (s *Scope) DependsOn(name string) {
	target := s.FindCodeScope()
	if target == nil {
		target = s
	}
	target.Depends[name] = true
}

// FindCodeScope walks outward to the nearest KindCode or KindConstructor
// scope.
func (s *Scope) FindCodeScope() *Scope {
	for c := s; c != nil; c = c.parent {
		if c.kind == KindCode || c.kind == KindConstructor {
			return c
		}
	}
	return nil
}

// FindObjectScope walks outward to the nearest KindObject scope.
func (s *Scope) FindObjectScope() *Scope {
	for c := s; c != nil; c = c.parent {
		if c.kind == KindObject {
			return c
		}
	}
	return nil
}

// FindContractBlock walks outward to the nearest odd-depth ObjectBlock
// scope, representing the deployed runtime object (the outer object is the
// creation-time wrapper at even depth, the inner "runtime" object sits one
// level deeper).
func (s *Scope) FindContractBlock() *Scope {
	for c := s; c != nil; c = c.parent {
		if c.kind == KindObject && c.depth%2 == 1 {
			return c
		}
	}
	return nil
}

// AddImmutable records a constructor-time immutable capture.
func (s *Scope) AddImmutable(name string, v ast.Expr) {
	target := s
	if cs := s.FindCodeScope(); cs != nil {
		target = cs
	}
	target.Immutable = append(target.Immutable, Immutable{Name: name, Value: v})
}

// SetVarType records the struct-type name a local was initialized from
// (e.g. `let p := Point{...}`), used by MemberIdentifier/MemberAssignment
// lowering to find the struct's packing layout without a full type system.
func (s *Scope) SetVarType(name, typ string) { s.varTypes[name] = typ }

// VarType walks the parent chain for a local's recorded struct-type name.
func (s *Scope) VarType(name string) (string, bool) {
	for c := s; c != nil; c = c.parent {
		if t, ok := c.varTypes[name]; ok {
			return t, true
		}
	}
	return "", false
}

// AddData allocates a literal blob in the enclosing object scope.
func (s *Scope) AddData(name, value string, isHex bool) {
	target := s.FindObjectScope()
	if target == nil {
		target = s
	}
	target.Data = append(target.Data, DataBlob{Name: name, Value: value, IsHex: isHex})
}
