// Package transform implements the single post-order AST rewrite pass that
// lowers the extended dialect to plain Yul (spec §4.4). Grounded on
// tol/lower/lower.go's calling convention (one lowering method per AST
// kind, returning freshly built nodes rather than mutating in place) and
// tol/sema/sema.go's scope-walking idiom.
package transform

import (
	"fmt"

	"github.com/tos-network/toyul/abi"
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/builtins"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/evmversion"
	"github.com/tos-network/toyul/parser"
	"github.com/tos-network/toyul/scope"
)

// parseIncluded parses the contents of an included file, delegating to the
// parser package's entrypoint; dir is the resolved directory carried
// through Includer.Resolve for nested include lookups.
func parseIncluded(dir, filename string, src []byte) (*ast.Root, diag.Diagnostics) {
	return parser.ParseFile(filename, src)
}

// Includer resolves an `include "file"` statement's contents, keeping the
// filesystem read at the boundary the root entrypoint controls (spec §5
// "anything touching the filesystem ... takes a context.Context").
type Includer interface {
	Resolve(baseDir, filename string) (src []byte, resolvedDir string, err error)
}

// Options configures one transform run (spec §6 "Optional configuration").
type Options struct {
	Filename    string
	Debug       bool
	HardFork    string
	Deopt       map[byte]bool
	Macros      map[string]ast.Expr
	Includer    Includer
	BuiltinLevel string // none | support-only | full
}

// Transformer holds the mutable state threaded through one lowering run:
// the current hard-fork ordinal, debug flag, deopt set, a digest of
// included file contents, and the ABI collectors keyed by contract name.
type Transformer struct {
	opts       Options
	hardfork   int
	diags      diag.Diagnostics
	license    string
	deopt      map[byte]bool
	includeSig []byte // running digest fold of included filenames+contents
	collectors map[string]*abi.Collector
	depth      int // structural nesting depth, for helper naming (__emit_Name_<depth>)

	structLayouts map[string]*StructLayout
	interfaceDecl map[string]*ast.Interface
	helperPool    map[string]*ast.FunctionDef // materialised helper templates, see dependency.go
	mutexSlot     string                      // storage slot key set by the `lock` pragma, for `locked` methods

	// currentCollector/currentContract track which contract is being
	// desugared. The scope tree's nesting does not reliably alternate
	// Object-scope parity the way scope.FindContractBlock assumes (a
	// contract lowers to exactly two nested ObjectBlocks, not three), so
	// the transformer threads this explicitly instead of leaning on that
	// lookup for its own contract-scoped bookkeeping.
	currentCollector *abi.Collector
	currentContract  string

	tmpCounter int // source of unique local names for synthesized statements
}

// freshName returns a local name guaranteed unique within this run, used
// when a lowering step needs to introduce a `let` binding of its own
// (e.g. the scratch pointer for an emit/throw encoder) without risking a
// collision with a sibling statement's own scratch binding.
func (tr *Transformer) freshName(prefix string) string {
	tr.tmpCounter++
	return fmt.Sprintf("%s_%d", prefix, tr.tmpCounter)
}

// Result is everything a single transform run produces.
type Result struct {
	Root       *ast.Root
	Collectors map[string]*abi.Collector
	Diags      diag.Diagnostics

	// IncludeDigestInput is the running fold of (filename, contents) byte
	// pairs for every `include` resolved during this run, in include order
	// (spec §6 "Metadata"). It does not itself contain the entry file — the
	// root entrypoint prepends that before hashing, since the transformer
	// only ever observes source text that flows through lowerInclude.
	IncludeDigestInput []byte
}

func New(opts Options) *Transformer {
	ord := evmversion.Cancun
	if opts.HardFork != "" {
		if v, err := evmversion.Resolve(opts.HardFork); err == nil {
			ord = v
		}
	}
	deopt := opts.Deopt
	if deopt == nil {
		deopt = map[byte]bool{}
	}
	return &Transformer{
		opts:       opts,
		hardfork:   ord,
		deopt:      deopt,
		collectors: map[string]*abi.Collector{},
	}
}

// Run lowers root into plain-Yul-compatible form.
func Run(root *ast.Root, opts Options) *Result {
	tr := New(opts)
	sc := scope.New()
	if bd := builtins.Load(opts.BuiltinLevel, sc); bd.HasErrors() {
		tr.diags = append(tr.diags, bd...)
	}
	for name, expr := range opts.Macros {
		sc.AddConst(name, expr)
	}

	out := &ast.Root{}
	for _, item := range root.Items {
		lowered := tr.lowerTopLevel(item, sc)
		out.Items = append(out.Items, lowered...)
	}
	return &Result{Root: out, Collectors: tr.collectors, Diags: tr.diags, IncludeDigestInput: tr.includeSig}
}

func (tr *Transformer) errorf(kind diag.Kind, code string, pos ast.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tr.diags.Add(diag.New(kind, code, msg, diag.Span{File: tr.opts.Filename,
		Start: diag.Position{Line: pos.Pos().Line, Column: pos.Pos().Column}}))
}

// lowerTopLevel dispatches one top-level item, possibly expanding into
// several output items (Fold branches, Enum members, included files).
func (tr *Transformer) lowerTopLevel(item ast.TopLevel, sc *scope.Scope) []ast.TopLevel {
	switch n := item.(type) {
	case *ast.Pragma:
		tr.applyPragma(n, sc)
		return nil
	case *ast.Fold:
		return tr.lowerFoldTopLevel(n, sc)
	case *ast.IncludeCall:
		return tr.lowerInclude(n, sc)
	case *ast.Enum:
		tr.lowerEnum(n, sc)
		return nil
	case *ast.StructDefinition:
		if err := tr.registerStructDef(sc, n); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
		}
		return nil
	case *ast.Interface:
		tr.lowerInterface(n, sc)
		return nil
	case *ast.Contract:
		return tr.lowerContract(n, sc)
	case *ast.ObjectBlock:
		return []ast.TopLevel{tr.lowerObjectBlock(n, sc)}
	case *ast.MacroConstant:
		sc.AddConst(n.Name, n.Expr)
		return nil
	case *ast.MacroDefinition:
		sc.AddMacro(n)
		return nil
	case *ast.ConstDeclaration:
		tr.lowerConstDeclaration(n, sc)
		return nil
	case *ast.FunctionDef:
		if fd := tr.lowerFunctionDef(n, sc); fd != nil {
			return []ast.TopLevel{fd}
		}
		return nil
	default:
		return nil
	}
}

func (tr *Transformer) applyPragma(p *ast.Pragma, sc *scope.Scope) {
	switch p.Name {
	case ast.PragmaLicense:
		tr.license = p.Value
	case ast.PragmaEVM:
		if v, err := evmversion.Resolve(p.Value); err == nil {
			tr.hardfork = v
		} else {
			tr.errorf(diag.KindVersion, diag.CodeVersionMismatch, p, "unknown hard-fork %q", p.Value)
		}
	case ast.PragmaOptimize:
		for _, c := range []byte(p.Value) {
			delete(tr.deopt, c)
		}
	case ast.PragmaDeoptimize:
		for _, c := range []byte(p.Value) {
			tr.deopt[c] = true
		}
	case ast.PragmaSolc, ast.PragmaYulc:
		// recorded for a future semver check; no enforcement without a
		// configured expected version.
	case ast.PragmaLock:
		tr.mutexSlot = p.Value
		tr.registerMutexSlotHelper()
	}
}

func (tr *Transformer) lowerFoldTopLevel(f *ast.Fold, sc *scope.Scope) []ast.TopLevel {
	block := tr.selectFoldBranch(f, sc)
	if block == nil {
		return nil
	}
	var out []ast.TopLevel
	for _, s := range block.Statements {
		if tl, ok := s.(ast.TopLevel); ok {
			out = append(out, tr.lowerTopLevel(tl, sc)...)
		}
	}
	return out
}

// selectFoldBranch evaluates @if/elif/else conditions in order, requiring
// each to reduce to a literal (spec §4.4 "Preprocessor Fold").
func (tr *Transformer) selectFoldBranch(f *ast.Fold, sc *scope.Scope) *ast.Block {
	if ok, isTrue := tr.evalFoldCond(f.Cond, sc); ok {
		if isTrue {
			return f.Block
		}
	}
	for _, e := range f.Elifs {
		if ok, isTrue := tr.evalFoldCond(e.Cond, sc); ok && isTrue {
			return e.Block
		}
	}
	return f.Else
}

func (tr *Transformer) evalFoldCond(e ast.Expr, sc *scope.Scope) (ok, isTrue bool) {
	folded := tr.foldExpr(tr.resolveConstRefs(e, sc), sc)
	lit, isLit := folded.(*ast.Literal)
	if !isLit {
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, e, "preprocessor condition did not reduce to a literal")
		return false, false
	}
	v, err := literalToBig(lit)
	if err != nil {
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, e, "%v", err)
		return false, false
	}
	return true, v.Sign() != 0
}

func (tr *Transformer) lowerInclude(n *ast.IncludeCall, sc *scope.Scope) []ast.TopLevel {
	if tr.opts.Includer == nil {
		tr.errorf(diag.KindIO, diag.CodeIOInclude, n, "no includer configured for include %q", n.Filename)
		return nil
	}
	src, dir, err := tr.opts.Includer.Resolve(n.BaseDir, n.Filename)
	if err != nil {
		tr.errorf(diag.KindIO, diag.CodeIOInclude, n, "include %q: %v", n.Filename, err)
		return nil
	}
	tr.includeSig = append(tr.includeSig, []byte(n.Filename)...)
	tr.includeSig = append(tr.includeSig, src...)

	subRoot, subDiags := parseIncluded(dir, n.Filename, src)
	tr.diags = append(tr.diags, subDiags...)
	var out []ast.TopLevel
	for _, item := range subRoot.Items {
		out = append(out, tr.lowerTopLevel(item, sc)...)
	}
	return out
}

// lowerEnum registers each member as a constant in sc (spec §4.4 "Enum").
func (tr *Transformer) lowerEnum(e *ast.Enum, sc *scope.Scope) {
	next := int64(0)
	for _, m := range e.Members {
		var expr ast.Expr
		if m.Value != nil {
			folded := tr.foldExpr(tr.resolveConstRefs(m.Value, sc), sc)
			lit, ok := folded.(*ast.Literal)
			if !ok {
				tr.errorf(diag.KindStatic, diag.CodeStaticAbort, m.Value, "enum member %q value must fold to a literal", m.Name)
				continue
			}
			v, err := literalToBig(lit)
			if err != nil {
				tr.errorf(diag.KindStatic, diag.CodeStaticAbort, m.Value, "%v", err)
				continue
			}
			next = v.Int64()
			expr = lit
		} else {
			expr = &ast.Literal{Subtype: ast.LitDecimalNumber, Value: fmt.Sprintf("%d", next)}
		}
		name := m.Name
		if e.Prefix != "" {
			name = e.Prefix + "." + m.Name
		}
		if err := sc.AddConst(name, expr); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, e, "%v", err)
		}
		next++
	}
}

func (tr *Transformer) lowerConstDeclaration(n *ast.ConstDeclaration, sc *scope.Scope) {
	if !n.Wrap {
		if err := sc.AddConst(n.Name, n.Expr); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
		}
		return
	}
	// `const x() := expr` — a hidden zero-arg non-inlinable function;
	// callers are rewritten at FunctionCall lowering time (see expr.go).
	fn := &ast.FunctionDef{
		Name:     "__const_" + n.Name,
		NoInline: true,
		Returns:  []ast.TypedIdent{{Name: "result"}},
		Body: &ast.Block{Statements: []ast.Stmt{
			&ast.Assignment{LHS: []string{"result"}, RHS: n.Expr},
		}},
	}
	if err := sc.AddFunc(fn); err != nil {
		tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
		return
	}
	if err := sc.AddConst(n.Name, &ast.FunctionCall{Name: "__const_" + n.Name}); err != nil {
		tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
	}
}

func (tr *Transformer) lowerObjectBlock(n *ast.ObjectBlock, sc *scope.Scope) *ast.ObjectBlock {
	objScope := sc.Push(scope.KindObject)
	out := &ast.ObjectBlock{Base: n.Base, Name: n.Name}
	for _, s := range n.Body {
		switch b := s.(type) {
		case *ast.CodeBlock:
			out.Body = append(out.Body, tr.lowerCodeBlock(b, objScope))
		case *ast.ObjectBlock:
			out.Body = append(out.Body, tr.lowerObjectBlock(b, objScope))
		case *ast.DataValue:
			out.Body = append(out.Body, b)
		}
	}
	flushObjectData(out, objScope)
	return out
}

func (tr *Transformer) lowerCodeBlock(n *ast.CodeBlock, sc *scope.Scope) *ast.CodeBlock {
	codeScope := sc.Push(scope.KindCode)
	body := tr.lowerBlock(n.Body, codeScope)
	tr.materializeDependencies(body, codeScope)
	return &ast.CodeBlock{Base: n.Base, Body: body}
}

func (tr *Transformer) lowerBlock(b *ast.Block, sc *scope.Scope) *ast.Block {
	if b == nil {
		return nil
	}
	blockScope := sc.Push(scope.KindBlock)
	out := &ast.Block{Base: b.Base}
	for _, s := range b.Statements {
		if lowered := tr.lowerStmt(s, blockScope); lowered != nil {
			out.Statements = append(out.Statements, lowered...)
		}
	}
	return out
}
