// Package serializer renders a lowered ast.Root back to canonical plain-Yul
// source text (spec §4.5): one shape per construct, two-space indentation,
// long ABI-style argument lists wrapped past 77 columns. Grounded on
// tol_toi.go's BuildTOIFromModuleWithOptions, generalized from a one-shot
// interface-stub emitter keyed off strings.Builder into a full recursive
// pretty-printer over every plain-Yul node kind a transform run can
// produce.
package serializer

import (
	"fmt"
	"strings"

	"github.com/tos-network/toyul/ast"
)

const indentUnit = "  "

// wrapWidth is the column past which a call/definition's argument list is
// broken one-per-line (spec §4.5 "wraps the argument list when the
// resulting line exceeds 77 characters").
const wrapWidth = 77

// printer accumulates output text and tracks the current indent depth.
type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) indent() string { return strings.Repeat(indentUnit, p.depth) }

func (p *printer) line(format string, args ...any) {
	p.b.WriteString(p.indent())
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) raw(s string) { p.b.WriteString(s) }

// Emit renders root's items in order, one construct per top-level entry,
// separated by a blank line the way the teacher's own TOL source and this
// dialect's fixtures are formatted.
func Emit(root *ast.Root) (string, error) {
	p := &printer{}
	for i, item := range root.Items {
		if i > 0 {
			p.raw("\n")
		}
		if err := p.topLevel(item); err != nil {
			return "", err
		}
	}
	return p.b.String(), nil
}

func (p *printer) topLevel(item ast.TopLevel) error {
	switch n := item.(type) {
	case *ast.ObjectBlock:
		return p.objectBlock(n)
	case *ast.FunctionDef:
		return p.functionDef(n)
	default:
		return fmt.Errorf("serializer: unexpected top-level node %T", item)
	}
}

func (p *printer) objectBlock(n *ast.ObjectBlock) error {
	p.line("object %q {", n.Name)
	p.depth++
	for _, s := range n.Body {
		if err := p.stmt(s); err != nil {
			return err
		}
	}
	p.depth--
	p.line("}")
	return nil
}

func (p *printer) dataValue(n *ast.DataValue) {
	if n.IsHex {
		p.line("data %q hex%q", n.Name, n.Value)
	} else {
		p.line("data %q %q", n.Name, n.Value)
	}
}

func (p *printer) codeBlock(n *ast.CodeBlock) error {
	p.line("code {")
	p.depth++
	if err := p.blockStatements(n.Body); err != nil {
		return err
	}
	p.depth--
	p.line("}")
	return nil
}

// blockStatements renders the contents of a Block without the surrounding
// braces, which every caller (code, function body, if/for/switch bodies)
// prints itself so it can control same-line vs. own-line brace placement.
func (p *printer) blockStatements(b *ast.Block) error {
	if b == nil {
		return nil
	}
	for _, s := range b.Statements {
		if err := p.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// braceBlock prints `{ }` on one line for an empty block, else a normal
// brace-delimited, indented statement list — matching how Yul's own
// reference formatter collapses empty for-loop init/post clauses.
func (p *printer) braceBlock(b *ast.Block) error {
	if b == nil || len(b.Statements) == 0 {
		p.raw("{}")
		return nil
	}
	p.raw("{\n")
	p.depth++
	if err := p.blockStatements(b); err != nil {
		return err
	}
	p.depth--
	p.raw(p.indent() + "}")
	return nil
}

func (p *printer) functionDef(n *ast.FunctionDef) error {
	sig := "function " + n.Name + "(" + p.wrappedIdentList(n.Params, len("function "+n.Name+"(")) + ")"
	if len(n.Returns) > 0 {
		sig += " -> " + joinTypedIdents(n.Returns)
	}
	p.line("%s {", sig)
	p.depth++
	if err := p.blockStatements(n.Body); err != nil {
		return err
	}
	p.depth--
	p.line("}")
	return nil
}

func joinTypedIdents(ps []ast.TypedIdent) string {
	parts := make([]string, len(ps))
	for i, tp := range ps {
		if tp.Type != "" {
			parts[i] = tp.Name + ": " + tp.Type
		} else {
			parts[i] = tp.Name
		}
	}
	return strings.Join(parts, ", ")
}

// wrappedIdentList renders a parameter list inline unless doing so would
// push the line past wrapWidth, in which case each parameter goes on its
// own continuation line indented one level deeper than the signature.
func (p *printer) wrappedIdentList(ps []ast.TypedIdent, prefixLen int) string {
	inline := joinTypedIdents(ps)
	if prefixLen+len(inline)+1 <= wrapWidth || len(ps) == 0 {
		return inline
	}
	inner := strings.Repeat(indentUnit, p.depth+1)
	var b strings.Builder
	for i, tp := range ps {
		if i > 0 {
			b.WriteString(",\n")
		} else {
			b.WriteString("\n")
		}
		b.WriteString(inner)
		if tp.Type != "" {
			b.WriteString(tp.Name + ": " + tp.Type)
		} else {
			b.WriteString(tp.Name)
		}
	}
	b.WriteString("\n" + strings.Repeat(indentUnit, p.depth))
	return b.String()
}
