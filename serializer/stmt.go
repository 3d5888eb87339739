package serializer

import (
	"fmt"

	"github.com/tos-network/toyul/ast"
)

// stmt renders one statement-position node. Only the node kinds a transform
// run can still produce reach here — Contract, MethodDecl, Emit, Throw,
// While, DoWhile, MemberAssignment and friends are all desugared away
// before serialization ever sees the tree.
func (p *printer) stmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ObjectBlock:
		return p.objectBlock(n)
	case *ast.CodeBlock:
		return p.codeBlock(n)
	case *ast.DataValue:
		p.dataValue(n)
		return nil
	case *ast.FunctionDef:
		return p.functionDef(n)
	case *ast.VariableDeclaration:
		return p.variableDeclaration(n)
	case *ast.Assignment:
		return p.assignment(n)
	case *ast.If:
		return p.ifStmt(n)
	case *ast.Switch:
		return p.switchStmt(n)
	case *ast.ForLoop:
		return p.forLoop(n)
	case *ast.BreakContinue:
		if n.Kind == ast.BreakKind {
			p.line("break")
		} else {
			p.line("continue")
		}
		return nil
	case *ast.Leave:
		p.line("leave")
		return nil
	case *ast.Block:
		p.raw(p.indent())
		if err := p.braceBlock(n); err != nil {
			return err
		}
		p.raw("\n")
		return nil
	case *ast.FunctionCall:
		expr, err := p.expr(n)
		if err != nil {
			return err
		}
		p.line("%s", expr)
		return nil
	default:
		return fmt.Errorf("serializer: unexpected statement node %T", s)
	}
}

func (p *printer) variableDeclaration(n *ast.VariableDeclaration) error {
	names := make([]string, len(n.Names))
	for i, nm := range n.Names {
		names[i] = nm.Name
	}
	head := "let " + joinStrings(names, ", ")
	if n.Init == nil {
		p.line("%s", head)
		return nil
	}
	init, err := p.expr(n.Init)
	if err != nil {
		return err
	}
	p.line("%s := %s", head, init)
	return nil
}

func (p *printer) assignment(n *ast.Assignment) error {
	rhs, err := p.expr(n.RHS)
	if err != nil {
		return err
	}
	p.line("%s := %s", joinStrings(n.LHS, ", "), rhs)
	return nil
}

func (p *printer) ifStmt(n *ast.If) error {
	cond, err := p.expr(n.Cond)
	if err != nil {
		return err
	}
	p.raw(p.indent() + "if " + cond + " ")
	if err := p.braceBlock(n.Body); err != nil {
		return err
	}
	p.raw("\n")
	return nil
}

func (p *printer) switchStmt(n *ast.Switch) error {
	expr, err := p.expr(n.Expr)
	if err != nil {
		return err
	}
	p.line("switch %s", expr)
	p.depth++
	for _, c := range n.Cases {
		val, err := p.expr(c.Value)
		if err != nil {
			return err
		}
		p.raw(p.indent() + "case " + val + " ")
		if err := p.braceBlock(c.Body); err != nil {
			return err
		}
		p.raw("\n")
	}
	if n.Default != nil {
		p.raw(p.indent() + "default ")
		if err := p.braceBlock(n.Default); err != nil {
			return err
		}
		p.raw("\n")
	}
	p.depth--
	return nil
}

func (p *printer) forLoop(n *ast.ForLoop) error {
	p.raw(p.indent() + "for ")
	if err := p.braceBlock(n.Init); err != nil {
		return err
	}
	cond, err := p.expr(n.Cond)
	if err != nil {
		return err
	}
	p.raw(" " + cond + " ")
	if err := p.braceBlock(n.Post); err != nil {
		return err
	}
	p.raw(" ")
	if err := p.braceBlock(n.Body); err != nil {
		return err
	}
	p.raw("\n")
	return nil
}

func joinStrings(ss []string, sep string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}
