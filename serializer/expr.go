package serializer

import (
	"fmt"
	"strconv"

	"github.com/tos-network/toyul/ast"
)

// expr renders one expression-position node to its plain-Yul text form.
// MemberIdentifier, CallDataIdentifier, and IdentifierList never survive a
// transform run — every read against them is rewritten to a plain
// Identifier or a word-decoding FunctionCall before this package ever sees
// the tree — so they are not handled here.
func (p *printer) expr(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Value, nil
	case *ast.Literal:
		return p.literal(n)
	case *ast.FunctionCall:
		return p.call(n)
	default:
		return "", fmt.Errorf("serializer: unexpected expression node %T", e)
	}
}

func (p *printer) literal(n *ast.Literal) (string, error) {
	switch n.Subtype {
	case ast.LitDecimalNumber, ast.LitHexNumber:
		return n.Value, nil
	case ast.LitBool:
		return n.Value, nil
	case ast.LitString:
		return strconv.Quote(n.Value), nil
	case ast.LitHex:
		return "hex" + strconv.Quote(n.Value), nil
	default:
		return "", fmt.Errorf("serializer: unknown literal subtype %q", n.Subtype)
	}
}

func (p *printer) call(n *ast.FunctionCall) (string, error) {
	parts := make([]string, len(n.Args))
	total := len(n.Name) + 2
	for i, a := range n.Args {
		s, err := p.expr(a)
		if err != nil {
			return "", err
		}
		parts[i] = s
		total += len(s) + 2
	}
	inline := n.Name + "(" + joinStrings(parts, ", ") + ")"
	if total <= wrapWidth || len(parts) == 0 {
		return inline, nil
	}
	inner := p.indent() + indentUnit
	body := ""
	for i, s := range parts {
		if i > 0 {
			body += ",\n" + inner + s
		} else {
			body += "\n" + inner + s
		}
	}
	return n.Name + "(" + body + "\n" + p.indent() + ")", nil
}
