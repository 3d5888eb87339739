// Package parser implements the recursive-descent parser for the extended
// Yul dialect (spec §4.2). Grounded on tol/parser/parser.go's
// token-lookahead/expect/diagnostic idiom, generalized from a single fixed
// contract grammar into the full preprocessor/type/interface/contract/
// statement/expression grammar this dialect needs. Backtracking is used at
// exactly the two points the spec calls out: MemberAssignment vs
// MemberIdentifier, and FunctionCall vs bare Identifier.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/lexer"
	"github.com/tos-network/toyul/token"
)

type Parser struct {
	filename string
	lines    []string
	lex      *lexer.Lexer
	cur      token.Token
	diags    diag.Diagnostics
}

// ParseFile strips comments, tokenizes, and parses src into a Root. Doc
// comments are discarded by this layer; the transformer never needs them.
func ParseFile(filename string, src []byte) (*ast.Root, diag.Diagnostics) {
	stripped, _, err := lexer.StripComments(src)
	if err != nil {
		var ds diag.Diagnostics
		ds.Add(diag.New(diag.KindParse, diag.CodeParseUnterminated, err.Error(), diag.Span{File: filename}))
		return &ast.Root{}, ds
	}
	p := &Parser{
		filename: filename,
		lines:    strings.Split(string(src), "\n"),
		lex:      lexer.New(stripped),
	}
	p.next()
	root := &ast.Root{}
	for p.cur.Type != token.EOF {
		item := p.parseTopLevel()
		if item != nil {
			root.Items = append(root.Items, item)
		} else {
			p.next() // avoid infinite loop on unrecoverable input
		}
	}
	return root, p.diags
}

func (p *Parser) next() { p.cur = p.lex.Next() }

func (p *Parser) pos() token.Position { return p.cur.Start }

func (p *Parser) toAstPos(tp token.Position) token.Position { return tp }

func (p *Parser) sourceLine(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	return p.lines[line-1]
}

func (p *Parser) span(t token.Token) diag.Span {
	return diag.Span{
		File:  p.filename,
		Start: diag.Position{Line: t.Start.Line, Column: t.Start.Column},
		End:   diag.Position{Line: t.End.Line, Column: t.End.Column},
	}
}

func (p *Parser) errorf(code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.diags.Add(diag.NewWithLine(diag.KindParse, code, msg, p.span(p.cur), p.sourceLine(p.cur.Start.Line)))
}

// expect consumes the current token if it matches tt, recording a diagnostic
// and leaving the cursor unmoved otherwise. Returns the consumed token.
func (p *Parser) expect(tt token.Type, code, msg string) (token.Token, bool) {
	if p.cur.Type != tt {
		p.errorf(code, "%s, got %s", msg, p.cur.Type)
		return token.Token{}, false
	}
	t := p.cur
	p.next()
	return t, true
}

func (p *Parser) accept(tt token.Type) (token.Token, bool) {
	if p.cur.Type == tt {
		t := p.cur
		p.next()
		return t, true
	}
	return token.Token{}, false
}

// syncTo skips tokens until one of the given types (or EOF) is reached,
// used for error recovery so one bad top-level item doesn't derail parsing
// of the rest of the file.
func (p *Parser) syncTo(types ...token.Type) {
	for p.cur.Type != token.EOF {
		for _, t := range types {
			if p.cur.Type == t {
				return
			}
		}
		p.next()
	}
}

// ---- top level ----

func (p *Parser) parseTopLevel() ast.TopLevel {
	switch p.cur.Type {
	case token.At:
		return p.parsePragma()
	case token.KwFold:
		return p.parseFold(true)
	case token.KwInclude:
		return p.parseInclude()
	case token.KwEnum:
		return p.parseEnum()
	case token.KwStruct:
		return p.parseStructDefinition()
	case token.KwInterface:
		return p.parseInterface()
	case token.KwContract:
		return p.parseContract()
	case token.KwObject:
		return p.parseObjectBlock()
	case token.KwMacro:
		return p.parseMacro()
	case token.KwConst:
		return p.parseConstDeclaration()
	case token.KwFunction:
		return p.parseFunctionDef()
	default:
		p.errorf(diag.CodeParseUnexpected, "unexpected top-level token %s", p.cur.Type)
		p.syncTo(token.At, token.KwFold, token.KwInclude, token.KwEnum, token.KwStruct,
			token.KwInterface, token.KwContract, token.KwObject, token.KwMacro,
			token.KwConst, token.KwFunction)
		return nil
	}
}

// ---- Pragma ----

var pragmaNames = map[string]ast.PragmaKind{
	"license":    ast.PragmaLicense,
	"solc":       ast.PragmaSolc,
	"yulc":       ast.PragmaYulc,
	"evm":        ast.PragmaEVM,
	"optimize":   ast.PragmaOptimize,
	"deoptimize": ast.PragmaDeoptimize,
	"lock":       ast.PragmaLock,
}

func (p *Parser) parsePragma() *ast.Pragma {
	start := p.cur.Start
	p.next() // consume '@'
	nameTok, ok := p.expect(token.Ident, diag.CodeParseBadPragma, "expected pragma name after '@'")
	if !ok {
		return nil
	}
	kind, known := pragmaNames[nameTok.Literal]
	if !known {
		p.errorf(diag.CodeParseBadPragma, "unknown pragma %q", nameTok.Literal)
		kind = ast.PragmaKind(nameTok.Literal)
	}
	value := ""
	if _, ok := p.accept(token.LParen); ok {
		if p.cur.Type == token.StrLit || p.cur.Type == token.Number || p.cur.Type == token.Ident {
			value = p.cur.Literal
			p.next()
		}
		p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close pragma value")
	}
	return &ast.Pragma{Base: ast.NewPos(start), Name: kind, Value: value}
}

// ---- Fold ----

func (p *Parser) parseFold(topLevel bool) ast.TopLevel {
	start := p.cur.Start
	p.next() // 'fold'
	p.expect(token.KwIf, diag.CodeParseExpected, "expected 'if' after 'fold'")
	cond := p.parseExpr()
	block := p.parseBlock()
	f := &ast.Fold{Base: ast.NewPos(start), Cond: cond, Block: block}
	for p.cur.Type == token.KwElif {
		p.next()
		ec := p.parseExpr()
		eb := p.parseBlock()
		f.Elifs = append(f.Elifs, ast.ElifBranch{Cond: ec, Block: eb})
	}
	if _, ok := p.accept(token.KwElse); ok {
		f.Else = p.parseBlock()
	}
	return f
}

// ---- Include ----

func (p *Parser) parseInclude() *ast.IncludeCall {
	start := p.cur.Start
	p.next()
	tok, ok := p.expect(token.StrLit, diag.CodeParseExpected, "expected filename string after 'include'")
	if !ok {
		return nil
	}
	return &ast.IncludeCall{Base: ast.NewPos(start), Filename: tok.Literal}
}

// ---- Enum ----

func (p *Parser) parseEnum() *ast.Enum {
	start := p.cur.Start
	p.next()
	prefix := ""
	if p.cur.Type == token.Ident {
		prefix = p.cur.Literal
		p.next()
	}
	p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open enum body")
	e := &ast.Enum{Base: ast.NewPos(start), Prefix: prefix}
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected enum member name")
		if !ok {
			p.syncTo(token.Comma, token.RBrace)
			p.accept(token.Comma)
			continue
		}
		var val ast.Expr
		if _, ok := p.accept(token.Assign); ok {
			val = p.parseExpr()
		}
		e.Members = append(e.Members, ast.EnumMember{Name: nameTok.Literal, Value: val})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close enum body")
	return e
}

// ---- ABIType ----

func (p *Parser) parseABIType() ast.ABIType {
	tok := p.cur
	p.next()
	t := ast.ABIType{}
	name := tok.Literal
	switch {
	case strings.HasPrefix(name, "uint"):
		t.Base = ast.ABIUint
		t.Width = parseWidth(name, "uint", 256)
	case strings.HasPrefix(name, "int"):
		t.Base = ast.ABIInt
		t.Width = parseWidth(name, "int", 256)
	case name == "address":
		t.Base = ast.ABIAddress
		t.Width = 160
	case name == "bool":
		t.Base = ast.ABIBool
		t.Width = 8
	case strings.HasPrefix(name, "bytes"):
		t.Base = ast.ABIBytes
		t.Width = parseWidth(name, "bytes", 0)
	case name == "function":
		t.Base = ast.ABIFunction
		t.Width = 192
	default:
		p.errorf(diag.CodeTypeGrammar, "unknown ABI type %q", name)
		t.Base = ast.ABIUint
		t.Width = 256
	}
	if _, ok := p.accept(token.LBracket); ok {
		p.expect(token.RBracket, diag.CodeParseExpected, "expected ']' after '[' in array type")
		t.Array = true
	}
	return t
}

func parseWidth(name, prefix string, def int) int {
	suffix := strings.TrimPrefix(name, prefix)
	if suffix == "" {
		return def
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return def
	}
	return n
}

// ---- StructDefinition ----

func (p *Parser) parseStructDefinition() *ast.StructDefinition {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected struct name")
	if !ok {
		return nil
	}
	p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open struct body")
	s := &ast.StructDefinition{Base: ast.NewPos(start), Name: nameTok.Literal}
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		typ := p.parseABIType()
		nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected struct member name")
		if !ok {
			p.syncTo(token.Semicolon, token.RBrace)
			p.accept(token.Semicolon)
			continue
		}
		m := ast.StructMember{Type: typ, Name: nameTok.Literal}
		if _, ok := p.accept(token.Assign); ok {
			m.Default = p.parseExpr()
		}
		s.Members = append(s.Members, m)
		p.accept(token.Semicolon)
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close struct body")
	return s
}

// ---- Interface ----

func (p *Parser) parseMethodParams() []ast.MethodParam {
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' to open parameter list")
	var params []ast.MethodParam
	for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
		typ := p.parseABIType()
		name := ""
		if p.cur.Type == token.Ident {
			name = p.cur.Literal
			p.next()
		}
		params = append(params, ast.MethodParam{Type: typ, Name: name})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close parameter list")
	return params
}

func (p *Parser) parseMutabilityAndVisibility() (ast.MethodVisibility, ast.Mutability, bool) {
	vis := ast.VisPublic
	mut := ast.MutNonpayable
	locked := false
loop:
	for {
		switch p.cur.Type {
		case token.KwPublic:
			vis = ast.VisPublic
			p.next()
		case token.KwExternal:
			vis = ast.VisExternal
			p.next()
		case token.KwInternal:
			vis = ast.VisInternal
			p.next()
		case token.KwPrivate:
			vis = ast.VisPrivate
			p.next()
		case token.KwPayable:
			mut = ast.MutPayable
			p.next()
		case token.KwView:
			mut = ast.MutView
			p.next()
		case token.KwPure:
			mut = ast.MutPure
			p.next()
		case token.KwLocked:
			locked = true
			p.next()
		default:
			break loop
		}
	}
	return vis, mut, locked
}

func (p *Parser) parseReturns() []ast.MethodParam {
	if _, ok := p.accept(token.KwReturns); !ok {
		return nil
	}
	return p.parseMethodParams()
}

func (p *Parser) parseInterfaceMethod() *ast.MethodDecl {
	start := p.cur.Start
	p.next() // 'method'
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected method name")
	if !ok {
		return nil
	}
	m := &ast.MethodDecl{Base: ast.NewPos(start), Name: nameTok.Literal}
	m.Params = p.parseMethodParams()
	m.Visibility, m.Mutability, m.Locked = p.parseMutabilityAndVisibility()
	m.Returns = p.parseReturns()
	if p.cur.Type == token.LBrace {
		m.Body = p.parseBlock()
	} else {
		p.accept(token.Semicolon)
	}
	return m
}

func (p *Parser) parseConstructorDecl() *ast.ConstructorDecl {
	start := p.cur.Start
	p.next() // 'constructor'
	c := &ast.ConstructorDecl{Base: ast.NewPos(start)}
	c.Params = p.parseMethodParams()
	for {
		switch p.cur.Type {
		case token.KwPayable:
			c.Payable = true
			p.next()
		case token.KwUnchecked:
			c.Unchecked = true
			p.next()
		default:
			goto done
		}
	}
done:
	if p.cur.Type == token.LBrace {
		c.Body = p.parseBlock()
	} else {
		p.accept(token.Semicolon)
	}
	return c
}

func (p *Parser) parseInterface() *ast.Interface {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected interface name")
	if !ok {
		return nil
	}
	p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open interface body")
	iface := &ast.Interface{Base: ast.NewPos(start), Name: nameTok.Literal}
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		switch p.cur.Type {
		case token.KwConstructor:
			iface.Constructor = p.parseConstructorDecl()
		case token.KwMethod:
			if m := p.parseInterfaceMethod(); m != nil {
				iface.Methods = append(iface.Methods, m)
			}
		default:
			p.errorf(diag.CodeParseUnexpected, "expected 'constructor' or 'method' in interface body")
			p.syncTo(token.KwConstructor, token.KwMethod, token.RBrace)
		}
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close interface body")
	return iface
}

// ---- EventDecl / ErrorDecl ----

func (p *Parser) parseEventParams() []ast.EventParam {
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' to open event parameter list")
	var params []ast.EventParam
	for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
		typ := p.parseABIType()
		name := ""
		if p.cur.Type == token.Ident {
			name = p.cur.Literal
			p.next()
		}
		indexed := false
		if _, ok := p.accept(token.KwIndexed); ok {
			indexed = true
		}
		params = append(params, ast.EventParam{Type: typ, Name: name, Indexed: indexed})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close event parameter list")
	return params
}

func (p *Parser) parseEventDecl() *ast.EventDecl {
	start := p.cur.Start
	p.next() // 'event'
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected event name")
	if !ok {
		return nil
	}
	e := &ast.EventDecl{Base: ast.NewPos(start), Name: nameTok.Literal}
	e.Params = p.parseEventParams()
	for {
		switch p.cur.Type {
		case token.KwAnonymous:
			e.Anonymous = true
			p.next()
		case token.KwPacked:
			e.Packed = true
			p.next()
		case token.KwInline:
			e.Inline = true
			p.next()
		default:
			p.accept(token.Semicolon)
			return e
		}
	}
}

func (p *Parser) parseErrorDecl() *ast.ErrorDecl {
	start := p.cur.Start
	p.next() // 'error'
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected error name")
	if !ok {
		return nil
	}
	e := &ast.ErrorDecl{Base: ast.NewPos(start), Name: nameTok.Literal}
	e.Params = p.parseEventParams()
	p.accept(token.Semicolon)
	return e
}

// ---- Contract ----

func (p *Parser) parseContract() *ast.Contract {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected contract name")
	if !ok {
		return nil
	}
	c := &ast.Contract{Base: ast.NewPos(start), Name: nameTok.Literal}
	p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open contract body")
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		switch p.cur.Type {
		case token.KwStruct:
			if s := p.parseStructDefinition(); s != nil {
				c.Structs = append(c.Structs, s)
			}
		case token.KwEvent:
			if e := p.parseEventDecl(); e != nil {
				c.Events = append(c.Events, e)
			}
		case token.KwError:
			if e := p.parseErrorDecl(); e != nil {
				c.Errors = append(c.Errors, e)
			}
		case token.KwConstructor:
			c.Constructor = p.parseConstructorDecl()
		case token.KwMethod:
			if m := p.parseInterfaceMethod(); m != nil {
				c.Methods = append(c.Methods, m)
			}
		default:
			p.errorf(diag.CodeParseUnexpected, "unexpected token in contract body: %s", p.cur.Type)
			p.syncTo(token.KwStruct, token.KwEvent, token.KwError, token.KwConstructor, token.KwMethod, token.RBrace)
		}
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close contract body")
	return c
}

// ---- ObjectBlock / CodeBlock / DataValue (plain-Yul passthrough forms) ----

func (p *Parser) parseObjectBlock() *ast.ObjectBlock {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.StrLit, diag.CodeParseExpected, "expected quoted object name")
	if !ok {
		return nil
	}
	p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open object body")
	ob := &ast.ObjectBlock{Base: ast.NewPos(start), Name: nameTok.Literal}
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		switch p.cur.Type {
		case token.KwCode:
			ob.Body = append(ob.Body, p.parseCodeBlock())
		case token.KwObject:
			if nested := p.parseObjectBlock(); nested != nil {
				ob.Body = append(ob.Body, nested)
			}
		case token.KwData:
			if dv := p.parseDataValue(); dv != nil {
				ob.Body = append(ob.Body, dv)
			}
		default:
			p.errorf(diag.CodeParseUnexpected, "unexpected token in object body: %s", p.cur.Type)
			p.syncTo(token.KwCode, token.KwObject, token.KwData, token.RBrace)
		}
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close object body")
	return ob
}

func (p *Parser) parseCodeBlock() *ast.CodeBlock {
	start := p.cur.Start
	p.next() // 'code'
	return &ast.CodeBlock{Base: ast.NewPos(start), Body: p.parseBlock()}
}

func (p *Parser) parseDataValue() *ast.DataValue {
	start := p.cur.Start
	p.next() // 'data'
	nameTok, ok := p.expect(token.StrLit, diag.CodeParseExpected, "expected quoted data block name")
	if !ok {
		return nil
	}
	dv := &ast.DataValue{Base: ast.NewPos(start), Name: nameTok.Literal}
	if hexTok, ok := p.accept(token.HexLit); ok {
		dv.Value = hexTok.Literal
		dv.IsHex = true
	} else if strTok, ok := p.accept(token.StrLit); ok {
		dv.Value = strTok.Literal
	} else {
		p.errorf(diag.CodeParseExpected, "expected hex or string literal in data block")
	}
	return dv
}

// ---- Macro / Const / FunctionDef ----

func (p *Parser) parseMacro() ast.TopLevel {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected macro name")
	if !ok {
		return nil
	}
	if _, ok := p.accept(token.LParen); ok {
		md := &ast.MacroDefinition{Base: ast.NewPos(start), Name: nameTok.Literal}
		for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
			pTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected macro parameter name")
			if !ok {
				break
			}
			md.Params = append(md.Params, pTok.Literal)
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close macro parameter list")
		md.Body = p.parseBlock()
		return md
	}
	p.expect(token.ColonEq, diag.CodeParseExpected, "expected ':=' in macro constant")
	expr := p.parseExpr()
	p.accept(token.Semicolon)
	return &ast.MacroConstant{Base: ast.NewPos(start), Name: nameTok.Literal, Expr: expr}
}

func (p *Parser) parseConstDeclaration() *ast.ConstDeclaration {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected const name")
	if !ok {
		return nil
	}
	wrap := false
	if _, ok := p.accept(token.LParen); ok {
		wrap = true
		p.expect(token.RParen, diag.CodeParseExpected, "expected ')' after '(' in wrapped const")
	}
	p.expect(token.ColonEq, diag.CodeParseExpected, "expected ':=' in const declaration")
	expr := p.parseExpr()
	p.accept(token.Semicolon)
	return &ast.ConstDeclaration{Base: ast.NewPos(start), Name: nameTok.Literal, Expr: expr, Wrap: wrap}
}

func (p *Parser) parseTypedIdentList(terminators ...token.Type) []ast.TypedIdent {
	var out []ast.TypedIdent
	for {
		nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected identifier")
		if !ok {
			break
		}
		ti := ast.TypedIdent{Name: nameTok.Literal}
		if _, ok := p.accept(token.Colon); ok {
			tTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected type name after ':'")
			if ok {
				ti.Type = tTok.Literal
			}
		}
		out = append(out, ti)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	return out
}

func (p *Parser) parseFunctionDef() *ast.FunctionDef {
	start := p.cur.Start
	p.next() // 'function'
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected function name")
	if !ok {
		return nil
	}
	f := &ast.FunctionDef{Base: ast.NewPos(start), Name: nameTok.Literal}
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' after function name")
	if p.cur.Type != token.RParen {
		f.Params = p.parseTypedIdentList(token.RParen)
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close parameter list")
	if _, ok := p.accept(token.Arrow); ok {
		f.Returns = p.parseTypedIdentList()
	}
	for {
		switch p.cur.Type {
		case token.KwNoinline:
			f.NoInline = true
			p.next()
		case token.KwInline:
			p.next()
		default:
			goto body
		}
	}
body:
	f.Body = p.parseBlock()
	return f
}

// ---- Block / Statements ----

func (p *Parser) parseBlock() *ast.Block {
	start := p.cur.Start
	if _, ok := p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open block"); !ok {
		return &ast.Block{Base: ast.NewPos(start)}
	}
	b := &ast.Block{Base: ast.NewPos(start)}
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		if s := p.parseStatement(); s != nil {
			b.Statements = append(b.Statements, s)
		} else {
			p.syncTo(token.RBrace)
			break
		}
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close block")
	return b
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Type {
	case token.At:
		return p.parsePragma()
	case token.KwFold:
		return p.parseFold(false).(ast.Stmt)
	case token.KwInclude:
		return p.parseInclude()
	case token.LBrace:
		return p.parseBlock()
	case token.KwLet:
		return p.parseVariableDeclaration()
	case token.KwConst:
		return p.parseConstDeclaration()
	case token.KwFunction:
		return p.parseFunctionDef()
	case token.KwIf:
		return p.parseIf()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwFor:
		return p.parseForLoop()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDoWhile, token.KwDo:
		return p.parseDoWhile()
	case token.KwBreak:
		p.next()
		return &ast.BreakContinue{Kind: ast.BreakKind}
	case token.KwContinue:
		p.next()
		return &ast.BreakContinue{Kind: ast.ContinueKind}
	case token.KwLeave:
		p.next()
		return &ast.Leave{}
	case token.KwEmit:
		return p.parseEmit()
	case token.KwThrow:
		return p.parseThrow()
	case token.KwStruct:
		return p.parseStructDefinition()
	case token.KwEnum:
		return p.parseEnum()
	case token.KwMacro:
		return p.parseMacro().(ast.Stmt)
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	start := p.cur.Start
	p.next() // 'let'
	vd := &ast.VariableDeclaration{Base: ast.NewPos(start)}
	vd.Names = p.parseTypedIdentList(token.ColonEq, token.Semicolon, token.RBrace)
	if _, ok := p.accept(token.ColonEq); ok {
		vd.Init = p.parseExpr()
	}
	p.accept(token.Semicolon)
	return vd
}

func (p *Parser) parseIf() *ast.If {
	start := p.cur.Start
	p.next()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.If{Base: ast.NewPos(start), Cond: cond, Body: body}
}

func (p *Parser) parseSwitch() *ast.Switch {
	start := p.cur.Start
	p.next()
	expr := p.parseExpr()
	sw := &ast.Switch{Base: ast.NewPos(start), Expr: expr}
	for p.cur.Type == token.KwCase {
		p.next()
		lit := p.parseLiteral()
		body := p.parseBlock()
		sw.Cases = append(sw.Cases, ast.Case{Value: lit, Body: body})
	}
	if _, ok := p.accept(token.KwDefault); ok {
		sw.Default = p.parseBlock()
	}
	return sw
}

func (p *Parser) parseForLoop() *ast.ForLoop {
	start := p.cur.Start
	p.next()
	fl := &ast.ForLoop{Base: ast.NewPos(start)}
	fl.Init = p.parseBlock()
	fl.Cond = p.parseExpr()
	fl.Post = p.parseBlock()
	fl.Body = p.parseBlock()
	return fl
}

func (p *Parser) parseWhile() *ast.While {
	start := p.cur.Start
	p.next()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.While{Base: ast.NewPos(start), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() *ast.DoWhile {
	start := p.cur.Start
	p.next() // 'do' or 'dowhile'
	body := p.parseBlock()
	p.expect(token.KwWhile, diag.CodeParseExpected, "expected 'while' to close do-while loop")
	cond := p.parseExpr()
	p.accept(token.Semicolon)
	return &ast.DoWhile{Base: ast.NewPos(start), Body: body, Cond: cond}
}

func (p *Parser) parseEmit() *ast.Emit {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected event name after 'emit'")
	if !ok {
		return nil
	}
	e := &ast.Emit{Base: ast.NewPos(start), Name: nameTok.Literal}
	if _, ok := p.accept(token.At); ok {
		e.Offset = p.parseExpr()
	}
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' after emit target")
	for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
		e.Args = append(e.Args, p.parseExpr())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close emit arguments")
	p.accept(token.Semicolon)
	return e
}

func (p *Parser) parseThrow() *ast.Throw {
	start := p.cur.Start
	p.next()
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected error name after 'throw'")
	if !ok {
		return nil
	}
	th := &ast.Throw{Base: ast.NewPos(start), Name: nameTok.Literal}
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' after throw target")
	for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
		th.Args = append(th.Args, p.parseExpr())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close throw arguments")
	p.accept(token.Semicolon)
	return th
}

// parseSimpleStatement handles the two backtracking points the spec calls
// out: `Identifier (, Identifier)* (:= | |=) Expr` (Assignment), the
// `Ident -> [ (Type) ] Member (:= | |=) Expr` form (MemberAssignment), and
// otherwise a bare expression statement (FunctionCall / InterfaceCall).
func (p *Parser) parseSimpleStatement() ast.Stmt {
	start := p.cur.Start
	if p.cur.Type == token.Ident && p.isAssignmentLookahead() {
		return p.parseAssignment(start)
	}
	if p.cur.Type == token.Ident {
		// peek for `->` member-assignment form by parsing the member
		// identifier first, then checking what follows (backtracking point).
		save := p.snapshot()
		mi := p.parseMemberIdentifierIfPresent()
		if mi != nil {
			if orTok, ok := p.accept(token.PipeEq); ok {
				_ = orTok
				rhs := p.parseExpr()
				p.accept(token.Semicolon)
				return &ast.MemberAssignment{Base: ast.NewPos(start), Target: mi, RHS: rhs, OrFlag: true}
			}
			if _, ok := p.accept(token.ColonEq); ok {
				rhs := p.parseExpr()
				p.accept(token.Semicolon)
				return &ast.MemberAssignment{Base: ast.NewPos(start), Target: mi, RHS: rhs}
			}
		}
		p.restore(save)
	}
	expr := p.parseExpr()
	p.accept(token.Semicolon)
	if s, ok := expr.(ast.Stmt); ok {
		return s
	}
	p.errorf(diag.CodeParseUnexpected, "expression is not valid as a statement")
	return nil
}

// isAssignmentLookahead scans a run of `Ident (, Ident)*` for a trailing
// `:=`, without consuming input on failure.
func (p *Parser) isAssignmentLookahead() bool {
	save := p.snapshot()
	defer p.restore(save)
	if p.cur.Type != token.Ident {
		return false
	}
	p.next()
	for p.cur.Type == token.Comma {
		p.next()
		if p.cur.Type != token.Ident {
			return false
		}
		p.next()
	}
	return p.cur.Type == token.ColonEq
}

func (p *Parser) parseAssignment(start token.Position) *ast.Assignment {
	var names []string
	nameTok, _ := p.expect(token.Ident, diag.CodeParseExpected, "expected identifier")
	names = append(names, nameTok.Literal)
	for {
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
		nTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected identifier in assignment list")
		if !ok {
			break
		}
		names = append(names, nTok.Literal)
	}
	p.expect(token.ColonEq, diag.CodeParseExpected, "expected ':=' in assignment")
	rhs := p.parseExpr()
	p.accept(token.Semicolon)
	return &ast.Assignment{Base: ast.NewPos(start), LHS: names, RHS: rhs}
}

type snapshot struct {
	cur      token.Token
	lexState lexer.State
}

// snapshot/restore give the parser a cheap backtracking primitive limited
// to the two productions the grammar calls for; everything else is LL(1).
// It rewinds both the lookahead token and the underlying scanner position,
// since restoring p.cur alone would leave the lexer ahead of the replayed
// tokens.
func (p *Parser) snapshot() snapshot {
	return snapshot{cur: p.cur, lexState: p.lex.Save()}
}

func (p *Parser) restore(s snapshot) {
	p.cur = s.cur
	p.lex.Restore(s.lexState)
}

// parseMemberIdentifierIfPresent attempts `Ident ['(' Type ')'] '->' Ident`;
// it always consumes the leading identifier (recorded in the snapshot the
// caller took) and returns nil (without fully unreading) if `->` never
// appears, relying on the caller's restore to undo the attempt.
func (p *Parser) parseMemberIdentifierIfPresent() *ast.MemberIdentifier {
	start := p.cur.Start
	baseTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected identifier")
	if !ok {
		return nil
	}
	castType := ""
	if p.cur.Type == token.LParen {
		inner := p.snapshot()
		p.next()
		if tTok, ok := p.accept(token.Ident); ok {
			if _, ok := p.accept(token.RParen); ok {
				castType = tTok.Literal
			} else {
				p.restore(inner)
			}
		} else {
			p.restore(inner)
		}
	}
	if _, ok := p.accept(token.Arrow); !ok {
		return nil
	}
	memberTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected member name after '->'")
	if !ok {
		return nil
	}
	return &ast.MemberIdentifier{Base: ast.NewPos(start), BaseName: baseTok.Literal, CastType: castType, Member: memberTok.Literal}
}

// ---- Expressions ----

func (p *Parser) parseExpr() ast.Expr {
	switch p.cur.Type {
	case token.Number, token.HexLit, token.StrLit, token.BoolLit:
		return p.parseLiteral()
	case token.Amp:
		return p.parseCallDataIdentifier()
	case token.KwCreate, token.KwCreate2, token.KwAttempt:
		return p.parseInterfaceCall()
	case token.KwCall:
		// `call(...)` is the plain-Yul opcode; `call Iface.method(...)` is an
		// interface call.
		save := p.snapshot()
		p.next()
		isOpcode := p.cur.Type == token.LParen
		p.restore(save)
		if !isOpcode {
			return p.parseInterfaceCall()
		}
		p.cur.Type = token.Ident
		return p.parseIdentExpr()
	case token.KwReturn:
		// `return(offset, size)` is the plain-Yul opcode.
		p.cur.Type = token.Ident
		return p.parseIdentExpr()
	case token.KwStruct:
		return p.parseStructInitializerCall()
	case token.Ident:
		return p.parseIdentExpr()
	default:
		p.errorf(diag.CodeParseUnexpected, "unexpected token in expression: %s", p.cur.Type)
		p.next()
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
}

func (p *Parser) parseLiteral() ast.Expr {
	start := p.cur.Start
	t := p.cur
	switch t.Type {
	case token.Number:
		p.next()
		sub := ast.LitDecimalNumber
		if strings.HasPrefix(t.Literal, "0x") || strings.HasPrefix(t.Literal, "0X") {
			sub = ast.LitHexNumber
		}
		lit := &ast.Literal{Base: ast.NewPos(start), Subtype: sub, Value: t.Literal}
		if p.cur.Type == token.Ident && isUnitSuffix(p.cur.Literal) {
			lit.Unit = p.cur.Literal
			p.next()
		}
		return lit
	case token.HexLit:
		p.next()
		return &ast.Literal{Base: ast.NewPos(start), Subtype: ast.LitHex, Value: t.Literal}
	case token.StrLit:
		p.next()
		return &ast.Literal{Base: ast.NewPos(start), Subtype: ast.LitString, Value: t.Literal}
	case token.BoolLit:
		p.next()
		return &ast.Literal{Base: ast.NewPos(start), Subtype: ast.LitBool, Value: t.Literal}
	default:
		p.errorf(diag.CodeParseBadLiteral, "expected literal, got %s", t.Type)
		p.next()
		return &ast.Literal{Base: ast.NewPos(start), Subtype: ast.LitDecimalNumber, Value: "0"}
	}
}

func isUnitSuffix(s string) bool {
	switch s {
	case "wei", "gwei", "ether", "seconds", "minutes", "hours", "days", "weeks":
		return true
	}
	return false
}

func (p *Parser) parseCallDataIdentifier() ast.Expr {
	start := p.cur.Start
	ref := false
	if p.cur.Type == token.Amp {
		ref = true
		p.next()
	}
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected 'calldata'")
	if !ok || nameTok.Literal != "calldata" {
		p.errorf(diag.CodeParseUnexpected, "expected 'calldata' after '&'")
	}
	p.expect(token.Dot, diag.CodeParseExpected, "expected '.' after 'calldata'")
	memberTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected calldata member name")
	if !ok {
		return &ast.CallDataIdentifier{Base: ast.NewPos(start), Ref: ref}
	}
	return &ast.CallDataIdentifier{Base: ast.NewPos(start), Member: memberTok.Literal, Ref: ref}
}

func (p *Parser) parseInterfaceCall() ast.Expr {
	start := p.cur.Start
	attempt := false
	if p.cur.Type == token.KwAttempt {
		attempt = true
		p.next()
	}
	kind := ast.ICall
	switch p.cur.Type {
	case token.KwCreate:
		kind = ast.ICreate
		p.next()
	case token.KwCreate2:
		kind = ast.ICreate2
		p.next()
	case token.KwCall:
		kind = ast.ICall
		p.next()
	}
	nameTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected interface name")
	if !ok {
		return nil
	}
	ic := &ast.InterfaceCall{Base: ast.NewPos(start), Kind: kind, Attempt: attempt, Name: nameTok.Literal}
	// The lexer folds `Iface.method` into a single identifier.
	if iface, method, dotted := strings.Cut(nameTok.Literal, "."); dotted {
		ic.Name, ic.Method = iface, method
	} else if _, ok := p.accept(token.Dot); ok {
		mTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected method name after '.'")
		if ok {
			ic.Method = mTok.Literal
		}
	}
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' after interface call target")
	for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
		ic.Args = append(ic.Args, p.parseExpr())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close interface call arguments")
	return ic
}

// parseIdentExpr handles StructInitializer, FunctionCall, MemberIdentifier,
// and bare Identifier, all of which start with an identifier token (the
// second spec-mandated backtracking point: FunctionCall vs Identifier).
func (p *Parser) parseIdentExpr() ast.Expr {
	start := p.cur.Start
	line := p.cur.Start.Line
	nameTok, _ := p.expect(token.Ident, diag.CodeParseExpected, "expected identifier")

	// struct initializer: `Name{ args }`
	if p.cur.Type == token.LBrace {
		return p.parseStructInitializerRest(start, nameTok.Literal)
	}

	// cast/member form: `Name(Type)->member` or `Name->member`
	if p.cur.Type == token.LParen || p.cur.Type == token.Arrow {
		save := p.snapshot()
		castType := ""
		if p.cur.Type == token.LParen {
			p.next()
			if tTok, ok := p.accept(token.Ident); ok {
				if _, ok := p.accept(token.RParen); ok {
					castType = tTok.Literal
				} else {
					p.restore(save)
				}
			} else {
				p.restore(save)
			}
		}
		if p.cur.Type == token.Arrow {
			p.next()
			memberTok, ok := p.expect(token.Ident, diag.CodeParseExpected, "expected member name after '->'")
			if ok {
				return &ast.MemberIdentifier{Base: ast.NewPos(start), BaseName: nameTok.Literal, CastType: castType, Member: memberTok.Literal}
			}
		}
		p.restore(save)
	}

	// function call: `Name( args )`
	if p.cur.Type == token.LParen {
		p.next()
		fc := &ast.FunctionCall{Base: ast.NewPos(start), Name: nameTok.Literal, File: p.filename, Line: line}
		for p.cur.Type != token.RParen && p.cur.Type != token.EOF {
			fc.Args = append(fc.Args, p.parseExpr())
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close call arguments")
		return fc
	}

	return &ast.Identifier{Base: ast.NewPos(start), Value: nameTok.Literal}
}

// parseStructInitializerCall handles the `struct(Name, args...)` call-form
// surface syntax: `struct` followed by '(', a struct name, then one field
// value (or '@' for the layout default) per remaining argument.
func (p *Parser) parseStructInitializerCall() *ast.StructInitializer {
	start := p.cur.Start
	p.next() // 'struct'
	p.expect(token.LParen, diag.CodeParseExpected, "expected '(' after 'struct'")
	nameTok, _ := p.expect(token.Ident, diag.CodeParseExpected, "expected struct name")
	si := &ast.StructInitializer{Base: ast.NewPos(start), StructName: nameTok.Literal}
	for p.cur.Type == token.Comma {
		p.next()
		if p.cur.Type == token.At {
			p.next()
			si.Args = append(si.Args, ast.StructArg{IsDefault: true})
		} else {
			si.Args = append(si.Args, ast.StructArg{Expr: p.parseExpr()})
		}
	}
	p.expect(token.RParen, diag.CodeParseExpected, "expected ')' to close struct initializer")
	return si
}

func (p *Parser) parseStructInitializerRest(start token.Position, name string) *ast.StructInitializer {
	p.expect(token.LBrace, diag.CodeParseExpected, "expected '{' to open struct initializer")
	si := &ast.StructInitializer{Base: ast.NewPos(start), StructName: name}
	for p.cur.Type != token.RBrace && p.cur.Type != token.EOF {
		if p.cur.Type == token.At {
			p.next()
			si.Args = append(si.Args, ast.StructArg{IsDefault: true})
		} else {
			si.Args = append(si.Args, ast.StructArg{Expr: p.parseExpr()})
		}
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RBrace, diag.CodeParseExpected, "expected '}' to close struct initializer")
	return si
}
