// Package token defines the lexical token vocabulary of the extended Yul
// dialect this module transpiles, including its struct/interface/method/
// event/error/macro/pragma keyword surface on top of base Yul.
package token

import "fmt"

type Type int

const (
	Illegal Type = iota
	EOF

	Ident
	Number    // decimal or hex integer literal
	HexLit    // hex"..."
	StrLit    // "..."
	BoolLit   // true / false

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	Semicolon
	Arrow     // ->
	FatArrow  // =>
	Amp       // &
	AmpAmp    // &&
	Pipe      // |
	PipePipe  // ||
	Caret     // ^
	Tilde     // ~
	Bang      // !
	Plus
	Minus
	Star
	Slash
	Percent
	Lt
	Gt
	Le
	Ge
	EqEq
	NotEq
	Assign    // =
	ColonEq   // :=
	PipeEq    // |=
	Shl       // <<
	Shr       // >>
	At        // @
	Dollar    // $
	Dot
	DotDot

	// keywords
	KwTol
	KwContract
	KwObject
	KwCode
	KwData
	KwStruct
	KwInterface
	KwConstructor
	KwMethod
	KwEvent
	KwError
	KwEnum
	KwMacro
	KwConst
	KwInclude
	KwPragma
	KwLet
	KwFunction
	KwIf
	KwElse
	KwSwitch
	KwCase
	KwDefault
	KwFor
	KwWhile
	KwDoWhile
	KwDo
	KwBreak
	KwContinue
	KwLeave
	KwReturn
	KwReturns
	KwEmit
	KwThrow
	KwIndexed
	KwAnonymous
	KwPacked
	KwInline
	KwNoinline
	KwPublic
	KwPrivate
	KwExternal
	KwInternal
	KwView
	KwPure
	KwPayable
	KwLocked
	KwUnchecked
	KwCreate
	KwCreate2
	KwAttempt
	KwCall
	KwTrue
	KwFalse
	KwFold
	KwElif
)

var names = map[Type]string{
	Illegal: "ILLEGAL", EOF: "EOF", Ident: "IDENT", Number: "NUMBER",
	HexLit: "HEXLIT", StrLit: "STRLIT", BoolLit: "BOOLLIT",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Comma: ",", Colon: ":", Semicolon: ";",
	Arrow: "->", FatArrow: "=>", Amp: "&", AmpAmp: "&&", Pipe: "|",
	PipePipe: "||", Caret: "^", Tilde: "~", Bang: "!", Plus: "+",
	Minus: "-", Star: "*", Slash: "/", Percent: "%", Lt: "<", Gt: ">",
	Le: "<=", Ge: ">=", EqEq: "==", NotEq: "!=", Assign: "=",
	ColonEq: ":=", PipeEq: "|=", Shl: "<<", Shr: ">>", At: "@",
	Dollar: "$", Dot: ".", DotDot: "..",
	KwTol: "tol", KwContract: "contract", KwObject: "object", KwCode: "code",
	KwData: "data", KwStruct: "struct", KwInterface: "interface",
	KwConstructor: "constructor", KwMethod: "method", KwEvent: "event",
	KwError: "error", KwEnum: "enum", KwMacro: "macro", KwConst: "const",
	KwInclude: "include", KwPragma: "pragma", KwLet: "let",
	KwFunction: "function", KwIf: "if", KwElse: "else", KwSwitch: "switch",
	KwCase: "case", KwDefault: "default", KwFor: "for", KwWhile: "while",
	KwDoWhile: "dowhile", KwDo: "do", KwBreak: "break", KwContinue: "continue",
	KwLeave: "leave", KwReturn: "return", KwReturns: "returns",
	KwEmit: "emit", KwThrow: "throw", KwIndexed: "indexed",
	KwAnonymous: "anonymous", KwPacked: "packed", KwInline: "inline",
	KwNoinline: "noinline", KwPublic: "public", KwPrivate: "private",
	KwExternal: "external", KwInternal: "internal", KwView: "view",
	KwPure: "pure", KwPayable: "payable", KwLocked: "locked",
	KwUnchecked: "unchecked", KwCreate: "create", KwCreate2: "create2",
	KwAttempt: "attempt", KwCall: "call", KwTrue: "true", KwFalse: "false",
	KwFold: "fold", KwElif: "elif",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

var keywords = map[string]Type{
	"tol": KwTol, "contract": KwContract, "object": KwObject, "code": KwCode,
	"data": KwData, "struct": KwStruct, "interface": KwInterface,
	"constructor": KwConstructor, "method": KwMethod, "event": KwEvent,
	"error": KwError, "enum": KwEnum, "macro": KwMacro, "const": KwConst,
	"include": KwInclude, "pragma": KwPragma, "let": KwLet,
	"function": KwFunction, "if": KwIf, "else": KwElse, "switch": KwSwitch,
	"case": KwCase, "default": KwDefault, "for": KwFor, "while": KwWhile,
	"dowhile": KwDoWhile, "do": KwDo, "break": KwBreak, "continue": KwContinue,
	"leave": KwLeave, "return": KwReturn, "returns": KwReturns,
	"emit": KwEmit, "throw": KwThrow, "indexed": KwIndexed,
	"anonymous": KwAnonymous, "packed": KwPacked, "inline": KwInline,
	"noinline": KwNoinline, "public": KwPublic, "private": KwPrivate,
	"external": KwExternal, "internal": KwInternal, "view": KwView,
	"pure": KwPure, "payable": KwPayable, "locked": KwLocked,
	"unchecked": KwUnchecked, "create": KwCreate, "create2": KwCreate2,
	"attempt": KwAttempt, "call": KwCall, "true": KwTrue, "false": KwFalse,
	"fold": KwFold, "elif": KwElif,
}

// Lookup returns the keyword type for lit, or Ident if it is not a keyword.
func Lookup(lit string) Type {
	if t, ok := keywords[lit]; ok {
		return t
	}
	return Ident
}

type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Type    Type
	Literal string
	Start   Position
	End     Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
