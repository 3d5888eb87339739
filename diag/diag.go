// Package diag defines the diagnostic/error taxonomy shared by every stage
// of the pipeline, grounded on tol/diag/diag.go's Diagnostic/Diagnostics
// shape. Unlike the teacher, Diagnostic.Error renders a caret under the
// offending column when the source line is available, since this dialect's
// parser is required to point at malformed input precisely (spec §4.2).
package diag

import (
	"fmt"
	"strings"
)

// Kind groups diagnostics by the error taxonomy.
type Kind string

const (
	KindParse      Kind = "ParseError"
	KindVersion    Kind = "VersionError"
	KindResolution Kind = "ResolutionError"
	KindType       Kind = "TypeError"
	KindStatic     Kind = "StaticAbort"
	KindIO         Kind = "IOError"
)

const (
	CodeParseUnexpected     = "TY1001"
	CodeParseExpected       = "TY1002"
	CodeParseUnterminated   = "TY1003"
	CodeParseBadPragma      = "TY1004"
	CodeParseBadLiteral     = "TY1005"
	CodeVersionMismatch     = "TY2001"
	CodeResolutionUndefined = "TY3001"
	CodeResolutionDup       = "TY3002"
	CodeResolutionArity     = "TY3003"
	CodeResolutionMember    = "TY3004"
	CodeTypeGrammar         = "TY4001"
	CodeTypeWidth           = "TY4002"
	CodeTypeNonLiteral      = "TY4003"
	CodeStaticAbort         = "TY5001"
	CodeIOInclude           = "TY6001"
)

type Position struct {
	Line   int
	Column int
}

type Span struct {
	File  string
	Start Position
	End   Position
}

func (s Span) IsZero() bool {
	return s.File == "" && s.Start.Line == 0 && s.Start.Column == 0
}

// Diagnostic is a single structured error. SourceLine, when non-empty, is
// rendered with a caret pointing at Span.Start.Column.
type Diagnostic struct {
	Kind       Kind
	Code       string
	Message    string
	Span       Span
	SourceLine string
}

func (d Diagnostic) Error() string {
	if d.Span.IsZero() {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	base := fmt.Sprintf("%s:%d:%d: [%s] %s", d.Span.File, d.Span.Start.Line, d.Span.Start.Column, d.Code, d.Message)
	if d.SourceLine == "" {
		return base
	}
	col := d.Span.Start.Column
	if col < 1 {
		col = 1
	}
	caret := strings.Repeat(" ", col-1) + "^"
	return fmt.Sprintf("%s\n%s\n%s", base, d.SourceLine, caret)
}

func New(kind Kind, code, message string, span Span) Diagnostic {
	return Diagnostic{Kind: kind, Code: code, Message: message, Span: span}
}

func NewWithLine(kind Kind, code, message string, span Span, sourceLine string) Diagnostic {
	return Diagnostic{Kind: kind, Code: code, Message: message, Span: span, SourceLine: sourceLine}
}

type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, d.Error())
	}
	return strings.Join(parts, "\n")
}

func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }

func (ds *Diagnostics) Add(d Diagnostic) { *ds = append(*ds, d) }
