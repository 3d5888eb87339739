// Package builtins holds the preloaded helper library this dialect makes
// available to every compilation without an explicit `include` (spec §5
// "Optional configuration ... builtin level"). Grounded on
// tol/stdlib's plain-source-file-as-library approach: rather than a Go data
// structure describing each helper, the library is itself written in the
// dialect and run through the same parser the user's own source uses, then
// its top-level definitions are merged into the run's root scope before the
// user's file is lowered.
package builtins

import (
	"fmt"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/parser"
	"github.com/tos-network/toyul/scope"
)

// Level names a preload tier (spec §5): "none" preloads nothing,
// "support-only" preloads the small always-safe arithmetic/bit-twiddling
// helpers, "full" adds the higher-level ABI/collection helpers on top.
const (
	LevelNone        = "none"
	LevelSupportOnly = "support-only"
	LevelFull        = "full"
)

// sourceFor maps a level to the concatenated library text that level makes
// available. "full" is supportSource + fullExtras rather than a separate
// file, so a helper defined in supportSource is never duplicated.
func sourceFor(level string) (string, bool) {
	switch level {
	case "", LevelNone:
		return "", true
	case LevelSupportOnly:
		return supportSource, true
	case LevelFull:
		return supportSource + "\n" + fullSource, true
	default:
		return "", false
	}
}

// Load parses level's library source and registers every top-level
// function, macro, and constant it defines directly into sc, the way
// spec §9's "definition collection pass exclusively (skipping code
// emission)" describes: the library's own bodies are ordinary dialect
// statements, so they get lowered normally the first time a caller's
// generated code actually reaches them — nothing here runs the transformer
// early.
func Load(level string, sc *scope.Scope) diag.Diagnostics {
	src, ok := sourceFor(level)
	if !ok {
		var ds diag.Diagnostics
		ds.Add(diag.New(diag.KindVersion, diag.CodeVersionMismatch, fmt.Sprintf("unknown builtin level %q", level), diag.Span{File: "<builtins>"}))
		return ds
	}
	if src == "" {
		return nil
	}
	root, diags := parser.ParseFile("<builtins:"+level+">", []byte(src))
	for _, item := range root.Items {
		switch n := item.(type) {
		case *ast.FunctionDef:
			if err := sc.AddFunc(n); err != nil {
				diags.Add(diag.New(diag.KindResolution, diag.CodeResolutionDup, err.Error(), diag.Span{File: "<builtins:" + level + ">"}))
			}
		case *ast.MacroDefinition:
			if err := sc.AddMacro(n); err != nil {
				diags.Add(diag.New(diag.KindResolution, diag.CodeResolutionDup, err.Error(), diag.Span{File: "<builtins:" + level + ">"}))
			}
		case *ast.MacroConstant:
			if err := sc.AddConst(n.Name, n.Expr); err != nil {
				diags.Add(diag.New(diag.KindResolution, diag.CodeResolutionDup, err.Error(), diag.Span{File: "<builtins:" + level + ">"}))
			}
		}
	}
	return diags
}
