package transform

import (
	"strings"
	"testing"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/scope"
	"github.com/tos-network/toyul/serializer"
)

func exprToString(t *testing.T, e ast.Expr) string {
	t.Helper()
	out, err := serializer.Emit(&ast.Root{Items: []ast.TopLevel{
		&ast.ObjectBlock{Name: "T", Body: []ast.Stmt{
			&ast.CodeBlock{Body: &ast.Block{Statements: []ast.Stmt{
				&ast.Assignment{LHS: []string{"__x"}, RHS: e},
			}}},
		}},
	}})
	if err != nil {
		t.Fatalf("unexpected serialize error: %v", err)
	}
	return out
}

// scenario (c): calldata parameter decoding (spec §4.4 "Calldata
// accessors"). A scalar parameter's head word is left-aligned and must be
// shifted right, not masked low; an array parameter's head word is a
// relative offset that must be adjusted by the 4-byte selector prefix.
func TestLowerCalldataIdentifierScalarUsesShrNotMask(t *testing.T) {
	tr := New(Options{Filename: "<test>"})
	root := scope.New()
	method := &ast.MethodDecl{Name: "transfer", Params: []ast.MethodParam{
		{Name: "id", Type: ast.ABIType{Base: ast.ABIUint, Width: 32}},
		{Name: "to", Type: ast.ABIType{Base: ast.ABIAddress, Width: 160}},
	}}
	methodScope := root.Push(scope.KindMethod)
	methodScope.Calldata = method

	got := tr.lowerCalldataIdentifier(&ast.CallDataIdentifier{Member: "id"}, methodScope)
	if s := exprToString(t, got); !containsAll(s, "shr(224, calldataload(4))") {
		t.Fatalf("expected calldata.id to decode via shr(224, calldataload(4)), got:\n%s", s)
	}

	got = tr.lowerCalldataIdentifier(&ast.CallDataIdentifier{Member: "to"}, methodScope)
	if s := exprToString(t, got); !containsAll(s, "shr(96, calldataload(36))") {
		t.Fatalf("expected calldata.to to decode via shr(96, calldataload(36)), got:\n%s", s)
	}
}

func TestLowerCalldataIdentifierArrayAdjustsBySelectorWidth(t *testing.T) {
	tr := New(Options{Filename: "<test>"})
	root := scope.New()
	method := &ast.MethodDecl{Name: "batch", Params: []ast.MethodParam{
		{Name: "id", Type: ast.ABIType{Base: ast.ABIUint, Width: 32}},
		{Name: "amounts", Type: ast.ABIType{Base: ast.ABIUint, Width: 256, Array: true}},
	}}
	methodScope := root.Push(scope.KindMethod)
	methodScope.Calldata = method

	got := tr.lowerCalldataIdentifier(&ast.CallDataIdentifier{Member: "amounts"}, methodScope)
	if s := exprToString(t, got); !containsAll(s, "add(calldataload(36), 4)") {
		t.Fatalf("expected calldata.amounts to decode via add(calldataload(36), 4), got:\n%s", s)
	}
}

func TestLowerCalldataIdentifierRefFormReturnsRawOffset(t *testing.T) {
	tr := New(Options{Filename: "<test>"})
	root := scope.New()
	method := &ast.MethodDecl{Name: "transfer", Params: []ast.MethodParam{
		{Name: "id", Type: ast.ABIType{Base: ast.ABIUint, Width: 32}},
	}}
	methodScope := root.Push(scope.KindMethod)
	methodScope.Calldata = method

	got := tr.lowerCalldataIdentifier(&ast.CallDataIdentifier{Member: "id", Ref: true}, methodScope)
	lit, ok := got.(*ast.Literal)
	if !ok || lit.Value != "4" {
		t.Fatalf("expected &calldata.id to be the raw offset literal 4, got %#v", got)
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
