package serializer

import (
	"strings"
	"testing"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/parser"
)

func TestEmitFunctionDef(t *testing.T) {
	root := &ast.Root{Items: []ast.TopLevel{
		&ast.FunctionDef{
			Name:    "add",
			Params:  []ast.TypedIdent{{Name: "a"}, {Name: "b"}},
			Returns: []ast.TypedIdent{{Name: "sum"}},
			Body: &ast.Block{Statements: []ast.Stmt{
				&ast.Assignment{LHS: []string{"sum"}, RHS: &ast.FunctionCall{
					Name: "add",
					Args: []ast.Expr{&ast.Identifier{Value: "a"}, &ast.Identifier{Value: "b"}},
				}},
			}},
		},
	}}
	out, err := Emit(root)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if !strings.Contains(out, "function add(a, b) -> sum {") {
		t.Fatalf("unexpected signature line, got:\n%s", out)
	}
	if !strings.Contains(out, "sum := add(a, b)") {
		t.Fatalf("unexpected body, got:\n%s", out)
	}
}

func TestEmitObjectRoundTrip(t *testing.T) {
	root := &ast.Root{Items: []ast.TopLevel{
		&ast.ObjectBlock{Name: "Demo", Body: []ast.Stmt{
			&ast.CodeBlock{Body: &ast.Block{Statements: []ast.Stmt{
				&ast.FunctionCall{Name: "return", Args: []ast.Expr{
					&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"},
					&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"},
				}},
			}}},
			&ast.ObjectBlock{Name: "Demo_deployed", Body: []ast.Stmt{
				&ast.CodeBlock{Body: &ast.Block{}},
			}},
			&ast.DataValue{Name: ".metadata", Value: "deadbeef", IsHex: true},
		}},
	}}
	out, err := Emit(root)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	reparsed, diags := parser.ParseFile("<roundtrip>", []byte(out))
	if diags.HasErrors() {
		t.Fatalf("re-parse produced diagnostics: %v\nsource:\n%s", diags, out)
	}
	if len(reparsed.Items) != 1 {
		t.Fatalf("expected exactly one top-level item, got %d", len(reparsed.Items))
	}
	obj, ok := reparsed.Items[0].(*ast.ObjectBlock)
	if !ok {
		t.Fatalf("expected *ast.ObjectBlock, got %T", reparsed.Items[0])
	}
	if obj.Name != "Demo" {
		t.Fatalf("unexpected object name: %s", obj.Name)
	}
	if len(obj.Body) != 3 {
		t.Fatalf("expected 3 body entries (code, nested object, data), got %d", len(obj.Body))
	}
}

func TestEmitIfSwitchForWrapping(t *testing.T) {
	root := &ast.Root{Items: []ast.TopLevel{
		&ast.FunctionDef{
			Name: "loop",
			Body: &ast.Block{Statements: []ast.Stmt{
				&ast.VariableDeclaration{Names: []ast.TypedIdent{{Name: "i"}}, Init: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}},
				&ast.ForLoop{
					Init: &ast.Block{},
					Cond: &ast.FunctionCall{Name: "lt", Args: []ast.Expr{&ast.Identifier{Value: "i"}, &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "10"}}},
					Post: &ast.Block{Statements: []ast.Stmt{
						&ast.Assignment{LHS: []string{"i"}, RHS: &ast.FunctionCall{Name: "add", Args: []ast.Expr{&ast.Identifier{Value: "i"}, &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"}}}},
					}},
					Body: &ast.Block{Statements: []ast.Stmt{
						&ast.If{
							Cond: &ast.FunctionCall{Name: "eq", Args: []ast.Expr{&ast.Identifier{Value: "i"}, &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "5"}}},
							Body: &ast.Block{Statements: []ast.Stmt{&ast.BreakContinue{Kind: ast.BreakKind}}},
						},
					}},
				},
				&ast.Switch{
					Expr: &ast.Identifier{Value: "i"},
					Cases: []ast.Case{
						{Value: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, Body: &ast.Block{Statements: []ast.Stmt{&ast.Leave{}}}},
					},
					Default: &ast.Block{},
				},
			}},
		},
	}}
	out, err := Emit(root)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	reparsed, diags := parser.ParseFile("<roundtrip>", []byte(out))
	if diags.HasErrors() {
		t.Fatalf("re-parse produced diagnostics: %v\nsource:\n%s", diags, out)
	}
	if len(reparsed.Items) != 1 {
		t.Fatalf("expected one top-level function, got %d", len(reparsed.Items))
	}
}

func TestWrappedFunctionSignature(t *testing.T) {
	params := make([]ast.TypedIdent, 12)
	for i := range params {
		params[i] = ast.TypedIdent{Name: "argument_number_that_is_fairly_long_0"}
	}
	root := &ast.Root{Items: []ast.TopLevel{
		&ast.FunctionDef{Name: "wideSignature", Params: params, Body: &ast.Block{}},
	}}
	out, err := Emit(root)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if len(line) > wrapWidth+2 {
			t.Fatalf("line exceeds wrap width (%d): %q", len(line), line)
		}
	}
}
