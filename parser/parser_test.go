package parser

import (
	"testing"

	"github.com/tos-network/toyul/ast"
)

func TestParsePragmaAndInclude(t *testing.T) {
	src := []byte(`@license("MIT")
include "common.tyul"
`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(root.Items) != 2 {
		t.Fatalf("expected 2 top-level items, got %d", len(root.Items))
	}
	pr, ok := root.Items[0].(*ast.Pragma)
	if !ok || pr.Name != ast.PragmaLicense || pr.Value != "MIT" {
		t.Fatalf("unexpected first item: %#v", root.Items[0])
	}
	inc, ok := root.Items[1].(*ast.IncludeCall)
	if !ok || inc.Filename != "common.tyul" {
		t.Fatalf("unexpected second item: %#v", root.Items[1])
	}
}

func TestParseStructDefinitionWithDefaults(t *testing.T) {
	src := []byte(`struct Point {
  uint256 x = 0
  uint256 y = 1
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	s, ok := root.Items[0].(*ast.StructDefinition)
	if !ok || s.Name != "Point" || len(s.Members) != 2 {
		t.Fatalf("unexpected struct: %#v", root.Items[0])
	}
	if s.Members[0].Name != "x" || s.Members[1].Name != "y" {
		t.Fatalf("unexpected member names: %+v", s.Members)
	}
}

func TestParseContractWithMethodBody(t *testing.T) {
	src := []byte(`contract Token {
  method balanceOf(address owner) external view returns (uint256) {
    let slot := owner
    sstore(slot, 1)
  }
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	c, ok := root.Items[0].(*ast.Contract)
	if !ok || c.Name != "Token" || len(c.Methods) != 1 {
		t.Fatalf("unexpected contract: %#v", root.Items[0])
	}
	m := c.Methods[0]
	if m.Name != "balanceOf" || m.Visibility != ast.VisExternal || m.Mutability != ast.MutView {
		t.Fatalf("unexpected method signature: %+v", m)
	}
	if len(m.Body.Statements) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(m.Body.Statements))
	}
}

func TestParseMemberAssignmentVsMemberIdentifierBacktrack(t *testing.T) {
	src := []byte(`function f() {
  out->amount := 5
  let x := out->amount
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := root.Items[0].(*ast.FunctionDef)
	if len(fn.Body.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body.Statements))
	}
	ma, ok := fn.Body.Statements[0].(*ast.MemberAssignment)
	if !ok || ma.Target.BaseName != "out" || ma.Target.Member != "amount" {
		t.Fatalf("expected MemberAssignment out->amount := 5, got %#v", fn.Body.Statements[0])
	}
	vd, ok := fn.Body.Statements[1].(*ast.VariableDeclaration)
	if !ok || vd.Init == nil {
		t.Fatalf("expected variable declaration with initializer, got %#v", fn.Body.Statements[1])
	}
	mi, ok := vd.Init.(*ast.MemberIdentifier)
	if !ok || mi.BaseName != "out" || mi.Member != "amount" {
		t.Fatalf("expected MemberIdentifier read of out->amount, got %#v", vd.Init)
	}
}

func TestParseFunctionCallVsIdentifierBacktrack(t *testing.T) {
	src := []byte(`function f() {
  let a := bar
  let b := bar()
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := root.Items[0].(*ast.FunctionDef)
	vdA := fn.Body.Statements[0].(*ast.VariableDeclaration)
	if _, ok := vdA.Init.(*ast.Identifier); !ok {
		t.Fatalf("expected bare identifier, got %#v", vdA.Init)
	}
	vdB := fn.Body.Statements[1].(*ast.VariableDeclaration)
	fc, ok := vdB.Init.(*ast.FunctionCall)
	if !ok || fc.Name != "bar" {
		t.Fatalf("expected FunctionCall bar(), got %#v", vdB.Init)
	}
}

func TestParseForSwitchAndEmit(t *testing.T) {
	src := []byte(`function f() {
  for { let i := 0 } lt(i, 10) { i := add(i, 1) } {
    switch i
    case 0 { leave }
    default { emit Transfer(i, i) }
  }
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := root.Items[0].(*ast.FunctionDef)
	loop, ok := fn.Body.Statements[0].(*ast.ForLoop)
	if !ok {
		t.Fatalf("expected ForLoop, got %#v", fn.Body.Statements[0])
	}
	sw, ok := loop.Body.Statements[0].(*ast.Switch)
	if !ok || len(sw.Cases) != 1 || sw.Default == nil {
		t.Fatalf("unexpected switch: %#v", loop.Body.Statements[0])
	}
	emit, ok := sw.Default.Statements[0].(*ast.Emit)
	if !ok || emit.Name != "Transfer" || len(emit.Args) != 2 {
		t.Fatalf("unexpected emit statement: %#v", sw.Default.Statements[0])
	}
}

func TestParseStructInitializerWithDefaultSentinel(t *testing.T) {
	src := []byte(`function f() {
  let p := Point{1, @}
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := root.Items[0].(*ast.FunctionDef)
	vd := fn.Body.Statements[0].(*ast.VariableDeclaration)
	si, ok := vd.Init.(*ast.StructInitializer)
	if !ok || si.StructName != "Point" || len(si.Args) != 2 {
		t.Fatalf("unexpected struct initializer: %#v", vd.Init)
	}
	if si.Args[1].IsDefault != true {
		t.Fatalf("expected second arg to be the '@' default sentinel")
	}
}

func TestParseStructInitializerCallForm(t *testing.T) {
	src := []byte(`function f() {
  let p := struct(btc_output, 100000000, @, 0xdeadbeef)
}`)
	root, diags := ParseFile("demo.tyul", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := root.Items[0].(*ast.FunctionDef)
	vd := fn.Body.Statements[0].(*ast.VariableDeclaration)
	si, ok := vd.Init.(*ast.StructInitializer)
	if !ok || si.StructName != "btc_output" || len(si.Args) != 3 {
		t.Fatalf("unexpected struct initializer: %#v", vd.Init)
	}
	if !si.Args[1].IsDefault {
		t.Fatalf("expected middle arg to be the '@' default sentinel")
	}
}

func TestParseMalformedPragmaRecordsDiagnosticWithCaret(t *testing.T) {
	src := []byte(`@license(
`)
	_, diags := ParseFile("demo.tyul", src)
	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for the unterminated pragma value")
	}
}
