package codesize

import (
	"testing"

	"github.com/tos-network/toyul/ast"
)

func TestWeightMatchesTable(t *testing.T) {
	assign := &ast.Assignment{LHS: []string{"x"}, RHS: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}}
	if w := Weight(assign); w != 0 {
		t.Fatalf("Assignment weight = %d, want 0", w)
	}
	call := &ast.FunctionCall{Name: "sstore"}
	if w := Weight(call); w != 1 {
		t.Fatalf("FunctionCall weight = %d, want 1", w)
	}
	brk := &ast.BreakContinue{Kind: ast.BreakKind}
	if w := Weight(brk); w != 2 {
		t.Fatalf("BreakContinue weight = %d, want 2", w)
	}
	leave := &ast.Leave{}
	if w := Weight(leave); w != 2 {
		t.Fatalf("Leave weight = %d, want 2", w)
	}
}

func TestWeightOfSwitchCountsCasesAndDefault(t *testing.T) {
	sw := &ast.Switch{
		Expr: &ast.Identifier{Value: "x"},
		Cases: []ast.Case{
			{Value: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, Body: &ast.Block{}},
			{Value: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"}, Body: &ast.Block{}},
		},
		Default: &ast.Block{},
	}
	// 1 (base) + 2*2 (cases) + 2 (default) = 7
	if w := Weight(sw); w != 7 {
		t.Fatalf("Switch weight = %d, want 7", w)
	}
}

func TestWeightOfForLoop(t *testing.T) {
	loop := &ast.ForLoop{
		Body: &ast.Block{Statements: []ast.Stmt{&ast.FunctionCall{Name: "f"}}},
	}
	// 3 (base) + 1 (body call) = 4
	if w := Weight(loop); w != 4 {
		t.Fatalf("ForLoop weight = %d, want 4", w)
	}
}

// testable property 8: "noinline helpers emitted by the transformer carry
// op-count >= the arity-indexed threshold (6/8 for 0-arg, 12/16 for n-arg,
// with/without memguard)". Exercise all four threshold tiers directly.
func TestThresholdTiers(t *testing.T) {
	cases := []struct {
		arity    int
		memguard bool
		want     int
	}{
		{0, false, 6},
		{0, true, 8},
		{1, false, 12},
		{1, true, 16},
		{3, true, 16},
	}
	for _, c := range cases {
		if got := Threshold(c.arity, c.memguard); got != c.want {
			t.Fatalf("Threshold(%d, %v) = %d, want %d", c.arity, c.memguard, got, c.want)
		}
	}
}

func TestNeedsMemGuardDetectsMemoryOpcodes(t *testing.T) {
	clean := &ast.Block{Statements: []ast.Stmt{
		&ast.Assignment{LHS: []string{"x"}, RHS: &ast.FunctionCall{Name: "add", Args: []ast.Expr{
			&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"},
			&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "2"},
		}}},
	}}
	if NeedsMemGuard(clean) {
		t.Fatalf("expected an arithmetic-only body to not need a memory guard")
	}

	dirty := &ast.Block{Statements: []ast.Stmt{
		&ast.FunctionCall{Name: "mstore", Args: []ast.Expr{
			&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"},
			&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"},
		}},
	}}
	if !NeedsMemGuard(dirty) {
		t.Fatalf("expected a body containing mstore to need a memory guard")
	}
}

// A 0-arg, memory-clean body needs padding until it reaches op-count 6
// (verbatim CODESIZE POP no-ops, each weighted 1 by Weight's FunctionCall
// case), and the padded result must never fall back below the threshold.
func TestPaddingStatementsClearZeroArgThreshold(t *testing.T) {
	body := &ast.Block{Statements: []ast.Stmt{
		&ast.Assignment{LHS: []string{"x"}, RHS: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}},
	}}
	if !NeedsPadding(body, 0) {
		t.Fatalf("expected a bare assignment body to need padding")
	}
	pad := PaddingStatements(body, 0)
	if len(pad) != Threshold(0, false)-Weight(body) {
		t.Fatalf("expected %d padding statements, got %d", Threshold(0, false)-Weight(body), len(pad))
	}
	for _, s := range pad {
		fc, ok := s.(*ast.FunctionCall)
		if !ok || fc.Name != "verbatim_0i_0o" || len(fc.Args) != 1 {
			t.Fatalf("expected a verbatim_0i_0o(hex\"..\") no-op, got %#v", s)
		}
		lit, ok := fc.Args[0].(*ast.Literal)
		if !ok || lit.Subtype != ast.LitHex || lit.Value != "3850" {
			t.Fatalf("expected the CODESIZE POP byte sequence hex\"3850\", got %#v", fc.Args[0])
		}
	}

	padded := &ast.Block{Statements: append(append([]ast.Stmt{}, body.Statements...), pad...)}
	if NeedsPadding(padded, 0) {
		t.Fatalf("expected padded body to clear the 0-arg threshold, weight=%d", Weight(padded))
	}
	if Weight(padded) < Threshold(0, false) {
		t.Fatalf("padded body weight %d must be >= threshold %d", Weight(padded), Threshold(0, false))
	}
}

// An n-arg body with a memory-touching opcode must clear the highest
// tier (16), not the bare n-arg tier (12).
func TestPaddingStatementsClearNAryMemGuardThreshold(t *testing.T) {
	body := &ast.Block{Statements: []ast.Stmt{
		&ast.FunctionCall{Name: "mstore", Args: []ast.Expr{
			&ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"},
			&ast.Identifier{Value: "x"},
		}},
	}}
	if !NeedsMemGuard(body) {
		t.Fatalf("expected mstore to trip the memguard tier")
	}
	if !NeedsPadding(body, 2) {
		t.Fatalf("expected a single-call body to need padding up to the memguard tier")
	}
	pad := PaddingStatements(body, 2)
	padded := &ast.Block{Statements: append(append([]ast.Stmt{}, body.Statements...), pad...)}
	if got, want := Weight(padded), Threshold(2, true); got < want {
		t.Fatalf("padded n-arg memguard body weight = %d, want >= %d", got, want)
	}
	if NeedsPadding(padded, 2) {
		t.Fatalf("expected the padded n-arg memguard body to clear its threshold")
	}
}

func TestNeedsPaddingTrueJustBelowNAryThreshold(t *testing.T) {
	body := &ast.Block{Statements: []ast.Stmt{
		&ast.If{Cond: &ast.Identifier{Value: "c"}, Body: &ast.Block{
			Statements: []ast.Stmt{&ast.FunctionCall{Name: "sstore"}},
		}},
		&ast.ForLoop{Body: &ast.Block{Statements: []ast.Stmt{
			&ast.FunctionCall{Name: "sstore"}, &ast.FunctionCall{Name: "sstore"},
		}}},
		&ast.Switch{Expr: &ast.Identifier{Value: "s"}, Cases: []ast.Case{
			{Value: &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, Body: &ast.Block{}},
		}},
	}}
	// If: 2+1=3, ForLoop: 3+2=5, Switch: 1+2=3 -> total 11, still short of
	// the n-arg/no-memguard threshold of 12.
	if !NeedsPadding(body, 1) {
		t.Fatalf("expected weight %d to still need padding against threshold %d", Weight(body), Threshold(1, false))
	}
	pad := PaddingStatements(body, 1)
	if len(pad) != 1 {
		t.Fatalf("expected exactly one padding statement to close an 11-vs-12 gap, got %d", len(pad))
	}
}
