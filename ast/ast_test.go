package ast

import (
	"sort"
	"testing"

	"github.com/tos-network/toyul/token"
)

func pos() token.Position { return token.Position{Line: 1, Column: 1} }

func TestWalkVisitsNestedBlocks(t *testing.T) {
	inner := &FunctionCall{Name: "sstore", Args: []Expr{
		&Identifier{Value: "slot"},
		&Literal{Subtype: LitDecimalNumber, Value: "1"},
	}}
	ifStmt := &If{Cond: &Identifier{Value: "cond"}, Body: &Block{Statements: []Stmt{inner}}}
	root := &Block{Statements: []Stmt{ifStmt, &Leave{}}}

	var kinds []string
	Walk(root, func(n Node) bool {
		switch n.(type) {
		case *If:
			kinds = append(kinds, "If")
		case *FunctionCall:
			kinds = append(kinds, "FunctionCall")
		case *Leave:
			kinds = append(kinds, "Leave")
		}
		return true
	})

	sort.Strings(kinds)
	if len(kinds) != 3 || kinds[0] != "FunctionCall" || kinds[1] != "If" || kinds[2] != "Leave" {
		t.Fatalf("unexpected visited kinds: %v", kinds)
	}
}

func TestWalkStopsDescentWhenVisitorReturnsFalse(t *testing.T) {
	body := &Block{Statements: []Stmt{&FunctionCall{Name: "inner"}}}
	outer := &FunctionCall{Name: "outer", Args: []Expr{&FunctionCall{Name: "nested"}}}
	block := &Block{Statements: []Stmt{outer}}
	_ = body

	var visited []string
	Walk(block, func(n Node) bool {
		if fc, ok := n.(*FunctionCall); ok {
			visited = append(visited, fc.Name)
			return fc.Name != "outer" // don't descend into outer's args
		}
		return true
	})
	if len(visited) != 1 || visited[0] != "outer" {
		t.Fatalf("expected descent to stop at outer, got %v", visited)
	}
}

func TestCallNamesDeduplicatesAndPreservesFirstOccurrence(t *testing.T) {
	body := &Block{Statements: []Stmt{
		&FunctionCall{Name: "a"},
		&FunctionCall{Name: "b", Args: []Expr{&FunctionCall{Name: "a"}}},
		&FunctionCall{Name: "c"},
	}}
	names := CallNames(body)
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("unexpected call names: %v", names)
	}
}

func TestWalkHandlesNilOptionalChildren(t *testing.T) {
	sw := &Switch{
		Expr: &Identifier{Value: "x"},
		Cases: []Case{
			{Value: &Literal{Subtype: LitDecimalNumber, Value: "0"}, Body: &Block{}},
		},
		Default: nil,
	}
	// must not panic on the nil Default field
	Walk(sw, func(n Node) bool { return true })
}
