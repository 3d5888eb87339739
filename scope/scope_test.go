package scope

import (
	"testing"

	"github.com/tos-network/toyul/ast"
)

func TestAddConstRejectsRedefinition(t *testing.T) {
	s := New()
	lit := &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"}
	if err := s.AddConst("X", lit); err != nil {
		t.Fatalf("unexpected error on first AddConst: %v", err)
	}
	if err := s.AddConst("X", lit); err == nil {
		t.Fatalf("expected redefinition error for second AddConst of X")
	}
}

func TestLookupWalksParentChain(t *testing.T) {
	root := New()
	lit := &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "42"}
	if err := root.AddConst("ANSWER", lit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := root.Push(KindBlock)
	grandchild := child.Push(KindBlock)

	got, ok := grandchild.LookupConst("ANSWER")
	if !ok || got != lit {
		t.Fatalf("expected ANSWER to be visible from grandchild scope, ok=%v got=%v", ok, got)
	}
	if _, ok := root.LookupConst("NOPE"); ok {
		t.Fatalf("expected lookup of undefined const to fail")
	}
}

func TestDependsOnRegistersInNearestCodeScope(t *testing.T) {
	root := New()
	code := root.Push(KindCode)
	block := code.Push(KindBlock)
	nested := block.Push(KindBlock)

	nested.DependsOn("__revert32")

	if !code.Depends["__revert32"] {
		t.Fatalf("expected __revert32 to be registered on the enclosing code scope")
	}
	if block.Depends["__revert32"] || nested.Depends["__revert32"] {
		t.Fatalf("expected the helper to be registered only on the code scope, not intermediate blocks")
	}
}

func TestFindContractBlockPicksOddDepthObject(t *testing.T) {
	root := New()                     // depth 0
	outer := root.Push(KindObject)    // depth 1
	inner := outer.Push(KindObject)   // depth 2 — creation object
	runtime := inner.Push(KindObject) // depth 3 — runtime object
	code := runtime.Push(KindCode)    // depth 4

	got := code.FindContractBlock()
	if got != runtime {
		t.Fatalf("expected FindContractBlock to resolve to the depth-3 runtime object scope")
	}
}

func TestCalldataLookupFindsBoundMethod(t *testing.T) {
	root := New()
	method := &ast.MethodDecl{Name: "transfer"}
	methodScope := root.Push(KindMethod)
	methodScope.Calldata = method
	inner := methodScope.Push(KindBlock)

	got, ok := inner.LookupCalldata()
	if !ok || got != method {
		t.Fatalf("expected nested scope to resolve the bound calldata method")
	}
	if _, ok := root.LookupCalldata(); ok {
		t.Fatalf("expected root scope to have no bound calldata method")
	}
}

func TestAddDataAllocatesInEnclosingObjectScope(t *testing.T) {
	root := New()
	obj := root.Push(KindObject)
	code := obj.Push(KindCode)

	code.AddData("blob1", "deadbeef", true)

	if len(obj.Data) != 1 || obj.Data[0].Name != "blob1" {
		t.Fatalf("expected data blob to be recorded on the enclosing object scope, got %+v", obj.Data)
	}
	if len(code.Data) != 0 {
		t.Fatalf("expected the code scope itself to carry no data blobs")
	}
}
