package transform

import (
	"strings"
	"testing"

	"github.com/tos-network/toyul/parser"
	"github.com/tos-network/toyul/serializer"
)

func mustLower(t *testing.T, src string, opts Options) string {
	t.Helper()
	root, diags := parser.ParseFile("<test>", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	if opts.Filename == "" {
		opts.Filename = "<test>"
	}
	res := Run(root, opts)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected lowering diagnostics: %v", res.Diags)
	}
	out, err := serializer.Emit(res.Root)
	if err != nil {
		t.Fatalf("unexpected serialize error: %v", err)
	}
	return out
}

// scenario (a): const-folding.
func TestFoldExprConstantArithmetic(t *testing.T) {
	src := `object "Demo" {
  code {
    function run() -> z {
      z := add(mul(2, 3), 1)
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "z := 7") {
		t.Fatalf("expected add(mul(2,3),1) to fold to 7, got:\n%s", out)
	}
	if strings.Contains(out, "add(") || strings.Contains(out, "mul(") {
		t.Fatalf("expected no leftover add/mul calls once every operand is a literal:\n%s", out)
	}
}

// scenario (f): @if / fold if hardfork gating, keyed off EVM_VERSION.
func TestFoldIfEVMVersionGating(t *testing.T) {
	src := `@evm(shanghai)
fold if gt(EVM_VERSION, 202304) {
  function usesCancunPath() -> r { r := 1 }
} else {
  function usesLegacyPath() -> r { r := 2 }
}
object "Demo" {
  code {}
}`
	out := mustLower(t, src, Options{})
	if strings.Contains(out, "usesCancunPath") {
		t.Fatalf("shanghai should take the else branch:\n%s", out)
	}
	if !strings.Contains(out, "usesLegacyPath") {
		t.Fatalf("expected the else branch's function under hardfork=shanghai:\n%s", out)
	}
}

func TestFoldIfEVMVersionGatingCancunInlinesIfBranch(t *testing.T) {
	src := `@evm(cancun)
fold if gt(EVM_VERSION, 202304) {
  function usesCancunPath() -> r { r := 1 }
} else {
  function usesLegacyPath() -> r { r := 2 }
}
object "Demo" {
  code {}
}`
	out := mustLower(t, src, Options{})
	if strings.Contains(out, "usesLegacyPath") {
		t.Fatalf("cancun should take the if branch:\n%s", out)
	}
	if !strings.Contains(out, "usesCancunPath") {
		t.Fatalf("expected the if branch's function under hardfork=cancun:\n%s", out)
	}
}
