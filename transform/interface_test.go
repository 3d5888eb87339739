package transform

import (
	"strings"
	"testing"
)

// spec §4.4 "Interface": a view/pure method thunk invokes staticcall, not
// call; a state-changing method still uses call.
func TestCallThunkUsesStaticcallForViewMethod(t *testing.T) {
	src := `interface Oracle {
  method price() view returns (uint256 p)
}
object "Demo" {
  code {
    function run(target) -> p {
      p := call Oracle.price(target, 0)
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "staticcall(gas(), target") {
		t.Fatalf("expected a view interface method to route through staticcall:\n%s", out)
	}
	if strings.Contains(out, "call(gas(), target, value") {
		t.Fatalf("a view method must not fall back to the value-carrying call opcode:\n%s", out)
	}
}

func TestCallThunkUsesCallForStateChangingMethod(t *testing.T) {
	src := `interface Vault {
  method withdraw(uint256 amount)
}
object "Demo" {
  code {
    function run(target) {
      call Vault.withdraw(target, 0, 100)
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "call(gas(), target, value") {
		t.Fatalf("expected a non-view interface method to route through call:\n%s", out)
	}
	if strings.Contains(out, "staticcall(") {
		t.Fatalf("a state-changing method must not use staticcall:\n%s", out)
	}
}

// spec §4.4 "Interface": a successful call returning fewer than 32 bytes
// must not decode `result` off of stale memory.
func TestCallThunkGatesResultDecodeOnReturndataSize(t *testing.T) {
	src := `interface Oracle {
  method price() view returns (uint256 p)
}
object "Demo" {
  code {
    function run(target) -> p {
      p := call Oracle.price(target, 0)
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "gt(returndatasize(), 31)") {
		t.Fatalf("expected the result decode to be gated on returndatasize() > 31:\n%s", out)
	}
	if !strings.Contains(out, "and(success, gt(returndatasize(), 31))") {
		t.Fatalf("expected the gate to also require success:\n%s", out)
	}
}
