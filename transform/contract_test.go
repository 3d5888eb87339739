package transform

import (
	"strings"
	"testing"
)

// spec property 7: a `locked` method's dispatch case runs
// mutex.lock(); __method_<name>(); mutex.unlock(); using the named mutex
// helpers, and the guard is keyed off the `lock` pragma's fixed slot.
func TestLockedMethodDispatchWrapsWithMutexHelpers(t *testing.T) {
	src := `@lock(0x1)
contract Vault {
  method withdraw() external locked {
    sstore(0, 1)
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "mutex.lock() __method_withdraw() mutex.unlock()") &&
		!strings.Contains(out, "mutex.lock()\n") {
		// Fall back to a looser structural check: all three calls present in
		// the same dispatch case, in order.
		lockAt := strings.Index(out, "mutex.lock()")
		methodAt := strings.Index(out, "__method_withdraw()")
		unlockAt := strings.Index(out, "mutex.unlock()")
		if lockAt < 0 || methodAt < 0 || unlockAt < 0 || !(lockAt < methodAt && methodAt < unlockAt) {
			t.Fatalf("expected mutex.lock(); __method_withdraw(); mutex.unlock(); in that order:\n%s", out)
		}
	}
	if !strings.Contains(out, "function mutex.lock()") || !strings.Contains(out, "function mutex.unlock()") {
		t.Fatalf("expected mutex.lock/mutex.unlock to be materialized as named functions:\n%s", out)
	}
	if !strings.Contains(out, "function __mutex_slot()") {
		t.Fatalf("expected the lock pragma's slot to be a materialized non-inlinable helper:\n%s", out)
	}
	if strings.Contains(out, "function __method_withdraw()") {
		body := out[strings.Index(out, "function __method_withdraw()"):]
		if idx := strings.Index(body, "}"); idx > 0 {
			body = body[:idx]
		}
		if strings.Contains(body, "sload") || strings.Contains(body, "sstore(0x1") {
			t.Fatalf("the reentrancy guard must not be baked into __method_withdraw's own body:\n%s", out)
		}
	}
}

// method.call(name) on a locked target must still honour the reentrancy
// guard, via its own equivalent wrapper (spec §4.4 "method.call").
func TestMethodCallOnLockedTargetHonoursGuard(t *testing.T) {
	src := `@lock(0x1)
contract Vault {
  method withdraw() external locked {
    sstore(0, 1)
  }
  method reenter() external {
    method.call("withdraw")
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "__method_call_withdraw()") {
		t.Fatalf("expected method.call on a locked method to route through a __method_call_<name> wrapper:\n%s", out)
	}
	if !strings.Contains(out, "function __method_call_withdraw()") {
		t.Fatalf("expected __method_call_withdraw to be materialized:\n%s", out)
	}
}

// Calldata parameter decoding itself (scenario (c)) is exercised directly
// against lowerCalldataIdentifier in expr_test.go, bypassing method-body
// surface syntax entirely.

// spec §4.4 "Method dispatcher": a call carrying fewer than 4 bytes of
// calldata must never reach the selector switch, even if those bytes
// happen to zero-pad into a declared method's own 4-byte selector.
func TestDispatcherGatesShortCalldataBeforeSelectorSwitch(t *testing.T) {
	src := `contract Vault {
  method withdraw() external {
    sstore(0, 1)
  }
}`
	out := mustLower(t, src, Options{})
	ltAt := strings.Index(out, "lt(calldatasize(), 4)")
	if ltAt < 0 {
		t.Fatalf("expected a lt(calldatasize(), 4) guard ahead of the selector switch:\n%s", out)
	}
	selectorAt := strings.Index(out, "let selector")
	if selectorAt < 0 || selectorAt < ltAt {
		t.Fatalf("expected the calldatasize guard to precede the selector computation:\n%s", out)
	}
	switchAt := strings.Index(out, "switch selector")
	if switchAt < 0 || switchAt < selectorAt {
		t.Fatalf("expected the selector switch to follow its own computation:\n%s", out)
	}
	if !strings.Contains(out, "iszero(lt(calldatasize(), 4))") {
		t.Fatalf("expected the selector switch to run only when calldatasize is not short:\n%s", out)
	}
}

func TestDispatcherEmitsReceiveOnlyForValueCarryingEmptyCall(t *testing.T) {
	src := `contract Vault {
  method receive() external {
    sstore(1, 1)
  }
  method withdraw() external {
    sstore(0, 1)
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "if callvalue()") {
		t.Fatalf("expected receive() to be gated on callvalue():\n%s", out)
	}
}

func TestDispatcherEndsCodeBlockWithStop(t *testing.T) {
	src := `contract Vault {
  method withdraw() external {
    sstore(0, 1)
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "stop()") {
		t.Fatalf("expected the dispatcher's code block to terminate with stop():\n%s", out)
	}
}
