package transform

import (
	"strings"
	"testing"
)

// scenario (d): `throw Error(...)` with a short literal message lowers to
// the fixed-width __revert32 helper (spec §4.4 "Throw").
func TestThrowErrorShortMessageLowersToRevert32(t *testing.T) {
	src := `object "Demo" {
  code {
    function run() {
      throw Error("insufficient balance")
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "__revert32(") {
		t.Fatalf("expected a call to __revert32 for a <=32 byte message:\n%s", out)
	}
	if !strings.Contains(out, "function __revert32(") {
		t.Fatalf("expected __revert32 to be materialized as a function:\n%s", out)
	}
	if strings.Contains(out, "__revert64(") || strings.Contains(out, "__revert_data(") {
		t.Fatalf("a short literal message should not reach the wider revert helpers:\n%s", out)
	}
}

func TestThrowErrorLongMessageLowersToRevert64(t *testing.T) {
	src := `object "Demo" {
  code {
    function run() {
      throw Error("this particular revert message runs well past thirty two bytes")
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "__revert64(") {
		t.Fatalf("expected a call to __revert64 for a message between 33 and 64 bytes:\n%s", out)
	}
}
