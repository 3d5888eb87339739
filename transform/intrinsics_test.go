package transform

import (
	"strings"
	"testing"

	"github.com/tos-network/toyul/digest"
)

// scenario (e): a hash builtin whose sole argument is a literal is computed
// at transform time instead of emitted as a runtime call (spec §4.4 "ripemd160
// / sha256 / hash160 / hash256 / blake2b160 / blake2b256 / keccak160 /
// keccak256 ... when given a single literal, compute the digest at transform
// time").
func TestLiteralKeccak256FoldsAtTransformTime(t *testing.T) {
	src := `object "Demo" {
  code {
    function run() -> h {
      h := keccak256("hello")
    }
  }
}`
	out := mustLower(t, src, Options{})
	want := "0x" + hexEncode(digest.Keccak256([]byte("hello")))
	if !strings.Contains(out, "h := "+want) {
		t.Fatalf("expected keccak256(\"hello\") to fold to the literal digest %s:\n%s", want, out)
	}
	if strings.Contains(out, "keccak256(") {
		t.Fatalf("a literal-argument keccak256 call should never reach the output as a runtime call:\n%s", out)
	}
}

func TestLiteralHashWithNonLiteralArgumentStaysRuntimeCall(t *testing.T) {
	src := `object "Demo" {
  code {
    function run(x) -> h {
      h := keccak256(x)
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "keccak256(x)") {
		t.Fatalf("a non-literal argument must stay a runtime keccak256 call:\n%s", out)
	}
}
