package transform

import (
	"math/big"
	"strings"
	"testing"
)

// scenario (b): struct packing, including a bytesN member whose true bit
// width is byte-count*8 (spec §8(b); regression test for the memberBitWidth
// fix — a bytes20 member must occupy 160 bits, not 20).
func TestStructPackingBytesNMemberWidth(t *testing.T) {
	src := `struct btc_output {
  uint64 value
  uint24 prefix
  bytes20 hash
}
object "Demo" {
  code {
    function offsets() -> a, b, c {
      a := offsetof("btc_output", "value")
      b := offsetof("btc_output", "prefix")
      c := offsetof("btc_output", "hash")
    }
  }
}`
	out := mustLower(t, src, Options{})
	for _, want := range []string{"a := 0", "b := 8", "c := 11"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in offsetof output (bytes20 must count as 160 bits, not 20):\n%s", want, out)
		}
	}
}

func TestStructInitializerCallFormPacksMembersMSBFirst(t *testing.T) {
	hashHex := "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	src := `struct btc_output {
  uint64 value
  uint24 prefix
  bytes20 hash
}
object "Demo" {
  code {
    function build() -> w {
      w := struct(btc_output, 100000000, @, ` + hashHex + `)
    }
  }
}`
	out := mustLower(t, src, Options{})

	hashInt, ok := new(big.Int).SetString(hashHex[2:], 16)
	if !ok {
		t.Fatalf("bad test literal")
	}
	value := big.NewInt(100000000)
	want := new(big.Int).Or(
		new(big.Int).Lsh(value, 192),
		new(big.Int).Lsh(hashInt, 8),
	)
	if !strings.Contains(out, "w := "+want.String()) {
		t.Fatalf("expected the struct(...) call-form initializer to fold to %s (value at bit 192, hash at bit 8, prefix left at its zero default):\n%s", want.String(), out)
	}
}

// An `address` member's default goes through go-ethereum's common.Address
// (abi.AddressDefault), not the generic numeric literal parser: an
// explicit default packs its 160-bit value, and an omitted default packs
// the zero address rather than an arbitrary zero-valued big.Int.
func TestStructAddressMemberDefaultUsesCommonAddress(t *testing.T) {
	src := `struct account {
  address owner = 0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef
  uint96 balance
}
object "Demo" {
  code {
    function zeroWord() -> w {
      w := struct(account, @, 5)
    }
  }
}`
	out := mustLower(t, src, Options{})
	owner, ok := new(big.Int).SetString("deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", 16)
	if !ok {
		t.Fatalf("bad test literal")
	}
	want := new(big.Int).Or(new(big.Int).Lsh(owner, 96), big.NewInt(5))
	if !strings.Contains(out, "w := "+want.String()) {
		t.Fatalf("expected the address member's default to pack as %s:\n%s", want.String(), out)
	}
}

func TestStructAddressMemberOmittedDefaultIsZeroAddress(t *testing.T) {
	src := `struct account {
  address owner
  uint96 balance
}
object "Demo" {
  code {
    function zeroWord() -> w {
      w := struct(account, @, @)
    }
  }
}`
	out := mustLower(t, src, Options{})
	if !strings.Contains(out, "w := 0") {
		t.Fatalf("expected an omitted address default to pack as the zero address (word 0):\n%s", out)
	}
}
