package bigword

import (
	"math/big"
	"testing"
)

func TestParseUnsignedDecimalAndHex(t *testing.T) {
	v, err := ParseUnsigned("100000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Cmp(big.NewInt(100000000)) != 0 {
		t.Fatalf("unexpected value: %s", v)
	}
	hv, err := ParseUnsigned("0x160014")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hv.Cmp(big.NewInt(0x160014)) != 0 {
		t.Fatalf("unexpected hex value: %s", hv)
	}
}

func TestParseUnsignedRejectsOverflowAndNegative(t *testing.T) {
	if _, err := ParseUnsigned("-1"); err == nil {
		t.Fatalf("expected error for negative literal")
	}
	tooLong := ""
	for i := 0; i < 78; i++ {
		tooLong += "9"
	}
	if _, err := ParseUnsigned(tooLong); err == nil {
		t.Fatalf("expected error for 78-digit decimal literal")
	}
}

func TestConstantFoldingSoundness(t *testing.T) {
	// scenario (a): add(1, 2) == 3
	a := big.NewInt(1)
	b := big.NewInt(2)
	if Add(a, b).Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("add folding unsound")
	}
	// property 5: wrapping add at the boundary
	wrapped := Add(Max, big.NewInt(1))
	if wrapped.Sign() != 0 {
		t.Fatalf("expected Max+1 to wrap to 0, got %s", wrapped)
	}
	// sub underflow wraps
	under := Sub(big.NewInt(0), big.NewInt(1))
	if under.Cmp(Max) != 0 {
		t.Fatalf("expected 0-1 to wrap to Max, got %s", under)
	}
}

func TestShiftAndSignExtend(t *testing.T) {
	x := big.NewInt(1)
	got := Shl(big.NewInt(4), x)
	if got.Cmp(big.NewInt(16)) != 0 {
		t.Fatalf("shl(4,1) = %s, want 16", got)
	}
	back := Shr(big.NewInt(4), got)
	if back.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("shr(4,16) = %s, want 1", back)
	}
	neg := SignExtend(big.NewInt(0), big.NewInt(0xff))
	if neg.Cmp(Max) != 0 {
		t.Fatalf("signextend(0,0xff) = %s, want Max", neg)
	}
	pos := SignExtend(big.NewInt(0), big.NewInt(0x7f))
	if pos.Cmp(big.NewInt(0x7f)) != 0 {
		t.Fatalf("signextend(0,0x7f) = %s, want 127", pos)
	}
}

func TestStructDefaultPacking(t *testing.T) {
	// scenario (b): btc_output { uint64 value; uint24 prefix; bytes20 hash }
	value, _ := ParseUnsigned("100000000")
	prefix, _ := ParseUnsigned("0x160014")
	hash, _ := ParseUnsigned("0xdeadbeef00000000000000000000000000000000")

	packed := Or(Or(Shl(big.NewInt(192), value), Shl(big.NewInt(168), prefix)), Shl(big.NewInt(8), hash))
	want, _ := ParseUnsigned("0x5f5e100160014deadbeef0000000000000000000000000000000000")
	if packed.Cmp(want) != 0 {
		t.Fatalf("struct packing mismatch:\n got: %s\nwant: %s", HexString(packed), HexString(want))
	}
}
