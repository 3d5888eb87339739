package digest

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256OfHexLiteral(t *testing.T) {
	// scenario (e): keccak256(hex"deadbeef")
	data, err := hex.DecodeString("deadbeef")
	if err != nil {
		t.Fatalf("unexpected hex decode error: %v", err)
	}
	got := Keccak256(data)
	want := "d4fd4e189132273036449fc9e11198c739161b4c0116a9a2dccdfa1c492006f1"
	if hex.EncodeToString(got) != want {
		t.Fatalf("keccak256(deadbeef) = %s, want %s", hex.EncodeToString(got), want)
	}
}

func TestByNameDispatch(t *testing.T) {
	data := []byte("hello")
	direct := Sha256(data)
	viaName, ok := ByName("sha256", data)
	if !ok {
		t.Fatalf("expected sha256 to be a known builtin name")
	}
	if hex.EncodeToString(direct) != hex.EncodeToString(viaName) {
		t.Fatalf("ByName(sha256) mismatch with direct call")
	}
	if _, ok := ByName("not_a_digest", data); ok {
		t.Fatalf("expected unknown digest name to report not found")
	}
}

func TestHash160AndHash256(t *testing.T) {
	data := []byte("bitcoin-style")
	h160 := Hash160(data)
	if len(h160) != 20 {
		t.Fatalf("hash160 length = %d, want 20", len(h160))
	}
	h256 := Hash256(data)
	if len(h256) != 32 {
		t.Fatalf("hash256 length = %d, want 32", len(h256))
	}
}
