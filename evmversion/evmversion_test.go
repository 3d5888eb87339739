package evmversion

import "testing"

func TestResolveKnownForks(t *testing.T) {
	cases := map[string]int{
		"homestead": Homestead,
		"shanghai":  Shanghai,
		"cancun":    Cancun,
	}
	for name, want := range cases {
		got, err := Resolve(name)
		if err != nil {
			t.Fatalf("unexpected error resolving %q: %v", name, err)
		}
		if got != want {
			t.Fatalf("Resolve(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestResolveUnknownFork(t *testing.T) {
	if _, err := Resolve("notaname"); err == nil {
		t.Fatalf("expected error for unknown hard-fork name")
	}
}

func TestMcopyGateFollowsScenarioF(t *testing.T) {
	// scenario (f): @if gt(EVM_VERSION, 202304) with hardfork=shanghai drops,
	// cancun inlines. HasMcopy encodes the same >= cutoff relationship.
	if HasMcopy(Shanghai) {
		t.Fatalf("shanghai should not have native mcopy")
	}
	if !HasMcopy(Cancun) {
		t.Fatalf("cancun should have native mcopy")
	}
}
