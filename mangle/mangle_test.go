package mangle

import "testing"

func TestRenamerAvoidsCollision(t *testing.T) {
	r := NewRenamer([]string{"x", "tmp"})
	got := r.Rename("tmp")
	if got != "tmp_m" {
		t.Fatalf("Rename(tmp) = %q, want tmp_m", got)
	}
	// a second distinct local named tmp_m must not collide with the first rename
	got2 := r.Rename("tmp_m")
	if got2 != "tmp_m_m" {
		t.Fatalf("Rename(tmp_m) = %q, want tmp_m_m", got2)
	}
	fresh := r.Rename("y")
	if fresh != "y" {
		t.Fatalf("Rename(y) = %q, want y (no collision)", fresh)
	}
}

func TestMangleSetOnlyRenamesColliding(t *testing.T) {
	set := MangleSet([]string{"a", "b"}, []string{"a"})
	if set["a"] != "a_m" {
		t.Fatalf("expected colliding local 'a' to be renamed, got %q", set["a"])
	}
	if set["b"] != "b" {
		t.Fatalf("expected non-colliding local 'b' to be left alone, got %q", set["b"])
	}
}

func TestDependencyKeyString(t *testing.T) {
	k := DependencyKey{Name: "__revert32", Depth: 2}
	if k.String() != "__revert32@2" {
		t.Fatalf("unexpected DependencyKey string: %s", k.String())
	}
}
