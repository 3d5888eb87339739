package builtins

import (
	"testing"

	"github.com/tos-network/toyul/scope"
)

func TestLoadNoneRegistersNothing(t *testing.T) {
	sc := scope.New()
	if diags := Load(LevelNone, sc); diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if _, ok := sc.LookupFunc("min"); ok {
		t.Fatalf("expected no functions registered at level %q", LevelNone)
	}
}

func TestLoadSupportOnlyRegistersHelpers(t *testing.T) {
	sc := scope.New()
	if diags := Load(LevelSupportOnly, sc); diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	for _, name := range []string{"min", "max", "clamp", "ceildiv", "isContract", "toBool"} {
		if _, ok := sc.LookupFunc(name); !ok {
			t.Fatalf("expected %q to be registered at level %q", name, LevelSupportOnly)
		}
	}
	if _, ok := sc.LookupFunc("addChecked"); ok {
		t.Fatalf("did not expect full-tier helper at level %q", LevelSupportOnly)
	}
}

func TestLoadFullIncludesSupportTier(t *testing.T) {
	sc := scope.New()
	if diags := Load(LevelFull, sc); diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	for _, name := range []string{"min", "addChecked", "subChecked", "mulChecked", "packSelector"} {
		if _, ok := sc.LookupFunc(name); !ok {
			t.Fatalf("expected %q to be registered at level %q", name, LevelFull)
		}
	}
}

func TestLoadUnknownLevel(t *testing.T) {
	sc := scope.New()
	if diags := Load("bogus", sc); !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for an unknown builtin level")
	}
}
