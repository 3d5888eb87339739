package diag

import "testing"

func TestDiagnosticErrorWithCaret(t *testing.T) {
	d := NewWithLine(KindParse, CodeParseExpected, "expected ';'", Span{
		File:  "demo.tyul",
		Start: Position{Line: 3, Column: 5},
	}, "let x := 1")
	got := d.Error()
	want := "demo.tyul:3:5: [TY1002] expected ';'\nlet x := 1\n    ^"
	if got != want {
		t.Fatalf("unexpected diagnostic rendering:\n got: %q\nwant: %q", got, want)
	}
}

func TestDiagnosticErrorWithoutSpan(t *testing.T) {
	d := New(KindStatic, CodeStaticAbort, "revert.static reached", Span{})
	if d.Error() != "[TY5001] revert.static reached" {
		t.Fatalf("unexpected rendering: %q", d.Error())
	}
}

func TestDiagnosticsHasErrors(t *testing.T) {
	var ds Diagnostics
	if ds.HasErrors() {
		t.Fatalf("expected no errors on empty Diagnostics")
	}
	ds.Add(New(KindParse, CodeParseUnexpected, "bad token", Span{File: "a", Start: Position{1, 1}}))
	if !ds.HasErrors() {
		t.Fatalf("expected HasErrors true after Add")
	}
	if ds.Error() == "" {
		t.Fatalf("expected non-empty combined error text")
	}
}
