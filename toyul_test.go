package toyul

import (
	"context"
	"strings"
	"testing"
)

func TestTranspileMinimalObject(t *testing.T) {
	src := []byte(`
object "Demo" {
  code {
    let x := 1
    return(0, 0)
  }
}
`)
	res, err := Transpile(context.Background(), src, Options{Filename: "<test>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags)
	}
	if !strings.Contains(res.Source, `object "Demo" {`) {
		t.Fatalf("unexpected output:\n%s", res.Source)
	}
}

func TestTranspileSupportBuiltinsAvailable(t *testing.T) {
	src := []byte(`
object "Demo" {
  code {
    function run() -> r {
      r := min(1, 2)
    }
  }
}
`)
	res, err := Transpile(context.Background(), src, Options{Filename: "<test>", BuiltinLevel: "support-only"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags)
	}
	if !strings.Contains(res.Source, "function min(") {
		t.Fatalf("expected preloaded min() to appear in output:\n%s", res.Source)
	}
}

func TestTranspileParseErrorReturnedOnDiags(t *testing.T) {
	src := []byte(`object "Demo" { code { !!! } }`)
	res, err := Transpile(context.Background(), src, Options{Filename: "<test>"})
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if !res.Diags.HasErrors() {
		t.Fatalf("expected parse diagnostics for malformed input")
	}
}

func TestTranspilePickExtractsSingleObject(t *testing.T) {
	src := []byte(`
object "Demo" {
  code { return(0, 0) }
  object "Demo_deployed" {
    code { return(0, 0) }
  }
}
`)
	res, err := Transpile(context.Background(), src, Options{Filename: "<test>", Pick: "Demo_deployed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(res.Source, `object "Demo" {`) {
		t.Fatalf("expected only the picked object, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, `object "Demo_deployed" {`) {
		t.Fatalf("expected picked object in output:\n%s", res.Source)
	}
}

func TestTranspilePickMissingObjectErrors(t *testing.T) {
	src := []byte(`
object "Demo" {
  code { return(0, 0) }
}
`)
	if _, err := Transpile(context.Background(), src, Options{Filename: "<test>", Pick: "NoSuchObject"}); err == nil {
		t.Fatalf("expected an error for an unknown pick target")
	}
}

func TestTranspileMetadataDigestAppendsDataBlock(t *testing.T) {
	src := []byte(`
object "Demo" {
  code { return(0, 0) }
  object "Demo_deployed" {
    code { return(0, 0) }
  }
}
`)
	res, err := Transpile(context.Background(), src, Options{Filename: "<test>", MetadataDigest: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Source, `data ".metadata"`) {
		t.Fatalf("expected a .metadata data block in output:\n%s", res.Source)
	}
}

func TestTranspileRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Transpile(ctx, []byte(`object "Demo" { code { return(0, 0) } }`), Options{}); err == nil {
		t.Fatalf("expected a context-cancellation error")
	}
}
