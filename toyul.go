// Package toyul is the root entrypoint for the extended-Yul-to-plain-Yul
// transpiler: parse, preload builtins, transform, serialize, collect ABI.
// Grounded on tol_api.go's pipeline-function shape, generalized to accept a
// context.Context the way this module's ambient stack convention requires
// of anything that can touch the filesystem (here, `include` resolution).
package toyul

import (
	"context"
	"fmt"

	"github.com/tos-network/toyul/abi"
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/digest"
	"github.com/tos-network/toyul/parser"
	"github.com/tos-network/toyul/serializer"
	"github.com/tos-network/toyul/transform"
)

// Includer is re-exported so callers configuring `include` resolution never
// need to import the transform package directly.
type Includer = transform.Includer

// Options configures one Transpile call (spec §6 "Optional configuration").
type Options struct {
	Filename string
	Debug    bool
	HardFork string
	Deopt    map[byte]bool
	Macros   map[string]ast.Expr
	Includer Includer

	// BuiltinLevel selects which preloaded helper library, if any, is
	// merged into scope before the source is lowered: "none",
	// "support-only", or "full" (builtins.LevelNone/LevelSupportOnly/
	// LevelFull).
	BuiltinLevel string

	// Pick extracts a single top-level object block by name after
	// rewriting, discarding every sibling construct, instead of
	// serializing the whole rewritten root.
	Pick string

	// MetadataDigest appends a `.metadata` hex data block to the deployed
	// object holding the SHA-256 digest of (relative-filename, contents)
	// pairs for the entry file and every resolved include, in include
	// order (spec §6 "Outputs ... Metadata").
	MetadataDigest bool
}

// Result is everything one Transpile call produces.
type Result struct {
	Source     string
	Root       *ast.Root
	Collectors map[string]*abi.Collector
	Diags      diag.Diagnostics
}

// Transpile runs the full pipeline over src and returns the rewritten
// source text plus every contract's collected ABI. Diagnostics accumulated
// along the way are always returned on Result even when err is nil; err is
// non-nil only for a context cancellation or a hard structural failure that
// leaves no usable Result (an empty/unparseable pick target).
func Transpile(ctx context.Context, src []byte, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename := opts.Filename
	if filename == "" {
		filename = "<input>"
	}

	root, parseDiags := parser.ParseFile(filename, src)
	if parseDiags.HasErrors() {
		return &Result{Diags: parseDiags}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topts := transform.Options{
		Filename:     filename,
		Debug:        opts.Debug,
		HardFork:     opts.HardFork,
		Deopt:        opts.Deopt,
		Macros:       opts.Macros,
		Includer:     opts.Includer,
		BuiltinLevel: opts.BuiltinLevel,
	}
	tres := transform.Run(root, topts)
	diags := append(append(diag.Diagnostics{}, parseDiags...), tres.Diags...)
	if diags.HasErrors() {
		return &Result{Root: tres.Root, Collectors: tres.Collectors, Diags: diags}, nil
	}

	outRoot := tres.Root
	if opts.Pick != "" {
		picked, err := pickObject(outRoot, opts.Pick)
		if err != nil {
			return nil, err
		}
		outRoot = picked
	}

	if opts.MetadataDigest {
		if err := appendMetadata(outRoot, filename, src, tres.IncludeDigestInput); err != nil {
			return nil, err
		}
	}

	text, err := serializer.Emit(outRoot)
	if err != nil {
		return nil, fmt.Errorf("toyul: serialize: %w", err)
	}

	return &Result{
		Source:     text,
		Root:       outRoot,
		Collectors: tres.Collectors,
		Diags:      diags,
	}, nil
}

// pickObject extracts the single *ast.ObjectBlock named name, searching
// nested object bodies too (a contract's deployed object is nested inside
// its creation object, spec §6 "a 'pick' name to extract a single object
// block after rewriting").
func pickObject(root *ast.Root, name string) (*ast.Root, error) {
	for _, item := range root.Items {
		if ob, ok := item.(*ast.ObjectBlock); ok {
			if found := findObjectByName(ob, name); found != nil {
				return &ast.Root{Items: []ast.TopLevel{found}}, nil
			}
		}
	}
	return nil, fmt.Errorf("toyul: pick: no object block named %q in rewritten output", name)
}

func findObjectByName(ob *ast.ObjectBlock, name string) *ast.ObjectBlock {
	if ob.Name == name {
		return ob
	}
	for _, s := range ob.Body {
		if nested, ok := s.(*ast.ObjectBlock); ok {
			if found := findObjectByName(nested, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// appendMetadata computes the SHA-256 digest over (filename, contents) for
// the entry file followed by every resolved include (in include order,
// preserved by transform's IncludeDigestInput fold) and appends it as a
// `.metadata` hex data block to root's deployed object — the last object
// block nested inside the first top-level object block (creation code,
// then runtime/deployed code), or that top-level object itself when it
// has no nested object.
func appendMetadata(root *ast.Root, filename string, src []byte, includeFold []byte) error {
	input := append([]byte(filename), src...)
	input = append(input, includeFold...)
	sum := digest.Sha256(input)

	var outer *ast.ObjectBlock
	for _, item := range root.Items {
		if ob, ok := item.(*ast.ObjectBlock); ok {
			outer = ob
			break
		}
	}
	if outer == nil {
		return fmt.Errorf("toyul: metadata: no object block in rewritten output")
	}
	var deployed *ast.ObjectBlock
	for _, s := range outer.Body {
		if ob, ok := s.(*ast.ObjectBlock); ok {
			deployed = ob
		}
	}
	target := deployed
	if target == nil {
		target = outer
	}
	target.Body = append(target.Body, &ast.DataValue{Name: ".metadata", Value: fmt.Sprintf("%x", sum), IsHex: true})
	return nil
}
