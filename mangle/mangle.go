// Package mangle implements the sigil-based renaming used when a
// materialised library helper's locals collide with Yul's no-shadow rule
// (spec §4.4 "Dependency materialisation", §9 "Shadowing restriction").
// Grounded on the teacher's clone-before-mutate idiom in tol/lower/lower.go
// (cloneStatements/cloneFields): a helper body is always cloned before its
// identifiers are rewritten, so the shared template is never mutated.
package mangle

import "fmt"

// Sigil is appended to a colliding identifier on each successive collision,
// so repeated imports of the same helper into scopes with different
// existing locals don't collide with each other either.
const Sigil = "_m"

// Renamer rewrites a fixed set of identifiers by appending Sigil until the
// result no longer collides with the scope's existing names.
type Renamer struct {
	taken map[string]bool
}

func NewRenamer(existing []string) *Renamer {
	r := &Renamer{taken: make(map[string]bool, len(existing))}
	for _, n := range existing {
		r.taken[n] = true
	}
	return r
}

// Rename returns a name for ident that does not collide with any name
// already registered as taken (either pre-existing or produced by a prior
// call to Rename), appending Sigil as many times as necessary.
func (r *Renamer) Rename(ident string) string {
	if !r.taken[ident] {
		r.taken[ident] = true
		return ident
	}
	candidate := ident
	for r.taken[candidate] {
		candidate = candidate + Sigil
	}
	r.taken[candidate] = true
	return candidate
}

// MangleSet computes the rename map for a helper body's locals against the
// importing scope's existing names. Only names present in localNames are
// considered for renaming; free references to globals/other helpers are
// left untouched by the caller (the AST rewrite pass consults this map only
// at declaration sites and their corresponding uses within the helper
// body's own scope).
func MangleSet(localNames []string, existingInScope []string) map[string]string {
	r := NewRenamer(existingInScope)
	out := make(map[string]string, len(localNames))
	for _, n := range localNames {
		out[n] = r.Rename(n)
	}
	return out
}

// DependencyKey identifies one materialised helper instantiation: the
// helper's template name plus the code-scope depth it is flushed into, used
// by the transformer to guarantee "exactly one function definition" per
// scope (testable property 6).
type DependencyKey struct {
	Name  string
	Depth int
}

func (k DependencyKey) String() string {
	return fmt.Sprintf("%s@%d", k.Name, k.Depth)
}
