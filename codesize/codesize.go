// Package codesize implements the fixed-weight statement walker used for
// inline-suppression padding (spec §4.4 "Inline-suppression padding"): a
// function body below the inliner's size threshold gets `verbatim`-encoded
// no-ops appended so the Solidity optimiser no longer considers it a
// trivial inlining candidate. Grounded on the teacher's cryptolib.go style
// of small pure numeric helpers operating over the AST rather than a
// side-table.
package codesize

import "github.com/tos-network/toyul/ast"

// Weight returns the fixed op-count weight of a single statement or
// expression node, per the table in spec §4.4. Statement blocks and bodies
// recurse; a FunctionCall or InterfaceCall counts 1 and its arguments, like
// If/Switch/loop conditions, are not walked, so literals inside them add
// nothing. A Literal passed in directly counts 1 when it is a non-zero
// number; repeated literals are not de-duplicated. The weights do not
// model actual EVM gas or byte cost; they only serve to
// rank functions against the inliner's cheap/expensive cutoff the same way
// the Solidity optimiser's own heuristic does.
func Weight(n ast.Node) int {
	switch t := n.(type) {
	case *ast.Block:
		sum := 0
		for _, s := range t.Statements {
			sum += Weight(s)
		}
		return sum
	case *ast.Assignment:
		return 0
	case *ast.MemberAssignment:
		return 0
	case *ast.VariableDeclaration:
		return 0
	case *ast.FunctionCall:
		return 1
	case *ast.InterfaceCall:
		return 1
	case *ast.If:
		return 2 + Weight(t.Body)
	case *ast.Switch:
		w := 1
		for _, c := range t.Cases {
			w += 2 + Weight(c.Body)
		}
		if t.Default != nil {
			w += 2 + Weight(t.Default)
		}
		return w
	case *ast.ForLoop:
		w := 3
		if t.Init != nil {
			w += Weight(t.Init)
		}
		if t.Post != nil {
			w += Weight(t.Post)
		}
		w += Weight(t.Body)
		return w
	case *ast.While:
		return 3 + Weight(t.Body)
	case *ast.DoWhile:
		return 3 + Weight(t.Body)
	case *ast.BreakContinue:
		return 2
	case *ast.Leave:
		return 2
	case *ast.Literal:
		if t.Subtype == ast.LitDecimalNumber || t.Subtype == ast.LitHexNumber {
			if t.Value != "0" {
				return 1
			}
		}
		return 0
	default:
		return 0
	}
}

// memoryOps is the set of opcode names that force a helper's padding into
// the "with memguard" threshold tier (spec §4.4's parenthetical
// "with/without memguard"): any opcode whose effect depends on, or writes
// through, the free-memory-pointer-managed region needs solc's Yul
// memory-safety guard around it, which the optimiser accounts for
// separately from raw op-count.
var memoryOps = map[string]bool{
	"mstore": true, "mstore8": true, "mload": true,
	"keccak256": true, "calldatacopy": true, "codecopy": true,
	"extcodecopy": true, "returndatacopy": true,
	"log0": true, "log1": true, "log2": true, "log3": true, "log4": true,
	"create": true, "create2": true,
	"call": true, "callcode": true, "delegatecall": true, "staticcall": true,
	"return": true, "revert": true,
}

// NeedsMemGuard reports whether n touches memory anywhere in its tree,
// selecting the "with memguard" threshold tier for the function it belongs
// to.
func NeedsMemGuard(n ast.Node) bool {
	switch t := n.(type) {
	case *ast.Block:
		for _, s := range t.Statements {
			if NeedsMemGuard(s) {
				return true
			}
		}
	case *ast.Assignment:
		return NeedsMemGuard(t.RHS)
	case *ast.MemberAssignment:
		return NeedsMemGuard(t.RHS)
	case *ast.VariableDeclaration:
		return t.Init != nil && NeedsMemGuard(t.Init)
	case *ast.FunctionCall:
		if memoryOps[t.Name] {
			return true
		}
		for _, a := range t.Args {
			if NeedsMemGuard(a) {
				return true
			}
		}
	case *ast.InterfaceCall:
		return true
	case *ast.If:
		return NeedsMemGuard(t.Cond) || NeedsMemGuard(t.Body)
	case *ast.Switch:
		if NeedsMemGuard(t.Expr) {
			return true
		}
		for _, c := range t.Cases {
			if NeedsMemGuard(c.Body) {
				return true
			}
		}
		return t.Default != nil && NeedsMemGuard(t.Default)
	case *ast.ForLoop:
		if t.Init != nil && NeedsMemGuard(t.Init) {
			return true
		}
		if NeedsMemGuard(t.Cond) {
			return true
		}
		if t.Post != nil && NeedsMemGuard(t.Post) {
			return true
		}
		return NeedsMemGuard(t.Body)
	case *ast.While:
		return NeedsMemGuard(t.Cond) || NeedsMemGuard(t.Body)
	case *ast.DoWhile:
		return NeedsMemGuard(t.Cond) || NeedsMemGuard(t.Body)
	}
	return false
}

// Threshold returns the arity/memguard-indexed op-count a padded helper
// must reach or exceed (spec §4.4, testable property 8: "6/8 for 0-arg,
// 12/16 for n-arg, with/without memguard").
func Threshold(arity int, memguard bool) int {
	switch {
	case arity == 0 && !memguard:
		return 6
	case arity == 0 && memguard:
		return 8
	case !memguard:
		return 12
	default:
		return 16
	}
}

// NeedsPadding reports whether body's weight falls short of the threshold
// its arity and memory use select, and therefore needs verbatim padding
// appended before the downstream optimiser sees it.
func NeedsPadding(body *ast.Block, arity int) bool {
	return Weight(body) < Threshold(arity, NeedsMemGuard(body))
}

// verbatimCodesizePopHex is the two-byte CODESIZE POP sequence (0x38 0x50):
// stack-neutral, side-effect-free, and — because it is emitted through
// `verbatim`, which the Yul optimiser never looks inside — never folded or
// stripped back out before reaching the final bytecode.
const verbatimCodesizePopHex = "3850"

// PaddingStatements returns the `verbatim_0i_0o(hex"3850")` no-ops to
// append to body so its op-count clears the arity/memguard threshold:
// exactly enough repetitions of the two-byte CODESIZE POP sequence, each
// counted as weight 1 by Weight's FunctionCall case, to bring the running
// total up to the threshold.
func PaddingStatements(body *ast.Block, arity int) []ast.Stmt {
	threshold := Threshold(arity, NeedsMemGuard(body))
	current := Weight(body)
	var stmts []ast.Stmt
	for current < threshold {
		stmts = append(stmts, verbatimPadStatement())
		current++
	}
	return stmts
}

func verbatimPadStatement() ast.Stmt {
	return &ast.FunctionCall{
		Name: "verbatim_0i_0o",
		Args: []ast.Expr{
			&ast.Literal{Subtype: ast.LitHex, Value: verbatimCodesizePopHex},
		},
	}
}
