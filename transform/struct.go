package transform

import (
	"fmt"
	"math/big"

	"github.com/tos-network/toyul/abi"
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/bigword"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// MemberLayout is one struct member's position within its packed word.
type MemberLayout struct {
	Name    string
	Shift   int
	Width   int
	Mask    *big.Int // field mask in the low Width bits, not shifted
	Default *big.Int
}

// StructLayout is a struct definition's computed bit-packing (spec §4.4
// "Struct packing"): every member lives in a single 256-bit word, placed
// MSB-first in declaration order, with `+`-named members reserved as
// padding and skipped from the member list.
type StructLayout struct {
	Name        string
	Members     []MemberLayout
	DefaultWord *big.Int
}

func (sl *StructLayout) find(name string) (MemberLayout, bool) {
	for _, m := range sl.Members {
		if m.Name == name {
			return m, true
		}
	}
	return MemberLayout{}, false
}

func memberBitWidth(t ast.ABIType) int {
	switch t.Base {
	case ast.ABIUint, ast.ABIInt:
		if t.Width > 0 {
			return t.Width
		}
		return 256
	case ast.ABIAddress:
		return 160
	case ast.ABIBool:
		return 8
	case ast.ABIBytes:
		if t.Width > 0 {
			return t.Width * 8
		}
		return 256
	case ast.ABIFunction:
		return 192
	default:
		return 256
	}
}

func fieldMask(width int) *big.Int {
	one := big.NewInt(1)
	return new(big.Int).Sub(new(big.Int).Lsh(one, uint(width)), one)
}

// layoutStruct computes def's packing, folding literal default expressions
// with tr.foldExpr so member defaults are ready-made literals.
func (tr *Transformer) layoutStruct(def *ast.StructDefinition, sc *scope.Scope) *StructLayout {
	used := 0
	sl := &StructLayout{Name: def.Name, DefaultWord: new(big.Int)}
	for _, m := range def.Members {
		width := memberBitWidth(m.Type)
		if used+width > 256 {
			tr.errorf(diag.KindType, diag.CodeTypeWidth, def, "struct %q exceeds 256 bits at member %q", def.Name, m.Name)
			break
		}
		shift := 256 - used - width
		used += width
		if m.Name == "+" {
			continue
		}
		var defVal *big.Int
		if m.Type.Base == ast.ABIAddress {
			// Address members go through go-ethereum's common.Address
			// rather than the generic numeric literal parser, so a
			// malformed or over-160-bit address default is rejected here
			// rather than silently wrapped.
			lit := ""
			if m.Default != nil {
				if folded, ok := tr.foldExpr(tr.resolveConstRefs(m.Default, sc), sc).(*ast.Literal); ok {
					lit = folded.Value
				}
			}
			v, err := abi.AddressDefault(lit)
			if err != nil {
				tr.errorf(diag.KindType, diag.CodeTypeWidth, def, "struct %q member %q: %v", def.Name, m.Name, err)
			} else {
				defVal = v
			}
		} else if m.Default != nil {
			folded := tr.foldExpr(tr.resolveConstRefs(m.Default, sc), sc)
			if lit, ok := folded.(*ast.Literal); ok {
				if v, err := literalToBig(lit); err == nil {
					defVal = v
				}
			}
		}
		if defVal == nil {
			defVal = new(big.Int)
		}
		ml := MemberLayout{Name: m.Name, Shift: shift, Width: width, Mask: fieldMask(width), Default: defVal}
		sl.Members = append(sl.Members, ml)
		placed := bigword.Shl(big.NewInt(int64(shift)), defVal)
		sl.DefaultWord = bigword.Or(sl.DefaultWord, placed)
	}
	return sl
}

// registerStructDef computes and caches a struct's layout and registers its
// definition in sc for name resolution.
func (tr *Transformer) registerStructDef(sc *scope.Scope, def *ast.StructDefinition) error {
	if tr.structLayouts == nil {
		tr.structLayouts = map[string]*StructLayout{}
	}
	if err := sc.AddStruct(def); err != nil {
		return err
	}
	tr.structLayouts[def.Name] = tr.layoutStruct(def, sc)
	return nil
}

func shiftLit(n int) ast.Expr {
	return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: fmt.Sprintf("%d", n)}
}

func maskLit(m *big.Int) ast.Expr {
	return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: m.String()}
}

func call(name string, args ...ast.Expr) ast.Expr {
	return &ast.FunctionCall{Name: name, Args: args}
}

// memberReadExpr builds `and(shr(shift, word), mask)` to extract a packed
// field's value.
func memberReadExpr(word ast.Expr, m MemberLayout) ast.Expr {
	if m.Shift == 0 && m.Width == 256 {
		return word
	}
	return call("and", call("shr", shiftLit(m.Shift), word), maskLit(m.Mask))
}

// memberWriteExpr builds the read-modify-write expression that replaces
// word's m field with newVal, preserving every other field.
func memberWriteExpr(word ast.Expr, m MemberLayout, newVal ast.Expr) ast.Expr {
	shiftedMask := new(big.Int).Lsh(m.Mask, uint(m.Shift))
	cleared := call("and", word, maskLit(bigword.Not(shiftedMask)))
	placed := call("shl", shiftLit(m.Shift), call("and", newVal, maskLit(m.Mask)))
	return call("or", cleared, placed)
}

// memberOrExpr builds the `|=` form: OR newVal's shifted bits into word
// without first clearing the field (spec's MemberAssignment OrFlag, used
// for accumulate-only packed counters).
func memberOrExpr(word ast.Expr, m MemberLayout, newVal ast.Expr) ast.Expr {
	placed := call("shl", shiftLit(m.Shift), call("and", newVal, maskLit(m.Mask)))
	return call("or", word, placed)
}

// lowerStructInitializer renders a StructInitializer literal into its
// packed word: explicit args override the layout defaults positionally,
// `@` args (StructArg.IsDefault) keep the struct's declared default.
func (tr *Transformer) lowerStructInitializer(n *ast.StructInitializer, sc *scope.Scope) ast.Expr {
	layout, ok := tr.structLayouts[n.StructName]
	if !ok {
		def, found := sc.LookupStruct(n.StructName)
		if !found {
			tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, n, "undefined struct %q", n.StructName)
			return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
		}
		layout = tr.layoutStruct(def, sc)
		if tr.structLayouts == nil {
			tr.structLayouts = map[string]*StructLayout{}
		}
		tr.structLayouts[n.StructName] = layout
	}
	if len(n.Args) != len(layout.Members) {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, n, "struct %q expects %d fields, got %d", n.StructName, len(layout.Members), len(n.Args))
	}
	word := ast.Expr(litFromBig(layout.DefaultWord))
	for i, arg := range n.Args {
		if i >= len(layout.Members) {
			break
		}
		if arg.IsDefault {
			continue
		}
		val := tr.lowerExpr(arg.Expr, sc)
		word = memberWriteExpr(word, layout.Members[i], val)
	}
	return tr.foldExpr(word, sc)
}
