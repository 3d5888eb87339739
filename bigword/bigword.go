// Package bigword implements 256-bit unsigned/two's-complement arithmetic
// used by the transformer's constant folding and struct default-value
// packing. Grounded on the teacher's number_uint256.go (uint256-domain
// LNumber arithmetic) and cryptolib.go (encodeHexTo32/encodeDecimalTo32),
// generalized from the Lua-value wrapper to plain *big.Int values.
package bigword

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	Modulus = new(big.Int).Lsh(big.NewInt(1), 256)
	Max     = new(big.Int).Sub(new(big.Int).Set(Modulus), big.NewInt(1))

	signBit = new(big.Int).Lsh(big.NewInt(1), 255)
)

// Wrap reduces v modulo 2^256 into the unsigned range [0, 2^256).
func Wrap(v *big.Int) *big.Int {
	r := new(big.Int).Mod(v, Modulus)
	if r.Sign() < 0 {
		r.Add(r, Modulus)
	}
	return r
}

// ParseUnsigned parses a decimal or 0x-prefixed hex literal into a wrapped
// uint256 value. Negative input is rejected; the spec disallows negative
// literals as direct syntax (they are written out as two's-complement of
// their magnitude by the caller instead).
func ParseUnsigned(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty numeric literal")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	if base == 10 && len(s) > 77 {
		return nil, fmt.Errorf("decimal literal exceeds 77 digits")
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid numeric literal %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative literals are not directly representable")
	}
	if v.Cmp(Max) > 0 {
		return nil, fmt.Errorf("literal %s exceeds uint256 range", s)
	}
	return v, nil
}

// TwosComplement returns the two's-complement uint256 representation of a
// negative magnitude: Mod - magnitude. Errors if magnitude does not fit.
func TwosComplement(magnitude *big.Int) (*big.Int, error) {
	if magnitude.Sign() < 0 {
		return nil, fmt.Errorf("magnitude must be non-negative")
	}
	if magnitude.Cmp(Modulus) > 0 {
		return nil, fmt.Errorf("magnitude exceeds 256 bits")
	}
	if magnitude.Sign() == 0 {
		return new(big.Int), nil
	}
	return new(big.Int).Sub(Modulus, magnitude), nil
}

// FitsSigned reports whether v (as an unsigned 256-bit word) is a valid
// two's-complement representation of a signed value within the given bit
// width (e.g. checking a hex literal assigned to int64 doesn't exceed it).
func FitsSigned(v *big.Int, bits int) bool {
	half := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if v.Cmp(half) < 0 {
		return true // non-negative half, fits as positive
	}
	// negative range: [2^256 - 2^(bits-1), 2^256)
	lowerNeg := new(big.Int).Sub(Modulus, half)
	return v.Cmp(lowerNeg) >= 0
}

// Add, Sub, Mul wrap their 256-bit EVM-equivalent results.
func Add(a, b *big.Int) *big.Int { return Wrap(new(big.Int).Add(a, b)) }
func Sub(a, b *big.Int) *big.Int { return Wrap(new(big.Int).Sub(a, b)) }
func Mul(a, b *big.Int) *big.Int { return Wrap(new(big.Int).Mul(a, b)) }

// Div implements Yul's `div`: unsigned integer division, 0 if divisor is 0.
func Div(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(a, b)
}

// Mod implements Yul's `mod`: a % b, 0 if divisor is 0.
func Mod(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Mod(a, b)
}

// toSigned interprets a uint256 word as its two's-complement signed value.
func toSigned(a *big.Int) *big.Int {
	if a.Cmp(signBit) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Sub(a, Modulus)
}

func SDiv(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return new(big.Int)
	}
	sa, sb := toSigned(a), toSigned(b)
	q := new(big.Int).Quo(sa, sb)
	return Wrap(q)
}

func SMod(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		return new(big.Int)
	}
	sa, sb := toSigned(a), toSigned(b)
	r := new(big.Int).Rem(sa, sb)
	return Wrap(r)
}

func AddMod(a, b, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Mod(new(big.Int).Add(a, b), m)
}

func MulMod(a, b, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Mod(new(big.Int).Mul(a, b), m)
}

func Exp(a, b *big.Int) *big.Int {
	return new(big.Int).Exp(a, b, Modulus)
}

func Not(a *big.Int) *big.Int { return Wrap(new(big.Int).Not(a)) }
func And(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) }
func Or(a, b *big.Int) *big.Int  { return new(big.Int).Or(a, b) }
func Xor(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) }

func Shl(shift, a *big.Int) *big.Int {
	if shift.Cmp(big.NewInt(256)) >= 0 {
		return new(big.Int)
	}
	return Wrap(new(big.Int).Lsh(a, uint(shift.Uint64())))
}

func Shr(shift, a *big.Int) *big.Int {
	if shift.Cmp(big.NewInt(256)) >= 0 {
		return new(big.Int)
	}
	return new(big.Int).Rsh(a, uint(shift.Uint64()))
}

func Sar(shift, a *big.Int) *big.Int {
	sa := toSigned(a)
	if shift.Cmp(big.NewInt(256)) >= 0 {
		if sa.Sign() < 0 {
			return new(big.Int).Set(Max)
		}
		return new(big.Int)
	}
	return Wrap(new(big.Int).Rsh(sa, uint(shift.Uint64())))
}

func SignExtend(k, a *big.Int) *big.Int {
	if k.Cmp(big.NewInt(31)) >= 0 {
		return new(big.Int).Set(a)
	}
	bit := uint(k.Uint64())*8 + 7
	mask := new(big.Int).Lsh(big.NewInt(1), bit)
	if new(big.Int).And(a, mask).Sign() != 0 {
		ones := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256-bit-1), big.NewInt(1))
		ones.Lsh(ones, bit+1)
		return Wrap(new(big.Int).Or(a, ones))
	}
	lowMask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bit+1), big.NewInt(1))
	return new(big.Int).And(a, lowMask)
}

func Byte(i, a *big.Int) *big.Int {
	if i.Sign() < 0 || i.Cmp(big.NewInt(32)) >= 0 {
		return new(big.Int)
	}
	shift := uint(31-i.Uint64()) * 8
	return new(big.Int).And(new(big.Int).Rsh(a, shift), big.NewInt(0xff))
}

func IsZero(a *big.Int) *big.Int {
	if a.Sign() == 0 {
		return big.NewInt(1)
	}
	return new(big.Int)
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return new(big.Int)
}

func Eq(a, b *big.Int) *big.Int { return boolInt(a.Cmp(b) == 0) }
func Lt(a, b *big.Int) *big.Int { return boolInt(a.Cmp(b) < 0) }
func Gt(a, b *big.Int) *big.Int { return boolInt(a.Cmp(b) > 0) }
func Slt(a, b *big.Int) *big.Int { return boolInt(toSigned(a).Cmp(toSigned(b)) < 0) }
func Sgt(a, b *big.Int) *big.Int { return boolInt(toSigned(a).Cmp(toSigned(b)) > 0) }

// HexTo32 right-aligns a (possibly 0x-prefixed) hex string into a 32-byte
// big-endian hex string with no 0x prefix, as cryptolib.go's
// encodeHexTo32 did for TOL storage-key derivation; here it is reused for
// struct-member default encoding and hash-builtin literal arguments.
func HexTo32(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	if len(s) > 64 {
		return "", fmt.Errorf("hex value exceeds 32 bytes")
	}
	return strings.Repeat("0", 64-len(s)) + s, nil
}

// Bytes32 returns the big-endian 32-byte encoding of v.
func Bytes32(v *big.Int) []byte {
	var buf [32]byte
	b := v.Bytes()
	copy(buf[32-len(b):], b)
	return buf[:]
}

func HexString(v *big.Int) string {
	return fmt.Sprintf("0x%x", v)
}
