// Package digest wraps the cryptographic digests the transformer computes
// at transform time when a hash built-in's sole argument is a literal
// (spec §4.4 "Built-in intrinsics"). Grounded on the teacher's
// cryptolib.go (cryptoKeccak256, golang.org/x/crypto/sha3), extended with
// the rest of the hash family the spec requires: sha256, ripemd160,
// hash160, hash256, blake2b160, blake2b256, keccak160.
//
// Cryptographic primitives themselves are an out-of-scope collaborator per
// the spec's "consumed as opaque byte-in/byte-out digests" rule; this
// package exists only because the transformer must still evaluate them at
// compile time for literal-argument folding.
package digest

import (
	"crypto/sha256"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the 32-byte Keccak-256 digest of data.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Keccak160 returns the low 20 bytes of Keccak256(data), matching Solidity's
// address-from-pubkey derivation shape.
func Keccak160(data []byte) []byte {
	return Keccak256(data)[12:]
}

// Sha256 returns the 32-byte SHA-256 digest of data.
func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Ripemd160 returns the 20-byte RIPEMD-160 digest of data.
func Ripemd160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// Hash160 returns RIPEMD160(SHA256(data)), the Bitcoin-style address hash.
func Hash160(data []byte) []byte {
	return Ripemd160(Sha256(data))
}

// Hash256 returns SHA256(SHA256(data)), the Bitcoin-style double hash.
func Hash256(data []byte) []byte {
	return Sha256(Sha256(data))
}

// Blake2b256 returns the 32-byte BLAKE2b-256 digest of data.
func Blake2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// Blake2b160 returns the low 20 bytes of BLAKE2b-256(data).
func Blake2b160(data []byte) []byte {
	return Blake2b256(data)[12:]
}

// ByName dispatches to the named builtin digest function; used by the
// transformer's generic "single-literal-argument hash builtin" folding
// rule so callers don't need a type switch over every builtin name.
func ByName(name string, data []byte) ([]byte, bool) {
	switch name {
	case "keccak256":
		return Keccak256(data), true
	case "keccak160":
		return Keccak160(data), true
	case "sha256":
		return Sha256(data), true
	case "ripemd160":
		return Ripemd160(data), true
	case "hash160":
		return Hash160(data), true
	case "hash256":
		return Hash256(data), true
	case "blake2b256":
		return Blake2b256(data), true
	case "blake2b160":
		return Blake2b160(data), true
	default:
		return nil, false
	}
}
