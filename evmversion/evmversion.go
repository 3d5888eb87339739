// Package evmversion holds the hard-fork ordinal table and EVM_VERSION
// pragma resolution (spec §6). Grounded on the teacher's config.go idiom
// of plain package-level vars/consts for static configuration, rather than
// a flags/viper-style config object.
package evmversion

import "fmt"

// Ordinals, in the table order given by the spec.
const (
	Homestead         = 201603
	TangerineWhistle  = 201610
	SpuriousDragon    = 201611
	Byzantium         = 201710
	Constantinople    = 201902
	Petersburg        = 201903
	Istanbul          = 201912
	Berlin            = 202104
	London            = 202108
	Paris             = 202209
	Shanghai          = 202304
	Cancun            = 300000
)

var byName = map[string]int{
	"homestead":        Homestead,
	"tangerineWhistle": TangerineWhistle,
	"spuriousDragon":   SpuriousDragon,
	"byzantium":        Byzantium,
	"constantinople":   Constantinople,
	"petersburg":       Petersburg,
	"istanbul":         Istanbul,
	"berlin":           Berlin,
	"london":           London,
	"paris":            Paris,
	"shanghai":         Shanghai,
	"cancun":           Cancun,
}

// Resolve maps a hard-fork name to its ordinal, as used both by the `evm`
// pragma (§4.4 "Pragma") and by the CLI/options hard-fork selection (§6).
func Resolve(name string) (int, error) {
	if ord, ok := byName[name]; ok {
		return ord, nil
	}
	return 0, fmt.Errorf("unknown hard-fork name %q", name)
}

// HasMcopy reports whether the given ordinal's hard-fork has MCOPY natively
// (Cancun+), used by the transformer's `mcopy` intrinsic passthrough rule.
func HasMcopy(ordinal int) bool { return ordinal >= Cancun }

// HasLog2Native is always true; log2 is part of base Yul/EVM from
// Homestead onward. Kept for symmetry with the other hard-fork gates the
// transformer consults (spec names both `mcopy` and `log2` together in its
// built-in intrinsics table).
func HasLog2Native(ordinal int) bool { return true }
