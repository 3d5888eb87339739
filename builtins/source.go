package builtins

// supportSource is the "support-only" tier (spec §5): small,
// always-safe arithmetic and bit helpers with no ABI or storage
// awareness. Every helper here is pure and total over uint256 — no
// revert paths, so no gas surprises from pulling one in.
const supportSource = `
function min(a, b) -> r {
  r := a
  if lt(b, a) { r := b }
}

function max(a, b) -> r {
  r := a
  if gt(b, a) { r := b }
}

function clamp(x, lo, hi) -> r {
  r := x
  if lt(r, lo) { r := lo }
  if gt(r, hi) { r := hi }
}

function ceildiv(a, b) -> r {
  r := div(a, b)
  if gt(mod(a, b), 0) { r := add(r, 1) }
}

function isContract(addr) -> yes {
  yes := gt(extcodesize(addr), 0)
}

function toBool(x) -> b {
  b := iszero(iszero(x))
}
`

// fullSource layers checked arithmetic and a couple of ABI-adjacent
// helpers on top of supportSource (spec §5 "full"). The checked helpers
// (addChecked, subChecked, mulChecked) carry a revert path, so they are
// only worth the code size when a caller actually wants overflow safety
// rather than the raw opcode; packSelector and firstWord do not revert.
const fullSource = `
function addChecked(a, b) -> r {
  r := add(a, b)
  require.ok(iszero(lt(r, a)))
}

function subChecked(a, b) -> r {
  require.ok(iszero(lt(a, b)))
  r := sub(a, b)
}

function mulChecked(a, b) -> r {
  r := mul(a, b)
  if gt(a, 0) {
    require.ok(eq(div(r, a), b))
  }
}

function packSelector(sig) -> sel {
  sel := shr(224, sig)
}

function firstWord(ptr) -> w {
  w := mload(ptr)
}
`
