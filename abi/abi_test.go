package abi

import (
	"strings"
	"testing"

	"github.com/tos-network/toyul/ast"
)

func TestCanonicalTypeNormalizesWidths(t *testing.T) {
	cases := []struct {
		in   ast.ABIType
		want string
	}{
		{ast.ABIType{Base: ast.ABIUint}, "uint256"},
		{ast.ABIType{Base: ast.ABIUint, Width: 8}, "uint8"},
		{ast.ABIType{Base: ast.ABIAddress}, "address"},
		{ast.ABIType{Base: ast.ABIBytes}, "bytes"},
		{ast.ABIType{Base: ast.ABIBytes, Width: 32 * 8}, "bytes32"},
		{ast.ABIType{Base: ast.ABIUint, Array: true}, "uint256[]"},
	}
	for _, c := range cases {
		got := CanonicalType(c.in)
		if got != c.want {
			t.Fatalf("CanonicalType(%+v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSelectorMatchesKnownTransferSignature(t *testing.T) {
	// transfer(address,uint256) selector is the well-known 0xa9059cbb.
	sel := Selector("transfer", []Param{{Type: "address"}, {Type: "uint256"}})
	want := [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	if sel != want {
		t.Fatalf("Selector(transfer) = %x, want %x", sel, want)
	}
}

func TestCollectorRejectsDuplicateNameAndSelectorCollision(t *testing.T) {
	c := NewCollector("Token")
	item := Item{Kind: KindFunction, Name: "foo", Selector: [4]byte{1, 2, 3, 4}}
	if err := c.Add(item); err != nil {
		t.Fatalf("unexpected error on first add: %v", err)
	}
	if err := c.Add(item); err == nil {
		t.Fatalf("expected duplicate-name rejection on second identical add")
	}
	other := Item{Kind: KindFunction, Name: "bar", Selector: [4]byte{1, 2, 3, 4}}
	if err := c.Add(other); err == nil {
		t.Fatalf("expected selector-collision rejection for a distinct name sharing a selector")
	}
}

func TestHashListAndSignaturesRenderAllItems(t *testing.T) {
	c := NewCollector("Token")
	m := &ast.MethodDecl{Name: "balanceOf", Params: []ast.MethodParam{{Type: ast.ABIType{Base: ast.ABIAddress}, Name: "who"}}}
	if err := c.Add(ItemFromMethod(m)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sigs := c.Signatures()
	if len(sigs) != 1 || sigs[0] != "balanceOf(address)" {
		t.Fatalf("unexpected signatures: %v", sigs)
	}
	hashes := c.HashList()
	if len(hashes) != 1 || !strings.Contains(hashes[0], "balanceOf(address)") {
		t.Fatalf("unexpected hash list: %v", hashes)
	}
}

func TestJSONRendersStateMutabilityAndIndexedFlags(t *testing.T) {
	c := NewCollector("Token")
	ev := &ast.EventDecl{Name: "Transfer", Params: []ast.EventParam{
		{Type: ast.ABIType{Base: ast.ABIAddress}, Name: "from", Indexed: true},
		{Type: ast.ABIType{Base: ast.ABIUint}, Name: "amount"},
	}}
	if err := c.Add(ItemFromEvent(ev)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	js, err := c.JSON()
	if err != nil {
		t.Fatalf("unexpected error rendering JSON: %v", err)
	}
	s := string(js)
	if !strings.Contains(s, `"indexed": true`) || !strings.Contains(s, `"type": "event"`) {
		t.Fatalf("unexpected JSON output: %s", s)
	}
}

func TestInterfaceSourceRendersMethodEventError(t *testing.T) {
	c := NewCollector("Token")
	m := &ast.MethodDecl{Name: "mint", Mutability: ast.MutPayable, Params: []ast.MethodParam{{Type: ast.ABIType{Base: ast.ABIUint}, Name: "amt"}}}
	if err := c.Add(ItemFromMethod(m)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := c.InterfaceSource()
	if !strings.Contains(src, "interface IToken {") || !strings.Contains(src, "method mint(uint256 amt) external payable") {
		t.Fatalf("unexpected interface source:\n%s", src)
	}
}

func TestAddressDefaultResolvesThroughCommonAddress(t *testing.T) {
	zero, err := AddressDefault("")
	if err != nil || zero.Sign() != 0 {
		t.Fatalf("AddressDefault(\"\") = %v, %v; want 0, nil", zero, err)
	}
	v, err := AddressDefault("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "1271270613000041655817448348132275889066893754095"
	if v.String() != want {
		t.Fatalf("AddressDefault = %s, want %s", v.String(), want)
	}
	if _, err := AddressDefault("not-an-address"); err == nil {
		t.Fatalf("expected an error for a malformed address literal")
	}
}

func TestJSONRejectsMalformedParamType(t *testing.T) {
	c := NewCollector("Token")
	item := Item{Kind: KindFunction, Name: "broken", Inputs: []Param{{Name: "x", Type: "uint9999"}}}
	if err := c.Add(item); err != nil {
		t.Fatalf("unexpected error on add: %v", err)
	}
	if _, err := c.JSON(); err == nil {
		t.Fatalf("expected JSON() to reject a param type go-ethereum's parser rejects")
	}
}

func TestInterfaceSourceWrapsLongParamList(t *testing.T) {
	c := NewCollector("Marketplace")
	params := []ast.MethodParam{
		{Type: ast.ABIType{Base: ast.ABIAddress}, Name: "sellerAddress"},
		{Type: ast.ABIType{Base: ast.ABIAddress}, Name: "buyerAddress"},
		{Type: ast.ABIType{Base: ast.ABIUint}, Name: "listingIdentifier"},
		{Type: ast.ABIType{Base: ast.ABIUint}, Name: "settlementAmount"},
	}
	m := &ast.MethodDecl{Name: "settleListing", Params: params}
	if err := c.Add(ItemFromMethod(m)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := c.InterfaceSource()
	for _, line := range strings.Split(src, "\n") {
		if len(line) > interfaceWrapWidth+2 {
			t.Fatalf("line exceeds wrap width (%d): %q", len(line), line)
		}
	}
	if !strings.Contains(src, "sellerAddress,") {
		t.Fatalf("expected wrapped parameter on its own line:\n%s", src)
	}
}
