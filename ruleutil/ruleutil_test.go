package ruleutil

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/google/nftlink/expr"
	"github.com/google/nftlink/nftables"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

func newRule() *nftables.Rule {
	return nftables.NewRule(nlenc.FamilyInet, "mocktable", "mockchain")
}

func exprNames(r *nftables.Rule) []string {
	names := make([]string, len(r.Expressions()))
	for i, e := range r.Expressions() {
		names[i] = e.Name()
	}
	return names
}

func TestMatchProtocol(t *testing.T) {
	r := MatchProtocol(newRule(), ProtocolTCP)
	if got, want := exprNames(r), []string{"meta", "cmp"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expressions = %v, want %v", got, want)
	}
	m := r.Expressions()[0].(*expr.Meta)
	if m.Key != expr.MetaL4proto {
		t.Errorf("Meta.Key = %v, want MetaL4proto", m.Key)
	}
	c := r.Expressions()[1].(*expr.Cmp)
	if c.Op != expr.CmpEq || string(c.Data) != string([]byte{6}) {
		t.Errorf("Cmp = {Op: %v, Data: %v}, want {CmpEq, [6]}", c.Op, c.Data)
	}
}

func TestMatchIcmpAndIgmp(t *testing.T) {
	icmp := MatchIcmp(newRule()).Expressions()[1].(*expr.Cmp)
	if string(icmp.Data) != string([]byte{1}) {
		t.Errorf("MatchIcmp Cmp.Data = %v, want [1]", icmp.Data)
	}
	igmp := MatchIgmp(newRule()).Expressions()[1].(*expr.Cmp)
	if string(igmp.Data) != string([]byte{2}) {
		t.Errorf("MatchIgmp Cmp.Data = %v, want [2]", igmp.Data)
	}
}

// Sport and Dport must load from different transport offsets: offset 0 for
// source, offset 2 for destination. rustables/src/rule_methods.rs has a
// known bug reusing the destination offset for both; that bug is not
// reproduced here.
func TestMatchPortOffsetsDiffer(t *testing.T) {
	dport := MatchDPort(newRule(), 443, ProtocolTCP)
	sport := MatchSPort(newRule(), 443, ProtocolTCP)

	dp := dport.Expressions()[2].(*expr.Payload)
	sp := sport.Expressions()[2].(*expr.Payload)

	if dp.Offset != portOffsetDport {
		t.Errorf("MatchDPort Payload.Offset = %d, want %d", dp.Offset, portOffsetDport)
	}
	if sp.Offset != portOffsetSport {
		t.Errorf("MatchSPort Payload.Offset = %d, want %d", sp.Offset, portOffsetSport)
	}
	if dp.Offset == sp.Offset {
		t.Fatal("MatchDPort and MatchSPort used the same payload offset")
	}

	cmp := dport.Expressions()[3].(*expr.Cmp)
	if string(cmp.Data) != string([]byte{0x01, 0xbb}) {
		t.Errorf("MatchDPort Cmp.Data = %v, want big-endian 443", cmp.Data)
	}
}

func TestMatchPortBuildsOnProtocolMatch(t *testing.T) {
	r := MatchDPort(newRule(), 80, ProtocolTCP)
	want := []string{"meta", "cmp", "payload", "cmp"}
	if got := exprNames(r); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expressions = %v, want %v", got, want)
	}
}

func TestMatchSourceAddressIPv4(t *testing.T) {
	r := MatchSourceAddress(newRule(), net.ParseIP("192.0.2.1"))
	want := []string{"meta", "cmp", "payload", "cmp"}
	if got := exprNames(r); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expressions = %v, want %v", got, want)
	}
	fam := r.Expressions()[1].(*expr.Cmp)
	if fam.Data[0] != nfprotoIPv4 {
		t.Errorf("family Cmp.Data = %v, want [nfprotoIPv4]", fam.Data)
	}
	load := r.Expressions()[2].(*expr.Payload)
	if load.Offset != ipv4SaddrOffset || load.Len != ipv4AddrLen {
		t.Errorf("Payload = {Offset: %d, Len: %d}, want {%d, %d}", load.Offset, load.Len, ipv4SaddrOffset, ipv4AddrLen)
	}
	addr := r.Expressions()[3].(*expr.Cmp)
	if string(addr.Data) != string(net.ParseIP("192.0.2.1").To4()) {
		t.Errorf("address Cmp.Data = %v, want 192.0.2.1", addr.Data)
	}
}

func TestMatchDestAddressIPv6(t *testing.T) {
	ip := net.ParseIP("2001:db8::1")
	r := MatchDestAddress(newRule(), ip)
	fam := r.Expressions()[1].(*expr.Cmp)
	if fam.Data[0] != nfprotoIPv6 {
		t.Errorf("family Cmp.Data = %v, want [nfprotoIPv6]", fam.Data)
	}
	load := r.Expressions()[2].(*expr.Payload)
	if load.Offset != ipv6DaddrOffset || load.Len != ipv6AddrLen {
		t.Errorf("Payload = {Offset: %d, Len: %d}, want {%d, %d}", load.Offset, load.Len, ipv6DaddrOffset, ipv6AddrLen)
	}
	addr := r.Expressions()[3].(*expr.Cmp)
	if string(addr.Data) != string(ip.To16()) {
		t.Errorf("address Cmp.Data = %v, want %v", addr.Data, ip.To16())
	}
}

func TestMatchSourceNetworkIPv4(t *testing.T) {
	_, network, err := net.ParseCIDR("192.0.2.0/24")
	if err != nil {
		t.Fatalf("ParseCIDR: %v", err)
	}
	r, err := MatchSourceNetwork(newRule(), network)
	if err != nil {
		t.Fatalf("MatchSourceNetwork: %v", err)
	}
	want := []string{"meta", "cmp", "payload", "bitwise", "cmp"}
	if got := exprNames(r); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expressions = %v, want %v", got, want)
	}
	bw := r.Expressions()[3].(*expr.Bitwise)
	if string(bw.Mask) != string([]byte{255, 255, 255, 0}) {
		t.Errorf("Bitwise.Mask = %v, want 255.255.255.0", bw.Mask)
	}
	for _, b := range bw.Xor {
		if b != 0 {
			t.Fatalf("Bitwise.Xor = %v, want all zero", bw.Xor)
		}
	}
}

func TestMatchDestNetworkIPv6(t *testing.T) {
	_, network, err := net.ParseCIDR("2001:db8::/32")
	if err != nil {
		t.Fatalf("ParseCIDR: %v", err)
	}
	r, err := MatchDestNetwork(newRule(), network)
	if err != nil {
		t.Fatalf("MatchDestNetwork: %v", err)
	}
	bw := r.Expressions()[3].(*expr.Bitwise)
	if len(bw.Mask) != ipv6AddrLen {
		t.Errorf("Bitwise.Mask length = %d, want %d", len(bw.Mask), ipv6AddrLen)
	}
}

func TestMatchCtState(t *testing.T) {
	r := MatchCtState(newRule())
	want := []string{"ct", "bitwise", "cmp"}
	if got := exprNames(r); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expressions = %v, want %v", got, want)
	}
	ct := r.Expressions()[0].(*expr.Ct)
	if ct.Key != expr.CtKeyState {
		t.Errorf("Ct.Key = %v, want CtKeyState", ct.Key)
	}
	bw := r.Expressions()[1].(*expr.Bitwise)
	if bw.Mask[0] != 1<<1 || bw.Mask[1] != 0 || bw.Mask[2] != 0 || bw.Mask[3] != 0 {
		t.Errorf("Bitwise.Mask = %v, want little-endian established bit", bw.Mask)
	}
	cmp := r.Expressions()[2].(*expr.Cmp)
	if cmp.Op != expr.CmpNeq {
		t.Errorf("Cmp.Op = %v, want CmpNeq", cmp.Op)
	}
	for _, b := range cmp.Data {
		if b != 0 {
			t.Fatalf("Cmp.Data = %v, want all zero", cmp.Data)
		}
	}
}

func TestMatchInIface(t *testing.T) {
	r, err := MatchInIface(newRule(), "eth0")
	if err != nil {
		t.Fatalf("MatchInIface: %v", err)
	}
	m := r.Expressions()[0].(*expr.Meta)
	if m.Key != expr.MetaIifname {
		t.Errorf("Meta.Key = %v, want MetaIifname", m.Key)
	}
	c := r.Expressions()[1].(*expr.Cmp)
	if string(c.Data) != "eth0\x00" {
		t.Errorf("Cmp.Data = %q, want %q", c.Data, "eth0\x00")
	}
}

func TestMatchOutIface(t *testing.T) {
	r, err := MatchOutIface(newRule(), "eth1")
	if err != nil {
		t.Fatalf("MatchOutIface: %v", err)
	}
	m := r.Expressions()[0].(*expr.Meta)
	if m.Key != expr.MetaOifname {
		t.Errorf("Meta.Key = %v, want MetaOifname", m.Key)
	}
}

func TestMatchIfaceNameTooLong(t *testing.T) {
	if _, err := MatchInIface(newRule(), strings.Repeat("x", 16)); !errors.Is(err, nlerr.ErrNameTooLong) {
		t.Errorf("MatchInIface with 16-byte name: err = %v, want ErrNameTooLong", err)
	}
	if _, err := MatchOutIface(newRule(), strings.Repeat("x", 15)); err != nil {
		t.Errorf("MatchOutIface with 15-byte name: err = %v, want nil", err)
	}
}

func TestMatchInOutIfaceIndex(t *testing.T) {
	in := MatchInIfaceIndex(newRule(), 3)
	m := in.Expressions()[0].(*expr.Meta)
	if m.Key != expr.MetaIif {
		t.Errorf("MatchInIfaceIndex Meta.Key = %v, want MetaIif", m.Key)
	}
	c := in.Expressions()[1].(*expr.Cmp)
	if string(c.Data) != string([]byte{0, 0, 0, 3}) {
		t.Errorf("MatchInIfaceIndex Cmp.Data = %v, want big-endian 3", c.Data)
	}

	out := MatchOutIfaceIndex(newRule(), 7)
	m = out.Expressions()[0].(*expr.Meta)
	if m.Key != expr.MetaOif {
		t.Errorf("MatchOutIfaceIndex Meta.Key = %v, want MetaOif", m.Key)
	}
}

func TestVerdicts(t *testing.T) {
	accept := AcceptVerdict(newRule()).Expressions()[0].(*expr.Immediate)
	if accept.Verdict == nil || expr.VerdictCode(accept.Verdict.Code) != expr.VerdictAccept {
		t.Errorf("AcceptVerdict = %+v, want VerdictAccept", accept.Verdict)
	}
	drop := DropVerdict(newRule()).Expressions()[0].(*expr.Immediate)
	if drop.Verdict == nil || expr.VerdictCode(drop.Verdict.Code) != expr.VerdictDrop {
		t.Errorf("DropVerdict = %+v, want VerdictDrop", drop.Verdict)
	}
	ret := ReturnVerdict(newRule()).Expressions()[0].(*expr.Immediate)
	if ret.Verdict == nil || expr.VerdictCode(ret.Verdict.Code) != expr.VerdictReturn {
		t.Errorf("ReturnVerdict = %+v, want VerdictReturn", ret.Verdict)
	}
}
