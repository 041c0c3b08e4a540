/*
Copyright 2026 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ruleutil builds the common sequences of primitive expressions
// (package expr) a rule needs to match protocols, ports, addresses,
// interfaces and connection state, and to terminate with a verdict.
// Every helper here is grounded in rustables/src/rule_methods.rs, adapted
// from self-consuming builder methods into functions that append to an
// existing *nftables.Rule.
package ruleutil

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/nftlink/expr"
	"github.com/google/nftlink/internal/ifname"
	"github.com/google/nftlink/nftables"
)

// Protocol is a layer-4 protocol this package knows how to match on.
type Protocol uint8

const (
	ProtocolTCP Protocol = 6
	ProtocolUDP Protocol = 17
)

const (
	ipprotoICMP  = 1
	ipprotoIGMP  = 2
	nfprotoIPv4  = 2
	nfprotoIPv6  = 10
	ctStateEstab = 1 << 1 // nft_ct_state: established.
)

// MatchProtocol appends a match on the packet's layer-4 protocol.
func MatchProtocol(r *nftables.Rule, p Protocol) *nftables.Rule {
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaL4proto),
		expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{byte(p)}),
	)
}

// MatchIcmp appends a match on ICMP packets.
func MatchIcmp(r *nftables.Rule) *nftables.Rule {
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaL4proto),
		expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{ipprotoICMP}),
	)
}

// MatchIgmp appends a match on IGMP packets.
func MatchIgmp(r *nftables.Rule) *nftables.Rule {
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaL4proto),
		expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{ipprotoIGMP}),
	)
}

// transport header field byte offsets; TCP and UDP share the same 16-bit
// source/destination port layout at the start of the header.
const (
	portOffsetSport uint32 = 0
	portOffsetDport uint32 = 2
	portLen         uint32 = 2
)

func matchPort(r *nftables.Rule, p Protocol, port uint16, offset uint32) *nftables.Rule {
	r = MatchProtocol(r, p)
	var be [2]byte
	binary.BigEndian.PutUint16(be[:], port)
	return r.AppendExpressions(
		expr.NewPayload(expr.Reg1, expr.PayloadBaseTransport, offset, portLen),
		expr.NewCmp(expr.CmpEq, expr.Reg1, be[:]),
	)
}

// MatchDPort appends a match on the destination port for protocol p.
func MatchDPort(r *nftables.Rule, port uint16, p Protocol) *nftables.Rule {
	return matchPort(r, p, port, portOffsetDport)
}

// MatchSPort appends a match on the source port for protocol p.
func MatchSPort(r *nftables.Rule, port uint16, p Protocol) *nftables.Rule {
	return matchPort(r, p, port, portOffsetSport)
}

// network header field byte offsets within the IP header.
const (
	ipv4SaddrOffset uint32 = 12
	ipv4DaddrOffset uint32 = 16
	ipv4AddrLen     uint32 = 4
	ipv6SaddrOffset uint32 = 8
	ipv6DaddrOffset uint32 = 24
	ipv6AddrLen     uint32 = 16
)

func matchAddress(r *nftables.Rule, ip net.IP, v4Offset, v6Offset uint32) *nftables.Rule {
	r = r.AppendExpressions(expr.NewMeta(expr.Reg1, expr.MetaNfproto))
	if v4 := ip.To4(); v4 != nil {
		return r.AppendExpressions(
			expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{nfprotoIPv4}),
			expr.NewPayload(expr.Reg1, expr.PayloadBaseNetwork, v4Offset, ipv4AddrLen),
			expr.NewCmp(expr.CmpEq, expr.Reg1, v4),
		)
	}
	v6 := ip.To16()
	return r.AppendExpressions(
		expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{nfprotoIPv6}),
		expr.NewPayload(expr.Reg1, expr.PayloadBaseNetwork, v6Offset, ipv6AddrLen),
		expr.NewCmp(expr.CmpEq, expr.Reg1, v6),
	)
}

// MatchSourceAddress appends a match on the packet's source address.
func MatchSourceAddress(r *nftables.Rule, ip net.IP) *nftables.Rule {
	return matchAddress(r, ip, ipv4SaddrOffset, ipv6SaddrOffset)
}

// MatchDestAddress appends a match on the packet's destination address.
func MatchDestAddress(r *nftables.Rule, ip net.IP) *nftables.Rule {
	return matchAddress(r, ip, ipv4DaddrOffset, ipv6DaddrOffset)
}

func matchNetwork(r *nftables.Rule, network *net.IPNet, v4Offset, v6Offset uint32) (*nftables.Rule, error) {
	r = r.AppendExpressions(expr.NewMeta(expr.Reg1, expr.MetaNfproto))
	v4 := network.IP.To4()
	if v4 != nil {
		mask := net.IP(network.Mask).To4()
		if mask == nil {
			mask = network.Mask
		}
		bw, err := expr.NewBitwise(expr.Reg1, expr.Reg1, mask, make([]byte, ipv4AddrLen))
		if err != nil {
			return nil, fmt.Errorf("ruleutil: building network mask: %w", err)
		}
		return r.AppendExpressions(
			expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{nfprotoIPv4}),
			expr.NewPayload(expr.Reg1, expr.PayloadBaseNetwork, v4Offset, ipv4AddrLen),
			bw,
			expr.NewCmp(expr.CmpEq, expr.Reg1, v4),
		), nil
	}

	v6 := network.IP.To16()
	bw, err := expr.NewBitwise(expr.Reg1, expr.Reg1, network.Mask, make([]byte, ipv6AddrLen))
	if err != nil {
		return nil, fmt.Errorf("ruleutil: building network mask: %w", err)
	}
	return r.AppendExpressions(
		expr.NewCmp(expr.CmpEq, expr.Reg1, []byte{nfprotoIPv6}),
		expr.NewPayload(expr.Reg1, expr.PayloadBaseNetwork, v6Offset, ipv6AddrLen),
		bw,
		expr.NewCmp(expr.CmpEq, expr.Reg1, v6),
	), nil
}

// MatchSourceNetwork appends a match narrowing the packet's source
// address to network (via a bitmask AND before the comparison).
func MatchSourceNetwork(r *nftables.Rule, network *net.IPNet) (*nftables.Rule, error) {
	return matchNetwork(r, network, ipv4SaddrOffset, ipv6SaddrOffset)
}

// MatchDestNetwork appends a match narrowing the packet's destination
// address to network.
func MatchDestNetwork(r *nftables.Rule, network *net.IPNet) (*nftables.Rule, error) {
	return matchNetwork(r, network, ipv4DaddrOffset, ipv6DaddrOffset)
}

// MatchCtState appends a match for an already-established connection,
// mirroring rule_methods.rs's make_established_state_matcher: load the
// conntrack state, mask it down to the established bit, and require the
// result to be non-zero.
func MatchCtState(r *nftables.Rule) *nftables.Rule {
	var mask [4]byte
	binary.LittleEndian.PutUint32(mask[:], ctStateEstab)
	bw, err := expr.NewBitwise(expr.Reg1, expr.Reg1, mask[:], make([]byte, 4))
	if err != nil {
		// mask and xor are both constructed with equal length here; this
		// can never fail.
		panic(err)
	}
	return r.AppendExpressions(
		expr.NewCt(expr.Reg1, expr.CtKeyState),
		bw,
		expr.NewCmp(expr.CmpNeq, expr.Reg1, make([]byte, 4)),
	)
}

// MatchInIface appends a match on the inbound interface name.
func MatchInIface(r *nftables.Rule, name string) (*nftables.Rule, error) {
	if err := ifname.Validate(name); err != nil {
		return nil, err
	}
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaIifname),
		expr.NewCmp(expr.CmpEq, expr.Reg1, nullTerminated(name)),
	), nil
}

// MatchOutIface appends a match on the outbound interface name.
func MatchOutIface(r *nftables.Rule, name string) (*nftables.Rule, error) {
	if err := ifname.Validate(name); err != nil {
		return nil, err
	}
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaOifname),
		expr.NewCmp(expr.CmpEq, expr.Reg1, nullTerminated(name)),
	), nil
}

// MatchInIfaceIndex appends a match on the inbound interface's index.
func MatchInIfaceIndex(r *nftables.Rule, index uint32) *nftables.Rule {
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], index)
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaIif),
		expr.NewCmp(expr.CmpEq, expr.Reg1, be[:]),
	)
}

// MatchOutIfaceIndex appends a match on the outbound interface's index.
func MatchOutIfaceIndex(r *nftables.Rule, index uint32) *nftables.Rule {
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], index)
	return r.AppendExpressions(
		expr.NewMeta(expr.Reg1, expr.MetaOif),
		expr.NewCmp(expr.CmpEq, expr.Reg1, be[:]),
	)
}

func nullTerminated(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// AcceptVerdict appends a terminal ACCEPT verdict.
func AcceptVerdict(r *nftables.Rule) *nftables.Rule {
	return r.AppendExpressions(expr.NewImmediateVerdict(expr.VerdictAccept, ""))
}

// DropVerdict appends a terminal DROP verdict.
func DropVerdict(r *nftables.Rule) *nftables.Rule {
	return r.AppendExpressions(expr.NewImmediateVerdict(expr.VerdictDrop, ""))
}

// ReturnVerdict appends a RETURN verdict, ending evaluation of the
// current chain and resuming the caller (the chain that jumped here).
func ReturnVerdict(r *nftables.Rule) *nftables.Rule {
	return r.AppendExpressions(expr.NewImmediateVerdict(expr.VerdictReturn, ""))
}
