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

package expr

import (
	"fmt"

	"github.com/google/nftlink/internal/optional"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

// NatType selects which direction Nat rewrites.
type NatType uint32

const (
	NatSource      NatType = 0
	NatDestination NatType = 1
)

// ParseNatType validates v against the closed set of NAT directions.
func ParseNatType(v uint32) (NatType, error) {
	switch NatType(v) {
	case NatSource, NatDestination:
		return NatType(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownNatType, v)
	}
}

const (
	attrNatType        uint16 = 1
	attrNatFamily      uint16 = 2
	attrNatRegAddrMin  uint16 = 3
	attrNatRegAddrMax  uint16 = 4
	attrNatRegProtoMin uint16 = 5
	attrNatRegProtoMax uint16 = 6
	attrNatFlags       uint16 = 7
)

// Nat rewrites a packet's source or destination address and, optionally,
// its port, reading the replacement value out of one or two registers a
// preceding Immediate load populated.
type Nat struct {
	Type        NatType
	Family      nlenc.ProtocolFamily
	RegAddrMin  optional.Value[Register]
	RegAddrMax  optional.Value[Register]
	RegProtoMin optional.Value[Register]
	RegProtoMax optional.Value[Register]
	Flags       optional.Value[uint32]
}

func (n *Nat) Name() string { return "nat" }

func (n *Nat) dataSize() int {
	size := nlattr.Size(4) + nlattr.Size(4) // type, family
	if _, ok := n.RegAddrMin.Get(); ok {
		size += nlattr.Size(4)
	}
	if _, ok := n.RegAddrMax.Get(); ok {
		size += nlattr.Size(4)
	}
	if _, ok := n.RegProtoMin.Get(); ok {
		size += nlattr.Size(4)
	}
	if _, ok := n.RegProtoMax.Get(); ok {
		size += nlattr.Size(4)
	}
	if _, ok := n.Flags.Get(); ok {
		size += nlattr.Size(4)
	}
	return size
}

func (n *Nat) writeData(b *nlattr.Builder) {
	b.Uint32(attrNatType, uint32(n.Type))
	b.Int32(attrNatFamily, int32(n.Family))
	if v, ok := n.RegAddrMin.Get(); ok {
		b.Uint32(attrNatRegAddrMin, uint32(v))
	}
	if v, ok := n.RegAddrMax.Get(); ok {
		b.Uint32(attrNatRegAddrMax, uint32(v))
	}
	if v, ok := n.RegProtoMin.Get(); ok {
		b.Uint32(attrNatRegProtoMin, uint32(v))
	}
	if v, ok := n.RegProtoMax.Get(); ok {
		b.Uint32(attrNatRegProtoMax, uint32(v))
	}
	if v, ok := n.Flags.Get(); ok {
		b.Uint32(attrNatFlags, v)
	}
}

func decodeNat(payload []byte) (Expression, error) {
	var n Nat
	var haveType, haveFamily bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrNatType:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			t, err := ParseNatType(v)
			if err != nil {
				return err
			}
			n.Type = t
			haveType = true
		case attrNatFamily:
			f, err := nlenc.DecodeProtocolFamily(a.Payload)
			if err != nil {
				return err
			}
			n.Family = f
			haveFamily = true
		case attrNatRegAddrMin:
			reg, err := decodeNatReg(a.Payload)
			if err != nil {
				return err
			}
			n.RegAddrMin.Set(reg)
		case attrNatRegAddrMax:
			reg, err := decodeNatReg(a.Payload)
			if err != nil {
				return err
			}
			n.RegAddrMax.Set(reg)
		case attrNatRegProtoMin:
			reg, err := decodeNatReg(a.Payload)
			if err != nil {
				return err
			}
			n.RegProtoMin.Set(reg)
		case attrNatRegProtoMax:
			reg, err := decodeNatReg(a.Payload)
			if err != nil {
				return err
			}
			n.RegProtoMax.Set(reg)
		case attrNatFlags:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			n.Flags.Set(v)
		default:
			return fmt.Errorf("%w: nat attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveType || !haveFamily {
		return nil, fmt.Errorf("%w: nat type/family", nlerr.ErrMissingRequiredAttribute)
	}
	return &n, nil
}

func decodeNatReg(payload []byte) (Register, error) {
	v, err := nlenc.Uint32(payload)
	if err != nil {
		return 0, err
	}
	return ParseRegister(v)
}

func init() {
	register("nat", decodeNat)
}
