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

	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

// PayloadBase is the header a Payload expression's offset is relative to.
type PayloadBase uint32

const (
	PayloadBaseLinkLayer  PayloadBase = 0
	PayloadBaseNetwork    PayloadBase = 1
	PayloadBaseTransport  PayloadBase = 2
)

// ParsePayloadBase validates v against the closed set of payload bases.
func ParsePayloadBase(v uint32) (PayloadBase, error) {
	switch PayloadBase(v) {
	case PayloadBaseLinkLayer, PayloadBaseNetwork, PayloadBaseTransport:
		return PayloadBase(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownPayloadBase, v)
	}
}

const (
	attrPayloadDreg   uint16 = 1
	attrPayloadBase   uint16 = 2
	attrPayloadOffset uint16 = 3
	attrPayloadLen    uint16 = 4
)

// Payload loads len bytes starting at offset (relative to Base) into a
// destination register, the expression behind reading any packet field
// that the kernel doesn't expose through meta — the destination port, a
// raw IP address, an ICMP type byte.
type Payload struct {
	DReg         Register
	Base         PayloadBase
	Offset, Len  uint32
}

// NewPayload returns a Payload expression reading len bytes at offset into
// dreg, relative to base.
func NewPayload(dreg Register, base PayloadBase, offset, length uint32) *Payload {
	return &Payload{DReg: dreg, Base: base, Offset: offset, Len: length}
}

func (p *Payload) Name() string { return "payload" }

func (p *Payload) dataSize() int {
	return nlattr.Size(4) * 4
}

func (p *Payload) writeData(b *nlattr.Builder) {
	b.Uint32(attrPayloadDreg, uint32(p.DReg))
	b.Uint32(attrPayloadBase, uint32(p.Base))
	b.Uint32(attrPayloadOffset, p.Offset)
	b.Uint32(attrPayloadLen, p.Len)
}

func decodePayload(payload []byte) (Expression, error) {
	var p Payload
	var haveDreg, haveBase, haveOffset, haveLen bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrPayloadDreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			p.DReg = reg
			haveDreg = true
		case attrPayloadBase:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			base, err := ParsePayloadBase(v)
			if err != nil {
				return err
			}
			p.Base = base
			haveBase = true
		case attrPayloadOffset:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			p.Offset = v
			haveOffset = true
		case attrPayloadLen:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			p.Len = v
			haveLen = true
		default:
			return fmt.Errorf("%w: payload attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveDreg || !haveBase || !haveOffset || !haveLen {
		return nil, fmt.Errorf("%w: payload dreg/base/offset/len", nlerr.ErrMissingRequiredAttribute)
	}
	return &p, nil
}

func init() {
	register("payload", decodePayload)
}
