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

	"github.com/google/nftlink/ndata"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

const (
	attrBitwiseSreg uint16 = 1
	attrBitwiseDreg uint16 = 2
	attrBitwiseLen  uint16 = 3
	attrBitwiseMask uint16 = 4
	attrBitwiseXor  uint16 = 5
)

// Bitwise masks the bytes in a source register (dst = (src & mask) ^ xor)
// and stores the result in a destination register, the primitive behind
// matching a subnet: AND the address with the netmask, XOR with zero, then
// Cmp the narrowed value against the network prefix.
type Bitwise struct {
	SReg, DReg Register
	Mask, Xor  []byte
}

// NewBitwise returns a Bitwise expression, or ErrOperandLengthMismatch if
// mask and xor differ in length: the kernel evaluates both over the same
// byte span and rejects a mismatch itself, but nftlink catches it earlier.
func NewBitwise(sreg, dreg Register, mask, xor []byte) (*Bitwise, error) {
	if len(mask) != len(xor) {
		return nil, fmt.Errorf("%w: mask is %d bytes, xor is %d", nlerr.ErrOperandLengthMismatch, len(mask), len(xor))
	}
	return &Bitwise{SReg: sreg, DReg: dreg, Mask: mask, Xor: xor}, nil
}

func (bw *Bitwise) Name() string { return "bitwise" }

func (bw *Bitwise) dataSize() int {
	return nlattr.Size(4)*3 + ndata.ValueSize(len(bw.Mask)) + ndata.ValueSize(len(bw.Xor))
}

func (bw *Bitwise) writeData(b *nlattr.Builder) {
	b.Uint32(attrBitwiseSreg, uint32(bw.SReg))
	b.Uint32(attrBitwiseDreg, uint32(bw.DReg))
	b.Uint32(attrBitwiseLen, uint32(len(bw.Mask)))
	ndata.WriteValue(b, attrBitwiseMask, bw.Mask)
	ndata.WriteValue(b, attrBitwiseXor, bw.Xor)
}

func decodeBitwise(payload []byte) (Expression, error) {
	var bw Bitwise
	var length int
	var haveSreg, haveDreg, haveLen, haveMask, haveXor bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrBitwiseSreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			bw.SReg = reg
			haveSreg = true
		case attrBitwiseDreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			bw.DReg = reg
			haveDreg = true
		case attrBitwiseLen:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			length = int(v)
			haveLen = true
		case attrBitwiseMask:
			v, err := ndata.DecodeValue(a.Payload)
			if err != nil {
				return err
			}
			bw.Mask = v
			haveMask = true
		case attrBitwiseXor:
			v, err := ndata.DecodeValue(a.Payload)
			if err != nil {
				return err
			}
			bw.Xor = v
			haveXor = true
		default:
			return fmt.Errorf("%w: bitwise attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveSreg || !haveDreg || !haveLen || !haveMask || !haveXor {
		return nil, fmt.Errorf("%w: bitwise sreg/dreg/len/mask/xor", nlerr.ErrMissingRequiredAttribute)
	}
	if length != len(bw.Mask) || length != len(bw.Xor) {
		return nil, fmt.Errorf("%w: bitwise len=%d, mask=%d, xor=%d", nlerr.ErrInvalidDataSize, length, len(bw.Mask), len(bw.Xor))
	}
	return &bw, nil
}

func init() {
	register("bitwise", decodeBitwise)
}
