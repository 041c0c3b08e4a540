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
	"github.com/google/nftlink/ndata"
)

// CmpOp is the relational operator a Cmp expression evaluates.
type CmpOp uint32

const (
	CmpEq  CmpOp = 0
	CmpNeq CmpOp = 1
	CmpLt  CmpOp = 2
	CmpLte CmpOp = 3
	CmpGt  CmpOp = 4
	CmpGte CmpOp = 5
)

// ParseCmpOp validates v against the closed set of comparison operators.
func ParseCmpOp(v uint32) (CmpOp, error) {
	switch CmpOp(v) {
	case CmpEq, CmpNeq, CmpLt, CmpLte, CmpGt, CmpGte:
		return CmpOp(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownCmpOp, v)
	}
}

const (
	attrCmpSreg uint16 = 1
	attrCmpOp   uint16 = 2
	attrCmpData uint16 = 3
)

// Cmp compares the bytes held in a source register against a literal,
// discarding the packet from the chain's evaluation when the comparison
// fails. It is the expression every payload/meta match compiles down to:
// load the field into a register, then Cmp it against the expected value.
type Cmp struct {
	SReg Register
	Op   CmpOp
	Data []byte
}

// NewCmp returns a Cmp expression comparing sreg against data with op.
func NewCmp(op CmpOp, sreg Register, data []byte) *Cmp {
	return &Cmp{SReg: sreg, Op: op, Data: data}
}

func (c *Cmp) Name() string { return "cmp" }

func (c *Cmp) dataSize() int {
	return nlattr.Size(4) + nlattr.Size(4) + ndata.ValueSize(len(c.Data))
}

func (c *Cmp) writeData(b *nlattr.Builder) {
	b.Uint32(attrCmpSreg, uint32(c.SReg))
	b.Uint32(attrCmpOp, uint32(c.Op))
	ndata.WriteValue(b, attrCmpData, c.Data)
}

func decodeCmp(payload []byte) (Expression, error) {
	var c Cmp
	var haveSreg, haveOp, haveData bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrCmpSreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			c.SReg = reg
			haveSreg = true
		case attrCmpOp:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			op, err := ParseCmpOp(v)
			if err != nil {
				return err
			}
			c.Op = op
			haveOp = true
		case attrCmpData:
			value, err := ndata.DecodeValue(a.Payload)
			if err != nil {
				return err
			}
			c.Data = value
			haveData = true
		default:
			return fmt.Errorf("%w: cmp attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveSreg || !haveOp || !haveData {
		return nil, fmt.Errorf("%w: cmp sreg/op/data", nlerr.ErrMissingRequiredAttribute)
	}
	return &c, nil
}

func init() {
	register("cmp", decodeCmp)
}
