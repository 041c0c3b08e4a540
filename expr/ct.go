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

// CtKey names a conntrack field. Only the subset ruleutil's state matcher
// needs is enumerated here.
type CtKey uint32

const (
	CtKeyState     CtKey = 0
	CtKeyDirection CtKey = 1
	CtKeyStatus    CtKey = 3
	CtKeyMark      CtKey = 4
)

// ParseCtKey validates v against the subset of conntrack keys nftlink builds.
func ParseCtKey(v uint32) (CtKey, error) {
	switch CtKey(v) {
	case CtKeyState, CtKeyDirection, CtKeyStatus, CtKeyMark:
		return CtKey(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownCtKey, v)
	}
}

const (
	attrCtDreg      uint16 = 1
	attrCtKey       uint16 = 2
	attrCtDirection uint16 = 3
	attrCtSreg      uint16 = 4
)

// Ct loads a conntrack field into a destination register, the building
// block behind matching "established" or "related" connection state, or
// writes a source register into a conntrack field (e.g. setting the
// connection mark). DReg and SReg are mutually exclusive: a Ct built by
// NewCt reads, a Ct built by NewCtSet writes. Direction restricts State/
// Status lookups to NF_CT_DIRECTION_{ORIGINAL,REPLY} when set.
type Ct struct {
	DReg      Register
	Key       CtKey
	Direction optional.Value[uint8]
	SReg      optional.Value[Register]
}

// NewCt returns a Ct expression loading key into dreg.
func NewCt(dreg Register, key CtKey) *Ct {
	return &Ct{DReg: dreg, Key: key}
}

// NewCtSet returns a Ct expression writing key from sreg, e.g. setting the
// connection mark from a register built up by earlier expressions.
func NewCtSet(key CtKey, sreg Register) *Ct {
	c := &Ct{Key: key}
	c.SReg.Set(sreg)
	return c
}

// WithDirection restricts c to the given conntrack direction.
func (c *Ct) WithDirection(direction uint8) *Ct {
	c.Direction.Set(direction)
	return c
}

func (c *Ct) Name() string { return "ct" }

func (c *Ct) dataSize() int {
	n := nlattr.Size(4) + nlattr.Size(4)
	if _, ok := c.Direction.Get(); ok {
		n += nlattr.Size(1)
	}
	return n
}

func (c *Ct) writeData(b *nlattr.Builder) {
	if v, ok := c.SReg.Get(); ok {
		b.Uint32(attrCtSreg, uint32(v))
	} else {
		b.Uint32(attrCtDreg, uint32(c.DReg))
	}
	b.Uint32(attrCtKey, uint32(c.Key))
	if v, ok := c.Direction.Get(); ok {
		b.Uint8(attrCtDirection, v)
	}
}

func decodeCt(payload []byte) (Expression, error) {
	var c Ct
	var haveDreg, haveSreg, haveKey bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrCtDreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			c.DReg = reg
			haveDreg = true
		case attrCtSreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			c.SReg.Set(reg)
			haveSreg = true
		case attrCtKey:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			key, err := ParseCtKey(v)
			if err != nil {
				return err
			}
			c.Key = key
			haveKey = true
		case attrCtDirection:
			v, err := nlenc.Uint8(a.Payload)
			if err != nil {
				return err
			}
			c.Direction.Set(v)
		default:
			return fmt.Errorf("%w: ct attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveKey || (!haveDreg && !haveSreg) {
		return nil, fmt.Errorf("%w: ct dreg/sreg/key", nlerr.ErrMissingRequiredAttribute)
	}
	return &c, nil
}

func init() {
	register("ct", decodeCt)
}
