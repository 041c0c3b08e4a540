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

const (
	attrLookupSet   uint16 = 1
	attrLookupSreg  uint16 = 2
	attrLookupSetID uint16 = 3
	attrLookupFlags uint16 = 4
)

// Lookup tests whether the bytes in a source register are a member of a
// named set, the expression an interface or address matcher compiles down
// to whenever the set of candidates is large enough to warrant one.
type Lookup struct {
	Set   string
	SReg  Register
	SetID optional.Value[uint32]
	Flags optional.Value[uint32]
}

// NewLookup returns a Lookup expression testing sreg against set.
func NewLookup(set string, sreg Register) *Lookup {
	return &Lookup{Set: set, SReg: sreg}
}

func (l *Lookup) Name() string { return "lookup" }

func (l *Lookup) dataSize() int {
	n := nlattr.Size(len(l.Set)) + nlattr.Size(4)
	if _, ok := l.SetID.Get(); ok {
		n += nlattr.Size(4)
	}
	if _, ok := l.Flags.Get(); ok {
		n += nlattr.Size(4)
	}
	return n
}

func (l *Lookup) writeData(b *nlattr.Builder) {
	b.String(attrLookupSet, l.Set)
	b.Uint32(attrLookupSreg, uint32(l.SReg))
	if v, ok := l.SetID.Get(); ok {
		b.Uint32(attrLookupSetID, v)
	}
	if v, ok := l.Flags.Get(); ok {
		b.Uint32(attrLookupFlags, v)
	}
}

func decodeLookup(payload []byte) (Expression, error) {
	var l Lookup
	var haveSet, haveSreg bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrLookupSet:
			l.Set = nlenc.String(a.Payload)
			haveSet = true
		case attrLookupSreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			l.SReg = reg
			haveSreg = true
		case attrLookupSetID:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			l.SetID.Set(v)
		case attrLookupFlags:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			l.Flags.Set(v)
		default:
			return fmt.Errorf("%w: lookup attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveSet || !haveSreg {
		return nil, fmt.Errorf("%w: lookup set/sreg", nlerr.ErrMissingRequiredAttribute)
	}
	return &l, nil
}

func init() {
	register("lookup", decodeLookup)
}
