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

// MetaKey names one of the kernel's meta fields: packet and socket metadata
// that never appears in the wire header itself (interface names, protocol
// family, firewall mark).
type MetaKey uint32

const (
	MetaPriority MetaKey = 3
	MetaMark     MetaKey = 4
	MetaIif      MetaKey = 5
	MetaOif      MetaKey = 6
	MetaIifname  MetaKey = 7
	MetaOifname  MetaKey = 8
	MetaNfproto  MetaKey = 16
	MetaL4proto  MetaKey = 17
)

// ParseMetaKey validates v against the subset of meta keys nftlink builds.
func ParseMetaKey(v uint32) (MetaKey, error) {
	switch MetaKey(v) {
	case MetaPriority, MetaMark, MetaIif, MetaOif, MetaIifname, MetaOifname, MetaNfproto, MetaL4proto:
		return MetaKey(v), nil
	default:
		return 0, fmt.Errorf("%w: meta key %d", nlerr.ErrUnsupportedAttributeType, v)
	}
}

const (
	attrMetaDreg uint16 = 1
	attrMetaKey  uint16 = 2
	attrMetaSreg uint16 = 3
)

// Meta loads a meta field into a destination register for a later Cmp, or
// writes a source register into a meta field (e.g. setting the packet
// mark). DReg and SReg are mutually exclusive: a Meta built by NewMeta
// reads, a Meta built by NewMetaSet writes.
type Meta struct {
	DReg Register
	Key  MetaKey
	SReg optional.Value[Register]
}

// NewMeta returns a Meta expression loading key into dreg.
func NewMeta(dreg Register, key MetaKey) *Meta {
	return &Meta{DReg: dreg, Key: key}
}

// NewMetaSet returns a Meta expression writing key from sreg, e.g. setting
// the packet mark from a register built up by earlier expressions.
func NewMetaSet(key MetaKey, sreg Register) *Meta {
	m := &Meta{Key: key}
	m.SReg.Set(sreg)
	return m
}

func (m *Meta) Name() string { return "meta" }

func (m *Meta) dataSize() int {
	return nlattr.Size(4) + nlattr.Size(4)
}

func (m *Meta) writeData(b *nlattr.Builder) {
	if v, ok := m.SReg.Get(); ok {
		b.Uint32(attrMetaSreg, uint32(v))
		b.Uint32(attrMetaKey, uint32(m.Key))
		return
	}
	b.Uint32(attrMetaDreg, uint32(m.DReg))
	b.Uint32(attrMetaKey, uint32(m.Key))
}

func decodeMeta(payload []byte) (Expression, error) {
	var m Meta
	var haveDreg, haveSreg, haveKey bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrMetaDreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			m.DReg = reg
			haveDreg = true
		case attrMetaSreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			m.SReg.Set(reg)
			haveSreg = true
		case attrMetaKey:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			key, err := ParseMetaKey(v)
			if err != nil {
				return err
			}
			m.Key = key
			haveKey = true
		default:
			return fmt.Errorf("%w: meta attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveKey || (!haveDreg && !haveSreg) {
		return nil, fmt.Errorf("%w: meta dreg/sreg/key", nlerr.ErrMissingRequiredAttribute)
	}
	return &m, nil
}

func init() {
	register("meta", decodeMeta)
}
