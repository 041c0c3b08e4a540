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
	attrMasqFlags       uint16 = 1
	attrMasqRegProtoMin uint16 = 2
	attrMasqRegProtoMax uint16 = 3
)

// Masquerade rewrites the packet's source address to whichever address
// the outgoing interface currently holds, nat's dynamic-address cousin
// for interfaces whose address can change (DHCP, PPP).
type Masquerade struct {
	Flags       optional.Value[uint32]
	RegProtoMin optional.Value[Register]
	RegProtoMax optional.Value[Register]
}

func (m *Masquerade) Name() string { return "masq" }

func (m *Masquerade) dataSize() int {
	size := 0
	if _, ok := m.Flags.Get(); ok {
		size += nlattr.Size(4)
	}
	if _, ok := m.RegProtoMin.Get(); ok {
		size += nlattr.Size(4)
	}
	if _, ok := m.RegProtoMax.Get(); ok {
		size += nlattr.Size(4)
	}
	return size
}

func (m *Masquerade) writeData(b *nlattr.Builder) {
	if v, ok := m.Flags.Get(); ok {
		b.Uint32(attrMasqFlags, v)
	}
	if v, ok := m.RegProtoMin.Get(); ok {
		b.Uint32(attrMasqRegProtoMin, uint32(v))
	}
	if v, ok := m.RegProtoMax.Get(); ok {
		b.Uint32(attrMasqRegProtoMax, uint32(v))
	}
}

func decodeMasquerade(payload []byte) (Expression, error) {
	var m Masquerade
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrMasqFlags:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			m.Flags.Set(v)
		case attrMasqRegProtoMin:
			reg, err := decodeNatReg(a.Payload)
			if err != nil {
				return err
			}
			m.RegProtoMin.Set(reg)
		case attrMasqRegProtoMax:
			reg, err := decodeNatReg(a.Payload)
			if err != nil {
				return err
			}
			m.RegProtoMax.Set(reg)
		default:
			return fmt.Errorf("%w: masq attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	register("masq", decodeMasquerade)
}
