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

package nftables

import (
	"fmt"

	"github.com/google/nftlink/internal/optional"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
	"github.com/google/nftlink/nlmsg"
)

// NFTA_SET_*.
const (
	attrSetTable    uint16 = 1
	attrSetName     uint16 = 2
	attrSetFlags    uint16 = 3
	attrSetKeyType  uint16 = 4
	attrSetKeyLen   uint16 = 5
	attrSetID       uint16 = 10
	attrSetUserdata uint16 = 13
)

// Set is a named collection of elements a rule's Lookup expression can
// test membership against, e.g. a set of IPv4 addresses or an allowlist
// of ports.
type Set struct {
	Family   nlenc.ProtocolFamily
	table    optional.Value[string]
	name     optional.Value[string]
	flags    optional.Value[uint32]
	keyType  optional.Value[KeyType]
	keyLen   optional.Value[uint32]
	id       optional.Value[uint32]
	userdata optional.Value[[]byte]
}

// NewSet returns a Set named name inside table, holding elements of
// keyType with the given fixed byte width keyLen.
func NewSet(family nlenc.ProtocolFamily, table, name string, keyType KeyType, keyLen uint32) *Set {
	s := &Set{Family: family}
	s.table.Set(table)
	s.name.Set(name)
	s.keyType.Set(keyType)
	s.keyLen.Set(keyLen)
	return s
}

// WithFlags sets the set's flags (NFT_SET_ANONYMOUS, NFT_SET_CONSTANT, ...).
func (s *Set) WithFlags(flags uint32) *Set {
	s.flags.Set(flags)
	return s
}

// WithID assigns a transaction-scoped id other objects in the same batch
// can reference before the kernel has handed back a real handle.
func (s *Set) WithID(id uint32) *Set {
	s.id.Set(id)
	return s
}

// WithUserdata attaches an opaque userdata blob.
func (s *Set) WithUserdata(userdata []byte) *Set {
	s.userdata.Set(userdata)
	return s
}

// Table returns the set's owning table name and whether it is set.
func (s *Set) Table() (string, bool) { return s.table.Get() }

// Name returns the set's name and whether it is set.
func (s *Set) Name() (string, bool) { return s.name.Get() }

// Flags returns the set's flags and whether they are set.
func (s *Set) Flags() (uint32, bool) { return s.flags.Get() }

// KeyType returns the set's element type and whether it is set.
func (s *Set) KeyType() (KeyType, bool) { return s.keyType.Get() }

// KeyLen returns the set's fixed element byte width and whether it is set.
func (s *Set) KeyLen() (uint32, bool) { return s.keyLen.Get() }

// ID returns the set's transaction-scoped id and whether it is set.
func (s *Set) ID() (uint32, bool) { return s.id.Get() }

// Userdata returns the set's userdata blob and whether it is set.
func (s *Set) Userdata() ([]byte, bool) { return s.userdata.Get() }

func (s *Set) WritePayload(b *nlattr.Builder) {
	if v, ok := s.table.Get(); ok {
		b.String(attrSetTable, v)
	}
	if v, ok := s.name.Get(); ok {
		b.String(attrSetName, v)
	}
	if v, ok := s.flags.Get(); ok {
		b.Uint32(attrSetFlags, v)
	}
	if v, ok := s.keyType.Get(); ok {
		b.Uint32(attrSetKeyType, uint32(v))
	}
	if v, ok := s.keyLen.Get(); ok {
		b.Uint32(attrSetKeyLen, v)
	}
	if v, ok := s.id.Get(); ok {
		b.Uint32(attrSetID, v)
	}
	if v, ok := s.userdata.Get(); ok {
		b.ByteVector(attrSetUserdata, v)
	}
}

// AddOrRemove writes a NEWSET or DELSET message for s into w.
func (s *Set) AddOrRemove(w *nlmsg.Writer, op nlmsg.Op, seq uint32) {
	addOrRemove(w, nlmsg.MsgNewSet, nlmsg.MsgDelSet, op, uint8(s.Family), seq, 0, s.WritePayload)
}

// DecodeSet decodes a set object's body into a Set.
func DecodeSet(family uint8, body []byte) (*Set, error) {
	s := &Set{Family: nlenc.ProtocolFamily(family)}
	err := nlattr.Decode(body, func(a nlattr.Attr) error {
		switch a.Type {
		case attrSetTable:
			s.table.Set(nlenc.String(a.Payload))
		case attrSetName:
			s.name.Set(nlenc.String(a.Payload))
		case attrSetFlags:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			s.flags.Set(v)
		case attrSetKeyType:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			s.keyType.Set(KeyType(v))
		case attrSetKeyLen:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			s.keyLen.Set(v)
		case attrSetID:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			s.id.Set(v)
		case attrSetUserdata:
			s.userdata.Set(nlenc.ByteVector(a.Payload))
		default:
			return fmt.Errorf("%w: set attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
