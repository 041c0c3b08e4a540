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

// NFTA_TABLE_*, linux/netfilter/nf_tables.h. USE (rule count) is kernel-
// reported and never written by a client, so it has no place in Table.
const (
	attrTableName     uint16 = 1
	attrTableFlags    uint16 = 2
	attrTableHandle   uint16 = 4
	attrTableUserdata uint16 = 6
)

// Table is a network-family-scoped namespace for chains and sets: the
// top-level object every other nftables object is declared inside.
type Table struct {
	Family   nlenc.ProtocolFamily
	name     optional.Value[string]
	flags    optional.Value[uint32]
	handle   optional.Value[uint64]
	userdata optional.Value[[]byte]
}

// NewTable returns a Table in family named name.
func NewTable(family nlenc.ProtocolFamily, name string) *Table {
	t := &Table{Family: family}
	t.name.Set(name)
	return t
}

// WithFlags sets the table's flags (currently only NFT_TABLE_F_DORMANT is
// defined by the kernel) and returns t for chaining.
func (t *Table) WithFlags(flags uint32) *Table {
	t.flags.Set(flags)
	return t
}

// WithHandle sets the kernel-assigned handle identifying this table,
// letting DELTABLE target it without repeating its name.
func (t *Table) WithHandle(handle uint64) *Table {
	t.handle.Set(handle)
	return t
}

// WithUserdata attaches an opaque userdata blob.
func (t *Table) WithUserdata(userdata []byte) *Table {
	t.userdata.Set(userdata)
	return t
}

// Name returns the table's name and whether one is set.
func (t *Table) Name() (string, bool) { return t.name.Get() }

// Flags returns the table's flags and whether they are set.
func (t *Table) Flags() (uint32, bool) { return t.flags.Get() }

// Handle returns the table's kernel-assigned handle and whether it is set.
func (t *Table) Handle() (uint64, bool) { return t.handle.Get() }

// Userdata returns the table's userdata blob and whether it is set.
func (t *Table) Userdata() ([]byte, bool) { return t.userdata.Get() }

func (t *Table) WritePayload(b *nlattr.Builder) {
	if v, ok := t.name.Get(); ok {
		b.String(attrTableName, v)
	}
	if v, ok := t.flags.Get(); ok {
		b.Uint32(attrTableFlags, v)
	}
	if v, ok := t.handle.Get(); ok {
		b.Uint64(attrTableHandle, v)
	}
	if v, ok := t.userdata.Get(); ok {
		b.ByteVector(attrTableUserdata, v)
	}
}

// AddOrRemove writes a NEWTABLE or DELTABLE message for t into w.
func (t *Table) AddOrRemove(w *nlmsg.Writer, op nlmsg.Op, seq uint32) {
	addOrRemove(w, nlmsg.MsgNewTable, nlmsg.MsgDelTable, op, uint8(t.Family), seq, 0, t.WritePayload)
}

// DecodeTable decodes a table object's body (the bytes following the
// subsystem header) into a Table. family comes from the subsystem header,
// not from an attribute: the kernel never repeats it inside the body.
func DecodeTable(family uint8, body []byte) (*Table, error) {
	t := &Table{Family: nlenc.ProtocolFamily(family)}
	err := nlattr.Decode(body, func(a nlattr.Attr) error {
		switch a.Type {
		case attrTableName:
			t.name.Set(nlenc.String(a.Payload))
		case attrTableFlags:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			t.flags.Set(v)
		case attrTableHandle:
			v, err := nlenc.Uint64(a.Payload)
			if err != nil {
				return err
			}
			t.handle.Set(v)
		case attrTableUserdata:
			t.userdata.Set(nlenc.ByteVector(a.Payload))
		default:
			return fmt.Errorf("%w: table attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
