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
	"github.com/google/nftlink/ndata"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
	"github.com/google/nftlink/nlmsg"
)

// NFTA_SET_ELEM_LIST_*.
const (
	attrSetElemListTable    uint16 = 1
	attrSetElemListSet      uint16 = 2
	attrSetElemListElements uint16 = 3
)

// NFTA_SET_ELEM_*.
const (
	attrSetElemKey uint16 = 1
)

const attrListElemID uint16 = 1 // NFTA_LIST_ELEM, shared with package expr's envelope.

// SetElement is one member of a set: its key, matched against the bytes a
// Lookup expression's source register holds.
type SetElement struct {
	Key []byte
}

func (e SetElement) size() int {
	return ndata.ValueSize(len(e.Key))
}

func (e SetElement) writePayload(b *nlattr.Builder) {
	ndata.WriteValue(b, attrSetElemKey, e.Key)
}

func decodeSetElement(payload []byte) (SetElement, error) {
	var e SetElement
	var haveKey bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrSetElemKey:
			v, err := ndata.DecodeValue(a.Payload)
			if err != nil {
				return err
			}
			e.Key = v
			haveKey = true
		default:
			return fmt.Errorf("%w: set element attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return SetElement{}, err
	}
	if !haveKey {
		return SetElement{}, fmt.Errorf("%w: set element key", nlerr.ErrMissingRequiredAttribute)
	}
	return e, nil
}

// SetElementList is a batch of elements to add to or remove from one named
// set, the body of a NEWSETELEM/DELSETELEM message.
type SetElementList struct {
	Family   nlenc.ProtocolFamily
	table    optional.Value[string]
	set      optional.Value[string]
	elements []SetElement
}

// NewSetElementList returns a SetElementList targeting set inside table.
func NewSetElementList(family nlenc.ProtocolFamily, table, set string, elements ...SetElement) *SetElementList {
	l := &SetElementList{Family: family, elements: elements}
	l.table.Set(table)
	l.set.Set(set)
	return l
}

// Table returns the list's owning table name and whether it is set.
func (l *SetElementList) Table() (string, bool) { return l.table.Get() }

// Set returns the list's owning set name and whether it is set.
func (l *SetElementList) Set() (string, bool) { return l.set.Get() }

// Elements returns the list's elements.
func (l *SetElementList) Elements() []SetElement { return l.elements }

func (l *SetElementList) WritePayload(b *nlattr.Builder) {
	if v, ok := l.table.Get(); ok {
		b.String(attrSetElemListTable, v)
	}
	if v, ok := l.set.Get(); ok {
		b.String(attrSetElemListSet, v)
	}
	if len(l.elements) > 0 {
		b.Nested(attrSetElemListElements, func(inner *nlattr.Builder) {
			for _, e := range l.elements {
				inner.Nested(attrListElemID, e.writePayload)
			}
		})
	}
}

// AddOrRemove writes a NEWSETELEM or DELSETELEM message for l into w.
func (l *SetElementList) AddOrRemove(w *nlmsg.Writer, op nlmsg.Op, seq uint32) {
	addOrRemove(w, nlmsg.MsgNewSetElem, nlmsg.MsgDelSetElem, op, uint8(l.Family), seq, 0, l.WritePayload)
}

// DecodeSetElementList decodes a set-element-list object's body into a
// SetElementList.
func DecodeSetElementList(family uint8, body []byte) (*SetElementList, error) {
	l := &SetElementList{Family: nlenc.ProtocolFamily(family)}
	err := nlattr.Decode(body, func(a nlattr.Attr) error {
		switch a.Type {
		case attrSetElemListTable:
			l.table.Set(nlenc.String(a.Payload))
		case attrSetElemListSet:
			l.set.Set(nlenc.String(a.Payload))
		case attrSetElemListElements:
			err := nlattr.Decode(a.Payload, func(elemAttr nlattr.Attr) error {
				if elemAttr.Type != attrListElemID {
					return fmt.Errorf("%w: set element list attr %d", nlerr.ErrUnsupportedAttributeType, elemAttr.Type)
				}
				e, err := decodeSetElement(elemAttr.Payload)
				if err != nil {
					return err
				}
				l.elements = append(l.elements, e)
				return nil
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: set element list attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}
