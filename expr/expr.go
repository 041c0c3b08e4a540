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

// Package expr models the closed set of rule expressions nftlink can build
// and the open set it can merely round-trip: each NFTA_LIST_ELEM inside a
// rule's NFTA_RULE_EXPRESSIONS nest wraps one NFTA_EXPR_NAME string plus an
// NFTA_EXPR_DATA payload whose shape is entirely name-dependent, so decoding
// is dispatch-by-string rather than dispatch-by-tag.
package expr

import (
	"fmt"

	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

// Attribute ids shared by every expression's envelope (NFTA_EXPR_*) and by
// the list it travels in (NFTA_LIST_ELEM).
const (
	attrExprName uint16 = 1
	attrExprData uint16 = 2
	attrListElem uint16 = 1
)

// Expression is one rule operation: a match, a register load, or a
// terminal verdict. The interface is intentionally small and unexported
// below the Name/size/write trio so that only this package can mint new
// variants; callers select behavior by constructing one of the concrete
// types (Cmp, Bitwise, Meta, ...) or by receiving an Unknown from Decode.
type Expression interface {
	// Name is the wire string identifying this variant, e.g. "cmp".
	Name() string

	dataSize() int
	writeData(b *nlattr.Builder)
}

// decoders maps a wire name to the function that turns its NFTA_EXPR_DATA
// payload into a concrete Expression. Populated by each variant's init.
var decoders = map[string]func(payload []byte) (Expression, error){}

func register(name string, fn func(payload []byte) (Expression, error)) {
	decoders[name] = fn
}

// RawExpression is the envelope every Expression serializes through: a
// name attribute followed by a nested data attribute whose contents the
// wrapped Expression controls.
type RawExpression struct {
	Expr Expression
}

// Size returns the space this expression's NAME and DATA attributes occupy
// together, unpadded at the top (the caller, typically a List, wraps this
// total in one more nested attribute).
func (r RawExpression) Size() int {
	return nlattr.Size(len(r.Expr.Name())) + nlattr.Size(r.Expr.dataSize())
}

// WritePayload writes this expression's NAME and DATA attributes into b.
func (r RawExpression) WritePayload(b *nlattr.Builder) {
	b.String(attrExprName, r.Expr.Name())
	b.Nested(attrExprData, r.Expr.writeData)
}

// DecodeRaw decodes one NFTA_LIST_ELEM payload (a NAME + DATA pair) into an
// Expression. A name outside the registered set decodes as *Unknown rather
// than failing, so a rule carrying an expression this build doesn't know
// about can still be read back and re-inspected; it can never be
// re-encoded, since nftlink has no way to know whether DATA's shape is
// still valid for whatever kernel module defines that name.
func DecodeRaw(payload []byte) (Expression, error) {
	var name string
	var haveName bool
	var data []byte
	var haveData bool

	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrExprName:
			name = nlenc.String(a.Payload)
			haveName = true
		case attrExprData:
			data = append([]byte(nil), a.Payload...)
			haveData = true
		default:
			return fmt.Errorf("%w: expression attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveName {
		return nil, fmt.Errorf("%w: expression name", nlerr.ErrMissingRequiredAttribute)
	}
	if !haveData {
		data = nil
	}

	if fn, ok := decoders[name]; ok {
		return fn(data)
	}
	return &Unknown{RawName: name, RawData: data}, nil
}

// List is an ordered sequence of expressions, the decoded form of a rule's
// NFTA_RULE_EXPRESSIONS attribute.
type List []Expression

// Size returns the padded byte length List.WritePayload will produce.
func (l List) Size() int {
	total := 0
	for _, e := range l {
		total += nlattr.Size(RawExpression{Expr: e}.Size())
	}
	return total
}

// WritePayload writes one NFTA_LIST_ELEM per expression, in order.
func (l List) WritePayload(b *nlattr.Builder) {
	for _, e := range l {
		raw := RawExpression{Expr: e}
		b.Nested(attrListElem, raw.WritePayload)
	}
}

// DecodeList decodes a rule's NFTA_RULE_EXPRESSIONS payload back into a
// List, in wire order.
func DecodeList(payload []byte) (List, error) {
	var list List
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		if a.Type != attrListElem {
			return fmt.Errorf("%w: expression list attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		e, err := DecodeRaw(a.Payload)
		if err != nil {
			return err
		}
		list = append(list, e)
		return nil
	})
	return list, err
}

// Unknown is a catch-all for expression names this build does not
// implement. It preserves the raw bytes for inspection but refuses to
// serialize: encoding stale or foreign expression data back onto the wire
// risks producing a message the kernel misinterprets.
type Unknown struct {
	RawName string
	RawData []byte
}

func (u *Unknown) Name() string { return u.RawName }

func (u *Unknown) dataSize() int {
	panic(fmt.Sprintf("expr: Unknown expression %q cannot be re-encoded", u.RawName))
}

func (u *Unknown) writeData(b *nlattr.Builder) {
	panic(fmt.Sprintf("expr: Unknown expression %q cannot be re-encoded", u.RawName))
}
