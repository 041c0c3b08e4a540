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

// Package nlattr implements the nested type-length-value attribute codec
// shared by every nftables netlink message: one TLV header (type, unpadded
// length), an opaque payload, and a 4-byte alignment pad before the next
// sibling attribute. This is the attribute framer named in the design as
// component B, sitting directly on top of the scalar codec in nlenc.
package nlattr

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/nftlink/nlerr"
	"k8s.io/klog/v2"
)

const (
	// HeaderLen is the size in bytes of one attribute header (len, type).
	HeaderLen = 4
	// Align is the byte boundary every attribute payload is padded to.
	Align = 4

	// FlagNested marks an attribute whose payload is itself a sequence of
	// attributes. It occupies the high bit of the 16-bit type field.
	FlagNested uint16 = 0x8000
	// FlagNetByteOrder is reserved; nftables does not set it, but decoders
	// must mask it off before matching on type like FlagNested.
	FlagNetByteOrder uint16 = 0x4000

	typeMask uint16 = ^(FlagNested | FlagNetByteOrder)
)

// PadLen rounds n up to the next multiple of Align.
func PadLen(n int) int {
	return (n + Align - 1) &^ (Align - 1)
}

// Size returns the space an attribute with the given unpadded payload
// length occupies once written and padded: header + pad4(payload).
func Size(payloadLen int) int {
	return HeaderLen + PadLen(payloadLen)
}

// Attr is one decoded TLV: Type has the nested/byteorder flag bits already
// masked off, Nested reports whether FlagNested was set, and Payload is
// the unpadded value slice (sliced from, not copied out of, the original
// buffer).
type Attr struct {
	Type    uint16
	Nested  bool
	Payload []byte
}

// Put appends one attribute header and its (unpadded) payload to dst and
// returns the grown slice. The caller is responsible for padding before
// writing the next sibling attribute; use Builder if you want that done
// automatically.
func Put(dst []byte, typ uint16, nested bool, payload []byte) []byte {
	t := typ & typeMask
	if nested {
		t |= FlagNested
	}
	var hdr [HeaderLen]byte
	binary.NativeEndian.PutUint16(hdr[0:2], uint16(HeaderLen+len(payload)))
	binary.NativeEndian.PutUint16(hdr[2:4], t)
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	return dst
}

// Parse walks buf and returns every attribute it contains. A malformed
// header (truncated, or claiming a length larger than what remains) is a
// hard decode error; unrecognized attribute *types* are not — Parse does
// not know what types are "recognized", that's schema's job via Decode.
func Parse(buf []byte) ([]Attr, error) {
	var out []Attr
	for len(buf) > 0 {
		if len(buf) < HeaderLen {
			return nil, fmt.Errorf("%w: %d bytes left, need %d for an attribute header", nlerr.ErrInvalidDataSize, len(buf), HeaderLen)
		}
		rawLen := binary.NativeEndian.Uint16(buf[0:2])
		rawType := binary.NativeEndian.Uint16(buf[2:4])
		if int(rawLen) < HeaderLen {
			return nil, fmt.Errorf("%w: attribute length %d smaller than header", nlerr.ErrInvalidDataSize, rawLen)
		}
		payloadLen := int(rawLen) - HeaderLen
		if HeaderLen+payloadLen > len(buf) {
			return nil, fmt.Errorf("%w: attribute claims %d bytes, %d remain", nlerr.ErrInvalidDataSize, rawLen, len(buf))
		}
		a := Attr{
			Type:    rawType &^ (FlagNested | FlagNetByteOrder),
			Nested:  rawType&FlagNested != 0,
			Payload: buf[HeaderLen : HeaderLen+payloadLen],
		}
		out = append(out, a)

		advance := PadLen(int(rawLen))
		if advance > len(buf) {
			advance = len(buf)
		}
		buf = buf[advance:]
	}
	return out, nil
}

// DecodeFunc handles one decoded attribute. Returning an error that wraps
// nlerr.ErrUnsupportedAttributeType tells Decode this attribute id is not
// part of the caller's schema; Decode logs it at V(4) and continues. Any
// other error aborts the walk.
type DecodeFunc func(a Attr) error

// Decode parses buf and invokes fn for every attribute in order, honoring
// the "log and skip unsupported, abort on anything else" contract from the
// design.
func Decode(buf []byte, fn DecodeFunc) error {
	attrs, err := Parse(buf)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if err := fn(a); err != nil {
			if errors.Is(err, nlerr.ErrUnsupportedAttributeType) {
				klog.V(4).Infof("nlattr: skipping unsupported attribute type %d (nested=%v)", a.Type, a.Nested)
				continue
			}
			return err
		}
	}
	return nil
}

// Builder accumulates a sequence of attributes, automatically padding each
// one to Align so sibling writes never need to think about alignment.
// Domain schemas (package nftables, package expr) use it to implement
// write-payload.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bytes returns the accumulated, already-padded buffer.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Len reports the current buffer length.
func (b *Builder) Len() int {
	return len(b.buf)
}

func (b *Builder) appendAttr(typ uint16, nested bool, payload []byte) {
	b.buf = Put(b.buf, typ, nested, payload)
	if pad := PadLen(len(payload)) - len(payload); pad > 0 {
		b.buf = append(b.buf, make([]byte, pad)...)
	}
}

// Raw writes an attribute whose payload the caller has already encoded.
func (b *Builder) Raw(typ uint16, payload []byte) {
	b.appendAttr(typ, false, payload)
}

// Uint8 writes a one-byte scalar attribute.
func (b *Builder) Uint8(typ uint16, v uint8) {
	b.appendAttr(typ, false, []byte{v})
}

// Uint16 writes a big-endian two-byte scalar attribute.
func (b *Builder) Uint16(typ uint16, v uint16) {
	p := make([]byte, 2)
	binary.BigEndian.PutUint16(p, v)
	b.appendAttr(typ, false, p)
}

// Uint32 writes a big-endian four-byte scalar attribute.
func (b *Builder) Uint32(typ uint16, v uint32) {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, v)
	b.appendAttr(typ, false, p)
}

// Uint64 writes a big-endian eight-byte scalar attribute.
func (b *Builder) Uint64(typ uint16, v uint64) {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, v)
	b.appendAttr(typ, false, p)
}

// Int32 writes a big-endian, two's complement four-byte scalar attribute.
func (b *Builder) Int32(typ uint16, v int32) {
	b.Uint32(typ, uint32(v))
}

// String writes a bare-bytes string attribute (no forced NUL terminator).
func (b *Builder) String(typ uint16, s string) {
	b.appendAttr(typ, false, []byte(s))
}

// ByteVector writes a byte-vector attribute.
func (b *Builder) ByteVector(typ uint16, v []byte) {
	b.appendAttr(typ, false, v)
}

// Nested writes typ as a nested attribute whose payload is whatever fn
// writes into the inner Builder it receives.
func (b *Builder) Nested(typ uint16, fn func(*Builder)) {
	inner := NewBuilder()
	fn(inner)
	b.appendAttr(typ, true, inner.Bytes())
}
