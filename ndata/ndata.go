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

// Package ndata encodes and decodes the kernel's nft_data union: a nested
// attribute whose sole child is either a raw byte value or a verdict. It is
// the wire shape shared by expr.Cmp's comparand, expr.Bitwise's mask/xor,
// expr.Immediate's loaded value, and nftables.SetElement's key — anywhere a
// rule operand is "some bytes wrapped one level deeper", per the design's
// packet-matching primitives.
package ndata

import (
	"encoding/binary"
	"fmt"

	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlerr"
)

// Attribute ids within one nft_data nest (NFTA_DATA_*).
const (
	AttrValue   uint16 = 1
	AttrVerdict uint16 = 2
)

// Attribute ids within a nested NFTA_DATA_VERDICT (NFTA_VERDICT_*).
const (
	AttrVerdictCode uint16 = 1
	AttrVerdictChain uint16 = 2
)

// ValueSize returns the size a nested nft_data attr wrapping a raw value of
// length n will occupy, header included.
func ValueSize(n int) int {
	return nlattr.Size(nlattr.Size(n))
}

// WriteValue writes typ as a nested nft_data attribute wrapping value as the
// sole NFTA_DATA_VALUE child.
func WriteValue(b *nlattr.Builder, typ uint16, value []byte) {
	b.Nested(typ, func(inner *nlattr.Builder) {
		inner.ByteVector(AttrValue, value)
	})
}

// DecodeValue unwraps a nested nft_data attribute, returning the bytes under
// NFTA_DATA_VALUE. It is an error for the nest to be empty or to carry a
// verdict instead of a value; callers that accept either use Decode on the
// same payload.
func DecodeValue(payload []byte) ([]byte, error) {
	var value []byte
	found := false
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		if a.Type != AttrValue {
			return fmt.Errorf("%w: nft_data attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		value = append([]byte(nil), a.Payload...)
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: nft_data value", nlerr.ErrMissingRequiredAttribute)
	}
	return value, nil
}

// Decode unwraps a nested nft_data attribute without assuming in advance
// whether it carries a raw value or a verdict, for expr.Immediate's DATA
// attribute which can be either. Exactly one of value/verdict is returned
// non-nil.
func Decode(payload []byte) (value []byte, verdict *Verdict, err error) {
	var childType uint16
	var childPayload []byte
	found := false
	err = nlattr.Decode(payload, func(a nlattr.Attr) error {
		childType = a.Type
		childPayload = a.Payload
		found = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: nft_data", nlerr.ErrMissingRequiredAttribute)
	}
	switch childType {
	case AttrValue:
		return append([]byte(nil), childPayload...), nil, nil
	case AttrVerdict:
		v, err := DecodeVerdict(payload)
		if err != nil {
			return nil, nil, err
		}
		return nil, &v, nil
	default:
		return nil, nil, fmt.Errorf("%w: nft_data attr %d", nlerr.ErrUnsupportedAttributeType, childType)
	}
}

// Verdict is the decoded contents of an nft_data verdict nest: a verdict
// code (NFT_ACCEPT, NFT_DROP, NFT_RETURN, or a negative NFT_JUMP/NFT_GOTO
// that names a target chain).
type Verdict struct {
	Code  int32
	Chain string // only meaningful for NFT_JUMP/NFT_GOTO
}

// VerdictSize returns the size of a nested nft_data attr wrapping a verdict
// whose Chain has the given length (0 when the verdict carries no chain).
func VerdictSize(chainLen int) int {
	inner := nlattr.Size(4)
	if chainLen > 0 {
		inner += nlattr.Size(chainLen)
	}
	return nlattr.Size(nlattr.Size(inner))
}

// WriteVerdict writes typ as a nested nft_data attribute wrapping v as the
// sole NFTA_DATA_VERDICT child.
func WriteVerdict(b *nlattr.Builder, typ uint16, v Verdict) {
	b.Nested(typ, func(outer *nlattr.Builder) {
		outer.Nested(AttrVerdict, func(inner *nlattr.Builder) {
			inner.Int32(AttrVerdictCode, v.Code)
			if v.Chain != "" {
				inner.String(AttrVerdictChain, v.Chain)
			}
		})
	})
}

// DecodeVerdict unwraps a nested nft_data attribute expected to carry a
// verdict rather than a raw value.
func DecodeVerdict(payload []byte) (Verdict, error) {
	var v Verdict
	var verdictPayload []byte
	found := false
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		if a.Type != AttrVerdict {
			return fmt.Errorf("%w: nft_data attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		verdictPayload = a.Payload
		found = true
		return nil
	})
	if err != nil {
		return Verdict{}, err
	}
	if !found {
		return Verdict{}, fmt.Errorf("%w: nft_data verdict", nlerr.ErrMissingRequiredAttribute)
	}
	err = nlattr.Decode(verdictPayload, func(a nlattr.Attr) error {
		switch a.Type {
		case AttrVerdictCode:
			if len(a.Payload) != 4 {
				return fmt.Errorf("%w: verdict code is %d bytes, want 4", nlerr.ErrInvalidDataSize, len(a.Payload))
			}
			v.Code = int32(binary.BigEndian.Uint32(a.Payload))
		case AttrVerdictChain:
			v.Chain = string(a.Payload)
		default:
			return fmt.Errorf("%w: verdict attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	return v, err
}
