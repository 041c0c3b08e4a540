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

// Package nlenc encodes and decodes the scalar primitives carried inside
// nftables netlink attribute payloads. Every multi-byte integer on the
// wire is big-endian regardless of host order; this is the "NLA_F_NET_BYTEORDER"
// convention nftables attribute payloads always use, as opposed to the
// netlink/nlmsg framing headers themselves which stay in host order.
package nlenc

import (
	"encoding/binary"
	"fmt"

	"github.com/google/nftlink/nlerr"
)

// PutUint8 appends a single byte.
func PutUint8(v uint8) []byte { return []byte{v} }

// PutUint16 appends a big-endian uint16.
func PutUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// PutUint32 appends a big-endian uint32.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// PutUint64 appends a big-endian uint64.
func PutUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// PutInt32 appends a big-endian, two's complement int32.
func PutInt32(v int32) []byte {
	return PutUint32(uint32(v))
}

// Uint8 reads a single byte.
func Uint8(b []byte) (uint8, error) {
	if len(b) < 1 {
		return 0, fmt.Errorf("%w: need 1 byte, have %d", nlerr.ErrInvalidDataSize, len(b))
	}
	return b[0], nil
}

// Uint16 reads a big-endian uint16.
func Uint16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("%w: need 2 bytes, have %d", nlerr.ErrInvalidDataSize, len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32 reads a big-endian uint32.
func Uint32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes, have %d", nlerr.ErrInvalidDataSize, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint64 reads a big-endian uint64.
func Uint64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("%w: need 8 bytes, have %d", nlerr.ErrInvalidDataSize, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Int32 reads a big-endian, two's complement int32.
func Int32(b []byte) (int32, error) {
	v, err := Uint32(b)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// String returns a copy of b with a single trailing NUL stripped, if present.
// nftables attribute strings are bare byte sequences; the kernel is free to
// include a trailing NUL but never requires one.
func String(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// PutString returns the raw bytes of s. Callers that need a NUL terminator
// (none of the attributes in this schema do) append it themselves.
func PutString(s string) []byte {
	return []byte(s)
}

// ByteVector returns a copy of b; the attribute header already carries the
// length so no further framing is needed.
func ByteVector(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// ProtocolFamily is the nfproto_* family enumeration used inside attribute
// payloads (as opposed to the subsystem header's nfgen_family byte, which
// nlmsg.Header carries directly).
type ProtocolFamily int32

// Well-known protocol families, linux/netfilter.h NFPROTO_*.
const (
	FamilyUnspec ProtocolFamily = 0
	FamilyInet   ProtocolFamily = 1
	FamilyIPv4   ProtocolFamily = 2
	FamilyARP    ProtocolFamily = 3
	FamilyNetdev ProtocolFamily = 5
	FamilyBridge ProtocolFamily = 7
	FamilyIPv6   ProtocolFamily = 10
	FamilyDecnet ProtocolFamily = 12
)

func (f ProtocolFamily) String() string {
	switch f {
	case FamilyUnspec:
		return "unspec"
	case FamilyInet:
		return "inet"
	case FamilyIPv4:
		return "ipv4"
	case FamilyARP:
		return "arp"
	case FamilyNetdev:
		return "netdev"
	case FamilyBridge:
		return "bridge"
	case FamilyIPv6:
		return "ipv6"
	case FamilyDecnet:
		return "decnet"
	default:
		return fmt.Sprintf("ProtocolFamily(%d)", int32(f))
	}
}

func validFamily(f ProtocolFamily) bool {
	switch f {
	case FamilyUnspec, FamilyInet, FamilyIPv4, FamilyARP, FamilyNetdev, FamilyBridge, FamilyIPv6, FamilyDecnet:
		return true
	default:
		return false
	}
}

// PutProtocolFamily encodes f as a big-endian int32 attribute payload.
func PutProtocolFamily(f ProtocolFamily) []byte {
	return PutInt32(int32(f))
}

// DecodeProtocolFamily reads a ProtocolFamily from a big-endian int32
// attribute payload, rejecting values outside the enumerated set.
func DecodeProtocolFamily(b []byte) (ProtocolFamily, error) {
	v, err := Int32(b)
	if err != nil {
		return 0, err
	}
	f := ProtocolFamily(v)
	if !validFamily(f) {
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownProtocolFamily, v)
	}
	return f, nil
}
