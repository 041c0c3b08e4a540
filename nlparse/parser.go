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

// Package nlparse validates and splits incoming netlink message buffers,
// surfacing the DONE/ERROR/NOOP control messages the query loop (package
// query) has to special-case and handing everything else back as a
// subsystem header plus an attribute body ready for package nftables to
// decode.
package nlparse

import (
	"encoding/binary"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlerr"
	"github.com/google/nftlink/nlmsg"
)

// Kind discriminates the possible outcomes of parsing one netlink message.
type Kind int

const (
	// KindPayload is an ordinary nftables-subsystem message carrying a
	// decodable body.
	KindPayload Kind = iota
	// KindDone is NLMSG_DONE: the multi-part reply is complete.
	KindDone
	// KindNoop is NLMSG_NOOP: ignore and keep reading.
	KindNoop
	// KindError is NLMSG_ERROR: Errno is non-zero on failure, zero on a
	// plain ACK.
	KindError
	// KindBatchBegin is NFNL_MSG_BATCH_BEGIN: marks the start of a
	// transactional batch. Carries a subsystem header but no body.
	KindBatchBegin
	// KindBatchEnd is NFNL_MSG_BATCH_END: marks the end of a transactional
	// batch. Carries a subsystem header but no body.
	KindBatchEnd
)

// Message is one parsed netlink message.
type Message struct {
	Header Header
	Kind   Kind

	// Populated when Kind == KindError.
	Errno int

	// Subsys is populated when Kind is KindPayload, KindBatchBegin or
	// KindBatchEnd; Body only when Kind == KindPayload.
	Subsys SubsysHeader
	Body   []byte
}

// Header and SubsysHeader re-export the nlmsg wire structs so callers of
// this package don't need to import nlmsg just to read a parsed field.
type Header = nlmsg.Header
type SubsysHeader = nlmsg.SubsysHeader

// Parse validates and decodes the single netlink message at the start of
// buf, returning the parsed Message and the byte offset (already rounded
// up to the next 4-byte boundary) at which the next message begins.
//
// Validation follows the order in the design exactly, since later
// ordering changes would change which error a malformed buffer reports:
//  1. buf must hold at least a netlink header.
//  2. header.Len must be within buf and at least HeaderLen.
//  3. NLM_F_DUMP_INTR set => ConcurrentGenerationUpdate.
//  4. header.Type below NLMSG_MIN_TYPE is control: NOOP, ERROR, DONE, or
//     UnsupportedType for anything else that low.
//  5. BATCH_BEGIN/BATCH_END (NFNL_SUBSYS_NONE) are recognized next; any
//     other non-control message must belong to the nftables subsystem.
//  6. The subsystem header must be present and carry version 0.
func Parse(buf []byte) (Message, int, error) {
	if len(buf) < nlmsg.HeaderLen {
		return Message{}, 0, fmt.Errorf("%w: have %d bytes, need %d", nlerr.ErrBufTooSmall, len(buf), nlmsg.HeaderLen)
	}

	h := Header{
		Len:   binary.NativeEndian.Uint32(buf[0:4]),
		Type:  binary.NativeEndian.Uint16(buf[4:6]),
		Flags: binary.NativeEndian.Uint16(buf[6:8]),
		Seq:   binary.NativeEndian.Uint32(buf[8:12]),
		Pid:   binary.NativeEndian.Uint32(buf[12:16]),
	}

	if int(h.Len) < nlmsg.HeaderLen || int(h.Len) > len(buf) {
		return Message{}, 0, fmt.Errorf("%w: nlmsg_len=%d, buffer holds %d bytes", nlerr.ErrNlMsgTooSmall, h.Len, len(buf))
	}

	next := pad4(int(h.Len))

	if h.Flags&nlmsg.FlagDumpIntr != 0 {
		return Message{}, next, fmt.Errorf("%w", nlerr.ErrConcurrentGenerationUpdate)
	}

	if int(h.Type) < nlmsg.MinType {
		msg, err := parseControl(h, buf)
		return msg, next, err
	}

	subsys, msgType := nlmsg.SplitType(h.Type)

	// BATCH_BEGIN/BATCH_END are namespaced under NFNL_SUBSYS_NONE rather
	// than the nftables subsystem, but still carry a subsystem header
	// (AF_UNSPEC family, res_id = nftables) and no attribute body.
	if subsys == nlmsg.SubsysNone && (msgType == nlmsg.BatchBegin || msgType == nlmsg.BatchEnd) {
		if int(h.Len) < nlmsg.HeaderLen+nlmsg.SubsysHeaderLen {
			return Message{}, next, fmt.Errorf("%w: message too small to hold a subsystem header", nlerr.ErrInvalidDataSize)
		}
		sh := SubsysHeader{
			Family:  buf[nlmsg.HeaderLen],
			Version: buf[nlmsg.HeaderLen+1],
			ResID:   binary.NativeEndian.Uint16(buf[nlmsg.HeaderLen+2 : nlmsg.HeaderLen+4]),
		}
		kind := KindBatchBegin
		if msgType == nlmsg.BatchEnd {
			kind = KindBatchEnd
		}
		return Message{Header: h, Kind: kind, Subsys: sh}, next, nil
	}

	if subsys != nlmsg.SubsysNftables {
		return Message{}, next, fmt.Errorf("%w: subsystem %d, want %d", nlerr.ErrInvalidSubsystem, subsys, nlmsg.SubsysNftables)
	}

	if int(h.Len) < nlmsg.HeaderLen+nlmsg.SubsysHeaderLen {
		return Message{}, next, fmt.Errorf("%w: message too small to hold a subsystem header", nlerr.ErrInvalidDataSize)
	}

	sh := SubsysHeader{
		Family:  buf[nlmsg.HeaderLen],
		Version: buf[nlmsg.HeaderLen+1],
		ResID:   binary.NativeEndian.Uint16(buf[nlmsg.HeaderLen+2 : nlmsg.HeaderLen+4]),
	}
	if sh.Version != 0 {
		return Message{}, next, fmt.Errorf("%w: got version %d, want 0", nlerr.ErrInvalidVersion, sh.Version)
	}

	body := buf[nlmsg.HeaderLen+nlmsg.SubsysHeaderLen : h.Len]
	return Message{Header: h, Kind: KindPayload, Subsys: sh, Body: body}, next, nil
}

func parseControl(h Header, buf []byte) (Message, error) {
	switch int(h.Type) {
	case nlmsg.TypeNoop:
		klog.V(4).Infof("nlparse: NOOP seq=%d", h.Seq)
		return Message{Header: h, Kind: KindNoop}, nil
	case nlmsg.TypeDone:
		klog.V(4).Infof("nlparse: DONE seq=%d", h.Seq)
		return Message{Header: h, Kind: KindDone}, nil
	case nlmsg.TypeError:
		// struct nlmsgerr { int error; struct nlmsghdr msg; }; both
		// fields are plain C ints/structs in host byte order, not
		// attribute payloads, so no big-endian decoding here.
		errOff := nlmsg.HeaderLen
		if len(buf) < errOff+4 {
			return Message{}, fmt.Errorf("%w: ERROR message too small to hold errno", nlerr.ErrInvalidDataSize)
		}
		raw := int32(binary.NativeEndian.Uint32(buf[errOff : errOff+4]))
		errno := int(raw)
		if errno < 0 {
			errno = -errno
		}
		return Message{Header: h, Kind: KindError, Errno: errno}, nil
	default:
		return Message{}, fmt.Errorf("%w: control type %d", nlerr.ErrUnsupportedType, h.Type)
	}
}

// ParseAll parses every message packed into buf, stopping at the first
// error (returning the messages decoded so far alongside it) or once the
// buffer is exhausted.
func ParseAll(buf []byte) ([]Message, error) {
	var out []Message
	for len(buf) > 0 {
		msg, next, err := Parse(buf)
		if err != nil {
			return out, err
		}
		out = append(out, msg)
		if next <= 0 || next > len(buf) {
			break
		}
		buf = buf[next:]
	}
	return out, nil
}

func pad4(n int) int {
	return nlattr.PadLen(n)
}
