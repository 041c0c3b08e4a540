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

// Package nlmsg frames nftables netlink messages: a 16-byte netlink
// header, a 4-byte nftables subsystem header, and an attribute payload.
// It owns the message-type/subsystem constants shared by the domain
// objects (package nftables), the batch assembler (package batch) and the
// parser (package nlparse).
package nlmsg

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/google/nftlink/nlattr"
)

const (
	// HeaderLen is the size of the netlink message header.
	HeaderLen = 16
	// SubsysHeaderLen is the size of the nftables subsystem header
	// (struct nfgenmsg).
	SubsysHeaderLen = 4

	// SubsysNftables is the high byte nftables messages carry in
	// nlmsg_type.
	SubsysNftables uint8 = 10
	// SubsysNone is used by the batch begin/end control messages, which
	// are not namespaced under the nftables subsystem.
	SubsysNone uint8 = 0
)

// nf_tables_msg_types, linux/netfilter/nf_tables.h.
const (
	MsgNewTable uint8 = iota
	MsgGetTable
	MsgDelTable
	MsgNewChain
	MsgGetChain
	MsgDelChain
	MsgNewRule
	MsgGetRule
	MsgDelRule
	MsgNewSet
	MsgGetSet
	MsgDelSet
	MsgNewSetElem
	MsgGetSetElem
	MsgDelSetElem
)

// Batch control message types, linux/netfilter/nfnetlink.h NFNL_MSG_BATCH_*.
const (
	BatchBegin uint8 = 16
	BatchEnd   uint8 = 17
)

// ComposeType packs a subsystem id and a message type into the 16-bit
// nlmsg_type field the way the kernel expects: subsystem in the high byte,
// message type in the low byte.
func ComposeType(subsys, msgType uint8) uint16 {
	return uint16(subsys)<<8 | uint16(msgType)
}

// SplitType is the inverse of ComposeType.
func SplitType(t uint16) (subsys, msgType uint8) {
	return uint8(t >> 8), uint8(t)
}

// pad4 rounds n up to a 4-byte boundary; message bodies share the same
// alignment rule as attribute payloads.
func pad4(n int) int {
	return nlattr.PadLen(n)
}

// Header is the netlink message header, struct nlmsghdr. Its fields are
// host/native byte order, unlike the attribute payloads nested inside the
// message body which are always big-endian.
type Header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	Pid   uint32
}

func decodeHeader(b []byte) Header {
	return Header{
		Len:   binary.NativeEndian.Uint32(b[0:4]),
		Type:  binary.NativeEndian.Uint16(b[4:6]),
		Flags: binary.NativeEndian.Uint16(b[6:8]),
		Seq:   binary.NativeEndian.Uint32(b[8:12]),
		Pid:   binary.NativeEndian.Uint32(b[12:16]),
	}
}

func (h Header) encodeInto(b []byte) {
	binary.NativeEndian.PutUint32(b[0:4], h.Len)
	binary.NativeEndian.PutUint16(b[4:6], h.Type)
	binary.NativeEndian.PutUint16(b[6:8], h.Flags)
	binary.NativeEndian.PutUint32(b[8:12], h.Seq)
	binary.NativeEndian.PutUint32(b[12:16], h.Pid)
}

// SubsysHeader is struct nfgenmsg: the 4-byte header following the netlink
// header on every nftables-subsystem message.
type SubsysHeader struct {
	Family  uint8
	Version uint8
	ResID   uint16
}

func decodeSubsysHeader(b []byte) SubsysHeader {
	return SubsysHeader{
		Family:  b[0],
		Version: b[1],
		ResID:   binary.NativeEndian.Uint16(b[2:4]),
	}
}

func (s SubsysHeader) encodeInto(b []byte) {
	b[0] = s.Family
	b[1] = s.Version
	binary.NativeEndian.PutUint16(b[2:4], s.ResID)
}

// Flags reused from golang.org/x/sys/unix so the kernel ABI's bit
// positions never drift independently of the rest of the ecosystem.
const (
	FlagRequest = unix.NLM_F_REQUEST
	FlagMulti   = unix.NLM_F_MULTI
	FlagAck     = unix.NLM_F_ACK
	FlagEcho    = unix.NLM_F_ECHO
	FlagDumpIntr = unix.NLM_F_DUMP_INTR
	FlagRoot    = unix.NLM_F_ROOT
	FlagMatch   = unix.NLM_F_MATCH
	FlagDump    = unix.NLM_F_DUMP
	FlagReplace = unix.NLM_F_REPLACE
	FlagExcl    = unix.NLM_F_EXCL
	FlagCreate  = unix.NLM_F_CREATE
	FlagAppend  = unix.NLM_F_APPEND

	MinType = unix.NLMSG_MIN_TYPE
	TypeNoop  = unix.NLMSG_NOOP
	TypeError = unix.NLMSG_ERROR
	TypeDone  = unix.NLMSG_DONE
)

// Op identifies whether a domain object is being added or removed, used
// to pick the object's message type and default flags (design §4.F).
type Op int

const (
	OpAdd Op = iota
	OpDel
)
