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

// Package nlerr collects the sentinel errors produced across nftlink's
// encode, decode and query paths. Call sites wrap these with fmt.Errorf's
// %w verb so callers can keep using errors.Is/errors.As instead of string
// matching.
package nlerr

import "errors"

// Decode errors, returned while turning wire bytes back into domain values.
var (
	ErrBufTooSmall               = errors.New("nlerr: buffer too small for a netlink header")
	ErrNlMsgTooSmall              = errors.New("nlerr: nlmsg_len smaller than the netlink header")
	ErrInvalidDataSize           = errors.New("nlerr: value does not fit in the remaining buffer")
	ErrConcurrentGenerationUpdate = errors.New("nlerr: NLM_F_DUMP_INTR set, generation changed mid-dump")
	ErrUnsupportedType           = errors.New("nlerr: control message type below NLMSG_MIN_TYPE is not NOOP/ERROR/DONE")
	ErrInvalidSubsystem          = errors.New("nlerr: message does not belong to the nftables subsystem")
	ErrInvalidVersion            = errors.New("nlerr: subsystem header version is not 0")
	ErrUnsupportedAttributeType  = errors.New("nlerr: attribute type not recognized by this schema")
	ErrUnknownProtocolFamily     = errors.New("nlerr: unrecognized protocol family value")
	ErrUnknownChainType          = errors.New("nlerr: unrecognized chain type value")
	ErrUnknownChainPolicy        = errors.New("nlerr: unrecognized chain policy value")
	ErrUnknownHookClass          = errors.New("nlerr: unrecognized hook class value")
	ErrUnknownRegister           = errors.New("nlerr: unrecognized register value")
	ErrUnknownVerdictCode        = errors.New("nlerr: unrecognized verdict code value")
	ErrUnknownNatType            = errors.New("nlerr: unrecognized nat type value")
	ErrUnknownPayloadBase        = errors.New("nlerr: unrecognized payload base value")
	ErrUnknownCmpOp              = errors.New("nlerr: unrecognized comparison operator value")
	ErrUnknownCtKey              = errors.New("nlerr: unrecognized conntrack key value")
	ErrUnknownIcmpCode           = errors.New("nlerr: unrecognized icmp code value")
	ErrUnknownRejectType         = errors.New("nlerr: unrecognized reject type value")
	ErrInvalidUTF8               = errors.New("nlerr: attribute string is not valid UTF-8")
	ErrDuplicateAttribute        = errors.New("nlerr: non-list attribute present more than once")
	ErrMissingRequiredAttribute  = errors.New("nlerr: required attribute absent from the message")
)

// Builder errors, returned while constructing domain values before they
// are ever serialized.
var (
	ErrOperandLengthMismatch = errors.New("nlerr: operands must have equal length")
	ErrMissingParent         = errors.New("nlerr: required parent reference (table/chain) not set")
	ErrNameTooLong           = errors.New("nlerr: name exceeds the kernel's length limit")
	ErrLogPrefixTooLong      = errors.New("nlerr: log prefix exceeds 127 bytes")
)

// Query errors, returned only by the query package's send/receive loop.
var (
	ErrSocketOpen               = errors.New("nlerr: failed to open netlink socket")
	ErrSocketSend               = errors.New("nlerr: failed to send netlink request")
	ErrSocketRecv               = errors.New("nlerr: failed to receive netlink reply")
	ErrSocketClose              = errors.New("nlerr: failed to close netlink socket")
	ErrKernel                   = errors.New("nlerr: kernel returned a netlink error")
	ErrUndecidableTermination   = errors.New("nlerr: reply is not MULTI and no max sequence was given to decide completion")
)
