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

package expr

import (
	"fmt"

	"github.com/google/nftlink/internal/optional"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

// RejectType selects how Reject terminates the packet's evaluation.
type RejectType uint32

const (
	RejectICMPUnreach  RejectType = 0
	RejectTCPReset     RejectType = 1
	RejectICMPXUnreach RejectType = 2
)

// ParseRejectType validates v against the closed set of reject types.
func ParseRejectType(v uint32) (RejectType, error) {
	switch RejectType(v) {
	case RejectICMPUnreach, RejectTCPReset, RejectICMPXUnreach:
		return RejectType(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownRejectType, v)
	}
}

const (
	attrRejectType uint16 = 1
	attrRejectCode uint16 = 2
)

// Reject drops the packet and sends back an ICMP/ICMPv6 error or a TCP
// RST, the terminal counterpart to Immediate's NFT_DROP verdict that also
// notifies the sender. Code is only meaningful for the ICMP reject types.
type Reject struct {
	Type RejectType
	Code optional.Value[uint8]
}

func (r *Reject) Name() string { return "reject" }

func (r *Reject) dataSize() int {
	n := nlattr.Size(4)
	if _, ok := r.Code.Get(); ok {
		n += nlattr.Size(1)
	}
	return n
}

func (r *Reject) writeData(b *nlattr.Builder) {
	b.Uint32(attrRejectType, uint32(r.Type))
	if v, ok := r.Code.Get(); ok {
		b.Uint8(attrRejectCode, v)
	}
}

func decodeReject(payload []byte) (Expression, error) {
	var r Reject
	var haveType bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrRejectType:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			t, err := ParseRejectType(v)
			if err != nil {
				return err
			}
			r.Type = t
			haveType = true
		case attrRejectCode:
			v, err := nlenc.Uint8(a.Payload)
			if err != nil {
				return err
			}
			r.Code.Set(v)
		default:
			return fmt.Errorf("%w: reject attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveType {
		return nil, fmt.Errorf("%w: reject type", nlerr.ErrMissingRequiredAttribute)
	}
	return &r, nil
}

func init() {
	register("reject", decodeReject)
}
