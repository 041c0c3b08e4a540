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

	"github.com/google/nftlink/nlerr"
)

// ChainType is the nft_chain_type string, e.g. "filter". Unlike most
// scalar enumerations in this package it round-trips as a bare attribute
// string rather than an integer, but it is still a closed set: any other
// string is a decode error per design §9's "sum types for small
// enumerations" rule.
type ChainType string

const (
	ChainTypeFilter ChainType = "filter"
	ChainTypeNat    ChainType = "nat"
	ChainTypeRoute  ChainType = "route"
)

// ParseChainType validates s against the closed set of known chain types.
func ParseChainType(s string) (ChainType, error) {
	switch ChainType(s) {
	case ChainTypeFilter, ChainTypeNat, ChainTypeRoute:
		return ChainType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", nlerr.ErrUnknownChainType, s)
	}
}

// ChainPolicy is a base chain's default verdict when no rule matches,
// wire-encoded as a big-endian uint32 holding the netfilter verdict
// constant (NF_DROP=0, NF_ACCEPT=1).
//
// Resolves design §9 open question 2: the legacy decoder that mapped
// NF_DROP to Accept was a bug; this implementation maps it to Drop.
type ChainPolicy uint32

const (
	ChainPolicyDrop   ChainPolicy = 0
	ChainPolicyAccept ChainPolicy = 1
)

// ParseChainPolicy validates v against the closed set of policy values.
func ParseChainPolicy(v uint32) (ChainPolicy, error) {
	switch ChainPolicy(v) {
	case ChainPolicyDrop, ChainPolicyAccept:
		return ChainPolicy(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownChainPolicy, v)
	}
}

// HookClass is the packet-processing point a base chain attaches to,
// wire-encoded as a big-endian uint32 (NF_INET_* / NF_NETDEV_INGRESS).
type HookClass uint32

const (
	HookPreRouting  HookClass = 0
	HookLocalIn     HookClass = 1
	HookForward     HookClass = 2
	HookLocalOut    HookClass = 3
	HookPostRouting HookClass = 4
	// HookIngress is only meaningful for the netdev family; it shares
	// NF_INET_PRE_ROUTING's numeric value (0) by kernel convention since
	// the two families never mix in the same hook enumeration.
	HookIngress HookClass = 0
)

func (h HookClass) String() string {
	switch h {
	case HookPreRouting:
		return "prerouting"
	case HookLocalIn:
		return "input"
	case HookForward:
		return "forward"
	case HookLocalOut:
		return "output"
	case HookPostRouting:
		return "postrouting"
	default:
		return fmt.Sprintf("HookClass(%d)", uint32(h))
	}
}

// ParseHookClass validates v against the closed set of hook points.
func ParseHookClass(v uint32) (HookClass, error) {
	switch HookClass(v) {
	case HookPreRouting, HookLocalIn, HookForward, HookLocalOut, HookPostRouting:
		return HookClass(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownHookClass, v)
	}
}

// KeyType is the nft_data_types value describing a set's element type. Only
// the handful nftlink builds sets against are enumerated; others decode
// successfully as long as the caller never asks ruleutil/nftables to
// interpret the raw bytes.
type KeyType uint32

const (
	KeyTypeInteger KeyType = 1
	KeyTypeString  KeyType = 3
	KeyTypeIPv4Addr KeyType = 7
	KeyTypeIPv6Addr KeyType = 8
	KeyTypeEtherAddr KeyType = 9
	KeyTypeInetProto KeyType = 12
	KeyTypeInetService KeyType = 13
)
