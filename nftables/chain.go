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
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
	"github.com/google/nftlink/nlmsg"
)

// NFTA_CHAIN_*.
const (
	attrChainTable    uint16 = 1
	attrChainHandle   uint16 = 2
	attrChainName     uint16 = 3
	attrChainHook     uint16 = 4
	attrChainPolicy   uint16 = 5
	attrChainType     uint16 = 7
	attrChainFlags    uint16 = 10
	attrChainID       uint16 = 11
	attrChainUserdata uint16 = 12
)

// NFTA_HOOK_*.
const (
	attrHookNum      uint16 = 1
	attrHookPriority uint16 = 2
)

// Hook attaches a base chain to one of the kernel's packet-processing
// points. A chain without a Hook is a regular chain, only reachable via a
// jump or goto from elsewhere.
type Hook struct {
	Class    HookClass
	Priority int32
}

func (h Hook) size() int {
	return nlattr.Size(4) + nlattr.Size(4)
}

func (h Hook) writePayload(b *nlattr.Builder) {
	b.Uint32(attrHookNum, uint32(h.Class))
	b.Int32(attrHookPriority, h.Priority)
}

func decodeHook(payload []byte) (Hook, error) {
	var h Hook
	var haveNum, havePriority bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrHookNum:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			class, err := ParseHookClass(v)
			if err != nil {
				return err
			}
			h.Class = class
			haveNum = true
		case attrHookPriority:
			v, err := nlenc.Int32(a.Payload)
			if err != nil {
				return err
			}
			h.Priority = v
			havePriority = true
		default:
			return fmt.Errorf("%w: hook attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return Hook{}, err
	}
	if !haveNum || !havePriority {
		return Hook{}, fmt.Errorf("%w: hook num/priority", nlerr.ErrMissingRequiredAttribute)
	}
	return h, nil
}

// Chain holds a sequence of rules evaluated in order. A base chain (one
// with a Hook) is reachable directly from the kernel's packet path; a
// regular chain is only reachable via a jump or goto from elsewhere.
type Chain struct {
	Family   nlenc.ProtocolFamily
	table    optional.Value[string]
	handle   optional.Value[uint64]
	name     optional.Value[string]
	hook     optional.Value[Hook]
	policy   optional.Value[ChainPolicy]
	ctype    optional.Value[ChainType]
	flags    optional.Value[uint32]
	userdata optional.Value[[]byte]
	id       optional.Value[uint32]
}

// NewChain returns a regular (non-base) Chain named name inside table.
func NewChain(family nlenc.ProtocolFamily, table, name string) *Chain {
	c := &Chain{Family: family}
	c.table.Set(table)
	c.name.Set(name)
	return c
}

// WithHook turns c into a base chain attached to class at priority, typed
// ctype, with the given default policy.
func (c *Chain) WithHook(class HookClass, priority int32, ctype ChainType, policy ChainPolicy) *Chain {
	c.hook.Set(Hook{Class: class, Priority: priority})
	c.ctype.Set(ctype)
	c.policy.Set(policy)
	return c
}

// WithHandle sets the kernel-assigned handle identifying this chain.
func (c *Chain) WithHandle(handle uint64) *Chain {
	c.handle.Set(handle)
	return c
}

// WithFlags sets the chain's flags (NFT_CHAIN_BASE and friends).
func (c *Chain) WithFlags(flags uint32) *Chain {
	c.flags.Set(flags)
	return c
}

// WithUserdata attaches an opaque userdata blob.
func (c *Chain) WithUserdata(userdata []byte) *Chain {
	c.userdata.Set(userdata)
	return c
}

// WithID assigns a transaction-scoped id other objects in the same batch
// can reference before the kernel has handed back a real handle.
func (c *Chain) WithID(id uint32) *Chain {
	c.id.Set(id)
	return c
}

// Table returns the chain's owning table name and whether it is set.
func (c *Chain) Table() (string, bool) { return c.table.Get() }

// Handle returns the chain's kernel-assigned handle and whether it is set.
func (c *Chain) Handle() (uint64, bool) { return c.handle.Get() }

// Name returns the chain's name and whether it is set.
func (c *Chain) Name() (string, bool) { return c.name.Get() }

// HookInfo returns the chain's hook attachment and whether it is a base
// chain at all.
func (c *Chain) HookInfo() (Hook, bool) { return c.hook.Get() }

// Policy returns the chain's default policy and whether it is set.
func (c *Chain) Policy() (ChainPolicy, bool) { return c.policy.Get() }

// Type returns the chain's type and whether it is set.
func (c *Chain) Type() (ChainType, bool) { return c.ctype.Get() }

// Flags returns the chain's flags and whether they are set.
func (c *Chain) Flags() (uint32, bool) { return c.flags.Get() }

// Userdata returns the chain's userdata blob and whether it is set.
func (c *Chain) Userdata() ([]byte, bool) { return c.userdata.Get() }

// ID returns the chain's transaction-scoped id and whether it is set.
func (c *Chain) ID() (uint32, bool) { return c.id.Get() }

func (c *Chain) WritePayload(b *nlattr.Builder) {
	if v, ok := c.table.Get(); ok {
		b.String(attrChainTable, v)
	}
	if v, ok := c.handle.Get(); ok {
		b.Uint64(attrChainHandle, v)
	}
	if v, ok := c.name.Get(); ok {
		b.String(attrChainName, v)
	}
	if v, ok := c.hook.Get(); ok {
		b.Nested(attrChainHook, v.writePayload)
	}
	if v, ok := c.policy.Get(); ok {
		b.Uint32(attrChainPolicy, uint32(v))
	}
	if v, ok := c.ctype.Get(); ok {
		b.String(attrChainType, string(v))
	}
	if v, ok := c.flags.Get(); ok {
		b.Uint32(attrChainFlags, v)
	}
	if v, ok := c.userdata.Get(); ok {
		b.ByteVector(attrChainUserdata, v)
	}
	if v, ok := c.id.Get(); ok {
		b.Uint32(attrChainID, v)
	}
}

// AddOrRemove writes a NEWCHAIN or DELCHAIN message for c into w.
func (c *Chain) AddOrRemove(w *nlmsg.Writer, op nlmsg.Op, seq uint32) {
	addOrRemove(w, nlmsg.MsgNewChain, nlmsg.MsgDelChain, op, uint8(c.Family), seq, 0, c.WritePayload)
}

// DecodeChain decodes a chain object's body into a Chain.
func DecodeChain(family uint8, body []byte) (*Chain, error) {
	c := &Chain{Family: nlenc.ProtocolFamily(family)}
	err := nlattr.Decode(body, func(a nlattr.Attr) error {
		switch a.Type {
		case attrChainTable:
			c.table.Set(nlenc.String(a.Payload))
		case attrChainHandle:
			v, err := nlenc.Uint64(a.Payload)
			if err != nil {
				return err
			}
			c.handle.Set(v)
		case attrChainName:
			c.name.Set(nlenc.String(a.Payload))
		case attrChainHook:
			h, err := decodeHook(a.Payload)
			if err != nil {
				return err
			}
			c.hook.Set(h)
		case attrChainPolicy:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			policy, err := ParseChainPolicy(v)
			if err != nil {
				return err
			}
			c.policy.Set(policy)
		case attrChainType:
			ctype, err := ParseChainType(nlenc.String(a.Payload))
			if err != nil {
				return err
			}
			c.ctype.Set(ctype)
		case attrChainFlags:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			c.flags.Set(v)
		case attrChainID:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			c.id.Set(v)
		case attrChainUserdata:
			c.userdata.Set(nlenc.ByteVector(a.Payload))
		default:
			return fmt.Errorf("%w: chain attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
