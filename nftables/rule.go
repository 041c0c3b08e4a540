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

	"github.com/google/nftlink/expr"
	"github.com/google/nftlink/internal/optional"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
	"github.com/google/nftlink/nlmsg"
)

// NFTA_RULE_*.
const (
	attrRuleTable       uint16 = 1
	attrRuleChain       uint16 = 2
	attrRuleHandle      uint16 = 3
	attrRuleExpressions uint16 = 4
	attrRulePosition    uint16 = 6
	attrRuleUserdata    uint16 = 7
	attrRuleID          uint16 = 8
)

// Rule is one ordered step of a chain's evaluation: a sequence of
// expressions the kernel runs against every packet that reaches it.
type Rule struct {
	Family      nlenc.ProtocolFamily
	table       optional.Value[string]
	chain       optional.Value[string]
	handle      optional.Value[uint64]
	expressions expr.List
	position    optional.Value[uint64]
	userdata    optional.Value[[]byte]
	id          optional.Value[uint32]
}

// NewRule returns a Rule in chain (inside table) with no expressions yet.
func NewRule(family nlenc.ProtocolFamily, table, chain string) *Rule {
	r := &Rule{Family: family}
	r.table.Set(table)
	r.chain.Set(chain)
	return r
}

// WithExpressions sets the rule's expression list, replacing any previous
// one.
func (r *Rule) WithExpressions(exprs ...expr.Expression) *Rule {
	r.expressions = expr.List(exprs)
	return r
}

// AppendExpressions appends exprs to the rule's existing expression list,
// letting package ruleutil's matcher helpers build a rule one matcher at
// a time instead of requiring the whole list up front.
func (r *Rule) AppendExpressions(exprs ...expr.Expression) *Rule {
	r.expressions = append(r.expressions, exprs...)
	return r
}

// WithHandle sets the kernel-assigned handle identifying this rule.
func (r *Rule) WithHandle(handle uint64) *Rule {
	r.handle.Set(handle)
	return r
}

// WithPosition inserts the rule immediately after the rule with this
// handle, instead of appending it to the chain.
func (r *Rule) WithPosition(position uint64) *Rule {
	r.position.Set(position)
	return r
}

// WithUserdata attaches an opaque userdata blob.
func (r *Rule) WithUserdata(userdata []byte) *Rule {
	r.userdata.Set(userdata)
	return r
}

// WithID assigns a transaction-scoped id other objects in the same batch
// can reference before the kernel has handed back a real handle.
func (r *Rule) WithID(id uint32) *Rule {
	r.id.Set(id)
	return r
}

// Table returns the rule's owning table name and whether it is set.
func (r *Rule) Table() (string, bool) { return r.table.Get() }

// Chain returns the rule's owning chain name and whether it is set.
func (r *Rule) Chain() (string, bool) { return r.chain.Get() }

// Handle returns the rule's kernel-assigned handle and whether it is set.
func (r *Rule) Handle() (uint64, bool) { return r.handle.Get() }

// Expressions returns the rule's expression list.
func (r *Rule) Expressions() expr.List { return r.expressions }

// Position returns the handle this rule is inserted after and whether one
// was requested.
func (r *Rule) Position() (uint64, bool) { return r.position.Get() }

// Userdata returns the rule's userdata blob and whether it is set.
func (r *Rule) Userdata() ([]byte, bool) { return r.userdata.Get() }

// ID returns the rule's transaction-scoped id and whether it is set.
func (r *Rule) ID() (uint32, bool) { return r.id.Get() }

func (r *Rule) WritePayload(b *nlattr.Builder) {
	if v, ok := r.table.Get(); ok {
		b.String(attrRuleTable, v)
	}
	if v, ok := r.chain.Get(); ok {
		b.String(attrRuleChain, v)
	}
	if v, ok := r.handle.Get(); ok {
		b.Uint64(attrRuleHandle, v)
	}
	if len(r.expressions) > 0 {
		b.Nested(attrRuleExpressions, r.expressions.WritePayload)
	}
	if v, ok := r.position.Get(); ok {
		b.Uint64(attrRulePosition, v)
	}
	if v, ok := r.userdata.Get(); ok {
		b.ByteVector(attrRuleUserdata, v)
	}
	if v, ok := r.id.Get(); ok {
		b.Uint32(attrRuleID, v)
	}
}

// AddOrRemove writes a NEWRULE or DELRULE message for r into w. Adding a
// rule always requests NLM_F_APPEND alongside the shared create/ack flags,
// since a rule with no explicit Position is appended to the end of its
// chain.
func (r *Rule) AddOrRemove(w *nlmsg.Writer, op nlmsg.Op, seq uint32) {
	addOrRemove(w, nlmsg.MsgNewRule, nlmsg.MsgDelRule, op, uint8(r.Family), seq, uint16(nlmsg.FlagAppend), r.WritePayload)
}

// DecodeRule decodes a rule object's body into a Rule.
func DecodeRule(family uint8, body []byte) (*Rule, error) {
	r := &Rule{Family: nlenc.ProtocolFamily(family)}
	err := nlattr.Decode(body, func(a nlattr.Attr) error {
		switch a.Type {
		case attrRuleTable:
			r.table.Set(nlenc.String(a.Payload))
		case attrRuleChain:
			r.chain.Set(nlenc.String(a.Payload))
		case attrRuleHandle:
			v, err := nlenc.Uint64(a.Payload)
			if err != nil {
				return err
			}
			r.handle.Set(v)
		case attrRuleExpressions:
			list, err := expr.DecodeList(a.Payload)
			if err != nil {
				return err
			}
			r.expressions = list
		case attrRulePosition:
			v, err := nlenc.Uint64(a.Payload)
			if err != nil {
				return err
			}
			r.position.Set(v)
		case attrRuleUserdata:
			r.userdata.Set(nlenc.ByteVector(a.Payload))
		case attrRuleID:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			r.id.Set(v)
		default:
			return fmt.Errorf("%w: rule attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
