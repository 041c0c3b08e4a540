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

package query

import (
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlmsg"
	"github.com/google/nftlink/nftables"
)

// Tables runs a DUMP for every table in family, optionally narrowed by
// filter (pass nil for no filter).
func (c *Conn) Tables(family nlenc.ProtocolFamily, filter *nftables.Table) ([]*nftables.Table, error) {
	var fo filterObject
	if filter != nil {
		fo = filter
	}
	replies, err := c.dump(nlmsg.MsgGetTable, uint8(family), fo)
	if err != nil {
		return nil, err
	}
	out := make([]*nftables.Table, 0, len(replies))
	for _, r := range replies {
		t, err := nftables.DecodeTable(r.Family, r.Body)
		if err != nil {
			c.metrics.DecodeError()
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Chains runs a DUMP for every chain in family, optionally narrowed by
// filter (pass nil for no filter).
func (c *Conn) Chains(family nlenc.ProtocolFamily, filter *nftables.Chain) ([]*nftables.Chain, error) {
	var fo filterObject
	if filter != nil {
		fo = filter
	}
	replies, err := c.dump(nlmsg.MsgGetChain, uint8(family), fo)
	if err != nil {
		return nil, err
	}
	out := make([]*nftables.Chain, 0, len(replies))
	for _, r := range replies {
		ch, err := nftables.DecodeChain(r.Family, r.Body)
		if err != nil {
			c.metrics.DecodeError()
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// Rules runs a DUMP for every rule in family, optionally narrowed by
// filter (pass nil for no filter).
func (c *Conn) Rules(family nlenc.ProtocolFamily, filter *nftables.Rule) ([]*nftables.Rule, error) {
	var fo filterObject
	if filter != nil {
		fo = filter
	}
	replies, err := c.dump(nlmsg.MsgGetRule, uint8(family), fo)
	if err != nil {
		return nil, err
	}
	out := make([]*nftables.Rule, 0, len(replies))
	for _, r := range replies {
		ru, err := nftables.DecodeRule(r.Family, r.Body)
		if err != nil {
			c.metrics.DecodeError()
			return nil, err
		}
		out = append(out, ru)
	}
	return out, nil
}

// Sets runs a DUMP for every set in family, optionally narrowed by filter
// (pass nil for no filter).
func (c *Conn) Sets(family nlenc.ProtocolFamily, filter *nftables.Set) ([]*nftables.Set, error) {
	var fo filterObject
	if filter != nil {
		fo = filter
	}
	replies, err := c.dump(nlmsg.MsgGetSet, uint8(family), fo)
	if err != nil {
		return nil, err
	}
	out := make([]*nftables.Set, 0, len(replies))
	for _, r := range replies {
		s, err := nftables.DecodeSet(r.Family, r.Body)
		if err != nil {
			c.metrics.DecodeError()
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SetElements runs a DUMP of a set's elements, optionally narrowed by
// filter (pass nil for no filter; in practice the kernel requires at
// least the owning table/set names to be set to identify which set to
// dump).
func (c *Conn) SetElements(family nlenc.ProtocolFamily, filter *nftables.SetElementList) ([]*nftables.SetElementList, error) {
	var fo filterObject
	if filter != nil {
		fo = filter
	}
	replies, err := c.dump(nlmsg.MsgGetSetElem, uint8(family), fo)
	if err != nil {
		return nil, err
	}
	out := make([]*nftables.SetElementList, 0, len(replies))
	for _, r := range replies {
		l, err := nftables.DecodeSetElementList(r.Family, r.Body)
		if err != nil {
			c.metrics.DecodeError()
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
