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

// Package batch assembles the BEGIN/objects/END transaction nftables
// expects its netlink writes wrapped in: the kernel only commits an ADD or
// DEL if it arrives between NFNL_MSG_BATCH_BEGIN and NFNL_MSG_BATCH_END
// control messages, both namespaced under NFNL_SUBSYS_NONE rather than the
// nftables subsystem itself.
package batch

import (
	"github.com/google/nftlink/nlmsg"
)

// Object is anything a Batch can append: every domain type in package
// nftables (Table, Chain, Rule, Set, SetElementList) implements it.
type Object interface {
	AddOrRemove(w *nlmsg.Writer, op nlmsg.Op, seq uint32)
}

// Batch accumulates a sequence of object writes bracketed by BEGIN/END
// control messages, assigning each message a monotonically increasing
// sequence number starting at zero so replies can be matched back to
// requests in order.
type Batch struct {
	w   *nlmsg.Writer
	seq uint32
}

// New returns a Batch with its BEGIN control message already written.
func New() *Batch {
	b := &Batch{w: nlmsg.NewWriter()}
	b.writeControl(nlmsg.BatchBegin)
	return b
}

// Add appends obj's ADD or DEL message to the batch.
func (b *Batch) Add(obj Object, op nlmsg.Op) {
	obj.AddOrRemove(b.w, op, b.nextSeq())
}

// Finalize appends the END control message and returns the complete
// buffer, ready to be sent over a netlink socket in one write.
func (b *Batch) Finalize() []byte {
	b.writeControl(nlmsg.BatchEnd)
	return b.w.Bytes()
}

func (b *Batch) writeControl(msgType uint8) {
	// Batch control messages carry AF_UNSPEC in the family byte and the
	// nftables subsystem id in the subsystem header's res_id field, per
	// linux/netfilter/nfnetlink.h; they have no attribute body.
	b.w.WriteHeader(nlmsg.ComposeType(nlmsg.SubsysNone, msgType), 0, 0, b.nextSeq(), uint16(nlmsg.SubsysNftables))
	b.w.FinalizeObject()
}

func (b *Batch) nextSeq() uint32 {
	seq := b.seq
	b.seq++
	return seq
}
