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
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlmsg"
)

// addOrRemove writes one complete NEW*/DEL* object message: header, body
// attributes, and length patch, in the add/delete flag convention the
// design settles on for every object type (component F): add messages
// request creation and an ack, delete messages request only an ack.
// extraAddFlags lets Rule fold in NLM_F_APPEND without a second code path.
func addOrRemove(w *nlmsg.Writer, newType, delType uint8, op nlmsg.Op, family uint8, seq uint32, extraAddFlags uint16, write func(*nlattr.Builder)) {
	msgType := delType
	flags := uint16(nlmsg.FlagAck)
	if op == nlmsg.OpAdd {
		msgType = newType
		flags = uint16(nlmsg.FlagCreate) | uint16(nlmsg.FlagAck) | extraAddFlags
	}

	w.WriteHeader(nlmsg.ComposeType(nlmsg.SubsysNftables, msgType), family, flags, seq, 0)
	b := nlattr.NewBuilder()
	write(b)
	w.WritePayload(b.Bytes())
	w.FinalizeObject()
}
