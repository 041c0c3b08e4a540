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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mdlayher/netlink"
	"k8s.io/klog/v2"

	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlerr"
	"github.com/google/nftlink/nlmsg"
	"github.com/google/nftlink/nlparse"
)

// filterObject is satisfied by every nftables domain type; its payload is
// appended to a GET/DUMP request to narrow the kernel's reply.
type filterObject interface {
	WritePayload(b *nlattr.Builder)
}

// rawReply is one decodable payload message pulled out of the kernel's
// reply stream, still addressed by the subsystem header's family.
type rawReply struct {
	Family uint8
	Body   []byte
}

// dump sends a single DUMP request for msgType/family, optionally
// filtered by filter, and collects every payload message in the reply
// stream until DONE, an undump-able termination, or an error.
func (c *Conn) dump(msgType uint8, family uint8, filter filterObject) ([]rawReply, error) {
	start := time.Now()
	defer func() { c.metrics.ObserveDump(time.Since(start)) }()

	b := nlattr.NewBuilder()
	if filter != nil {
		filter.WritePayload(b)
	}

	const seq = 1
	req := netlink.Message{
		Header: netlink.Header{
			Type:     netlink.HeaderType(nlmsg.ComposeType(nlmsg.SubsysNftables, msgType)),
			Flags:    netlink.Request | netlink.Dump,
			Sequence: seq,
		},
		Data: withSubsysHeader(family, b.Bytes()),
	}

	if !c.deadline().IsZero() {
		if err := c.nlconn.SetDeadline(c.deadline()); err != nil {
			c.Close()
			return nil, fmt.Errorf("%w: setting deadline: %v", nlerr.ErrSocketSend, err)
		}
	}

	if _, err := c.nlconn.Send(req); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", nlerr.ErrSocketSend, err)
	}
	c.metrics.MessageSent()

	return c.receiveReplies()
}

// withSubsysHeader prepends the 4-byte nftables subsystem header (struct
// nfgenmsg) ahead of an attribute payload, the body mdlayher/netlink
// expects as Message.Data.
func withSubsysHeader(family uint8, payload []byte) []byte {
	body := make([]byte, nlmsg.SubsysHeaderLen+len(payload))
	body[0] = family
	body[1] = 0 // version
	// body[2:4] (ResID) is left zero; GET/DUMP requests don't set it.
	copy(body[nlmsg.SubsysHeaderLen:], payload)
	return body
}

// receiveReplies drives the receive loop described in design §4.I: read
// messages, classify each via package nlparse, accumulate payloads, and
// stop at DONE, an undecidable non-MULTI reply, or an error. The socket
// is always closed before returning, matching the close-on-every-exit-
// path requirement.
func (c *Conn) receiveReplies() ([]rawReply, error) {
	defer func() {
		if err := c.Close(); err != nil {
			klog.Warningf("query: closing netlink socket: %v", err)
		}
	}()

	var out []rawReply
	for {
		msgs, err := c.nlconn.Receive()
		if err != nil {
			return out, fmt.Errorf("%w: %v", nlerr.ErrSocketRecv, err)
		}
		for _, m := range msgs {
			raw := encodeRawMessage(m)
			c.metrics.BytesReceived(len(raw))

			parsed, _, err := nlparse.Parse(raw)
			if err != nil {
				c.metrics.DecodeError()
				return out, err
			}

			switch parsed.Kind {
			case nlparse.KindNoop:
				continue
			case nlparse.KindDone:
				return out, nil
			case nlparse.KindError:
				if parsed.Errno != 0 {
					return out, fmt.Errorf("%w: errno %d", nlerr.ErrKernel, parsed.Errno)
				}
				continue
			case nlparse.KindPayload:
				if parsed.Header.Flags&nlmsg.FlagMulti == 0 {
					out = append(out, rawReply{Family: parsed.Subsys.Family, Body: parsed.Body})
					return out, fmt.Errorf("%w", nlerr.ErrUndecidableTermination)
				}
				out = append(out, rawReply{Family: parsed.Subsys.Family, Body: parsed.Body})
			}
		}
	}
}

// encodeRawMessage re-serializes an already-split mdlayher/netlink
// message back into the raw nlmsghdr+body layout package nlparse expects,
// so the MULTI-flag/DONE/error classification logic lives in exactly one
// place (nlparse) instead of being duplicated here.
func encodeRawMessage(m netlink.Message) []byte {
	buf := make([]byte, nlmsg.HeaderLen+len(m.Data))
	binary.NativeEndian.PutUint32(buf[0:4], uint32(nlmsg.HeaderLen+len(m.Data)))
	binary.NativeEndian.PutUint16(buf[4:6], uint16(m.Header.Type))
	binary.NativeEndian.PutUint16(buf[6:8], uint16(m.Header.Flags))
	binary.NativeEndian.PutUint32(buf[8:12], m.Header.Sequence)
	binary.NativeEndian.PutUint32(buf[12:16], m.Header.PID)
	copy(buf[nlmsg.HeaderLen:], m.Data)
	return buf
}
