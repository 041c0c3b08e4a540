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

package nlmsg

import "encoding/binary"

// Writer appends netlink messages to a single growing buffer, the way
// batch.Batch needs to when it concatenates many ADD/DEL requests into
// one transactional write. It tracks at most one "open" object at a time
// so that AddDataZeroed can patch that object's nlmsg_len as payload is
// appended, mirroring the design's add-data-zeroed/finalize-object pair.
type Writer struct {
	buf     []byte
	openHdr int // offset of the currently open nlmsg header, -1 if none
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{openHdr: -1}
}

// Bytes returns the buffer accumulated so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len reports the current buffer length.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteHeader appends a zeroed netlink header followed by a zeroed
// subsystem header, then fills both in: nlmsg_len starts at
// HeaderLen+SubsysHeaderLen (grown later by AddDataZeroed), nlmsg_type is
// typ (already composed via ComposeType), nlmsg_flags is FlagRequest|flags,
// and the subsystem header carries family/version=0/resID.
//
// Calling WriteHeader while another object is still open does not return
// an error: the previously open object is simply no longer reachable for
// length patching. Callers should call FinalizeObject between objects;
// forgetting to is a logic bug in this package's callers, not a malformed
// wire condition, so it is not worth a hard failure here.
func (w *Writer) WriteHeader(typ uint16, family uint8, flags uint16, seq uint32, resID uint16) {
	hdrOff := len(w.buf)
	w.buf = append(w.buf, make([]byte, HeaderLen+SubsysHeaderLen)...)

	h := Header{
		Len:   uint32(HeaderLen + SubsysHeaderLen),
		Type:  typ,
		Flags: uint16(FlagRequest) | flags,
		Seq:   seq,
		Pid:   0,
	}
	h.encodeInto(w.buf[hdrOff : hdrOff+HeaderLen])

	s := SubsysHeader{Family: family, Version: 0, ResID: resID}
	s.encodeInto(w.buf[hdrOff+HeaderLen : hdrOff+HeaderLen+SubsysHeaderLen])

	w.openHdr = hdrOff
}

// AddDataZeroed reserves pad4(n) zero bytes at the end of the buffer. If
// an object is currently open, its nlmsg_len is incremented by the padded
// amount. It returns a mutable slice of exactly n bytes (not the padding)
// for the caller to fill; the pad bytes are left zero.
func (w *Writer) AddDataZeroed(n int) []byte {
	padded := pad4(n)
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, padded)...)
	if w.openHdr >= 0 {
		cur := binary.NativeEndian.Uint32(w.buf[w.openHdr : w.openHdr+4])
		binary.NativeEndian.PutUint32(w.buf[w.openHdr:w.openHdr+4], cur+uint32(padded))
	}
	return w.buf[start : start+n]
}

// WritePayload is a convenience wrapper around AddDataZeroed that copies
// payload in directly.
func (w *Writer) WritePayload(payload []byte) {
	dst := w.AddDataZeroed(len(payload))
	copy(dst, payload)
}

// FinalizeObject clears the open-object record. Any further AddDataZeroed
// call no longer extends the length field of the message just closed.
func (w *Writer) FinalizeObject() {
	w.openHdr = -1
}
