package nlmsg

import (
	"encoding/binary"
	"testing"
)

func TestComposeSplitType(t *testing.T) {
	composed := ComposeType(SubsysNftables, MsgNewTable)
	subsys, msgType := SplitType(composed)
	if subsys != SubsysNftables || msgType != MsgNewTable {
		t.Errorf("SplitType(ComposeType(%d, %d)) = (%d, %d)", SubsysNftables, MsgNewTable, subsys, msgType)
	}
}

func TestWriterEmptyHeader(t *testing.T) {
	w := NewWriter()
	w.WriteHeader(ComposeType(SubsysNftables, MsgNewTable), 1, uint16(FlagCreate)|uint16(FlagAck), 7, 0)
	w.FinalizeObject()

	buf := w.Bytes()
	if len(buf) != HeaderLen+SubsysHeaderLen {
		t.Fatalf("buf len = %d, want %d", len(buf), HeaderLen+SubsysHeaderLen)
	}
	h := decodeHeader(buf)
	if h.Len != uint32(HeaderLen+SubsysHeaderLen) {
		t.Errorf("nlmsg_len = %d, want %d", h.Len, HeaderLen+SubsysHeaderLen)
	}
	wantFlags := uint16(FlagRequest) | uint16(FlagCreate) | uint16(FlagAck)
	if h.Flags != wantFlags {
		t.Errorf("flags = %#x, want %#x", h.Flags, wantFlags)
	}
	if h.Seq != 7 {
		t.Errorf("seq = %d, want 7", h.Seq)
	}
	s := decodeSubsysHeader(buf[HeaderLen:])
	if s.Family != 1 {
		t.Errorf("family = %d, want 1", s.Family)
	}
}

func TestWriterPatchesLenAsPayloadGrows(t *testing.T) {
	w := NewWriter()
	w.WriteHeader(ComposeType(SubsysNftables, MsgNewTable), 1, 0, 1, 0)
	w.WritePayload([]byte{1, 2, 3}) // padded to 4
	w.WritePayload([]byte{4, 5, 6, 7, 8})  // padded to 8
	w.FinalizeObject()

	h := decodeHeader(w.Bytes())
	want := uint32(HeaderLen + SubsysHeaderLen + 4 + 8)
	if h.Len != want {
		t.Errorf("nlmsg_len = %d, want %d", h.Len, want)
	}
	if len(w.Bytes()) != int(want) {
		t.Errorf("buffer len = %d, want %d", len(w.Bytes()), want)
	}
}

func TestWriterFinalizeStopsPatching(t *testing.T) {
	w := NewWriter()
	w.WriteHeader(ComposeType(SubsysNftables, MsgNewTable), 1, 0, 1, 0)
	w.FinalizeObject()
	lenAfterFirst := decodeHeader(w.Bytes()).Len

	// A second object's AddDataZeroed must not reach back into the first
	// header once it has been finalized.
	w.WriteHeader(ComposeType(SubsysNftables, MsgNewChain), 1, 0, 2, 0)
	w.WritePayload([]byte{1, 2, 3, 4})
	w.FinalizeObject()

	firstHdr := decodeHeader(w.Bytes()[0:])
	if firstHdr.Len != lenAfterFirst {
		t.Errorf("first object's nlmsg_len changed to %d after writing a second object, want unchanged %d", firstHdr.Len, lenAfterFirst)
	}
}

func TestMultipleObjectsConcatenate(t *testing.T) {
	w := NewWriter()
	w.WriteHeader(ComposeType(SubsysNftables, MsgNewTable), 1, 0, 1, 0)
	w.FinalizeObject()
	firstLen := w.Len()

	w.WriteHeader(ComposeType(SubsysNftables, MsgNewChain), 1, 0, 2, 0)
	w.FinalizeObject()

	if w.Len() != 2*firstLen {
		t.Errorf("total len = %d, want %d (two identical-size empty objects)", w.Len(), 2*firstLen)
	}
	second := decodeHeader(w.Bytes()[firstLen:])
	if second.Seq != 2 {
		t.Errorf("second object seq = %d, want 2", second.Seq)
	}
}

func TestHeaderNativeEndian(t *testing.T) {
	w := NewWriter()
	w.WriteHeader(ComposeType(SubsysNftables, MsgNewTable), 1, 0, 0x11223344, 0)
	w.FinalizeObject()
	if got := binary.NativeEndian.Uint32(w.Bytes()[8:12]); got != 0x11223344 {
		t.Errorf("seq field = %#x, want %#x", got, 0x11223344)
	}
}
