package nftables

import (
	"bytes"
	"testing"

	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlmsg"
	"github.com/google/nftlink/nlparse"
)

// S1: empty table add.
func TestTableAddEmpty(t *testing.T) {
	tbl := NewTable(nlenc.FamilyInet, "mocktable").WithFlags(0)

	w := nlmsg.NewWriter()
	tbl.AddOrRemove(w, nlmsg.OpAdd, 0)

	buf := w.Bytes()
	msg, _, err := nlparse.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Header.Len != 44 {
		t.Errorf("nlmsg_len = %d, want 44", msg.Header.Len)
	}
	subsys, msgType := nlmsg.SplitType(msg.Header.Type)
	if subsys != nlmsg.SubsysNftables || msgType != nlmsg.MsgNewTable {
		t.Errorf("type = subsys %d/msg %d, want %d/%d", subsys, msgType, nlmsg.SubsysNftables, nlmsg.MsgNewTable)
	}
	if msg.Subsys.Family != uint8(nlenc.FamilyInet) {
		t.Errorf("nfgen_family = %d, want %d", msg.Subsys.Family, nlenc.FamilyInet)
	}

	got, err := DecodeTable(msg.Subsys.Family, msg.Body)
	if err != nil {
		t.Fatalf("DecodeTable: %v", err)
	}
	if name, _ := got.Name(); name != "mocktable" {
		t.Errorf("Name = %q, want mocktable", name)
	}
	if flags, ok := got.Flags(); !ok || flags != 0 {
		t.Errorf("Flags = (%d, %v), want (0, true)", flags, ok)
	}
}

// S2: table round-trip with userdata.
func TestTableRoundTripUserdata(t *testing.T) {
	tbl := NewTable(nlenc.FamilyInet, "mocktable").WithFlags(0).WithUserdata([]byte("mocktabledata"))

	w := nlmsg.NewWriter()
	tbl.AddOrRemove(w, nlmsg.OpAdd, 0)

	msg, _, err := nlparse.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Header.Len != 64 {
		t.Errorf("nlmsg_len = %d, want 64", msg.Header.Len)
	}

	got, err := DecodeTable(msg.Subsys.Family, msg.Body)
	if err != nil {
		t.Fatalf("DecodeTable: %v", err)
	}
	if name, _ := got.Name(); name != "mocktable" {
		t.Errorf("Name = %q, want mocktable", name)
	}
	if flags, ok := got.Flags(); !ok || flags != 0 {
		t.Errorf("Flags = (%d, %v), want (0, true)", flags, ok)
	}
	wantData, _ := tbl.Userdata()
	gotData, ok := got.Userdata()
	if !ok || !bytes.Equal(gotData, wantData) {
		t.Errorf("Userdata = (%q, %v), want (%q, true)", gotData, ok, wantData)
	}
	if got.Family != tbl.Family {
		t.Errorf("Family = %v, want %v", got.Family, tbl.Family)
	}
}

// S4: empty rule.
func TestRuleAddEmpty(t *testing.T) {
	r := NewRule(nlenc.FamilyInet, "mocktable", "mockchain")

	w := nlmsg.NewWriter()
	r.AddOrRemove(w, nlmsg.OpAdd, 0)

	msg, _, err := nlparse.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Header.Len != 52 {
		t.Errorf("nlmsg_len = %d, want 52", msg.Header.Len)
	}
	wantFlags := uint16(nlmsg.FlagCreate) | uint16(nlmsg.FlagAppend) | uint16(nlmsg.FlagAck)
	if msg.Header.Flags&wantFlags != wantFlags {
		t.Errorf("flags = %#x, want to include CREATE|APPEND|ACK (%#x)", msg.Header.Flags, wantFlags)
	}

	got, err := DecodeRule(msg.Subsys.Family, msg.Body)
	if err != nil {
		t.Fatalf("DecodeRule: %v", err)
	}
	if table, _ := got.Table(); table != "mocktable" {
		t.Errorf("Table = %q, want mocktable", table)
	}
	if chain, _ := got.Chain(); chain != "mockchain" {
		t.Errorf("Chain = %q, want mockchain", chain)
	}
}

func TestTableDelUsesAckOnly(t *testing.T) {
	tbl := NewTable(nlenc.FamilyInet, "mocktable")

	w := nlmsg.NewWriter()
	tbl.AddOrRemove(w, nlmsg.OpDel, 5)

	msg, _, err := nlparse.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, msgType := nlmsg.SplitType(msg.Header.Type)
	if msgType != nlmsg.MsgDelTable {
		t.Errorf("msgType = %d, want MsgDelTable (%d)", msgType, nlmsg.MsgDelTable)
	}
	if msg.Header.Flags&uint16(nlmsg.FlagCreate) != 0 {
		t.Errorf("flags = %#x, DEL must not set CREATE", msg.Header.Flags)
	}
	if msg.Header.Flags&uint16(nlmsg.FlagAck) == 0 {
		t.Errorf("flags = %#x, DEL must set ACK", msg.Header.Flags)
	}
}
