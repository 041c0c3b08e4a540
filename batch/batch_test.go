package batch

import (
	"testing"

	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlmsg"
	"github.com/google/nftlink/nlparse"
	"github.com/google/nftlink/nftables"
)

// S3: ten alternating add/del tables bracketed by BEGIN/END.
func TestBatchAlternatingAddDel(t *testing.T) {
	b := New()
	for i := 0; i < 10; i++ {
		tbl := nftables.NewTable(nlenc.FamilyInet, "mocktable").WithUserdata([]byte{byte(i)})
		op := nlmsg.OpAdd
		if i%2 != 0 {
			op = nlmsg.OpDel
		}
		b.Add(tbl, op)
	}
	buf := b.Finalize()

	msgs, err := nlparse.ParseAll(buf)
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(msgs) != 12 {
		t.Fatalf("ParseAll returned %d messages, want 12 (BEGIN + 10 + END)", len(msgs))
	}

	begin := msgs[0]
	if begin.Header.Seq != 0 {
		t.Errorf("BEGIN seq = %d, want 0", begin.Header.Seq)
	}
	if begin.Kind != nlparse.KindBatchBegin {
		t.Errorf("BEGIN Kind = %v, want KindBatchBegin", begin.Kind)
	}
	subsys, msgType := nlmsg.SplitType(begin.Header.Type)
	if subsys != nlmsg.SubsysNone || msgType != nlmsg.BatchBegin {
		t.Errorf("BEGIN type = subsys %d/msg %d, want %d/%d", subsys, msgType, nlmsg.SubsysNone, nlmsg.BatchBegin)
	}

	for i := 0; i < 10; i++ {
		m := msgs[1+i]
		if m.Header.Seq != uint32(i+1) {
			t.Errorf("object %d seq = %d, want %d", i, m.Header.Seq, i+1)
		}
		_, mt := nlmsg.SplitType(m.Header.Type)
		wantType := uint8(nlmsg.MsgNewTable)
		if i%2 != 0 {
			wantType = nlmsg.MsgDelTable
		}
		if mt != wantType {
			t.Errorf("object %d msgType = %d, want %d", i, mt, wantType)
		}
		got, err := nftables.DecodeTable(m.Subsys.Family, m.Body)
		if err != nil {
			t.Fatalf("object %d: DecodeTable: %v", i, err)
		}
		if name, _ := got.Name(); name != "mocktable" {
			t.Errorf("object %d: Name = %q, want mocktable", i, name)
		}
		if data, ok := got.Userdata(); !ok || len(data) != 1 || data[0] != byte(i) {
			t.Errorf("object %d: Userdata = (%v, %v), want ([%d], true)", i, data, ok, i)
		}
	}

	end := msgs[11]
	if end.Header.Seq != 11 {
		t.Errorf("END seq = %d, want 11", end.Header.Seq)
	}
	if end.Kind != nlparse.KindBatchEnd {
		t.Errorf("END Kind = %v, want KindBatchEnd", end.Kind)
	}
	subsys, msgType = nlmsg.SplitType(end.Header.Type)
	if subsys != nlmsg.SubsysNone || msgType != nlmsg.BatchEnd {
		t.Errorf("END type = subsys %d/msg %d, want %d/%d", subsys, msgType, nlmsg.SubsysNone, nlmsg.BatchEnd)
	}
}
