package nftables

import (
	"testing"

	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlmsg"
	"github.com/google/nftlink/nlparse"
)

// S7: a set element list of two IPv4Addr keys.
func TestSetElementListAddTwoKeys(t *testing.T) {
	list := NewSetElementList(nlenc.FamilyInet, "mocktable", "mockset",
		SetElement{Key: []byte{127, 0, 0, 1}},
		SetElement{Key: []byte{1, 1, 1, 1}},
	)

	w := nlmsg.NewWriter()
	list.AddOrRemove(w, nlmsg.OpAdd, 0)

	msg, _, err := nlparse.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Header.Len != 84 {
		t.Errorf("nlmsg_len = %d, want 84", msg.Header.Len)
	}
	_, msgType := nlmsg.SplitType(msg.Header.Type)
	if msgType != nlmsg.MsgNewSetElem {
		t.Errorf("msgType = %d, want MsgNewSetElem", msgType)
	}

	got, err := DecodeSetElementList(msg.Subsys.Family, msg.Body)
	if err != nil {
		t.Fatalf("DecodeSetElementList: %v", err)
	}
	if table, _ := got.Table(); table != "mocktable" {
		t.Errorf("Table = %q, want mocktable", table)
	}
	if set, _ := got.Set(); set != "mockset" {
		t.Errorf("Set = %q, want mockset", set)
	}
	elems := got.Elements()
	if len(elems) != 2 {
		t.Fatalf("len(Elements()) = %d, want 2", len(elems))
	}
	if string(elems[0].Key) != string([]byte{127, 0, 0, 1}) {
		t.Errorf("Elements()[0].Key = %v, want 127.0.0.1", elems[0].Key)
	}
	if string(elems[1].Key) != string([]byte{1, 1, 1, 1}) {
		t.Errorf("Elements()[1].Key = %v, want 1.1.1.1", elems[1].Key)
	}
}

// The Set object itself carries KEY_TYPE=7 (Ipv4Addr), KEY_LEN=4 for a set
// whose elements are the keys added above.
func TestSetElementListOwningSetKeyType(t *testing.T) {
	s := NewSet(nlenc.FamilyInet, "mocktable", "mockset", KeyTypeIPv4Addr, 4).WithID(123456)

	w := nlmsg.NewWriter()
	s.AddOrRemove(w, nlmsg.OpAdd, 0)

	msg, _, err := nlparse.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := DecodeSet(msg.Subsys.Family, msg.Body)
	if err != nil {
		t.Fatalf("DecodeSet: %v", err)
	}
	if kt, ok := got.KeyType(); !ok || kt != KeyTypeIPv4Addr {
		t.Errorf("KeyType = (%v, %v), want (7, true)", uint32(kt), ok)
	}
	if kl, ok := got.KeyLen(); !ok || kl != 4 {
		t.Errorf("KeyLen = (%d, %v), want (4, true)", kl, ok)
	}
	if id, ok := got.ID(); !ok || id != 123456 {
		t.Errorf("ID = (%d, %v), want (123456, true)", id, ok)
	}
}
