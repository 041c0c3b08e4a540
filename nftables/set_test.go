package nftables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlmsg"
	"github.com/google/nftlink/nlparse"
)

func TestSetRoundTrip(t *testing.T) {
	s := NewSet(nlenc.FamilyInet, "mocktable", "mockset", KeyTypeIPv4Addr, 4).WithFlags(0)

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
	if diff := cmp.Diff(s, got, cmp.AllowUnexported(Set{})); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
	if kt, ok := got.KeyType(); !ok || kt != KeyTypeIPv4Addr {
		t.Errorf("KeyType = (%v, %v), want (KeyTypeIPv4Addr, true)", kt, ok)
	}
	if kl, ok := got.KeyLen(); !ok || kl != 4 {
		t.Errorf("KeyLen = (%d, %v), want (4, true)", kl, ok)
	}
}

func TestSetDelUsesAckOnly(t *testing.T) {
	s := NewSet(nlenc.FamilyInet, "mocktable", "mockset", KeyTypeIPv4Addr, 4)

	w := nlmsg.NewWriter()
	s.AddOrRemove(w, nlmsg.OpDel, 0)

	msg, _, err := nlparse.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, msgType := nlmsg.SplitType(msg.Header.Type)
	if msgType != nlmsg.MsgDelSet {
		t.Errorf("msgType = %d, want MsgDelSet", msgType)
	}
}
