package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/nftlink/internal/optional"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

func roundTrip(t *testing.T, e Expression) Expression {
	t.Helper()
	raw := RawExpression{Expr: e}
	b := nlattr.NewBuilder()
	raw.WritePayload(b)
	if got, want := b.Len(), raw.Size(); got != want {
		t.Errorf("WritePayload wrote %d bytes, Size() reported %d", got, want)
	}
	got, err := DecodeRaw(b.Bytes())
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	return got
}

func TestCmpRoundTrip(t *testing.T) {
	want := NewCmp(CmpEq, Reg1, []byte{6})
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBitwiseRoundTrip(t *testing.T) {
	want, err := NewBitwise(Reg1, Reg1, []byte{0xff, 0xff, 0xff, 0}, []byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("NewBitwise: %v", err)
	}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBitwiseLengthMismatch(t *testing.T) {
	_, err := NewBitwise(Reg1, Reg1, []byte{1, 2}, []byte{1})
	if !errors.Is(err, nlerr.ErrOperandLengthMismatch) {
		t.Errorf("NewBitwise error = %v, want ErrOperandLengthMismatch", err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	want := NewMeta(Reg1, MetaL4proto)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMetaSetRoundTrip(t *testing.T) {
	want := NewMetaSet(MetaMark, Reg1)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCtRoundTrip(t *testing.T) {
	want := NewCt(Reg1, CtKeyState)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCtRoundTripWithDirection(t *testing.T) {
	want := NewCt(Reg1, CtKeyState).WithDirection(1)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCtSetRoundTrip(t *testing.T) {
	want := NewCtSet(CtKeyMark, Reg1)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	want := NewPayload(Reg1, PayloadBaseTransport, 2, 2)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImmediateValueRoundTrip(t *testing.T) {
	want := NewImmediateValue(Reg1, []byte{1, 2, 3, 4})
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImmediateVerdictRoundTrip(t *testing.T) {
	want := NewImmediateVerdict(VerdictAccept, "")
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImmediateJumpCarriesChain(t *testing.T) {
	want := NewImmediateVerdict(VerdictJump, "forwarded")
	got := roundTrip(t, want)
	imGot, ok := got.(*Immediate)
	if !ok {
		t.Fatalf("got %T, want *Immediate", got)
	}
	if imGot.Verdict == nil || imGot.Verdict.Chain != "forwarded" {
		t.Errorf("Verdict = %+v, want chain %q", imGot.Verdict, "forwarded")
	}
}

func TestCounterRoundTrip(t *testing.T) {
	want := &Counter{Bytes: 1024, Packets: 8}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRejectRoundTrip(t *testing.T) {
	want := &Reject{Type: RejectTCPReset}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNatRoundTrip(t *testing.T) {
	want := &Nat{Type: NatSource, Family: nlenc.FamilyInet}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNatRoundTripWithRegisters(t *testing.T) {
	want := &Nat{
		Type:        NatDestination,
		Family:      nlenc.FamilyInet,
		RegAddrMin:  optional.Of(Reg1),
		RegProtoMin: optional.Of(Reg2),
	}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMasqueradeRoundTrip(t *testing.T) {
	want := &Masquerade{}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMasqueradeRoundTripWithFlags(t *testing.T) {
	want := &Masquerade{
		Flags:       optional.Of(uint32(1)),
		RegProtoMin: optional.Of(Reg2),
	}
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupRoundTrip(t *testing.T) {
	want := NewLookup("myset", Reg1)
	got := roundTrip(t, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLogRoundTrip(t *testing.T) {
	want, err := NewLog("mockprefix ")
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	got := roundTrip(t, want)
	logGot, ok := got.(*Log)
	if !ok {
		t.Fatalf("got %T, want *Log", got)
	}
	if v, ok := logGot.Prefix.Get(); !ok || v != "mockprefix " {
		t.Errorf("Prefix = (%q, %v), want (%q, true)", v, ok, "mockprefix ")
	}
}

func TestLogPrefixTooLong(t *testing.T) {
	prefix := make([]byte, maxLogPrefix+1)
	for i := range prefix {
		prefix[i] = 'a'
	}
	_, err := NewLog(string(prefix))
	if !errors.Is(err, nlerr.ErrLogPrefixTooLong) {
		t.Errorf("NewLog error = %v, want ErrLogPrefixTooLong", err)
	}
}

func TestDecodeRawUnknownName(t *testing.T) {
	b := nlattr.NewBuilder()
	b.String(attrExprName, "notarealexpression")
	b.Nested(attrExprData, func(inner *nlattr.Builder) {
		inner.Uint32(1, 0xdeadbeef)
	})
	got, err := DecodeRaw(b.Bytes())
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	u, ok := got.(*Unknown)
	if !ok {
		t.Fatalf("got %T, want *Unknown", got)
	}
	if u.Name() != "notarealexpression" {
		t.Errorf("Name() = %q, want notarealexpression", u.Name())
	}
}

func TestUnknownCannotReencode(t *testing.T) {
	u := &Unknown{RawName: "notarealexpression", RawData: []byte{1, 2, 3}}
	defer func() {
		if recover() == nil {
			t.Error("writeData on Unknown did not panic")
		}
	}()
	u.writeData(nlattr.NewBuilder())
}

func TestListRoundTrip(t *testing.T) {
	want := List{
		NewMeta(Reg1, MetaL4proto),
		NewCmp(CmpEq, Reg1, []byte{6}),
	}
	b := nlattr.NewBuilder()
	want.WritePayload(b)
	if got := b.Len(); got != want.Size() {
		t.Errorf("WritePayload wrote %d bytes, Size() reported %d", got, want.Size())
	}
	got, err := DecodeList(b.Bytes())
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("DecodeList returned %d expressions, want %d", len(got), len(want))
	}
	if diff := cmp.Diff(want[0], got[0]); diff != "" {
		t.Errorf("expression 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[1], got[1]); diff != "" {
		t.Errorf("expression 1 mismatch (-want +got):\n%s", diff)
	}
}
