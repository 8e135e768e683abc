package core_test

import (
	"testing"

	core "causality/core"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := core.NewEncoder()
	e.WriteTag(7)
	e.WriteUint32(123456)
	e.WriteUint64(98765432100)
	e.WriteBool(true)
	e.WriteBytes([]byte("payload"))
	e.WriteString("a string")

	d := core.NewDecoder(e.Bytes())

	tag, err := d.ReadTag()
	if err != nil || tag != 7 {
		t.Fatalf("tag: %v %v", tag, err)
	}
	u32, err := d.ReadUint32()
	if err != nil || u32 != 123456 {
		t.Fatalf("u32: %v %v", u32, err)
	}
	u64, err := d.ReadUint64()
	if err != nil || u64 != 98765432100 {
		t.Fatalf("u64: %v %v", u64, err)
	}
	b, err := d.ReadBool()
	if err != nil || !b {
		t.Fatalf("bool: %v %v", b, err)
	}
	payload, err := d.ReadBytes()
	if err != nil || string(payload) != "payload" {
		t.Fatalf("bytes: %s %v", payload, err)
	}
	s, err := d.ReadString()
	if err != nil || s != "a string" {
		t.Fatalf("string: %s %v", s, err)
	}
	if len(d.Remaining()) != 0 {
		t.Fatalf("expected no trailing bytes, got %d", len(d.Remaining()))
	}
}

func TestDecoderTruncatedBufferErrors(t *testing.T) {
	d := core.NewDecoder([]byte{1, 2})
	if _, err := d.ReadUint64(); err == nil {
		t.Fatalf("expected truncated read to error")
	}
}

func TestReadFixed(t *testing.T) {
	e := core.NewEncoder()
	e.WriteRaw(make([]byte, 32))
	e.WriteTag(9)
	d := core.NewDecoder(e.Bytes())
	fixed, err := d.ReadFixed(32)
	if err != nil || len(fixed) != 32 {
		t.Fatalf("ReadFixed: %v %v", len(fixed), err)
	}
	tag, err := d.ReadTag()
	if err != nil || tag != 9 {
		t.Fatalf("expected tag 9 after fixed read, got %v %v", tag, err)
	}
}
