package core

import (
	"encoding/binary"
	"fmt"
)

// Codec errors. InvalidByteLength is returned when a fixed-width read runs
// past the end of the buffer; BytesInvalid covers unknown discriminants and
// otherwise malformed content. Both are distinguishable via errors.As.
type InvalidByteLength struct {
	Len      int
	Expected int
}

func (e *InvalidByteLength) Error() string {
	return fmt.Sprintf("codec: invalid byte length %d, expected %d", e.Len, e.Expected)
}

type BytesInvalid struct {
	Message string
}

func (e *BytesInvalid) Error() string {
	return fmt.Sprintf("codec: %s", e.Message)
}

// Encoder accumulates the canonical binary form of a persistable entity.
// Fixed-width integers are little-endian, variable-length sequences carry
// a 4-byte length prefix, and tagged unions lead with a 1-byte discriminant.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteTag(tag byte) {
	e.buf = append(e.buf, tag)
}

func (e *Encoder) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// WriteBytes writes a 4-byte length prefix followed by the payload.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) WriteString(s string) {
	e.WriteBytes([]byte(s))
}

// WriteRaw appends bytes produced by a child encoder without a length
// prefix; used when the child is self-delimiting (recursive types encode
// their children in source order and rely on decode-with-remainder).
func (e *Encoder) WriteRaw(b []byte) {
	e.buf = append(e.buf, b...)
}

// Decoder walks a canonical encoding left to right. Composite containers
// drive streaming decode by repeatedly calling a child's decode-with-
// remainder operation and feeding the returned remainder back in.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

func (d *Decoder) Remaining() []byte {
	return d.buf[d.pos:]
}

func (d *Decoder) ReadTag() (byte, error) {
	if d.pos+1 > len(d.buf) {
		return 0, &InvalidByteLength{Len: len(d.buf) - d.pos, Expected: 1}
	}
	t := d.buf[d.pos]
	d.pos++
	return t, nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, &InvalidByteLength{Len: len(d.buf) - d.pos, Expected: 4}
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, &InvalidByteLength{Len: len(d.buf) - d.pos, Expected: 8}
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *Decoder) ReadBool() (bool, error) {
	if d.pos+1 > len(d.buf) {
		return false, &InvalidByteLength{Len: len(d.buf) - d.pos, Expected: 1}
	}
	v := d.buf[d.pos] != 0
	d.pos++
	return v, nil
}

// ReadFixed reads exactly n bytes with no length prefix, for fields whose
// width is implied by the schema (a 32-byte EntityId, for instance).
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, &InvalidByteLength{Len: len(d.buf) - d.pos, Expected: n}
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	if d.pos+int(n) > len(d.buf) {
		return nil, &InvalidByteLength{Len: len(d.buf) - d.pos, Expected: int(n)}
	}
	out := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return out, nil
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encodable is implemented by every canonically-encodable entity.
type Encodable interface {
	Encode() []byte
}

// EntityIdOf computes the content address of any Encodable.
func EntityIdOf(e Encodable) EntityId {
	return EntityIdFromBytes(e.Encode())
}
