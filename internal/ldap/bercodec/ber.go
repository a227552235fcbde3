// Package bercodec implements the streaming BER encoder/decoder for the
// NSDS50ReplicationEntry payload grammar (spec §4.2, C2): the wire format
// replicated entries travel in between directory servers.
package bercodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Universal BER tags used by the replicated-entry grammar. The grammar
// only ever needs these five.
const (
	TagBoolean    = 0x01
	TagOctetStr   = 0x04
	TagEnumerated = 0x0A
	TagSequence   = 0x30
	TagSet        = 0x31
)

// writeTLV writes tag, its BER length (short or long form), then data.
func writeTLV(buf *bytes.Buffer, tag byte, data []byte) error {
	if err := buf.WriteByte(tag); err != nil {
		return fmt.Errorf("bercodec: write tag: %w", err)
	}
	if err := writeLength(buf, len(data)); err != nil {
		return err
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("bercodec: write value: %w", err)
	}
	return nil
}

func writeLength(buf *bytes.Buffer, n int) error {
	if n < 0x80 {
		return buf.WriteByte(byte(n))
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(n))
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	lenBytes := tmp[i:]
	if err := buf.WriteByte(0x80 | byte(len(lenBytes))); err != nil {
		return fmt.Errorf("bercodec: write long length header: %w", err)
	}
	if _, err := buf.Write(lenBytes); err != nil {
		return fmt.Errorf("bercodec: write long length: %w", err)
	}
	return nil
}

// WriteOctetString writes an OCTET STRING TLV.
func WriteOctetString(buf *bytes.Buffer, v []byte) error {
	return writeTLV(buf, TagOctetStr, v)
}

// WriteBoolean writes a BOOLEAN TLV.
func WriteBoolean(buf *bytes.Buffer, v bool) error {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return writeTLV(buf, TagBoolean, []byte{b})
}

// WriteEnumerated writes an ENUMERATED TLV holding a single-byte value.
func WriteEnumerated(buf *bytes.Buffer, v int) error {
	if v < 0 || v > 0xFF {
		return fmt.Errorf("bercodec: enumerated value %d out of range", v)
	}
	return writeTLV(buf, TagEnumerated, []byte{byte(v)})
}

// EncodeConstructed returns a complete constructed TLV: tag, the length
// of content, then content.
//
// Since the grammar only ever nests one or two levels deep and each
// SEQUENCE/SET's content is produced by recursively encoding into a
// scratch buffer first, encoders in this package build constructed
// values bottom-up with EncodeConstructed rather than patch length
// fields in place — simpler to reason about and to keep all-or-nothing.
func EncodeConstructed(tag byte, content []byte) []byte {
	var buf bytes.Buffer
	_ = writeTLV(&buf, tag, content)
	return buf.Bytes()
}

// Reader streams TLV elements from a BER buffer, supporting the
// peek-tag lookahead the grammar's optional fields need. Each
// constructed value is decoded into its own Reader scoped exactly to its
// content (see EnterConstructed), so Len()==0 always means "this scope is
// exhausted".
type Reader struct {
	r *bytes.Reader
}

// NewReader wraps buf for decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{r: bytes.NewReader(buf)}
}

// PeekTag returns the next tag byte without consuming it, or io.EOF if
// the current scope is exhausted.
func (d *Reader) PeekTag() (byte, error) {
	if d.r.Len() == 0 {
		return 0, io.EOF
	}
	tag, err := d.r.ReadByte()
	if err != nil {
		return 0, io.EOF
	}
	if err := d.r.UnreadByte(); err != nil {
		return 0, fmt.Errorf("bercodec: unread tag: %w", err)
	}
	return tag, nil
}

func (d *Reader) readLength() (int, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("bercodec: truncated length: %w", err)
	}
	if b < 0x80 {
		return int(b), nil
	}
	n := int(b & 0x7F)
	if n == 0 || n > 8 {
		return 0, fmt.Errorf("bercodec: invalid long-form length byte 0x%02x", b)
	}
	var tmp [8]byte
	if _, err := io.ReadFull(d.r, tmp[8-n:]); err != nil {
		return 0, fmt.Errorf("bercodec: truncated long length: %w", err)
	}
	return int(binary.BigEndian.Uint64(tmp[:])), nil
}

// ReadTLV reads one tag + length + value, verifying tag matches want.
func (d *Reader) ReadTLV(want byte) ([]byte, error) {
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("bercodec: truncated tag: %w", err)
	}
	if tag != want {
		return nil, fmt.Errorf("bercodec: expected tag 0x%02x, got 0x%02x", want, tag)
	}
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	val := make([]byte, n)
	if _, err := io.ReadFull(d.r, val); err != nil {
		return nil, fmt.Errorf("bercodec: truncated value (want %d bytes): %w", n, err)
	}
	return val, nil
}

// ReadOctetString reads an OCTET STRING TLV.
func (d *Reader) ReadOctetString() ([]byte, error) {
	return d.ReadTLV(TagOctetStr)
}

// ReadBoolean reads a BOOLEAN TLV.
func (d *Reader) ReadBoolean() (bool, error) {
	v, err := d.ReadTLV(TagBoolean)
	if err != nil {
		return false, err
	}
	if len(v) != 1 {
		return false, fmt.Errorf("bercodec: boolean value must be 1 byte, got %d", len(v))
	}
	return v[0] != 0x00, nil
}

// ReadEnumerated reads an ENUMERATED TLV holding a single byte value.
func (d *Reader) ReadEnumerated() (int, error) {
	v, err := d.ReadTLV(TagEnumerated)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("bercodec: enumerated value must be 1 byte, got %d", len(v))
	}
	return int(v[0]), nil
}

// EnterConstructed reads tag+length of a SEQUENCE/SET header and returns a
// sub-Reader scoped to exactly its content, positioning the parent reader
// past it.
func (d *Reader) EnterConstructed(want byte) (*Reader, error) {
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("bercodec: truncated constructed tag: %w", err)
	}
	if tag != want {
		return nil, fmt.Errorf("bercodec: expected constructed tag 0x%02x, got 0x%02x", want, tag)
	}
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	content := make([]byte, n)
	if _, err := io.ReadFull(d.r, content); err != nil {
		return nil, fmt.Errorf("bercodec: truncated constructed content (want %d bytes): %w", n, err)
	}
	return NewReader(content), nil
}

// Exhausted reports whether the current scope has no more bytes to read.
func (d *Reader) Exhausted() bool {
	return d.r.Len() == 0
}
