// Package codec implements the wire format used to serialize
// transactions, commands, and receipts: variant-tagged, little-endian
// integers, length-prefixed byte strings (spec §2). It is deliberately
// not RLP — the wire format carries an explicit discriminant byte ahead
// of every tagged union, which big-endian prefix-byte RLP has no slot
// for — but it keeps an RLP-style package-per-concern shape: a writer
// half, a reader half, and a sentinel error set.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrTruncated       = errors.New("codec: truncated input")
	ErrUnknownVariant  = errors.New("codec: unknown variant discriminant")
	ErrStringTooLarge  = errors.New("codec: length-prefixed field exceeds maximum size")
	ErrTrailingBytes   = errors.New("codec: trailing bytes after decode")
)

// maxBytesField bounds any single length-prefixed field, guarding decode
// against a corrupt or adversarial length prefix driving an unbounded
// allocation.
const maxBytesField = 64 << 20

// Writer accumulates an encoded byte stream.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf }

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint32 appends v as 4 little-endian bytes.
func (w *Writer) PutUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint64 appends v as 8 little-endian bytes.
func (w *Writer) PutUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutBool appends v as a single 0/1 byte.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

// PutBytes appends a uint32 length prefix followed by data.
func (w *Writer) PutBytes(data []byte) {
	w.PutUint32(uint32(len(data)))
	w.buf = append(w.buf, data...)
}

// PutFixed appends data with no length prefix, for fixed-size fields
// (addresses, hashes, signatures) whose size is implied by the type.
func (w *Writer) PutFixed(data []byte) {
	w.buf = append(w.buf, data...)
}

// Reader consumes an encoded byte stream left to right.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Remaining reports how many bytes are still unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done returns ErrTrailingBytes if unread bytes remain, used at the end
// of a top-level Decode to catch malformed trailing data.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint32 reads 4 little-endian bytes.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads 8 little-endian bytes.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bool reads a single 0/1 byte.
func (r *Reader) Bool() (bool, error) {
	b, err := r.Uint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// Bytes reads a uint32 length prefix followed by that many bytes. The
// returned slice is a copy, safe to retain past the Reader's lifetime.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if n > maxBytesField {
		return nil, ErrStringTooLarge
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Fixed reads exactly n bytes with no length prefix.
func (r *Reader) Fixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// WriteTo lets a Writer's encoded bytes be streamed to an io.Writer,
// for callers that already hold one (e.g. hashing a transaction's
// canonical bytes incrementally).

func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf)
	return int64(n), err
}
