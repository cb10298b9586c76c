// Package wire implements the length-prefixed string encoding shared by
// certificate and envelope serialization: each field is a little-endian
// uint32 byte length followed by that many raw bytes.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrParse is returned when a length-prefixed field is truncated or its
// declared length does not fit in the remaining buffer.
var ErrParse = errors.New("wire: malformed length-prefixed field")

// PutString appends a length-prefixed string to buf.
func PutString(buf *bytes.Buffer, s string) {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf.Write(lenBytes[:])
	buf.WriteString(s)
}

// PutBytes appends a length-prefixed byte slice to buf.
func PutBytes(buf *bytes.Buffer, b []byte) {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(b)))
	buf.Write(lenBytes[:])
	buf.Write(b)
}

// Reader reads successive length-prefixed fields out of a byte slice.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential length-prefixed reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// String reads the next length-prefixed field as a string.
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes reads the next length-prefixed field as raw bytes.
func (r *Reader) Bytes() ([]byte, error) {
	if len(r.buf)-r.off < 4 {
		return nil, ErrParse
	}
	n := binary.LittleEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	if uint32(len(r.buf)-r.off) < n {
		return nil, ErrParse
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}
