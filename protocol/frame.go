package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// maxFrameSize bounds a single frame's payload to guard against a peer
// claiming an absurd length prefix and exhausting memory.
const maxFrameSize = 16 << 20

// WriteFrame writes a little-endian u32 length prefix followed by the exact
// bytes of payload (§6/§9: little-endian, no trailing +1 byte).
func WriteFrame(conn net.Conn, payload []byte) error {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(payload)))
	if _, err := conn.Write(lenBytes[:]); err != nil {
		return fmt.Errorf("%w: write length prefix: %v", ErrTransport, err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("%w: write payload: %v", ErrTransport, err)
	}
	return nil
}

// ReadFrame reads a little-endian u32 length prefix then exactly that many
// bytes. io.EOF on the length prefix signals an orderly close.
func ReadFrame(conn net.Conn) ([]byte, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(conn, lenBytes[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: read length prefix: %v", ErrTransport, err)
	}
	n := binary.LittleEndian.Uint32(lenBytes[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("%w: frame length %d exceeds maximum", ErrParse, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, fmt.Errorf("%w: read payload: %v", ErrTransport, err)
	}
	return payload, nil
}
