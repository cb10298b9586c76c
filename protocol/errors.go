// Package protocol drives the handshake and message-exchange loop over a
// single TCP connection: length-prefixed framing, certificate verification,
// and a reader goroutine racing the writer loop.
package protocol

import "errors"

var (
	// ErrParse covers malformed frames: a length prefix above maxFrameSize,
	// or a received certificate that fails to deserialize. A truncated frame
	// is reported as ErrTransport.
	ErrParse = errors.New("protocol: parse error")
	// ErrHandshakeFailure is returned when the peer's certificate
	// self-signature does not verify.
	ErrHandshakeFailure = errors.New("protocol: handshake failure")
	// ErrTransport covers send/recv failures other than orderly close.
	ErrTransport = errors.New("protocol: transport error")
)
