package protocol

import (
	"fmt"
	"net"

	"github.com/paperplane/cipherlink/certificate"
	"github.com/paperplane/cipherlink/identity"
)

// SendCertificate frames and sends cert's serialization.
func SendCertificate(conn net.Conn, cert *certificate.Certificate) error {
	return WriteFrame(conn, cert.Serialize())
}

// ReceiveCertificate reads one frame and deserializes it as a Certificate.
func ReceiveCertificate(conn net.Conn) (*certificate.Certificate, error) {
	payload, err := ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	cert, err := certificate.Deserialize(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return cert, nil
}

// Handshake builds and sends self's certificate, receives the peer's,
// verifies its self-signature, and returns the resulting public-only
// PeerIdentity. Either side may call this identically -- the protocol is
// symmetric.
func Handshake(conn net.Conn, self *identity.Identity) (*identity.PeerIdentity, error) {
	ownCert, err := self.Certificate()
	if err != nil {
		return nil, fmt.Errorf("handshake: build own certificate: %w", err)
	}

	if err := SendCertificate(conn, ownCert); err != nil {
		return nil, fmt.Errorf("handshake: send certificate: %w", err)
	}

	peerCert, err := ReceiveCertificate(conn)
	if err != nil {
		return nil, fmt.Errorf("handshake: receive certificate: %w", err)
	}

	if !peerCert.Verify() {
		return nil, ErrHandshakeFailure
	}

	return identity.FromCertificate(peerCert), nil
}
