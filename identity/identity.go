// Package identity holds a user's key material: either a full holder
// identity capable of signing and decrypting, or a public-only
// reconstruction of a peer derived from a received certificate.
package identity

import (
	"fmt"

	"github.com/paperplane/cipherlink/certificate"
	"github.com/paperplane/cipherlink/pke"
)

const (
	// DefaultRSABits is the default RSA modulus size, matching spec.md's
	// default key length of 50 bits (see SPEC_FULL.md §9).
	DefaultRSABits = 50
	// DefaultElGamalBits is the default ElGamal safe-prime size.
	DefaultElGamalBits = 50
)

// Identity is the holder of a user's two full key pairs.
type Identity struct {
	Name    string
	RSA     *pke.RSAPrivateKey
	ElGamal *pke.ElGamalPrivateKey
}

// New generates fresh RSA and ElGamal key pairs for name.
func New(name string, rsaBits, elGamalBits int) (*Identity, error) {
	rsaKey, err := pke.GenerateRSAKeyPair(rsaBits)
	if err != nil {
		return nil, fmt.Errorf("identity: generate rsa key: %w", err)
	}
	elKey, err := pke.GenerateElGamalKeyPair(elGamalBits)
	if err != nil {
		return nil, fmt.Errorf("identity: generate elgamal key: %w", err)
	}
	return &Identity{Name: name, RSA: rsaKey, ElGamal: elKey}, nil
}

// HolderName, HolderRSAPublic, and HolderElGamalPublic satisfy
// certificate.NewFromIdentity's holder interface.
func (id *Identity) HolderName() string                       { return id.Name }
func (id *Identity) HolderRSAPublic() pke.RSAPublicKey         { return id.RSA.Public() }
func (id *Identity) HolderElGamalPublic() pke.ElGamalPublicKey { return id.ElGamal.Public() }

// Certificate builds a self-signed certificate for id.
func (id *Identity) Certificate() (*certificate.Certificate, error) {
	cert := certificate.NewFromIdentity(id)
	if err := cert.SignIn(id.ElGamal); err != nil {
		return nil, err
	}
	return cert, nil
}

// PeerIdentity is the public-only reconstruction of a remote party from a
// received, verified certificate. It cannot sign or decrypt -- there is no
// private key to own.
type PeerIdentity struct {
	Name    string
	RSA     pke.RSAPublicKey
	ElGamal pke.ElGamalPublicKey
}

// FromCertificate reconstructs a PeerIdentity from a received certificate.
// It does not itself verify the certificate's signature; callers verify
// before trusting the result (see protocol.Handshake).
func FromCertificate(cert *certificate.Certificate) *PeerIdentity {
	return &PeerIdentity{
		Name:    cert.Name,
		RSA:     cert.RSAPub,
		ElGamal: cert.ElPub,
	}
}
