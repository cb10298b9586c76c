// Package certificate implements the self-signed identity bundle exchanged
// during the protocol handshake: a name, an issuer, an RSA public key, an
// ElGamal public key, and an ElGamal self-signature over their canonical hash.
package certificate

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/paperplane/cipherlink/digest"
	"github.com/paperplane/cipherlink/internal/clog"
	"github.com/paperplane/cipherlink/pke"
	"github.com/paperplane/cipherlink/wire"
)

var log = clog.MustGetLogger("certificate")

const defaultIssuer = "Admin"

// Certificate is the wire-exchanged identity bundle of spec §3/§4.5.
type Certificate struct {
	HashHex string
	Name    string
	Issuer  string
	RSAPub  pke.RSAPublicKey
	ElPub   pke.ElGamalPublicKey
	SigR    *big.Int
	SigS    *big.Int
}

// holder is the minimal surface NewFromIdentity needs, satisfied by
// *identity.Identity without importing it (identity imports certificate).
type holder interface {
	HolderName() string
	HolderRSAPublic() pke.RSAPublicKey
	HolderElGamalPublic() pke.ElGamalPublicKey
}

// preimage renders name || issuer || "e n " || " " || "p g h " exactly per
// invariant C1.
func preimage(name, issuer string, rsaPub pke.RSAPublicKey, elPub pke.ElGamalPublicKey) string {
	rsaBlock := fmt.Sprintf("%s %s ", rsaPub.E.String(), rsaPub.N.String())
	elBlock := fmt.Sprintf("%s %s %s ", elPub.P.String(), elPub.G.String(), elPub.H.String())
	return name + issuer + rsaBlock + " " + elBlock
}

// NewFromIdentity populates name/issuer/public keys from h and computes
// HashHex per invariant C1. The signature fields are left nil until SignIn.
func NewFromIdentity(h holder) *Certificate {
	name := h.HolderName()
	rsaPub := h.HolderRSAPublic()
	elPub := h.HolderElGamalPublic()
	return &Certificate{
		HashHex: digest.SumString(preimage(name, defaultIssuer, rsaPub, elPub)),
		Name:    name,
		Issuer:  defaultIssuer,
		RSAPub:  rsaPub,
		ElPub:   elPub,
	}
}

// SignIn sets SigR/SigS to el.SignHash(c.HashHex). el must be the private
// ElGamal key matching c.ElPub.
func (c *Certificate) SignIn(el *pke.ElGamalPrivateKey) error {
	r, s, err := el.SignHash(c.HashHex)
	if err != nil {
		return fmt.Errorf("certificate: sign in: %w", err)
	}
	c.SigR, c.SigS = r, s
	return nil
}

// Verify reports whether (SigR, SigS) is a valid ElGamal signature over
// HashHex under the certificate's own public key.
func (c *Certificate) Verify() bool {
	if c.SigR == nil || c.SigS == nil {
		return false
	}
	return c.ElPub.VerifyHash(c.HashHex, c.SigR, c.SigS)
}

// Serialize renders the certificate as the ordered sequence of
// length-prefixed strings from §6: hashHex, name, issuer, rsa e/n, el p/g/h,
// sig r/s.
func (c *Certificate) Serialize() []byte {
	var buf bytes.Buffer
	wire.PutString(&buf, c.HashHex)
	wire.PutString(&buf, c.Name)
	wire.PutString(&buf, c.Issuer)
	wire.PutString(&buf, c.RSAPub.E.String())
	wire.PutString(&buf, c.RSAPub.N.String())
	wire.PutString(&buf, c.ElPub.P.String())
	wire.PutString(&buf, c.ElPub.G.String())
	wire.PutString(&buf, c.ElPub.H.String())
	wire.PutString(&buf, c.SigR.String())
	wire.PutString(&buf, c.SigS.String())
	return buf.Bytes()
}

// Deserialize parses a Certificate from raw bytes produced by Serialize,
// using the clean (non bug-compatible) field order documented in §6/§9. It
// recomputes the hash preimage and logs a warning, rather than failing, if it
// disagrees with the transmitted HashHex (spec §4.5 treats this as
// verifiable but not a hard error).
func Deserialize(b []byte) (*Certificate, error) {
	r := wire.NewReader(b)

	hashHex, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("certificate: parse hashHex: %w", err)
	}
	name, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("certificate: parse name: %w", err)
	}
	issuer, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("certificate: parse issuer: %w", err)
	}

	e, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse rsa.e: %w", err)
	}
	n, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse rsa.n: %w", err)
	}
	p, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse el.p: %w", err)
	}
	g, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse el.g: %w", err)
	}
	h, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse el.h: %w", err)
	}
	sigR, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse sig.r: %w", err)
	}
	sigS, err := parseBigString(r)
	if err != nil {
		return nil, fmt.Errorf("certificate: parse sig.s: %w", err)
	}

	c := &Certificate{
		HashHex: hashHex,
		Name:    name,
		Issuer:  issuer,
		RSAPub:  pke.RSAPublicKey{N: n, E: e},
		ElPub:   pke.ElGamalPublicKey{P: p, G: g, H: h},
		SigR:    sigR,
		SigS:    sigS,
	}

	if recomputed := digest.SumString(preimage(c.Name, c.Issuer, c.RSAPub, c.ElPub)); recomputed != c.HashHex {
		log.Warningf("certificate %q: transmitted hash %s does not match recomputed hash %s", c.Name, c.HashHex, recomputed)
	}

	return c, nil
}

func parseBigString(r *wire.Reader) (*big.Int, error) {
	s, err := r.String()
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal integer", wire.ErrParse, s)
	}
	return v, nil
}
