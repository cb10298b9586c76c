// Package envelope implements hybrid encryption of a chat message: a fresh
// AES-128 key wraps the plaintext, the key itself is wrapped byte-by-byte
// under the recipient's RSA public key, and a SHA-256 digest of the
// plaintext guards against tampering on unwrap.
package envelope

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/paperplane/cipherlink/blockcipher"
	"github.com/paperplane/cipherlink/digest"
	"github.com/paperplane/cipherlink/pke"
	"github.com/paperplane/cipherlink/wire"
)

// ErrIntegrity is returned by Unwrap when the decrypted plaintext's digest
// does not match the transmitted HashHex, or when the ciphertext's PKCS#7
// padding is invalid after decryption.
var ErrIntegrity = errors.New("envelope: integrity check failed")

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const keyLength = 16

// Envelope is the wire-exchanged hybrid-encrypted chat message of spec §3/§4.6.
type Envelope struct {
	WrappedKey string
	Ciphertext []byte
	HashHex    string
}

// generateKey draws a keyLength-character ASCII key from keyAlphabet using
// uniform rejection sampling, never a biased mod-reduction.
func generateKey() (string, error) {
	var sb strings.Builder
	sb.Grow(keyLength)
	max := big.NewInt(int64(len(keyAlphabet)))
	for sb.Len() < keyLength {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(keyAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// Wrap encrypts plaintext under a freshly generated AES key, then wraps that
// key byte-by-byte under recipient's RSA public key.
func Wrap(plaintext []byte, recipient pke.RSAPublicKey) (*Envelope, error) {
	key, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("envelope: generate key: %w", err)
	}

	ciphertext, err := blockcipher.Encrypt(plaintext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("envelope: encrypt plaintext: %w", err)
	}

	wrappedInts, err := recipient.EncryptBytes([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("envelope: wrap key: %w", err)
	}

	var sb strings.Builder
	for _, n := range wrappedInts {
		sb.WriteString(n.String())
		sb.WriteByte(' ')
	}

	return &Envelope{
		WrappedKey: sb.String(),
		Ciphertext: ciphertext,
		HashHex:    digest.Sum(plaintext),
	}, nil
}

// Unwrap decrypts the AES key using priv, decrypts Ciphertext under it, and
// verifies the plaintext's digest against HashHex (invariant E1).
func (e *Envelope) Unwrap(priv *pke.RSAPrivateKey) ([]byte, error) {
	tokens := strings.Fields(e.WrappedKey)
	wrappedInts := make([]*big.Int, len(tokens))
	for i, tok := range tokens {
		n, ok := new(big.Int).SetString(tok, 10)
		if !ok {
			return nil, fmt.Errorf("%w: wrappedKey token %q is not a decimal integer", wire.ErrParse, tok)
		}
		wrappedInts[i] = n
	}

	key := priv.DecryptBytes(wrappedInts)

	plaintext, err := blockcipher.Decrypt(e.Ciphertext, key)
	if errors.Is(err, blockcipher.ErrPadding) {
		// A tampered ciphertext usually breaks the padding before the digest
		// can be compared; report it as the same integrity failure.
		return nil, ErrIntegrity
	}
	if err != nil {
		return nil, fmt.Errorf("envelope: decrypt ciphertext: %w", err)
	}

	if digest.Sum(plaintext) != e.HashHex {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// Serialize renders the envelope as three length-prefixed strings in order:
// wrappedKey, ciphertext, hashHex.
func (e *Envelope) Serialize() []byte {
	var buf bytes.Buffer
	wire.PutString(&buf, e.WrappedKey)
	wire.PutBytes(&buf, e.Ciphertext)
	wire.PutString(&buf, e.HashHex)
	return buf.Bytes()
}

// Deserialize parses an Envelope from raw bytes produced by Serialize.
func Deserialize(b []byte) (*Envelope, error) {
	r := wire.NewReader(b)

	wrappedKey, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("envelope: parse wrappedKey: %w", err)
	}
	ciphertext, err := r.Bytes()
	if err != nil {
		return nil, fmt.Errorf("envelope: parse ciphertext: %w", err)
	}
	hashHex, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("envelope: parse hashHex: %w", err)
	}

	return &Envelope{
		WrappedKey: wrappedKey,
		Ciphertext: append([]byte(nil), ciphertext...),
		HashHex:    hashHex,
	}, nil
}
