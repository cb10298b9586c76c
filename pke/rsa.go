package pke

import (
	"crypto/rand"
	"math/big"
)

var (
	bigOne      = big.NewInt(1)
	bigTwo      = big.NewInt(2)
	defaultE    = big.NewInt(65537)
	byteModulus = big.NewInt(256)
)

// RSAPrivateKey holds a full textbook RSA key pair: n = p*q, phi = (p-1)(q-1),
// e*d ≡ 1 (mod phi). It can encrypt, decrypt, sign, and verify.
type RSAPrivateKey struct {
	N, E, D, P, Q, Phi *big.Int
}

// RSAPublicKey holds only what is needed to encrypt and to verify a
// signature. It has no Decrypt or Sign method at all -- attempting a
// private-key operation on a public key is a compile error, not a runtime
// role check.
type RSAPublicKey struct {
	N, E *big.Int
}

// Public projects the public half out of a private key.
func (k *RSAPrivateKey) Public() RSAPublicKey {
	return RSAPublicKey{N: k.N, E: k.E}
}

// GenerateRSAKeyPair picks two distinct probable primes of keyBits/2 bits
// each, sets n = p*q and phi = (p-1)(q-1), then searches upward from e=65537
// (incrementing by 2) for the first value coprime to phi.
func GenerateRSAKeyPair(keyBits int) (*RSAPrivateKey, error) {
	primeBits := keyBits / 2
	var p, q *big.Int
	var err error
	for {
		p, err = rand.Prime(rand.Reader, primeBits)
		if err != nil {
			return nil, err
		}
		q, err = rand.Prime(rand.Reader, primeBits)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) != 0 {
			break
		}
	}

	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, bigOne),
		new(big.Int).Sub(q, bigOne),
	)

	e := new(big.Int).Set(defaultE)
	gcd := new(big.Int)
	for {
		gcd.GCD(nil, nil, e, phi)
		if gcd.Cmp(bigOne) == 0 {
			break
		}
		e.Add(e, bigTwo)
	}

	d := new(big.Int).ModInverse(e, phi)

	return &RSAPrivateKey{N: n, E: e, D: d, P: p, Q: q, Phi: phi}, nil
}

// EncryptInt computes m^e mod n.
func (k RSAPublicKey) EncryptInt(m *big.Int) (*big.Int, error) {
	if m.Cmp(k.N) >= 0 {
		return nil, ErrOversize
	}
	return new(big.Int).Exp(m, k.E, k.N), nil
}

// EncryptInt computes m^e mod n using the private key's own public half.
func (k *RSAPrivateKey) EncryptInt(m *big.Int) (*big.Int, error) {
	return k.Public().EncryptInt(m)
}

// DecryptInt computes c^d mod n.
func (k *RSAPrivateKey) DecryptInt(c *big.Int) *big.Int {
	return new(big.Int).Exp(c, k.D, k.N)
}

// SignInt computes m^d mod n.
func (k *RSAPrivateKey) SignInt(m *big.Int) *big.Int {
	return new(big.Int).Exp(m, k.D, k.N)
}

// VerifyInt reports whether s^e mod n == m.
func (k RSAPublicKey) VerifyInt(m, s *big.Int) bool {
	decoded := new(big.Int).Exp(s, k.E, k.N)
	return decoded.Cmp(m) == 0
}

// VerifyInt verifies using the private key's own public half.
func (k *RSAPrivateKey) VerifyInt(m, s *big.Int) bool {
	return k.Public().VerifyInt(m, s)
}

// EncryptBytes encrypts msg one byte at a time, returning one big.Int per
// input byte.
func (k RSAPublicKey) EncryptBytes(msg []byte) ([]*big.Int, error) {
	out := make([]*big.Int, len(msg))
	for i, b := range msg {
		c, err := k.EncryptInt(big.NewInt(int64(b)))
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// EncryptBytes encrypts using the private key's own public half.
func (k *RSAPrivateKey) EncryptBytes(msg []byte) ([]*big.Int, error) {
	return k.Public().EncryptBytes(msg)
}

// DecryptBytes decrypts each element of seq and reduces it to a single byte.
func (k *RSAPrivateKey) DecryptBytes(seq []*big.Int) []byte {
	out := make([]byte, len(seq))
	for i, c := range seq {
		m := k.DecryptInt(c)
		out[i] = byte(m.Uint64() & 0xff)
	}
	return out
}

// HashToInt folds an ASCII string into Z/nZ via weighted byte summation --
// this mirrors the certificate/message "hash" used by RSA signing in spec.md
// and is NOT collision-resistant; it exists only to feed sign/verify.
func (k RSAPublicKey) HashToInt(s string) *big.Int {
	acc := new(big.Int)
	for i := 0; i < len(s); i++ {
		acc.Mul(acc, byteModulus)
		acc.Add(acc, big.NewInt(int64(s[i])))
		acc.Mod(acc, k.N)
	}
	return acc
}

// HashToInt folds using the private key's own modulus.
func (k *RSAPrivateKey) HashToInt(s string) *big.Int {
	return k.Public().HashToInt(s)
}

// SignHash signs HashToInt(s).
func (k *RSAPrivateKey) SignHash(s string) *big.Int {
	return k.SignInt(k.HashToInt(s))
}

// VerifyHash verifies a signature produced by SignHash.
func (k RSAPublicKey) VerifyHash(s string, sig *big.Int) bool {
	return k.VerifyInt(k.HashToInt(s), sig)
}

// VerifyHash verifies using the private key's own public half.
func (k *RSAPrivateKey) VerifyHash(s string, sig *big.Int) bool {
	return k.Public().VerifyHash(s, sig)
}
