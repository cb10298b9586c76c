package pke

import (
	"crypto/rand"
	"math/big"
)

const maxGeneratorAttempts = 1000

// ElGamalPrivateKey holds a full ElGamal key pair over a safe-prime field:
// p = 2q+1, g generates the full multiplicative group of Z/pZ, h = g^x mod p.
// It can encrypt, decrypt, sign, and verify.
type ElGamalPrivateKey struct {
	P, G, H, X *big.Int
}

// ElGamalPublicKey holds only what is needed to encrypt and to verify a
// signature. It has no Decrypt or Sign method -- a private-key operation on
// a public key is a compile error, not a runtime role check.
type ElGamalPublicKey struct {
	P, G, H *big.Int
}

// Public projects the public half out of a private key.
func (k *ElGamalPrivateKey) Public() ElGamalPublicKey {
	return ElGamalPublicKey{P: k.P, G: k.G, H: k.H}
}

// GenerateElGamalKeyPair finds a safe prime p = 2q+1 of keyBits bits, a
// generator g of the full multiplicative group of Z/pZ (bounded to 1000
// attempts), a private exponent x in [1, p-2], and h = g^x mod p.
func GenerateElGamalKeyPair(keyBits int) (*ElGamalPrivateKey, error) {
	var p, q *big.Int
	var err error
	for {
		q, err = rand.Prime(rand.Reader, keyBits-1)
		if err != nil {
			return nil, err
		}
		p = new(big.Int).Lsh(q, 1)
		p.Add(p, bigOne)
		if p.ProbablyPrime(20) {
			break
		}
	}

	pMinus1 := new(big.Int).Sub(p, bigOne)
	factors := []*big.Int{bigTwo, q}

	var g *big.Int
	found := false
	for attempt := 0; attempt < maxGeneratorAttempts; attempt++ {
		candidate, err := randRange(bigTwo, new(big.Int).Sub(p, bigTwo))
		if err != nil {
			return nil, err
		}
		isGenerator := true
		for _, factor := range factors {
			exp := new(big.Int).Div(pMinus1, factor)
			if new(big.Int).Exp(candidate, exp, p).Cmp(bigOne) == 0 {
				isGenerator = false
				break
			}
		}
		if isGenerator {
			g = candidate
			found = true
			break
		}
	}
	if !found {
		return nil, ErrGeneratorNotFound
	}

	x, err := randRange(bigOne, new(big.Int).Sub(p, bigTwo))
	if err != nil {
		return nil, err
	}
	h := new(big.Int).Exp(g, x, p)

	return &ElGamalPrivateKey{P: p, G: g, H: h, X: x}, nil
}

// randRange returns a uniformly random integer in [lo, hi].
func randRange(lo, hi *big.Int) (*big.Int, error) {
	span := new(big.Int).Sub(hi, lo)
	span.Add(span, bigOne)
	r, err := rand.Int(rand.Reader, span)
	if err != nil {
		return nil, err
	}
	return r.Add(r, lo), nil
}

// EncryptInt returns the ElGamal ciphertext pair (c1, c2) = (g^y, m*h^y) mod p
// for a freshly sampled y in [1, p-2].
func (k ElGamalPublicKey) EncryptInt(m *big.Int) (c1, c2 *big.Int, err error) {
	if m.Cmp(k.P) >= 0 {
		return nil, nil, ErrOversize
	}
	y, err := randRange(bigOne, new(big.Int).Sub(k.P, bigTwo))
	if err != nil {
		return nil, nil, err
	}
	c1 = new(big.Int).Exp(k.G, y, k.P)
	hy := new(big.Int).Exp(k.H, y, k.P)
	c2 = new(big.Int).Mod(new(big.Int).Mul(m, hy), k.P)
	return c1, c2, nil
}

// EncryptInt encrypts using the private key's own public half.
func (k *ElGamalPrivateKey) EncryptInt(m *big.Int) (c1, c2 *big.Int, err error) {
	return k.Public().EncryptInt(m)
}

// DecryptInt recovers m = c2 * (c1^x)^-1 mod p.
func (k *ElGamalPrivateKey) DecryptInt(c1, c2 *big.Int) *big.Int {
	s := new(big.Int).Exp(c1, k.X, k.P)
	sInv := new(big.Int).ModInverse(s, k.P)
	return new(big.Int).Mod(new(big.Int).Mul(c2, sInv), k.P)
}

type elGamalCiphertext struct {
	c1, c2 *big.Int
}

// EncryptBytes encrypts msg one byte at a time.
func (k ElGamalPublicKey) EncryptBytes(msg []byte) ([]elGamalCiphertext, error) {
	out := make([]elGamalCiphertext, len(msg))
	for i, b := range msg {
		c1, c2, err := k.EncryptInt(big.NewInt(int64(b)))
		if err != nil {
			return nil, err
		}
		out[i] = elGamalCiphertext{c1, c2}
	}
	return out, nil
}

// EncryptBytes encrypts using the private key's own public half.
func (k *ElGamalPrivateKey) EncryptBytes(msg []byte) ([]elGamalCiphertext, error) {
	return k.Public().EncryptBytes(msg)
}

// DecryptBytes decrypts each pair in seq back to a single byte.
func (k *ElGamalPrivateKey) DecryptBytes(seq []elGamalCiphertext) []byte {
	out := make([]byte, len(seq))
	for i, c := range seq {
		m := k.DecryptInt(c.c1, c.c2)
		out[i] = byte(m.Uint64() & 0xff)
	}
	return out
}

// HashToInt folds an ASCII string into Z/pZ via weighted byte summation --
// mirrors RSAPublicKey.HashToInt, not collision-resistant, used only to feed
// sign/verify.
func (k ElGamalPublicKey) HashToInt(s string) *big.Int {
	acc := new(big.Int)
	for i := 0; i < len(s); i++ {
		acc.Mul(acc, byteModulus)
		acc.Add(acc, big.NewInt(int64(s[i])))
		acc.Mod(acc, k.P)
	}
	return acc
}

// HashToInt folds using the private key's own modulus.
func (k *ElGamalPrivateKey) HashToInt(s string) *big.Int {
	return k.Public().HashToInt(s)
}

// SignInt produces an ElGamal signature (r, s) over message m: chooses k
// coprime to p-1, r = g^k mod p, s = (m - x*r) * k^-1 mod (p-1).
func (k *ElGamalPrivateKey) SignInt(m *big.Int) (r, s *big.Int, err error) {
	pMinus1 := new(big.Int).Sub(k.P, bigOne)

	var kRand, gcd *big.Int
	for {
		kRand, err = randRange(bigOne, new(big.Int).Sub(pMinus1, bigOne))
		if err != nil {
			return nil, nil, err
		}
		gcd = new(big.Int).GCD(nil, nil, kRand, pMinus1)
		if gcd.Cmp(bigOne) == 0 {
			break
		}
	}

	r = new(big.Int).Exp(k.G, kRand, k.P)
	kInv := new(big.Int).ModInverse(kRand, pMinus1)

	s = new(big.Int).Mul(k.X, r)
	s.Sub(m, s)
	s.Mod(s, pMinus1)
	s.Mul(s, kInv)
	s.Mod(s, pMinus1)

	return r, s, nil
}

// VerifyInt reports whether g^m ≡ h^r * r^s (mod p), rejecting out-of-range
// (r, s) first.
func (k ElGamalPublicKey) VerifyInt(m, r, s *big.Int) bool {
	pMinus1 := new(big.Int).Sub(k.P, bigOne)
	if r.Sign() <= 0 || r.Cmp(k.P) >= 0 || s.Sign() <= 0 || s.Cmp(pMinus1) >= 0 {
		return false
	}
	left := new(big.Int).Exp(k.G, m, k.P)
	hr := new(big.Int).Exp(k.H, r, k.P)
	rs := new(big.Int).Exp(r, s, k.P)
	right := new(big.Int).Mod(new(big.Int).Mul(hr, rs), k.P)
	return left.Cmp(right) == 0
}

// VerifyInt verifies using the private key's own public half.
func (k *ElGamalPrivateKey) VerifyInt(m, r, s *big.Int) bool {
	return k.Public().VerifyInt(m, r, s)
}

// SignHash signs HashToInt(s).
func (k *ElGamalPrivateKey) SignHash(s string) (r, sig *big.Int, err error) {
	return k.SignInt(k.HashToInt(s))
}

// VerifyHash verifies a signature produced by SignHash.
func (k ElGamalPublicKey) VerifyHash(s string, r, sig *big.Int) bool {
	return k.VerifyInt(k.HashToInt(s), r, sig)
}

// VerifyHash verifies using the private key's own public half.
func (k *ElGamalPrivateKey) VerifyHash(s string, r, sig *big.Int) bool {
	return k.Public().VerifyHash(s, r, sig)
}
