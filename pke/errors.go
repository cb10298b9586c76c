package pke

import "errors"

// ErrOversize is returned when a message integer is not smaller than the
// modulus it would be reduced under (RSA's n, ElGamal's p).
var ErrOversize = errors.New("pke: message too large for modulus")

// ErrGeneratorNotFound is returned when ElGamal key generation exhausts its
// bounded search for a generator of the full multiplicative group.
var ErrGeneratorNotFound = errors.New("pke: failed to find generator after 1000 attempts")
