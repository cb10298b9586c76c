package envelope

import (
	"testing"

	"github.com/paperplane/cipherlink/pke"
)

func testRSAKeyPair(t *testing.T) *pke.RSAPrivateKey {
	t.Helper()
	key, err := pke.GenerateRSAKeyPair(50)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	key := testRSAKeyPair(t)
	lengths := []int{0, 1, 15, 16, 17, 31, 32, 100}
	for _, n := range lengths {
		plaintext := make([]byte, n)
		for i := range plaintext {
			plaintext[i] = byte(i % 251)
		}
		env, err := Wrap(plaintext, key.Public())
		if err != nil {
			t.Fatalf("len %d: wrap: %v", n, err)
		}
		got, err := env.Unwrap(key)
		if err != nil {
			t.Fatalf("len %d: unwrap: %v", n, err)
		}
		if string(got) != string(plaintext) {
			t.Fatalf("len %d: round trip mismatch", n)
		}
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	key := testRSAKeyPair(t)
	env, err := Wrap([]byte("hello cipherlink"), key.Public())
	if err != nil {
		t.Fatal(err)
	}

	got, err := Deserialize(env.Serialize())
	if err != nil {
		t.Fatal(err)
	}
	if got.WrappedKey != env.WrappedKey || got.HashHex != env.HashHex {
		t.Fatal("serialize/deserialize round trip mismatch")
	}
	if string(got.Ciphertext) != string(env.Ciphertext) {
		t.Fatal("ciphertext mismatch after round trip")
	}

	plaintext, err := got.Unwrap(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(plaintext) != "hello cipherlink" {
		t.Fatalf("got %q", plaintext)
	}
}

func TestUnwrapDetectsTamperedCiphertext(t *testing.T) {
	key := testRSAKeyPair(t)
	env, err := Wrap([]byte("the quick brown fox"), key.Public())
	if err != nil {
		t.Fatal(err)
	}
	env.Ciphertext[0] ^= 0xff

	if _, err := env.Unwrap(key); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestUnwrapDetectsTamperedHash(t *testing.T) {
	key := testRSAKeyPair(t)
	env, err := Wrap([]byte("the quick brown fox"), key.Public())
	if err != nil {
		t.Fatal(err)
	}
	env.HashHex = "0000000000000000000000000000000000000000000000000000000000000"

	if _, err := env.Unwrap(key); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}
