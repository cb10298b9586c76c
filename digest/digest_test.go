package digest

import "testing"

func TestVectors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"The quick brown fox jumps over the lazy dog", "d7a8fbb307d7809469ca9abcb0082e4f8d5651e46d3cdb762d02d0bf37c9e592"},
	}
	for _, c := range cases {
		got := SumString(c.in)
		if got != c.want {
			t.Fatalf("Sum(%q) = %s, want %s", c.in, got, c.want)
		}
		if len(got) != 64 {
			t.Fatalf("Sum(%q) length = %d, want 64", c.in, len(got))
		}
	}
}

func TestDeterministic(t *testing.T) {
	msg := []byte("repeat me")
	if Sum(msg) != Sum(msg) {
		t.Fatal("Sum is not deterministic")
	}
}
