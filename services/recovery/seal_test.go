package recovery

import (
	"bytes"
	"testing"
)

func TestSealer(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)

	t.Run("round trip", func(t *testing.T) {
		s, err := newSealer(key)
		if err != nil {
			t.Fatal(err)
		}
		sealed, err := s.seal("482913")
		if err != nil {
			t.Fatal(err)
		}
		if sealed == "482913" {
			t.Errorf("Sealed value must not equal the plain code")
		}
		plain, err := s.open(sealed)
		if err != nil {
			t.Fatal(err)
		}
		if plain != "482913" {
			t.Errorf("Expected the original code back, got %q", plain)
		}
	})

	t.Run("wrong key cannot open", func(t *testing.T) {
		s1, _ := newSealer(key)
		s2, _ := newSealer(bytes.Repeat([]byte{0x17}, 32))

		sealed, _ := s1.seal("482913")
		if _, err := s2.open(sealed); err == nil {
			t.Errorf("A different key must fail to open")
		}
	})

	t.Run("nil sealer is a passthrough", func(t *testing.T) {
		var s *sealer
		sealed, err := s.seal("482913")
		if err != nil || sealed != "482913" {
			t.Errorf("Expected passthrough, got %q, %v", sealed, err)
		}
		plain, err := s.open("482913")
		if err != nil || plain != "482913" {
			t.Errorf("Expected passthrough, got %q, %v", plain, err)
		}
	})

	t.Run("key length is enforced", func(t *testing.T) {
		if _, err := newSealer([]byte("short")); err == nil {
			t.Errorf("Expected an error for a short key")
		}
		s, err := newSealer(nil)
		if err != nil || s != nil {
			t.Errorf("Empty key must disable sealing, got %v, %v", s, err)
		}
	})

	t.Run("tampered ciphertext is rejected", func(t *testing.T) {
		s, _ := newSealer(key)
		if _, err := s.open("bm90IGEgc2VhbGVkIGNvZGU="); err == nil {
			t.Errorf("Expected an error for garbage ciphertext")
		}
	})
}
