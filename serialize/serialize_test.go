package serialize

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dartrie/dartrie"
)

func TestRoundTripTrie(t *testing.T) {
	keys := []string{"ant", "anteater", "antelope", "bee", "beetle", "cat"}
	trie, err := dartrie.FromKeys(keys)
	if err != nil {
		t.Fatalf("FromKeys: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, trie); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeTrie(&buf)
	if err != nil {
		t.Fatalf("DecodeTrie: %v", err)
	}

	for i, k := range keys {
		v, ok := decoded.ExactMatch(k)
		if !ok || v != uint32(i) {
			t.Errorf("ExactMatch(%q) = (%d, %v), want (%d, true)", k, v, ok, i)
		}
	}
	if _, ok := decoded.ExactMatch("dog"); ok {
		t.Error("ExactMatch(\"dog\") unexpectedly found")
	}
	if decoded.Stats() != trie.Stats() {
		t.Errorf("Stats() = %+v, want %+v", decoded.Stats(), trie.Stats())
	}
}

func TestRoundTripMpTrie(t *testing.T) {
	keys := []string{"apple", "application", "apply", "banana"}
	trie, err := dartrie.FromKeysMpThreshold(keys, 2)
	if err != nil {
		t.Fatalf("FromKeysMpThreshold: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeMp(&buf, trie); err != nil {
		t.Fatalf("EncodeMp: %v", err)
	}

	decoded, err := DecodeMpTrie(&buf)
	if err != nil {
		t.Fatalf("DecodeMpTrie: %v", err)
	}

	for i, k := range keys {
		v, ok := decoded.ExactMatch(k)
		if !ok || v != uint32(i) {
			t.Errorf("ExactMatch(%q) = (%d, %v), want (%d, true)", k, v, ok, i)
		}
	}
	if decoded.Threshold() != trie.Threshold() {
		t.Errorf("Threshold = %d, want %d", decoded.Threshold(), trie.Threshold())
	}
	if decoded.Stats() != trie.Stats() {
		t.Errorf("Stats() = %+v, want %+v", decoded.Stats(), trie.Stats())
	}
}

func TestDecodeRejectsVariantMismatch(t *testing.T) {
	trie, err := dartrie.FromKeys([]string{"a"})
	if err != nil {
		t.Fatalf("FromKeys: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, trie); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := DecodeMpTrie(&buf); !errors.Is(err, dartrie.ErrMalformed) {
		t.Errorf("got %v, want errors.Is(err, dartrie.ErrMalformed)", err)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := DecodeTrie(bytes.NewReader([]byte("not a dartrie container at all"))); !errors.Is(err, dartrie.ErrMalformed) {
		t.Errorf("got %v, want errors.Is(err, dartrie.ErrMalformed)", err)
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	trie, err := dartrie.FromKeys([]string{"a", "ab", "abc"})
	if err != nil {
		t.Fatalf("FromKeys: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, trie); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()-4]
	if _, err := DecodeTrie(bytes.NewReader(truncated)); !errors.Is(err, dartrie.ErrMalformed) {
		t.Errorf("got %v, want errors.Is(err, dartrie.ErrMalformed)", err)
	}
}

func TestPeekVariant(t *testing.T) {
	trie, err := dartrie.FromKeys([]string{"a"})
	if err != nil {
		t.Fatalf("FromKeys: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, trie); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	v, err := PeekVariant(buf.Bytes()[:8])
	if err != nil {
		t.Fatalf("PeekVariant: %v", err)
	}
	if v != Reduced {
		t.Errorf("PeekVariant = %v, want %v", v, Reduced)
	}
}
