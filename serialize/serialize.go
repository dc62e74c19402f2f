// Package serialize wraps a built Trie or MpTrie in the container format
// spec.md §6 calls "compact serialization... round-trips": an 8-byte
// header (magic, format version, variant tag, a reserved byte) followed by
// the trie's own binary payload (spec.md §3.1). It is the format the
// dartrie-write CLI writes to disk and the one store.Store persists as a
// bytea column.
package serialize

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dartrie/dartrie"
)

const (
	magic         = "DART"
	formatVersion = uint16(1)

	variantReduced byte = 0
	variantMinimal byte = 1
)

// Variant names which trie shape a container holds.
type Variant byte

const (
	Reduced Variant = Variant(variantReduced)
	Minimal Variant = Variant(variantMinimal)
)

func (v Variant) String() string {
	switch v {
	case Reduced:
		return "reduced"
	case Minimal:
		return "minimal-prefix"
	default:
		return fmt.Sprintf("Variant(%d)", byte(v))
	}
}

type marshaler interface {
	MarshalBinary() ([]byte, error)
}

// Encode writes t's container form to w.
func Encode(w io.Writer, t *dartrie.Trie) error {
	return encode(w, variantReduced, t)
}

// EncodeMp is Encode's minimal-prefix counterpart.
func EncodeMp(w io.Writer, t *dartrie.MpTrie) error {
	return encode(w, variantMinimal, t)
}

func encode(w io.Writer, variant byte, t marshaler) error {
	payload, err := t.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serialize: marshal payload: %w", err)
	}

	header := make([]byte, 8)
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint16(header[4:6], formatVersion)
	header[6] = variant

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("serialize: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("serialize: write payload: %w", err)
	}
	return nil
}

// DecodeTrie reads a container written by Encode and rebuilds its reduced
// trie. It fails if the header is malformed or the container holds the
// minimal-prefix variant instead.
func DecodeTrie(r io.Reader) (*dartrie.Trie, error) {
	payload, err := decodeHeader(r, variantReduced)
	if err != nil {
		return nil, err
	}
	t := &dartrie.Trie{}
	if err := t.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("serialize: decode: %w", err)
	}
	return t, nil
}

// DecodeMpTrie is DecodeTrie's minimal-prefix counterpart.
func DecodeMpTrie(r io.Reader) (*dartrie.MpTrie, error) {
	payload, err := decodeHeader(r, variantMinimal)
	if err != nil {
		return nil, err
	}
	t := &dartrie.MpTrie{}
	if err := t.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("serialize: decode: %w", err)
	}
	return t, nil
}

// PeekVariant reports which variant a container holds from its first 8
// bytes (header), without decoding the rest. dartrie-serve uses it when
// loading a -dict file, whose shape isn't known ahead of time.
func PeekVariant(header []byte) (Variant, error) {
	if len(header) < 8 {
		return 0, fmt.Errorf("serialize: header too short: %d bytes: %w", len(header), dartrie.ErrMalformed)
	}
	if string(header[0:4]) != magic {
		return 0, fmt.Errorf("serialize: bad magic %q: %w", header[0:4], dartrie.ErrMalformed)
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != formatVersion {
		return 0, fmt.Errorf("serialize: unsupported format version %d: %w", version, dartrie.ErrMalformed)
	}
	return Variant(header[6]), nil
}

func decodeHeader(r io.Reader, want byte) ([]byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("serialize: read header: %w: %w", dartrie.ErrMalformed, err)
	}
	variant, err := PeekVariant(header)
	if err != nil {
		return nil, err
	}
	if byte(variant) != want {
		return nil, fmt.Errorf("serialize: variant mismatch: container holds %s, want %s: %w", variant, Variant(want), dartrie.ErrMalformed)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("serialize: read payload: %w", err)
	}
	return payload, nil
}
