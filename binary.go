package dartrie

import "encoding/binary"

// MarshalBinary and UnmarshalBinary give Trie and MpTrie the wire form that
// package serialize wraps in a container header (spec.md §3.1, §6). The
// codec lives here rather than in serialize because it touches the
// unexported mapper and cell fields; serialize only knows the container
// framing around it. This mirrors kumarlokesh-sysd's
// cassandra-sstable/internal/trie/serialization.go, which keeps its own
// Serialize/Deserialize next to the node type it encodes rather than in a
// separate package, header-then-length-prefixed-sections, encoding/binary
// throughout.
//
// Layout (little-endian): mapper table, cell array, then (MpTrie only) the
// tail store and its code/value widths. A 24-byte trailer of build
// metadata follows: key count, max value, suffix threshold (MpTrie only,
// else 0), and the occupied/leaf/link counters Stats (component G) reports
// — persisted rather than recomputed, so a deserialized trie answers
// Stats() identically to the one that was serialized, not just ExactMatch
// and CommonPrefixSearch.

func (t *Trie) MarshalBinary() ([]byte, error) {
	buf := marshalMapper(t.mapper)
	buf = marshalCells(buf, t.cells)
	buf = binary.LittleEndian.AppendUint32(buf, t.numKeys)
	buf = binary.LittleEndian.AppendUint32(buf, t.maxValue)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // no threshold for the reduced variant
	buf = binary.LittleEndian.AppendUint32(buf, t.occupied)
	buf = binary.LittleEndian.AppendUint32(buf, t.numLeaves)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // no link cells in the reduced variant
	return buf, nil
}

// UnmarshalBinary decodes a payload written by MarshalBinary into t, which
// must be the zero value.
func (t *Trie) UnmarshalBinary(data []byte) error {
	mapper, rest, err := unmarshalMapper(data)
	if err != nil {
		return err
	}
	cells, rest, err := unmarshalCells(rest)
	if err != nil {
		return err
	}
	trailer, err := unmarshalTrailer(rest)
	if err != nil {
		return err
	}

	t.mapper = mapper
	t.cells = cells
	t.numKeys = trailer.numKeys
	t.maxValue = trailer.maxValue
	t.occupied = trailer.occupied
	t.numLeaves = trailer.numLeaves
	return nil
}

func (t *MpTrie) MarshalBinary() ([]byte, error) {
	buf := marshalMapper(t.mapper)
	buf = marshalCells(buf, t.cells)
	buf = append(buf, t.codeSize, t.valueSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.tails)))
	buf = append(buf, t.tails...)
	buf = binary.LittleEndian.AppendUint32(buf, t.numKeys)
	buf = binary.LittleEndian.AppendUint32(buf, t.maxValue)
	buf = binary.LittleEndian.AppendUint32(buf, t.threshold)
	buf = binary.LittleEndian.AppendUint32(buf, t.occupied)
	buf = binary.LittleEndian.AppendUint32(buf, t.numLeaves)
	buf = binary.LittleEndian.AppendUint32(buf, t.numLinks)
	return buf, nil
}

// UnmarshalBinary decodes a payload written by MarshalBinary into t, which
// must be the zero value.
func (t *MpTrie) UnmarshalBinary(data []byte) error {
	mapper, rest, err := unmarshalMapper(data)
	if err != nil {
		return err
	}
	cells, rest, err := unmarshalCells(rest)
	if err != nil {
		return err
	}
	if len(rest) < 6 {
		return errMalformed("truncated minimal-prefix tail header")
	}
	codeSize, valueSize := rest[0], rest[1]
	tailsLen := binary.LittleEndian.Uint32(rest[2:6])
	rest = rest[6:]
	if uint64(len(rest)) < uint64(tailsLen) {
		return errMalformed("truncated tail store")
	}
	tails := append([]byte(nil), rest[:tailsLen]...)
	rest = rest[tailsLen:]

	trailer, err := unmarshalTrailer(rest)
	if err != nil {
		return err
	}

	t.mapper = mapper
	t.cells = cells
	t.codeSize = codeSize
	t.valueSize = valueSize
	t.tails = tails
	t.numKeys = trailer.numKeys
	t.maxValue = trailer.maxValue
	t.threshold = trailer.threshold
	t.occupied = trailer.occupied
	t.numLeaves = trailer.numLeaves
	t.numLinks = trailer.numLinks
	return nil
}

func marshalMapper(m *codeMapper) []byte {
	k := m.alphabetSize()
	buf := make([]byte, 0, 4+4*k)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(k))
	for code := 1; code <= k; code++ {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.toChar[code]))
	}
	return buf
}

func unmarshalMapper(data []byte) (*codeMapper, []byte, error) {
	if len(data) < 4 {
		return nil, nil, errMalformed("truncated mapper section")
	}
	k := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(k)*4 {
		return nil, nil, errMalformed("truncated mapper table")
	}

	toChar := make([]rune, k+1)
	toCode := make(map[rune]uint32, k)
	for code := uint32(1); code <= k; code++ {
		r := rune(binary.LittleEndian.Uint32(data))
		data = data[4:]
		toChar[code] = r
		toCode[r] = code
	}
	return &codeMapper{toCode: toCode, toChar: toChar}, data, nil
}

func marshalCells(buf []byte, cells []cell) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(cells)))
	for _, c := range cells {
		buf = binary.LittleEndian.AppendUint32(buf, c.base)
		buf = binary.LittleEndian.AppendUint32(buf, c.check)
	}
	return buf
}

func unmarshalCells(data []byte) ([]cell, []byte, error) {
	if len(data) < 4 {
		return nil, nil, errMalformed("truncated cell section")
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(n)*8 {
		return nil, nil, errMalformed("truncated cell array")
	}

	cells := make([]cell, n)
	for i := range cells {
		cells[i].base = binary.LittleEndian.Uint32(data)
		cells[i].check = binary.LittleEndian.Uint32(data[4:])
		data = data[8:]
	}
	return cells, data, nil
}

// trailer is the build metadata following the cell array (and, for MpTrie,
// the tail store): key count, max value, suffix threshold, and the
// Stats (component G) counters, persisted so a deserialized trie's Stats()
// matches the original without rescanning the cell array.
type trailer struct {
	numKeys, maxValue, threshold uint32
	occupied, numLeaves, numLinks uint32
}

func unmarshalTrailer(data []byte) (trailer, error) {
	if len(data) < 24 {
		return trailer{}, errMalformed("truncated trailer")
	}
	return trailer{
		numKeys:   binary.LittleEndian.Uint32(data[0:4]),
		maxValue:  binary.LittleEndian.Uint32(data[4:8]),
		threshold: binary.LittleEndian.Uint32(data[8:12]),
		occupied:  binary.LittleEndian.Uint32(data[12:16]),
		numLeaves: binary.LittleEndian.Uint32(data[16:20]),
		numLinks:  binary.LittleEndian.Uint32(data[20:24]),
	}, nil
}
