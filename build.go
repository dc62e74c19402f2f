package dartrie

import "strings"

// record is a key reduced to its raw (unmapped) characters plus a
// sentinel terminator, paired with its value. Partitioning during build
// walks these raw characters rather than mapped codes, because the
// caller's sortedness guarantee is expressed in terms of the original
// strings; codes (which may reorder characters by frequency) are only
// used once a character needs to become an array offset. This mirrors
// original_source/src/builder/freqmap.rs, whose arrange_nodes partitions
// on raw `key: Vec<u32>` and calls mapper.get only when defining a node.
type record struct {
	raw []rune
	val uint32
}

// Record is an explicit key/value pair for FromRecords.
type Record struct {
	Key   string
	Value uint32
}

// prepareRecordsOrdered validates keys (sorted, unique, non-empty, in-range
// values) and builds the records and code mapper shared by both trie
// variants' builders, with an explicit character code order (spec.md
// §4.A's documented alternative). It is the Go counterpart of crawdad's
// Builder::from_keys prologue: frequency counting, mapper construction,
// and per-key sentinel termination.
func prepareRecordsOrdered(keys []string, values []uint32, order CodeOrder) ([]record, *codeMapper, error) {
	if len(keys) != len(values) {
		panic("dartrie: keys and values length mismatch")
	}

	for i, k := range keys {
		if k == "" {
			return nil, nil, errEmptyKey(i)
		}
		if strings.ContainsRune(k, 0) {
			return nil, nil, errNulByte(i)
		}
		if i > 0 && keys[i-1] >= k {
			return nil, nil, errUnsorted(keys[i-1], k)
		}
		if values[i] > maxValue {
			return nil, nil, errValueOutOfRange(values[i], maxValue)
		}
	}

	mapper := newCodeMapperOrdered(keys, order)

	records := make([]record, len(keys))
	for i, k := range keys {
		raw := make([]rune, 0, len(k)+1)
		for _, c := range k {
			raw = append(raw, c)
		}
		raw = append(raw, 0)
		records[i] = record{raw: raw, val: values[i]}
	}
	return records, mapper, nil
}

// labelCode converts a raw partition character into its array code: the
// sentinel maps to endCode directly (the mapper was never told about it),
// anything else goes through the mapper, which is guaranteed to know it
// since it was built from these same records.
func labelCode(mapper *codeMapper, c rune) uint32 {
	if c == 0 {
		return endCode
	}
	code, ok := mapper.get(c)
	if !ok {
		panic("dartrie: character missing from mapper built from the same keys")
	}
	return code
}

// fetchLabels collects the distinct array codes of records[spos:epos) at
// depth, in ascending raw-character order (spec.md §4.C step 2). Callers
// must have already verified spos < epos.
func fetchLabels(records []record, mapper *codeMapper, spos, epos, depth int, scratch []uint32) []uint32 {
	labels := scratch[:0]
	c1 := records[spos].raw[depth]
	for i := spos + 1; i < epos; i++ {
		c2 := records[i].raw[depth]
		if c1 != c2 {
			labels = append(labels, labelCode(mapper, c1))
			c1 = c2
		}
	}
	labels = append(labels, labelCode(mapper, c1))
	return labels
}
