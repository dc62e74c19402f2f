package dartrie

// MpTrie is the minimal-prefix variant (component F): a subtree that has
// collapsed to a single remaining key is not spelled out cell by cell when
// its suffix is long. Instead the suffix's code units, plus the key's
// value, are appended to a packed tail store and the subtree's root cell
// becomes a link pointing at that tail. This trades one extra comparison
// pass at query time for a smaller cell array when keys share short
// prefixes but diverge into long tails (spec.md §4.F).
//
// MpTrie shares no base type with Trie; the two are independent concrete
// types with parallel query APIs, per spec.md §9's "no dynamic dispatch"
// note.
type MpTrie struct {
	cells     []cell
	mapper    *codeMapper
	tails     []byte
	codeSize  byte
	valueSize byte
	numKeys   uint32
	maxValue  uint32
	threshold uint32
	occupied  uint32
	numLeaves uint32
	numLinks  uint32
}

// DefaultSuffixThreshold is the minimum remaining-suffix length, in code
// units, at which a single-key subtree collapses into a tail link. This is
// the default named in spec.md §9's Open Question (b): "collapse whenever a
// subtree becomes single-key with suffix length >= 1."
const DefaultSuffixThreshold = 1

// FromKeysMp builds an MpTrie over sorted, unique, non-empty keys with the
// default suffix threshold, assigning values 0, 1, 2, ... in input order.
func FromKeysMp(keys []string) (*MpTrie, error) {
	return FromKeysMpThreshold(keys, DefaultSuffixThreshold)
}

// FromKeysMpThreshold is FromKeysMp with an explicit suffix-collapse
// threshold (spec.md §4.F's tuning knob).
func FromKeysMpThreshold(keys []string, threshold int) (*MpTrie, error) {
	values := make([]uint32, len(keys))
	for i := range values {
		values[i] = uint32(i)
	}
	return FromRecordsMpThreshold(recordsFromKeysValues(keys, values), threshold)
}

// FromKeysMpOrdered is FromKeysMpThreshold with an explicit character code
// order (spec.md §4.A).
func FromKeysMpOrdered(keys []string, threshold int, order CodeOrder) (*MpTrie, error) {
	values := make([]uint32, len(keys))
	for i := range values {
		values[i] = uint32(i)
	}
	return FromRecordsMpOrdered(recordsFromKeysValues(keys, values), threshold, order)
}

// FromRecordsMp builds an MpTrie from explicit (key, value) pairs with the
// default suffix threshold. Records must be sorted ascending by key, with
// unique, non-empty keys and values that fit the reserved width.
func FromRecordsMp(records []Record) (*MpTrie, error) {
	return FromRecordsMpThreshold(records, DefaultSuffixThreshold)
}

// FromRecordsMpThreshold is FromRecordsMp with an explicit suffix-collapse
// threshold.
func FromRecordsMpThreshold(records []Record, threshold int) (*MpTrie, error) {
	return FromRecordsMpOrdered(records, threshold, FrequencyOrder)
}

// FromRecordsMpOrdered is FromRecordsMpThreshold with an explicit
// character code order (spec.md §4.A).
func FromRecordsMpOrdered(records []Record, threshold int, order CodeOrder) (*MpTrie, error) {
	if threshold < 1 {
		threshold = 1
	}

	keys := make([]string, len(records))
	values := make([]uint32, len(records))
	maxValue := uint32(0)
	for i, r := range records {
		keys[i] = r.Key
		values[i] = r.Value
		if r.Value > maxValue {
			maxValue = r.Value
		}
	}

	recs, mapper, err := prepareRecordsOrdered(keys, values, order)
	if err != nil {
		return nil, err
	}

	b := &mpBuilder{
		array:     newArray(mapper.alphabetSize()),
		mapper:    mapper,
		threshold: threshold,
		codeSize:  packSize(uint32(mapper.alphabetSize())),
		valueSize: packSize(maxValue),
	}
	if err := b.arrangeNodes(recs, 0, len(recs), 0, 0); err != nil {
		return nil, err
	}
	b.finish()

	return &MpTrie{
		cells:     b.cells,
		mapper:    mapper,
		tails:     b.tails,
		codeSize:  b.codeSize,
		valueSize: b.valueSize,
		numKeys:   uint32(len(records)),
		maxValue:  maxValue,
		threshold: uint32(threshold),
		occupied:  b.occupied,
		numLeaves: b.numLeaves,
		numLinks:  b.numLinks,
	}, nil
}

// mpBuilder is the minimal-prefix variant's node builder (spec.md §4.C's
// policy step, specialized): it embeds the same free-slot array used by
// Trie's builder (component B/C are shared algorithmic machinery) but, on
// reaching a single-key partition with a sufficiently long suffix, emits a
// tail-store link instead of recursing cell by cell.
type mpBuilder struct {
	*array
	mapper    *codeMapper
	threshold int
	tails     []byte
	codeSize  byte
	valueSize byte
	numLeaves uint32
	numLinks  uint32
}

// arrangeNodes mirrors trieBuilder.arrangeNodes, adding the single-key
// collapse test spec.md §4.C step 6 and §4.F describe. depth counts raw
// elements already consumed to reach idx, including the trailing sentinel
// once it has been consumed as an edge: depth == len(raw) means idx was
// reached via the record's sentinel edge and is a plain leaf, exactly like
// the reduced variant. Otherwise, a singleton partition whose remaining
// suffix (raw[depth:len(raw)-1], i.e. excluding the not-yet-consumed
// sentinel) is at least threshold code units long collapses into a tail
// link instead of being spelled out as a chain of cells.
func (b *mpBuilder) arrangeNodes(records []record, spos, epos, depth int, idx uint32) error {
	if epos-spos == 1 {
		raw := records[spos].raw
		if depth == len(raw) {
			b.cells[idx].base = records[spos].val | ^offsetMask
			b.numLeaves++
			return nil
		}
		suffixLen := len(raw) - depth - 1 // excludes the not-yet-consumed sentinel
		if suffixLen >= b.threshold {
			tailPos := b.appendTail(raw[depth:depth+suffixLen], records[spos].val)
			b.cells[idx].base = tailPos | ^offsetMask
			b.cells[idx].check |= ^offsetMask
			b.numLinks++
			return nil
		}
	}

	labels := fetchLabels(records, b.mapper, spos, epos, depth, b.labels)
	b.labels = labels
	base, err := b.defineNode(idx, labels)
	if err != nil {
		return err
	}

	i1 := spos
	c1 := records[i1].raw[depth]
	for i2 := spos + 1; i2 < epos; i2++ {
		c2 := records[i2].raw[depth]
		if c1 != c2 {
			childIdx := base ^ labelCode(b.mapper, c1)
			if err := b.arrangeNodes(records, i1, i2, depth+1, childIdx); err != nil {
				return err
			}
			i1 = i2
			c1 = c2
		}
	}
	childIdx := base ^ labelCode(b.mapper, c1)
	return b.arrangeNodes(records, i1, epos, depth+1, childIdx)
}

// appendTail packs raw's code units (mapped from their raw runes), a
// length prefix, and value into the tail store, per spec.md §4.F: "code
// units of suffix, terminated by the sentinel 0, immediately followed by
// the packed value." A 2-byte length prefix stands in for spec.md's literal
// sentinel terminator — it is cheaper to scan and, unlike a single
// terminator byte, never collides with a legitimate code unit's first byte
// when codeSize > 1.
func (b *mpBuilder) appendTail(raw []rune, value uint32) uint32 {
	pos := uint32(len(b.tails))
	b.tails = packInto(b.tails, uint32(len(raw)), 2)
	for _, c := range raw {
		b.tails = packInto(b.tails, labelCode(b.mapper, c), b.codeSize)
	}
	b.tails = packInto(b.tails, value, b.valueSize)
	return pos
}

// tailLen, tailCode, and tailValue read back a tail entry written by
// appendTail.
func (t *MpTrie) tailLen(pos uint32) int {
	return int(unpackFrom(t.tails[pos:], 2))
}

func (t *MpTrie) tailCode(pos uint32, i int) uint32 {
	off := pos + 2 + uint32(i)*uint32(t.codeSize)
	return unpackFrom(t.tails[off:], t.codeSize)
}

func (t *MpTrie) tailValue(pos uint32, n int) uint32 {
	off := pos + 2 + uint32(n)*uint32(t.codeSize)
	return unpackFrom(t.tails[off:], t.valueSize)
}

// childID mirrors Trie.childID: base(idx)^code, confirmed by check.
func (t *MpTrie) childID(idx uint32, code uint32) (uint32, bool) {
	if t.cells[idx].isLeaf() {
		return 0, false
	}
	child := t.cells[idx].getBase() ^ code
	if int(child) >= len(t.cells) || t.cells[child].getCheck() != idx {
		return 0, false
	}
	return child, true
}

// matchTail compares a tail entry against the code units decoded from the
// remainder of key, returning the stored value only if the tail matches
// exactly to its end and key is simultaneously exhausted (spec.md §4.F).
func (t *MpTrie) matchTail(pos uint32, key string, at int) (value uint32, ok bool) {
	n := t.tailLen(pos)
	for i := 0; i < n; i++ {
		if at >= len(key) {
			return 0, false
		}
		c, size := decodeRune(key[at:])
		code, known := t.mapper.get(c)
		if !known || code != t.tailCode(pos, i) {
			return 0, false
		}
		at += size
	}
	if at != len(key) {
		return 0, false
	}
	return t.tailValue(pos, n), true
}

// ExactMatch looks up key and reports whether it is present (spec.md
// §4.E/§4.F). Unknown characters, unmatched edges, absent keys, and
// mismatched tails all collapse to ok == false.
func (t *MpTrie) ExactMatch(key string) (value uint32, ok bool) {
	idx := uint32(0)
	pos := 0
	for pos < len(key) {
		if t.cells[idx].isLeaf() {
			if !t.cells[idx].isLink() {
				return 0, false
			}
			return t.matchTail(t.cells[idx].getBase(), key, pos)
		}

		c, size := decodeRune(key[pos:])
		code, known := t.mapper.get(c)
		if !known {
			return 0, false
		}
		child, matched := t.childID(idx, code)
		if !matched {
			return 0, false
		}
		idx = child
		pos += size
	}

	if t.cells[idx].isLeaf() {
		if t.cells[idx].isLink() {
			return t.matchTail(t.cells[idx].getBase(), key, pos)
		}
		return 0, false
	}
	leaf, matched := t.childID(idx, endCode)
	if !matched || !t.cells[leaf].isLeaf() || t.cells[leaf].isLink() {
		return 0, false
	}
	return t.cells[leaf].getBase(), true
}

// CommonPrefixSearch returns a lazy, single-pass, non-restartable sequence
// of (byteEnd, value) pairs for every dictionary key that is a prefix of
// text[start:] (spec.md §4.E/§4.F). A link cell contributes at most one
// emission, exactly when its tail fully matches a prefix of the remaining
// text. Call Next until ok is false.
func (t *MpTrie) CommonPrefixSearch(text string, start int) *MpPrefixSearch {
	return &MpPrefixSearch{trie: t, text: text, pos: start}
}

// MpPrefixSearch is the iterator returned by MpTrie.CommonPrefixSearch.
type MpPrefixSearch struct {
	trie *MpTrie
	text string
	pos  int
	idx  uint32
	done bool
}

// Next advances the search and reports the next hit, in strictly
// increasing end-offset order, or ok == false once the text, the dictionary
// edges, the alphabet, or a tail comparison is exhausted.
func (p *MpPrefixSearch) Next() (end int, value uint32, ok bool) {
	if p.done {
		return 0, 0, false
	}
	// A single-key dictionary can collapse all the way to the root (spec.md
	// §8 scenario 6), so the very first cell visited may already be a link.
	if p.trie.cells[p.idx].isLeaf() {
		p.done = true
		return p.trie.linkHit(p.idx, p.text, p.pos)
	}
	for p.pos < len(p.text) {
		c, size := decodeRune(p.text[p.pos:])
		code, known := p.trie.mapper.get(c)
		if !known {
			p.done = true
			return 0, 0, false
		}
		child, matched := p.trie.childID(p.idx, code)
		if !matched {
			p.done = true
			return 0, 0, false
		}
		p.idx = child
		p.pos += size

		if p.trie.cells[p.idx].isLeaf() {
			p.done = true
			return p.trie.linkHit(p.idx, p.text, p.pos)
		}
		if leaf, hasLeaf := p.trie.childID(p.idx, endCode); hasLeaf && p.trie.cells[leaf].isLeaf() && !p.trie.cells[leaf].isLink() {
			return p.pos, p.trie.cells[leaf].getBase(), true
		}
	}
	p.done = true
	return 0, 0, false
}

// linkHit resolves a terminal cell reached mid-search into a hit, or no hit
// if it is a plain leaf (already reported via the endCode branch above) or
// its tail does not match the text at pos.
func (t *MpTrie) linkHit(idx uint32, text string, pos int) (end int, value uint32, ok bool) {
	if !t.cells[idx].isLink() {
		return 0, 0, false
	}
	v, matched := t.matchTailPrefix(t.cells[idx].getBase(), text, pos)
	if !matched {
		return 0, 0, false
	}
	return v.end, v.value, true
}

type tailPrefixHit struct {
	end   int
	value uint32
}

// matchTailPrefix is matchTail's common-prefix-search counterpart: the
// tail must match a prefix of text[at:], but text may continue beyond it
// (unlike exact match, which requires text to end exactly there).
func (t *MpTrie) matchTailPrefix(pos uint32, text string, at int) (tailPrefixHit, bool) {
	n := t.tailLen(pos)
	for i := 0; i < n; i++ {
		if at >= len(text) {
			return tailPrefixHit{}, false
		}
		c, size := decodeRune(text[at:])
		code, known := t.mapper.get(c)
		if !known || code != t.tailCode(pos, i) {
			return tailPrefixHit{}, false
		}
		at += size
	}
	return tailPrefixHit{end: at, value: t.tailValue(pos, n)}, true
}

// HeapBytes reports the approximate heap usage of the built trie (spec.md
// §6, §4.G), including the tail store.
func (t *MpTrie) HeapBytes() int {
	return t.mapper.heapBytes() + len(t.cells)*cellSize + len(t.tails)
}

// Stats reports build-time statistics in constant time, reading counters
// cached during the build rather than rescanning the cell array (component
// G, spec.md §4.G).
func (t *MpTrie) Stats() Stats {
	return Stats{
		NumCells:    len(t.cells),
		NumOccupied: int(t.occupied),
		NumLeaves:   int(t.numLeaves),
		NumLinks:    int(t.numLinks),
		TailBytes:   len(t.tails),
		HeapBytes:   t.HeapBytes(),
	}
}

// Threshold reports the suffix-collapse threshold this trie was built with.
func (t *MpTrie) Threshold() int {
	return int(t.threshold)
}
