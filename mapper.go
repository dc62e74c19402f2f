package dartrie

import "sort"

// endCode is the reserved code unit meaning "end of key". No character is
// ever assigned this code.
const endCode uint32 = 0

// codeMapper is the character-wise code-to-character table (component A).
// It is sparse (a hashed lookup keyed by rune) rather than a dense array
// over the whole Unicode range, so that CJK alphabets of a few thousand
// characters stay compact, per spec.md §4.A.
type codeMapper struct {
	toCode map[rune]uint32
	toChar []rune // toChar[code] is the character for code; index 0 unused
}

// newCodeMapper assigns codes 1..K to the characters in freqs, ordered by
// descending frequency (ties broken by rune value for determinism). This
// packs the hottest edges near small code values, which in turn keeps the
// bases the builder tries first small and cache-local — see spec.md §9,
// Open Question (a).
func newCodeMapper(freqs map[rune]uint32) *codeMapper {
	type entry struct {
		c rune
		f uint32
	}
	entries := make([]entry, 0, len(freqs))
	for c, f := range freqs {
		entries = append(entries, entry{c, f})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].f != entries[j].f {
			return entries[i].f > entries[j].f
		}
		return entries[i].c < entries[j].c
	})

	m := &codeMapper{
		toCode: make(map[rune]uint32, len(entries)),
		toChar: make([]rune, len(entries)+1),
	}
	for i, e := range entries {
		code := uint32(i + 1)
		m.toCode[e.c] = code
		m.toChar[code] = e.c
	}
	return m
}

// CodeOrder selects how a codeMapper assigns code units to characters.
type CodeOrder int

const (
	// FrequencyOrder assigns low code values to the most frequent
	// characters first, keeping hot edges cache-local in the array
	// (spec.md §9, Open Question (a)). This is the default.
	FrequencyOrder CodeOrder = iota

	// InsertionOrder assigns code values in first-seen order across the
	// sorted key set instead, the alternative spec.md §4.A documents:
	// deterministic without a frequency pass, at the cost of not
	// favoring hot characters.
	InsertionOrder
)

func newCodeMapperOrdered(keys []string, order CodeOrder) *codeMapper {
	if order == InsertionOrder {
		return newCodeMapperInsertion(keys)
	}
	return newCodeMapper(charFreqs(keys))
}

func newCodeMapperInsertion(keys []string) *codeMapper {
	m := &codeMapper{toCode: make(map[rune]uint32), toChar: []rune{0}}
	for _, k := range keys {
		for _, c := range k {
			if _, ok := m.toCode[c]; ok {
				continue
			}
			m.toCode[c] = uint32(len(m.toChar))
			m.toChar = append(m.toChar, c)
		}
	}
	return m
}

// get maps a character to its code unit. ok is false when c never appeared
// in the key set the mapper was built from, in which case the caller
// should treat the lookup as "not found" immediately per spec.md §4.A.
func (m *codeMapper) get(c rune) (code uint32, ok bool) {
	code, ok = m.toCode[c]
	return
}

// alphabetSize returns the number of distinct non-sentinel characters.
func (m *codeMapper) alphabetSize() int {
	return len(m.toChar) - 1
}

func (m *codeMapper) heapBytes() int {
	// map overhead is implementation-defined; approximate with key+value
	// sizes for both directions, which is what callers use this for:
	// relative tuning feedback, not an exact allocator accounting.
	const runeSize = 4
	const codeSize = 4
	return len(m.toCode)*(runeSize+codeSize) + len(m.toChar)*runeSize
}

// charFreqs scans a sorted key set and counts character occurrences, the
// input newCodeMapper expects.
func charFreqs(keys []string) map[rune]uint32 {
	freqs := make(map[rune]uint32)
	for _, k := range keys {
		for _, c := range k {
			freqs[c]++
		}
	}
	return freqs
}
