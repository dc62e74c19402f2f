package dartrie

import "testing"

func TestFromKeysMpExamples(t *testing.T) {
	for i, ex := range examples {
		trie, err := FromKeysMp(ex.keys)
		if err != nil {
			t.Fatalf("example %d: FromKeysMp(%v) error: %v", i, ex.keys, err)
		}
		for _, c := range ex.checks {
			value, ok := trie.ExactMatch(c.key)
			if ok != c.ok || (ok && value != c.value) {
				t.Errorf("example %d: ExactMatch(%q) = (%d, %v), want (%d, %v)", i, c.key, value, ok, c.value, c.ok)
			}
		}
	}
}

// TestThresholdOneAgreesWithReducedVariant checks spec.md §9's claim that a
// suffix threshold of 1 makes MpTrie answer every query identically to the
// reduced Trie over the same keys, differing only in internal layout.
func TestThresholdOneAgreesWithReducedVariant(t *testing.T) {
	keys := []string{"ant", "anteater", "antelope", "bee", "beetle", "cat"}

	reduced, err := FromKeys(keys)
	if err != nil {
		t.Fatalf("FromKeys: %v", err)
	}
	minimal, err := FromKeysMpThreshold(keys, 1)
	if err != nil {
		t.Fatalf("FromKeysMpThreshold: %v", err)
	}

	probes := append(append([]string{}, keys...), "an", "antel", "beetles", "", "dog")
	for _, probe := range probes {
		rv, rok := reduced.ExactMatch(probe)
		mv, mok := minimal.ExactMatch(probe)
		if rv != mv || rok != mok {
			t.Errorf("ExactMatch(%q): reduced=(%d,%v) minimal=(%d,%v)", probe, rv, rok, mv, mok)
		}
	}
}

// TestSingleKeyCollapsesWholeTrieIntoRootLink exercises spec.md §8 scenario
// 6: with a threshold below the suffix length, a single-key dictionary
// collapses into one link cell at the root, with no other cells required.
func TestSingleKeyCollapsesWholeTrieIntoRootLink(t *testing.T) {
	trie, err := FromKeysMpThreshold([]string{"abcdefgh"}, 3)
	if err != nil {
		t.Fatalf("FromKeysMpThreshold: %v", err)
	}

	value, ok := trie.ExactMatch("abcdefgh")
	if !ok || value != 0 {
		t.Fatalf("ExactMatch(%q) = (%d, %v), want (0, true)", "abcdefgh", value, ok)
	}
	if _, ok := trie.ExactMatch("abcdefgx"); ok {
		t.Error("ExactMatch of a mismatched tail unexpectedly succeeded")
	}
	if _, ok := trie.ExactMatch("abcdefg"); ok {
		t.Error("ExactMatch of a truncated tail unexpectedly succeeded")
	}
	if _, ok := trie.ExactMatch("abcdefghi"); ok {
		t.Error("ExactMatch of an over-long tail unexpectedly succeeded")
	}

	stats := trie.Stats()
	if stats.NumLinks != 1 {
		t.Errorf("NumLinks = %d, want 1", stats.NumLinks)
	}
	if stats.NumLeaves != 0 {
		t.Errorf("NumLeaves = %d, want 0", stats.NumLeaves)
	}
}

// TestSingleKeyPrefixSearchHitsRootLink is the CommonPrefixSearch
// counterpart of the above: the search must still report the collapsed key
// as a hit even though it never leaves the root cell.
func TestSingleKeyPrefixSearchHitsRootLink(t *testing.T) {
	trie, err := FromKeysMpThreshold([]string{"abcdefgh"}, 3)
	if err != nil {
		t.Fatalf("FromKeysMpThreshold: %v", err)
	}

	end, value, ok := trie.CommonPrefixSearch("abcdefghijk", 0).Next()
	if !ok {
		t.Fatal("expected a hit for the collapsed root link")
	}
	if end != len("abcdefgh") || value != 0 {
		t.Errorf("got (%d, %d), want (%d, 0)", end, value, len("abcdefgh"))
	}

	if _, _, ok := trie.CommonPrefixSearch("abcdefgX", 0).Next(); ok {
		t.Error("expected no hit when the tail mismatches")
	}
}

func TestCommonPrefixSearchMp(t *testing.T) {
	trie, err := FromRecordsMpThreshold([]Record{{"a", 10}, {"ab", 20}, {"abcdefgh", 30}}, 2)
	if err != nil {
		t.Fatalf("FromRecordsMpThreshold: %v", err)
	}

	type hit struct {
		end   int
		value uint32
	}
	var got []hit
	it := trie.CommonPrefixSearch("abcdefghi", 0)
	for {
		end, value, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, hit{end, value})
	}

	want := []hit{{1, 10}, {2, 20}, {8, 30}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFromKeysMpRejectsUnsortedInput(t *testing.T) {
	if _, err := FromKeysMp([]string{"b", "a"}); err == nil {
		t.Error("expected an error for unsorted keys")
	}
}

func TestMpTrieStatsAndHeapBytes(t *testing.T) {
	trie, err := FromKeysMpThreshold([]string{"apple", "application", "apply"}, 2)
	if err != nil {
		t.Fatalf("FromKeysMpThreshold: %v", err)
	}
	stats := trie.Stats()
	if stats.NumCells == 0 {
		t.Error("expected a non-empty cell array")
	}
	if trie.HeapBytes() <= 0 {
		t.Error("HeapBytes should be positive")
	}
	if lf := stats.LoadFactor(); lf <= 0 || lf > 1 {
		t.Errorf("LoadFactor = %v, want in (0, 1]", lf)
	}
}
