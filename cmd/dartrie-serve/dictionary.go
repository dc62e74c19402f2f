package main

import "github.com/dartrie/dartrie"

// hit is one common-prefix-search match, serialized straight to JSON.
type hit struct {
	End   int    `json:"end"`
	Value uint32 `json:"value"`
}

// dictionary erases the difference between the reduced and minimal-prefix
// variants for the handlers below. dartrie itself keeps Trie and MpTrie as
// independent concrete types with no shared base; this interface lives
// only at the HTTP boundary, where serving a named dictionary regardless of
// its on-disk shape is exactly what triemux.Mux does for routes of
// different handler types.
type dictionary interface {
	ExactMatch(key string) (uint32, bool)
	CommonPrefixHits(text string) []hit
	Stats() dartrie.Stats
}

type reducedDict struct{ t *dartrie.Trie }

func (d reducedDict) ExactMatch(key string) (uint32, bool) { return d.t.ExactMatch(key) }

func (d reducedDict) CommonPrefixHits(text string) []hit {
	var hits []hit
	s := d.t.CommonPrefixSearch(text, 0)
	for {
		end, value, ok := s.Next()
		if !ok {
			break
		}
		hits = append(hits, hit{End: end, Value: value})
	}
	return hits
}

func (d reducedDict) Stats() dartrie.Stats { return d.t.Stats() }

type mpDict struct{ t *dartrie.MpTrie }

func (d mpDict) ExactMatch(key string) (uint32, bool) { return d.t.ExactMatch(key) }

func (d mpDict) CommonPrefixHits(text string) []hit {
	var hits []hit
	s := d.t.CommonPrefixSearch(text, 0)
	for {
		end, value, ok := s.Next()
		if !ok {
			break
		}
		hits = append(hits, hit{End: end, Value: value})
	}
	return hits
}

func (d mpDict) Stats() dartrie.Stats { return d.t.Stats() }
