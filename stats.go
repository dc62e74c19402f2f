package dartrie

// Stats reports build-time statistics in constant time from cached
// counters (component G, spec.md §4.G): cell counts, leaves, links, tail
// bytes, and load factor.
type Stats struct {
	NumCells    int
	NumOccupied int
	NumLeaves   int
	NumLinks    int
	TailBytes   int
	HeapBytes   int
}

// LoadFactor is occupied/total, the fraction of the array actually in use.
func (s Stats) LoadFactor() float64 {
	if s.NumCells == 0 {
		return 0
	}
	return float64(s.NumOccupied) / float64(s.NumCells)
}
